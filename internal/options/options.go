// Package options implements generic functional options shared by the public packages.
package options

// OptionConstructor returns the default value of an option set.
type OptionConstructor[T any] func() T

// OptionCallback mutates an option set.
type OptionCallback[T any] func(*T)

// ApplyOptions builds an option set from its defaults and applies every callback in order.
// A nil constructor starts from the zero value; nil callbacks are skipped.
func ApplyOptions[T any](constructor OptionConstructor[T], cbs []OptionCallback[T]) T {
	var opts T

	if constructor != nil {
		opts = constructor()
	}

	for _, cb := range cbs {
		if cb != nil {
			cb(&opts)
		}
	}

	return opts
}
