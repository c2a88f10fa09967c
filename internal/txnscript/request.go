package txnscript

import (
	"strconv"
	"strings"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/operation"
)

// ParseRequest parses one request line, such as put k "v" --prev-kv.
func ParseRequest(line string) (operation.Operation, error) {
	tokens, err := Split(line)
	if err != nil {
		return operation.Operation{}, err
	}

	if len(tokens) == 0 {
		return operation.Operation{}, errdefs.InvalidArgument("empty request")
	}

	return ParseArgs(tokens[0], tokens[1:])
}

// ParseArgs builds an operation from a command (get, put or del) and its
// already split arguments:
//
//	get key [end] [--prefix] [--from-key] [--limit=N] [--rev=N] [--sort-by=TARGET] [--order=ORDER]
//	    [--keys-only] [--count-only] [--consistency=s]
//	put key value [--lease=HEXID] [--prev-kv]
//	del key [end] [--prefix] [--from-key] [--prev-kv]
func ParseArgs(command string, args []string) (operation.Operation, error) {
	var (
		positional []string
		opts       []operation.Option
		sortTarget = operation.SortByKey
		sortOrder  = operation.SortNone
		sorted     bool
	)

	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)

			continue
		}

		name, value, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")

		switch name {
		case "sort-by":
			target, err := parseSortTarget(value)
			if err != nil {
				return operation.Operation{}, err
			}

			sortTarget, sorted = target, true
		case "order":
			order, err := parseSortOrder(value)
			if err != nil {
				return operation.Operation{}, err
			}

			sortOrder, sorted = order, true
		case "consistency":
			switch value {
			case "s":
				opts = append(opts, operation.WithSerializable())
			case "l":
			default:
				return operation.Operation{}, errdefs.InvalidArgument("unknown consistency %q", value)
			}
		default:
			opt, err := parseFlag(name, value)
			if err != nil {
				return operation.Operation{}, err
			}

			opts = append(opts, opt)
		}
	}

	if sorted {
		opts = append(opts, operation.WithSort(sortTarget, sortOrder))
	}

	switch strings.ToLower(command) {
	case "get":
		return newRanged(operation.TypeGet, positional, opts)
	case "put":
		if len(positional) != 2 {
			return operation.Operation{}, errdefs.InvalidArgument("put takes a key and a value, got %d arguments",
				len(positional))
		}

		return operation.NewPut([]byte(positional[0]), []byte(positional[1]), opts...)
	case "del", "delete":
		return newRanged(operation.TypeDelete, positional, opts)
	default:
		return operation.Operation{}, errdefs.InvalidArgument("unknown request %q", command)
	}
}

func newRanged(typ operation.Type, positional []string, opts []operation.Option) (operation.Operation, error) {
	switch len(positional) {
	case 1:
	case 2: //nolint:mnd
		opts = append(opts, operation.WithRange([]byte(positional[1])))
	default:
		return operation.Operation{}, errdefs.InvalidArgument("%s takes a key and an optional range end, got %d arguments",
			typ, len(positional))
	}

	return operation.New(typ, []byte(positional[0]), nil, opts...)
}

func parseFlag(name, value string) (operation.Option, error) {
	switch name {
	case "prefix":
		return operation.WithPrefix(), nil
	case "from-key":
		return operation.WithFromKey(), nil
	case "prev-kv":
		return operation.WithPrevKV(), nil
	case "keys-only":
		return operation.WithKeysOnly(), nil
	case "count-only":
		return operation.WithCountOnly(), nil
	case "limit":
		n, err := parseInt(name, value, 10) //nolint:mnd
		if err != nil {
			return operation.Option{}, err
		}

		return operation.WithLimit(n), nil
	case "rev":
		n, err := parseInt(name, value, 10) //nolint:mnd
		if err != nil {
			return operation.Option{}, err
		}

		return operation.WithRevision(n), nil
	case "lease":
		n, err := parseInt(name, value, 16) //nolint:mnd
		if err != nil {
			return operation.Option{}, err
		}

		return operation.WithLease(n), nil
	default:
		return operation.Option{}, errdefs.InvalidArgument("unknown flag --%s", name)
	}
}

func parseInt(name, value string, base int) (int64, error) {
	n, err := strconv.ParseInt(value, base, 64)
	if err != nil {
		return 0, errdefs.InvalidArgument("--%s requires an integer, got %q", name, value)
	}

	return n, nil
}

func parseSortTarget(value string) (operation.SortTarget, error) {
	switch strings.ToUpper(value) {
	case "KEY":
		return operation.SortByKey, nil
	case "VERSION":
		return operation.SortByVersion, nil
	case "CREATE":
		return operation.SortByCreateRevision, nil
	case "MODIFY":
		return operation.SortByModRevision, nil
	case "VALUE":
		return operation.SortByValue, nil
	default:
		return 0, errdefs.InvalidArgument("unknown sort target %q", value)
	}
}

func parseSortOrder(value string) (operation.SortOrder, error) {
	switch strings.ToUpper(value) {
	case "ASCEND":
		return operation.SortAscend, nil
	case "DESCEND":
		return operation.SortDescend, nil
	default:
		return 0, errdefs.InvalidArgument("unknown sort order %q", value)
	}
}

// Split splits a line into whitespace separated tokens. Double quoted tokens
// may contain whitespace and Go escape sequences.
func Split(line string) ([]string, error) {
	var tokens []string

	rest := strings.TrimSpace(line)
	for rest != "" {
		var token string

		if rest[0] == '"' {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, errdefs.InvalidArgument("unterminated quoted string in %q", line)
			}

			token, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				end = len(rest)
			}

			token, rest = rest[:end], rest[end:]
		}

		tokens = append(tokens, token)
		rest = strings.TrimLeft(rest, " \t")
	}

	return tokens, nil
}
