package predicate

// Op represents the comparison operation type for predicates.
type Op int

const (
	// OpEqual represents equality comparison.
	OpEqual Op = iota
	// OpNotEqual represents inequality comparison.
	OpNotEqual
	// OpGreater represents greater than comparison.
	OpGreater
	// OpLess represents less than comparison.
	OpLess
)

func (op Op) String() string {
	switch op {
	case OpEqual:
		return "Equal"
	case OpNotEqual:
		return "NotEqual"
	case OpGreater:
		return "Greater"
	case OpLess:
		return "Less"
	default:
		return "Unknown"
	}
}

// Symbol returns the comparison sign used by etcd ("=", "!=", ">", "<").
// It returns an empty string for unknown operations.
func (op Op) Symbol() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	default:
		return ""
	}
}

// Valid reports whether op is one of the known comparison operations.
func (op Op) Valid() bool {
	return op >= OpEqual && op <= OpLess
}

// ParseOp converts a comparison sign into an Op. "==" is accepted as an alias of "=".
func ParseOp(symbol string) (Op, bool) {
	switch symbol {
	case "=", "==":
		return OpEqual, true
	case "!=":
		return OpNotEqual, true
	case ">":
		return OpGreater, true
	case "<":
		return OpLess, true
	default:
		return Op(-1), false
	}
}

// Holds reports whether a comparison result (negative, zero or positive,
// as returned by bytes.Compare) satisfies the operation.
func (op Op) Holds(cmp int) bool {
	switch op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpLess:
		return cmp < 0
	default:
		return false
	}
}
