package operation

// SortTarget selects the field Get results are ordered by.
type SortTarget int

const (
	// SortByKey orders results by key.
	SortByKey SortTarget = iota
	// SortByVersion orders results by version.
	SortByVersion
	// SortByCreateRevision orders results by creation revision.
	SortByCreateRevision
	// SortByModRevision orders results by modification revision.
	SortByModRevision
	// SortByValue orders results by value.
	SortByValue
)

func (t SortTarget) String() string {
	switch t {
	case SortByKey:
		return "Key"
	case SortByVersion:
		return "Version"
	case SortByCreateRevision:
		return "CreateRevision"
	case SortByModRevision:
		return "ModRevision"
	case SortByValue:
		return "Value"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the known sort targets.
func (t SortTarget) Valid() bool {
	return t >= SortByKey && t <= SortByValue
}

// SortOrder selects the direction Get results are ordered in.
type SortOrder int

const (
	// SortNone keeps the natural key order.
	SortNone SortOrder = iota
	// SortAscend orders results in ascending order.
	SortAscend
	// SortDescend orders results in descending order.
	SortDescend
)

func (o SortOrder) String() string {
	switch o {
	case SortNone:
		return "None"
	case SortAscend:
		return "Ascend"
	case SortDescend:
		return "Descend"
	default:
		return "Unknown"
	}
}

// Valid reports whether o is one of the known sort orders.
func (o SortOrder) Valid() bool {
	return o >= SortNone && o <= SortDescend
}
