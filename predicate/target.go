package predicate

// Target represents what aspect of a key to compare in predicates.
type Target int

const (
	// TargetVersion compares the version of the key.
	TargetVersion Target = iota
	// TargetValue compares the value of the key.
	TargetValue
	// TargetCreateRevision compares the revision at which the key was created.
	TargetCreateRevision
	// TargetModRevision compares the revision of the last modification of the key.
	TargetModRevision
	// TargetLease compares the id of the lease attached to the key.
	TargetLease
)

func (t Target) String() string {
	switch t {
	case TargetVersion:
		return "Version"
	case TargetValue:
		return "Value"
	case TargetCreateRevision:
		return "CreateRevision"
	case TargetModRevision:
		return "ModRevision"
	case TargetLease:
		return "Lease"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the known targets.
func (t Target) Valid() bool {
	return t >= TargetVersion && t <= TargetLease
}

// IsNumeric reports whether the target compares an int64 rather than a byte sequence.
func (t Target) IsNumeric() bool {
	return t.Valid() && t != TargetValue
}
