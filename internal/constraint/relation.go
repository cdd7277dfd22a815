package constraint

// Relation is the kind of comparison a relational value was computed from.
// Greater-than and less-or-equal are expressed by swapping operands.
type Relation uint8

const (
	Equal Relation = iota + 1
	NotEqual
	MethodEquals
	NotMethodEquals
	LessThan
	GreaterOrEqual
)

func (r Relation) Inverse() Relation {
	switch r {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case MethodEquals:
		return NotMethodEquals
	case NotMethodEquals:
		return MethodEquals
	case LessThan:
		return GreaterOrEqual
	case GreaterOrEqual:
		return LessThan
	}
	return r
}

// Symmetric reports whether r(a, b) holds exactly when r(b, a) holds.
func (r Relation) Symmetric() bool {
	switch r {
	case Equal, NotEqual, MethodEquals, NotMethodEquals:
		return true
	}
	return false
}

// Reflexive reports whether r(a, a) is always true.
func (r Relation) Reflexive() bool {
	switch r {
	case Equal, MethodEquals, GreaterOrEqual:
		return true
	}
	return false
}

func (r Relation) String() string {
	switch r {
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case MethodEquals:
		return ".equals"
	case NotMethodEquals:
		return "!.equals"
	case LessThan:
		return "<"
	case GreaterOrEqual:
		return ">="
	}
	return "?"
}
