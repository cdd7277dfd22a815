// Package constraint defines the facts the engine tracks about symbolic values.
package constraint

import "fmt"

// Domain names a closed set of mutually exclusive constraints.
type Domain string

const (
	BooleanDomain  Domain = "boolean"
	NullnessDomain Domain = "nullness"
)

// Constraint is a fact from one domain attached to a symbolic value.
// Implementations must be comparable with ==.
type Constraint interface {
	Domain() Domain
	// Inverse returns the logical negation, or nil when the domain has none.
	Inverse() Constraint
	// CopyOver returns the constraint implied on the other operand of a
	// relation this value takes part in, or nil.
	CopyOver(rel Relation) Constraint
	IsValidWith(other Constraint) bool
	HasPreciseValue() bool
	ValueAsString() string
}

// Retainer is implemented by constraints that keep their value alive after
// it is no longer referenced, so that end-of-path checks can still see it.
type Retainer interface {
	Retained() bool
}

// IsRetained reports whether c asks to outlive its value's last reference.
func IsRetained(c Constraint) bool {
	r, ok := c.(Retainer)
	return ok && r.Retained()
}

// Boolean is the truth domain.
type Boolean uint8

const (
	True Boolean = iota + 1
	False
)

func (b Boolean) Domain() Domain { return BooleanDomain }

func (b Boolean) Inverse() Constraint {
	switch b {
	case True:
		return False
	case False:
		return True
	}
	return nil
}

func (b Boolean) CopyOver(rel Relation) Constraint {
	switch rel {
	case Equal, MethodEquals:
		return b
	case NotEqual:
		return b.Inverse()
	case NotMethodEquals, LessThan, GreaterOrEqual:
		return nil
	}
	return nil
}

func (b Boolean) IsValidWith(other Constraint) bool {
	o, ok := other.(Boolean)
	if !ok {
		return other == nil || other.Domain() != BooleanDomain
	}
	return o == b
}

func (b Boolean) HasPreciseValue() bool { return true }

func (b Boolean) ValueAsString() string {
	switch b {
	case True:
		return "true"
	case False:
		return "false"
	}
	return ""
}

func (b Boolean) String() string {
	switch b {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	}
	return fmt.Sprintf("Boolean(%d)", uint8(b))
}

// Nullness is the object reference domain.
type Nullness uint8

const (
	Null Nullness = iota + 1
	NotNull
)

func (n Nullness) Domain() Domain { return NullnessDomain }

func (n Nullness) Inverse() Constraint {
	switch n {
	case Null:
		return NotNull
	case NotNull:
		return Null
	}
	return nil
}

func (n Nullness) CopyOver(rel Relation) Constraint {
	switch rel {
	case Equal, MethodEquals:
		return n
	case NotEqual:
		// x != y with x null forces y non null, the converse says nothing.
		if n == Null {
			return NotNull
		}
		return nil
	case NotMethodEquals, LessThan, GreaterOrEqual:
		return nil
	}
	return nil
}

func (n Nullness) IsValidWith(other Constraint) bool {
	o, ok := other.(Nullness)
	if !ok {
		return other == nil || other.Domain() != NullnessDomain
	}
	return o == n
}

func (n Nullness) HasPreciseValue() bool { return n == Null }

func (n Nullness) ValueAsString() string {
	switch n {
	case Null:
		return "null"
	case NotNull:
		return "not null"
	}
	return ""
}

func (n Nullness) String() string {
	switch n {
	case Null:
		return "NULL"
	case NotNull:
		return "NOT_NULL"
	}
	return fmt.Sprintf("Nullness(%d)", uint8(n))
}

// Describe renders c for messages, tolerating nil.
func Describe(c Constraint) string {
	if c == nil {
		return "_"
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return c.ValueAsString()
}
