package state

import (
	"fmt"
	"symscanner/internal/constraint"
	"symscanner/internal/symbolic"
)

// Relation is a comparison known to hold on a path.
type Relation struct {
	Kind  constraint.Relation
	Left  symbolic.ID
	Right symbolic.ID
}

// Truth is the outcome of evaluating a relation against what a path knows.
type Truth uint8

const (
	Unknown Truth = iota
	Holds
	Fails
)

func (t Truth) String() string {
	switch t {
	case Holds:
		return "holds"
	case Fails:
		return "fails"
	}
	return "unknown"
}

func (r Relation) Inverse() Relation {
	return Relation{Kind: r.Kind.Inverse(), Left: r.Left, Right: r.Right}
}

// normalize orders the operands of symmetric relations so that equal facts
// compare equal.
func (r Relation) normalize() Relation {
	if r.Kind.Symmetric() && r.Right < r.Left {
		r.Left, r.Right = r.Right, r.Left
	}
	return r
}

func (r Relation) less(o Relation) bool {
	if r.Left != o.Left {
		return r.Left < o.Left
	}
	if r.Right != o.Right {
		return r.Right < o.Right
	}
	return r.Kind < o.Kind
}

func (r Relation) String() string {
	return fmt.Sprintf("SV_%d%sSV_%d", r.Left, r.Kind, r.Right)
}

// implies evaluates q assuming known holds.
func implies(known, q Relation) Truth {
	switch {
	case known.Left == q.Left && known.Right == q.Right:
		return impliesSameOrder(known.Kind, q.Kind)
	case known.Left == q.Right && known.Right == q.Left:
		if q.Kind.Symmetric() {
			return impliesSameOrder(known.Kind, q.Kind)
		}
		if known.Kind.Symmetric() {
			// known is symmetric, read it in q's order.
			return impliesSameOrder(known.Kind, q.Kind)
		}
		switch known.Kind {
		case constraint.LessThan:
			// a < b, so b < a fails and b >= a holds.
			switch q.Kind {
			case constraint.LessThan:
				return Fails
			case constraint.GreaterOrEqual:
				return Holds
			}
		}
	}
	return Unknown
}

func impliesSameOrder(known, q constraint.Relation) Truth {
	if known == q {
		return Holds
	}
	if known.Inverse() == q {
		return Fails
	}
	switch known {
	case constraint.Equal:
		switch q {
		case constraint.GreaterOrEqual, constraint.MethodEquals:
			return Holds
		case constraint.LessThan, constraint.NotMethodEquals:
			return Fails
		}
	case constraint.LessThan:
		switch q {
		case constraint.NotEqual, constraint.NotMethodEquals:
			return Holds
		case constraint.Equal, constraint.MethodEquals:
			return Fails
		}
	case constraint.NotMethodEquals:
		switch q {
		case constraint.NotEqual:
			return Holds
		case constraint.Equal:
			return Fails
		}
	}
	return Unknown
}
