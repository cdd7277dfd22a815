package state

import (
	"symscanner/internal/constraint"
	"symscanner/internal/symbolic"
)

// SetConstraint learns c about v and everything that follows from it. It
// returns every feasible resulting state: none when c contradicts the path,
// several when a logical value splits into alternatives.
func SetConstraint(arena *symbolic.Arena, ps *ProgramState, v symbolic.ID, c constraint.Constraint) []*ProgramState {
	if existing := ps.Constraint(v, c.Domain()); existing != nil {
		if existing.IsValidWith(c) && c.IsValidWith(existing) {
			return []*ProgramState{ps}
		}
		return nil
	}
	next, ok := ps.AddConstraint(v, c)
	if !ok {
		return nil
	}

	record := arena.Record(v)
	b, isBool := c.(constraint.Boolean)
	if !isBool {
		return propagateThroughRelations(arena, next, v, c)
	}
	switch record.Kind {
	case symbolic.KindRelational:
		return learnRelation(arena, next, record, b)
	case symbolic.KindNot:
		return SetConstraint(arena, next, record.Operand(0), b.Inverse())
	case symbolic.KindAnd, symbolic.KindOr, symbolic.KindXor:
		return learnLogical(arena, next, record, b)
	}
	return propagateThroughRelations(arena, next, v, c)
}

type assignment struct {
	left, right constraint.Boolean
	// single means only the left operand is constrained.
	single bool
}

func learnLogical(arena *symbolic.Arena, ps *ProgramState, record symbolic.Record, b constraint.Boolean) []*ProgramState {
	t, f := constraint.True, constraint.False
	var alternatives []assignment
	switch record.Kind {
	case symbolic.KindAnd:
		if b == t {
			alternatives = []assignment{{left: t, right: t}}
		} else {
			alternatives = []assignment{{left: f, single: true}, {left: t, right: f}}
		}
	case symbolic.KindOr:
		if b == f {
			alternatives = []assignment{{left: f, right: f}}
		} else {
			alternatives = []assignment{{left: t, single: true}, {left: f, right: t}}
		}
	case symbolic.KindXor:
		if b == t {
			alternatives = []assignment{{left: t, right: f}, {left: f, right: t}}
		} else {
			alternatives = []assignment{{left: t, right: t}, {left: f, right: f}}
		}
	}
	var result []*ProgramState
	for _, a := range alternatives {
		states := SetConstraint(arena, ps, record.Operand(0), a.left)
		if !a.single {
			states = setOnEach(arena, states, record.Operand(1), a.right)
		}
		result = appendDistinct(result, states...)
	}
	return result
}

func learnRelation(arena *symbolic.Arena, ps *ProgramState, record symbolic.Record, b constraint.Boolean) []*ProgramState {
	rel := Relation{Kind: record.Relation, Left: record.Operand(0), Right: record.Operand(1)}
	if b == constraint.False {
		rel = rel.Inverse()
	}
	switch Evaluate(ps, rel) {
	case Fails:
		return nil
	case Holds:
		return []*ProgramState{ps}
	}
	ps = ps.withRelation(rel)
	states := copyConstraints(arena, ps, rel.Left, rel.Right, rel.Kind)
	var result []*ProgramState
	for _, s := range states {
		result = appendDistinct(result, copyConstraints(arena, s, rel.Right, rel.Left, rel.Kind)...)
	}
	return result
}

// copyConstraints pushes the constraints of from onto to across kind.
func copyConstraints(arena *symbolic.Arena, ps *ProgramState, from, to symbolic.ID, kind constraint.Relation) []*ProgramState {
	states := []*ProgramState{ps}
	for _, c := range ps.Constraints(from) {
		copied := c.CopyOver(kind)
		if copied == nil {
			continue
		}
		states = setOnEach(arena, states, to, copied)
		if len(states) == 0 {
			return nil
		}
	}
	return states
}

// propagateThroughRelations copies a newly learned constraint to the other
// side of every symmetric relation v takes part in.
func propagateThroughRelations(arena *symbolic.Arena, ps *ProgramState, v symbolic.ID, c constraint.Constraint) []*ProgramState {
	states := []*ProgramState{ps}
	for _, r := range ps.relations {
		if !r.Kind.Symmetric() {
			continue
		}
		other := symbolic.None
		switch v {
		case r.Left:
			other = r.Right
		case r.Right:
			other = r.Left
		}
		if other == symbolic.None || other == v {
			continue
		}
		copied := c.CopyOver(r.Kind)
		if copied == nil {
			continue
		}
		states = setOnEach(arena, states, other, copied)
		if len(states) == 0 {
			return nil
		}
	}
	return states
}

func setOnEach(arena *symbolic.Arena, states []*ProgramState, v symbolic.ID, c constraint.Constraint) []*ProgramState {
	var result []*ProgramState
	for _, s := range states {
		result = appendDistinct(result, SetConstraint(arena, s, v, c)...)
	}
	return result
}

func appendDistinct(states []*ProgramState, more ...*ProgramState) []*ProgramState {
next:
	for _, m := range more {
		for _, s := range states {
			if s.Equal(m) {
				continue next
			}
		}
		states = append(states, m)
	}
	return states
}

// Evaluate decides a relation from the constraints and relations the path
// already holds.
func Evaluate(ps *ProgramState, rel Relation) Truth {
	if rel.Left == rel.Right {
		if rel.Kind.Reflexive() {
			return Holds
		}
		return Fails
	}
	if t := evaluateNullness(ps, rel); t != Unknown {
		return t
	}
	if t := evaluateBoolean(ps, rel); t != Unknown {
		return t
	}
	for _, known := range ps.relations {
		if t := implies(known, rel); t != Unknown {
			return t
		}
	}
	return Unknown
}

func evaluateNullness(ps *ProgramState, rel Relation) Truth {
	left := ps.Constraint(rel.Left, constraint.NullnessDomain)
	right := ps.Constraint(rel.Right, constraint.NullnessDomain)
	switch rel.Kind {
	case constraint.Equal, constraint.NotEqual:
		var equal Truth
		switch {
		case left == constraint.Null && right == constraint.Null:
			equal = Holds
		case left == constraint.Null && right == constraint.NotNull,
			left == constraint.NotNull && right == constraint.Null:
			equal = Fails
		default:
			return Unknown
		}
		if rel.Kind == constraint.NotEqual {
			return negate(equal)
		}
		return equal
	case constraint.MethodEquals, constraint.NotMethodEquals:
		// x.equals(null) is false for any receiver that got this far.
		if right != constraint.Null {
			return Unknown
		}
		if rel.Kind == constraint.MethodEquals {
			return Fails
		}
		return Holds
	}
	return Unknown
}

func evaluateBoolean(ps *ProgramState, rel Relation) Truth {
	left, lok := ps.Constraint(rel.Left, constraint.BooleanDomain).(constraint.Boolean)
	right, rok := ps.Constraint(rel.Right, constraint.BooleanDomain).(constraint.Boolean)
	if !lok || !rok {
		return Unknown
	}
	var equal Truth = Fails
	if left == right {
		equal = Holds
	}
	switch rel.Kind {
	case constraint.Equal, constraint.MethodEquals:
		return equal
	case constraint.NotEqual, constraint.NotMethodEquals:
		return negate(equal)
	}
	return Unknown
}

func negate(t Truth) Truth {
	switch t {
	case Holds:
		return Fails
	case Fails:
		return Holds
	}
	return Unknown
}
