package engine

import (
	"symscanner/internal/cfg"
	"symscanner/internal/constraint"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"

	"github.com/pkg/errors"
)

func (r *run) transfer(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	switch node.Kind {
	case cfg.KindLiteral:
		return r.literal(node, ps)
	case cfg.KindIdentifier:
		return r.identifier(node, ps)
	case cfg.KindAssign:
		return r.assign(node, ps)
	case cfg.KindBinary:
		return r.binary(node, ps)
	case cfg.KindUnary:
		return r.unary(node, ps)
	case cfg.KindShortCircuit:
		return r.shortCircuit(node, ps)
	case cfg.KindBranch:
		return r.branch(node, ps)
	case cfg.KindMemberSelect:
		return r.memberSelect(node, ps)
	case cfg.KindInvoke:
		return r.invoke(node, ps)
	case cfg.KindNew:
		return r.newObject(node, ps)
	case cfg.KindPop:
		next, _, err := ps.Pop()
		if err != nil {
			return nil, err
		}
		return r.sequential(node, next), nil
	case cfg.KindTry:
		return r.sequential(node, ps), nil
	case cfg.KindCatch:
		return r.catch(node, ps)
	case cfg.KindFinally:
		return r.finally(node, ps), nil
	case cfg.KindFinallyEnd:
		return r.finallyEnd(node, ps)
	case cfg.KindReturn:
		return r.returns(node, ps)
	case cfg.KindThrow:
		return r.throw(node, ps)
	}
	return r.unknown(node, ps)
}

func (r *run) sequential(node *cfg.Node, states ...*state.ProgramState) []transition {
	var result []transition
	for _, ps := range states {
		for _, next := range node.Next {
			result = append(result, transition{edge: cfg.EdgeSequential, to: next, state: ps})
		}
	}
	return result
}

func (r *run) literal(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	switch node.Literal {
	case cfg.LiteralNull:
		return r.sequential(node, ps.Push(symbolic.Null)), nil
	case cfg.LiteralTrue:
		return r.sequential(node, ps.Push(symbolic.True)), nil
	case cfg.LiteralFalse:
		return r.sequential(node, ps.Push(symbolic.False)), nil
	}
	v := r.arena.Fresh(r.origin(node, node.Value))
	ps = ps.PutConstraint(v, constraint.NotNull)
	return r.sequential(node, ps.Push(v)), nil
}

// identifier pushes the value bound to a variable. Variables the path has
// not seen yet, such as fields, get a fresh value.
func (r *run) identifier(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	v, ok := ps.Lookup(node.Var)
	if !ok {
		v = r.arena.Fresh(r.origin(node, node.Var))
		ps = ps.Bind(node.Var, v)
	}
	return r.sequential(node, ps.Push(v)), nil
}

// assign binds the value on top of the stack and consumes it.
func (r *run) assign(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, v, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	return r.sequential(node, next.Bind(node.Var, v)), nil
}

func (r *run) binary(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, operands, err := ps.PopN(2)
	if err != nil {
		return nil, err
	}
	left, right := operands[0], operands[1]
	origin := r.origin(node, node.Op)
	var v symbolic.ID
	switch node.Op {
	case "&":
		v = r.arena.Logical(symbolic.KindAnd, origin, left, right)
	case "|":
		v = r.arena.Logical(symbolic.KindOr, origin, left, right)
	case "^":
		v = r.arena.Logical(symbolic.KindXor, origin, left, right)
	default:
		var ok bool
		if v, ok = r.arena.Compare(node.Op, left, right, origin); !ok {
			v = r.arena.Fresh(origin)
		}
	}
	return r.sequential(node, next.Push(v)), nil
}

func (r *run) unary(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, operand, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	origin := r.origin(node, node.Op)
	if node.Op == "!" {
		switch operand {
		case symbolic.True:
			return r.sequential(node, next.Push(symbolic.False)), nil
		case symbolic.False:
			return r.sequential(node, next.Push(symbolic.True)), nil
		}
		return r.sequential(node, next.Push(r.arena.Logical(symbolic.KindNot, origin, operand))), nil
	}
	return r.sequential(node, next.Push(r.arena.Fresh(origin))), nil
}

// shortCircuit splits on the left operand of && or ||. The edge that decides
// the whole expression pushes the left operand back as its value; the other
// edge leads to the right operand, whose value becomes the result. A left
// operand already known on the path leaves a single edge, so the right
// operand of false && f() is never explored.
func (r *run) shortCircuit(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, left, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	var decidesOnTrue bool
	switch node.Op {
	case "&&":
	case "||":
		decidesOnTrue = true
	default:
		return nil, errors.Errorf("unknown short-circuit operator %q", node.Op)
	}
	var result []transition
	for _, edge := range []struct {
		kind  cfg.EdgeKind
		to    cfg.NodeID
		value constraint.Boolean
	}{
		{cfg.EdgeTrue, node.True, constraint.True},
		{cfg.EdgeFalse, node.False, constraint.False},
	} {
		decides := (edge.value == constraint.True) == decidesOnTrue
		for _, s := range state.SetConstraint(r.arena, next, left, edge.value) {
			if decides {
				s = s.Push(left)
			}
			result = append(result, transition{edge: edge.kind, to: edge.to, state: s})
		}
	}
	return result, nil
}

// branch keeps the edges whose condition is feasible on the path.
func (r *run) branch(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, condition, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	var result []transition
	for _, s := range state.SetConstraint(r.arena, next, condition, constraint.True) {
		result = append(result, transition{edge: cfg.EdgeTrue, to: node.True, state: s})
	}
	for _, s := range state.SetConstraint(r.arena, next, condition, constraint.False) {
		result = append(result, transition{edge: cfg.EdgeFalse, to: node.False, state: s})
	}
	return result, nil
}

// memberSelect dereferences the value on top of the stack. Paths where it
// is null end here.
func (r *run) memberSelect(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, receiver, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	field := r.arena.Fresh(r.origin(node, node.Var))
	var states []*state.ProgramState
	for _, s := range state.SetConstraint(r.arena, next, receiver, constraint.NotNull) {
		states = append(states, s.Push(field))
	}
	return r.sequential(node, states...), nil
}

func (r *run) newObject(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, _, err := ps.PopN(node.Arity)
	if err != nil {
		return nil, err
	}
	instance := r.arena.Fresh(r.origin(node, node.Type))
	result := r.sequential(node, next.PutConstraint(instance, constraint.NotNull).Push(instance))
	var throws []string
	if node.Call != nil {
		throws = node.Call.Throws
	}
	result = append(result, r.mayThrow(node, next, throws)...)
	return result, nil
}

func (r *run) catch(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, exceptional, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	caught := r.arena.Caught(exceptional, r.origin(node, node.Var))
	next = next.PutConstraint(caught, constraint.NotNull).Bind(node.Var, caught)
	return r.sequential(node, next), nil
}

func (r *run) returns(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	value := symbolic.None
	if node.Arity == 1 {
		var err error
		if ps, value, err = ps.Pop(); err != nil {
			return nil, err
		}
	}
	return r.returnFrom(node.Region, ps.ClearStack(), value), nil
}

func (r *run) throw(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, thrown, err := ps.Pop()
	if err != nil {
		return nil, err
	}
	exceptionType := node.Type
	if t, ok := r.arena.ExceptionType(thrown); ok && exceptionType == "" {
		exceptionType = t
	}
	var result []transition
	for _, s := range state.SetConstraint(r.arena, next, thrown, constraint.NotNull) {
		exceptional := r.arena.Exceptional(exceptionType, r.origin(node, exceptionType))
		result = append(result, r.throwFrom(node.Region, s, exceptional, exceptionType)...)
	}
	return result, nil
}

// unknown pops the node's operands and pushes an unconstrained value.
func (r *run) unknown(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, _, err := ps.PopN(node.Arity)
	if err != nil {
		return nil, err
	}
	return r.sequential(node, next.Push(r.arena.Fresh(r.origin(node, node.Value)))), nil
}
