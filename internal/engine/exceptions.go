package engine

import (
	"symscanner/internal/cfg"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"

	"github.com/pkg/errors"
)

// throwFrom routes an exception raised inside region. Catch clauses are
// tried innermost region first and in textual order. A clause whose type is
// a supertype of the thrown type catches it and routing stops; a clause
// that may catch it, because the thrown type is unknown or more general,
// receives a path and routing goes on. A type missing from the type
// hierarchy cannot be narrowed and may match any clause. A finally block on
// the way takes the exception along as its pending completion. Exceptions
// nobody catches leave the method.
func (r *run) throwFrom(region int, ps *state.ProgramState, exceptional symbolic.ID, exceptionType string) []transition {
	types := r.ex.program.Types
	narrowed := types.Known(exceptionType)
	var result []transition
	for reg := r.method.Region(region); reg != nil; reg = r.method.Region(reg.Parent) {
		for _, c := range reg.Catches {
			definite, possible := false, false
			for _, ct := range c.Types {
				switch {
				case types.IsSubtype(exceptionType, ct):
					definite = true
				case !narrowed || types.IsSubtype(ct, exceptionType):
					possible = true
				}
			}
			if !definite && !possible {
				continue
			}
			result = append(result, transition{
				edge:  cfg.EdgeException,
				to:    c.Handler,
				state: ps.ClearStack().Push(exceptional),
			})
			if definite {
				return result
			}
		}
		if reg.Finally != cfg.NoNode {
			pending := ps.ClearStack().PushCompletion(state.Completion{
				Kind:   state.CompletionThrow,
				Value:  exceptional,
				Region: reg.Parent,
			})
			return append(result, r.enterFinally(reg, cfg.EdgeException, pending))
		}
	}
	return append(result, transition{
		edge:  cfg.EdgeException,
		to:    cfg.NoNode,
		state: ps.ClearStack(),
		terminal: &Terminal{
			State:     ps.ClearStack(),
			Kind:      TerminalThrow,
			Value:     exceptional,
			Exception: exceptionType,
		},
	})
}

// returnFrom leaves the method with value, running the finally blocks of
// the enclosing regions first.
func (r *run) returnFrom(region int, ps *state.ProgramState, value symbolic.ID) []transition {
	for reg := r.method.Region(region); reg != nil; reg = r.method.Region(reg.Parent) {
		if reg.Finally == cfg.NoNode {
			continue
		}
		pending := ps.PushCompletion(state.Completion{
			Kind:   state.CompletionReturn,
			Value:  value,
			Region: reg.Parent,
		})
		return []transition{r.enterFinally(reg, cfg.EdgeSequential, pending)}
	}
	return []transition{{
		edge:  cfg.EdgeSequential,
		to:    cfg.NoNode,
		state: ps,
		terminal: &Terminal{
			State: ps,
			Kind:  TerminalReturn,
			Value: value,
		},
	}}
}

// enterFinally jumps over the finally marker into the block itself.
func (r *run) enterFinally(reg *cfg.Region, edge cfg.EdgeKind, ps *state.ProgramState) transition {
	marker := r.method.Node(reg.Finally)
	return transition{edge: edge, to: marker.Next[0], state: ps}
}

// finally is reached by falling through the end of a try or catch body.
func (r *run) finally(node *cfg.Node, ps *state.ProgramState) []transition {
	pending := ps.PushCompletion(state.Completion{Kind: state.CompletionNormal, Value: symbolic.None, Region: node.Region})
	return r.sequential(node, pending)
}

// finallyEnd resumes whatever brought the path into the finally block.
func (r *run) finallyEnd(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	next, completion, err := ps.PopCompletion()
	if err != nil {
		return nil, err
	}
	switch completion.Kind {
	case state.CompletionNormal:
		return r.sequential(node, next), nil
	case state.CompletionReturn:
		return r.returnFrom(completion.Region, next, completion.Value), nil
	case state.CompletionThrow:
		exceptionType, _ := r.arena.ExceptionType(completion.Value)
		return r.throwFrom(completion.Region, next, completion.Value, exceptionType), nil
	}
	return nil, errors.Errorf("unknown completion %s", completion.Kind)
}

// mayThrow returns the exceptional successors of a call: its declared
// exceptions, and unchecked exceptions when an enclosing region would
// observe them.
func (r *run) mayThrow(node *cfg.Node, ps *state.ProgramState, declared []string) []transition {
	var result []transition
	for _, t := range declared {
		exceptional := r.arena.Exceptional(t, r.origin(node, t))
		result = append(result, r.throwFrom(node.Region, ps, exceptional, t)...)
	}
	return append(result, r.implicitThrows(node, ps)...)
}

func (r *run) implicitThrows(node *cfg.Node, ps *state.ProgramState) []transition {
	if !r.ex.conf.ImplicitRuntimeExceptions {
		return nil
	}
	var result []transition
	for _, t := range r.ex.conf.UncheckedExceptions {
		if !r.observes(node.Region, t) {
			continue
		}
		exceptional := r.arena.Exceptional(t, r.origin(node, t))
		result = append(result, r.throwFrom(node.Region, ps, exceptional, t)...)
	}
	return result
}

// observes reports whether some region enclosing region could catch an
// exception of type t or has a finally block. Any catch clause may catch a
// type missing from the hierarchy.
func (r *run) observes(region int, t string) bool {
	types := r.ex.program.Types
	narrowed := types.Known(t)
	for reg := r.method.Region(region); reg != nil; reg = r.method.Region(reg.Parent) {
		if reg.Finally != cfg.NoNode {
			return true
		}
		for _, c := range reg.Catches {
			for _, ct := range c.Types {
				if !narrowed || types.IsSubtype(t, ct) || types.IsSubtype(ct, t) {
					return true
				}
			}
		}
	}
	return false
}
