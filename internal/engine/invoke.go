package engine

import (
	"strings"
	"symscanner/internal/cfg"
	"symscanner/internal/constraint"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"
	"symscanner/internal/yield"

	log "github.com/sirupsen/logrus"
)

func isField(name string) bool {
	return strings.HasPrefix(name, "this.")
}

// invoke pops the arguments and the receiver of a call and pushes its
// result. A published complete summary of the callee decides the outcomes;
// without one the declared return nullability and throws clause do.
func (r *run) invoke(node *cfg.Node, ps *state.ProgramState) ([]transition, error) {
	call := node.Call
	if call == nil {
		return r.unknown(node, ps)
	}
	next, args, err := ps.PopN(call.Arity)
	if err != nil {
		return nil, err
	}
	receiver := symbolic.None
	states := []*state.ProgramState{next}
	if !call.Static {
		if next, receiver, err = next.Pop(); err != nil {
			return nil, err
		}
		states = state.SetConstraint(r.arena, next, receiver, constraint.NotNull)
	}

	origin := r.origin(node, call.Name+"()")
	var value symbolic.ID
	if call.IsEquals() {
		value = r.arena.Relation(constraint.MethodEquals, receiver, args[0], origin)
	} else {
		value = r.arena.Fresh(origin)
	}

	summary := r.yieldsFor(call)
	var result []transition
	for _, s := range states {
		s = s.Unbind(isField)
		if summary == nil {
			result = append(result, r.declaredOutcomes(node, s, value)...)
			continue
		}
		for _, y := range summary.Yields {
			if y.Exceptional {
				for _, applied := range y.Apply(r.arena, s, args, symbolic.None) {
					exceptional := r.arena.Exceptional(y.Exception, r.origin(node, y.Exception))
					result = append(result, r.throwFrom(node.Region, applied, exceptional, y.Exception)...)
				}
				continue
			}
			for _, applied := range y.Apply(r.arena, s, args, value) {
				result = append(result, r.sequential(node, applied.Push(value))...)
			}
		}
		result = append(result, r.implicitThrows(node, s)...)
	}
	return result, nil
}

// declaredOutcomes stands in for a callee without a usable summary. The call
// site metadata wins; a program method without it falls back to its own
// declarations.
func (r *run) declaredOutcomes(node *cfg.Node, ps *state.ProgramState, value symbolic.ID) []transition {
	call := node.Call
	returns, throws := call.Returns, call.Throws
	if callee, ok := r.ex.program.Methods[call.Symbol]; ok {
		if returns == cfg.Unannotated {
			returns = callee.Returns
		}
		if len(throws) == 0 {
			throws = callee.Throws
		}
	}
	var states []*state.ProgramState
	switch returns {
	case cfg.NonNull:
		states = []*state.ProgramState{ps.PutConstraint(value, constraint.NotNull)}
	case cfg.Nullable:
		states = []*state.ProgramState{ps.PutConstraint(value, constraint.Null), ps.PutConstraint(value, constraint.NotNull)}
	default:
		states = []*state.ProgramState{ps}
	}
	var result []transition
	for _, s := range states {
		result = append(result, r.sequential(node, s.Push(value))...)
	}
	return append(result, r.mayThrow(node, ps, throws)...)
}

// yieldsFor returns the complete summary of the callee, exploring it first
// when it belongs to the program and has not been summarized yet. Calls
// within a recursion cycle get no summary wherever the cycle was entered.
// A callee cut off by the callee depth makes the exploration contextual.
func (r *run) yieldsFor(call *cfg.Call) *yield.MethodYields {
	callee, ok := r.ex.program.Methods[call.Symbol]
	if !ok {
		return nil
	}
	if y, ok := r.ex.cache.Get(call.Symbol); ok {
		if y.Complete {
			return y
		}
		return nil
	}
	if r.ex.program.CallGraph().SameComponent(r.method.Symbol, call.Symbol) {
		return nil
	}
	if len(r.ex.chain) >= r.ex.conf.MaxCalleeDepth {
		r.contextual = true
		return nil
	}
	res := r.ex.child(r.method.Symbol).Explore(r.ctx, callee)
	if res.Contextual {
		r.contextual = true
	}
	if res.Yields == nil || !res.Yields.Complete {
		log.WithField("method", r.method.Symbol).Debugf("no usable yields for %s (%s)", call.Symbol, res.Status)
		return nil
	}
	return res.Yields
}
