// Package yield summarizes explored methods as precondition and
// postcondition pairs that call sites reuse instead of exploring the callee.
package yield

import (
	"fmt"
	"sort"
	"strings"
	"symscanner/internal/constraint"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"
)

// Yield is one behavior of a method: the constraints its parameters held,
// then either the constraints on the returned value or a thrown exception.
type Yield struct {
	Params []constraint.Set
	Result constraint.Set
	// Exception is the thrown type, empty when unknown.
	Exception   string
	Exceptional bool
}

func (y Yield) Equal(o Yield) bool {
	if len(y.Params) != len(o.Params) || y.Exceptional != o.Exceptional || y.Exception != o.Exception {
		return false
	}
	for i := range y.Params {
		if !y.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return y.Result.Equal(o.Result)
}

func (y Yield) String() string {
	params := make([]string, len(y.Params))
	for i, p := range y.Params {
		params[i] = p.String()
	}
	if y.Exceptional {
		t := y.Exception
		if t == "" {
			t = "?"
		}
		return fmt.Sprintf("(%s) -> throws %s", strings.Join(params, ", "), t)
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), y.Result)
}

// Apply constrains the call-site arguments with the yield's preconditions
// and result with its postcondition. It returns nothing when the arguments
// are incompatible with the yield.
func (y Yield) Apply(arena *symbolic.Arena, ps *state.ProgramState, args []symbolic.ID, result symbolic.ID) []*state.ProgramState {
	states := []*state.ProgramState{ps}
	for i, arg := range args {
		if i >= len(y.Params) {
			break
		}
		for _, c := range y.Params[i] {
			states = constrainEach(arena, states, arg, c)
		}
	}
	if !y.Exceptional && result != symbolic.None {
		for _, c := range y.Result {
			states = constrainEach(arena, states, result, c)
		}
	}
	return states
}

func constrainEach(arena *symbolic.Arena, states []*state.ProgramState, v symbolic.ID, c constraint.Constraint) []*state.ProgramState {
	var result []*state.ProgramState
	for _, s := range states {
		result = append(result, state.SetConstraint(arena, s, v, c)...)
	}
	return result
}

// MethodYields is the published summary of one method. Only complete
// summaries are used at call sites.
type MethodYields struct {
	Method   string
	Yields   []Yield
	Complete bool
}

func (m *MethodYields) String() string {
	var builder strings.Builder
	status := "complete"
	if !m.Complete {
		status = "incomplete"
	}
	fmt.Fprintf(&builder, "%s: %d yields (%s)\n", m.Method, len(m.Yields), status)
	for _, y := range m.Yields {
		builder.WriteString("  ")
		builder.WriteString(y.String())
		builder.WriteString("\n")
	}
	return builder.String()
}

// Exit is a terminal state of an exploration as the projection sees it.
type Exit struct {
	State *state.ProgramState
	// Value is the returned or thrown value, symbolic.None for a void return.
	Value       symbolic.ID
	Exceptional bool
	Exception   string
}

// Project folds terminal states into deduplicated yields, ordered by their
// rendering so that the result does not depend on exploration order.
func Project(method string, params []symbolic.ID, exits []Exit, complete bool) *MethodYields {
	result := &MethodYields{Method: method, Complete: complete}
next:
	for _, exit := range exits {
		y := Yield{
			Params:      make([]constraint.Set, len(params)),
			Exceptional: exit.Exceptional,
			Exception:   exit.Exception,
		}
		for i, p := range params {
			y.Params[i] = exit.State.Constraints(p)
		}
		if !exit.Exceptional && exit.Value != symbolic.None {
			y.Result = exit.State.Constraints(exit.Value)
		}
		for _, seen := range result.Yields {
			if seen.Equal(y) {
				continue next
			}
		}
		result.Yields = append(result.Yields, y)
	}
	sort.SliceStable(result.Yields, func(i, j int) bool {
		return result.Yields[i].String() < result.Yields[j].String()
	})
	return result
}
