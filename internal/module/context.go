package module

import (
	"fmt"
	"symscanner/internal/cfg"
	"symscanner/internal/constraint"
	"symscanner/internal/issue"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"

	"github.com/pkg/errors"
)

type Phase uint8

const (
	PhasePre Phase = iota
	PhasePost
	PhaseEndOfPath
)

func (p Phase) String() string {
	switch p {
	case PhasePre:
		return "pre"
	case PhasePost:
		return "post"
	case PhaseEndOfPath:
		return "end-of-path"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Successor is one state a node produced, with the edge it leaves by.
// Terminal successors have To set to cfg.NoNode.
type Successor struct {
	Edge  cfg.EdgeKind
	To    cfg.NodeID
	State *state.ProgramState
}

// Context is what a hook sees. Pre hooks may replace State, post hooks the
// states of Successors; the engine continues with whatever they leave.
type Context struct {
	Phase      Phase
	File       string
	Method     *cfg.Method
	Node       *cfg.Node
	State      *state.ProgramState
	Successors []Successor
	Arena      *symbolic.Arena
	Registry   *constraint.Registry
}

// PutConstraint records c on v in the current state. The domain of c must
// have been registered.
func (ctx *Context) PutConstraint(ps *state.ProgramState, v symbolic.ID, c constraint.Constraint) (*state.ProgramState, error) {
	if ctx.Registry != nil && !ctx.Registry.Has(c.Domain()) {
		return nil, errors.Errorf("domain %s is not registered", c.Domain())
	}
	return ps.PutConstraint(v, c), nil
}

// Operand returns the value depth positions below the top of the stack of
// the incoming state.
func (ctx *Context) Operand(depth int) (symbolic.ID, error) {
	v, err := ctx.State.Peek(depth)
	if err != nil {
		return symbolic.None, errors.Wrapf(err, "%s", ctx.Node)
	}
	return v, nil
}

// Name renders the source text a value came from.
func (ctx *Context) Name(v symbolic.ID) string {
	origin := ctx.Arena.Record(v).Origin
	if origin.Text != "" {
		return origin.Text
	}
	return ctx.Arena.Describe(v)
}

// Flow renders where v comes from and what is known about it now.
func Flow(ctx *Context, v symbolic.ID) []issue.Step {
	var steps []issue.Step
	origin := ctx.Arena.Record(v).Origin
	if origin.Line > 0 {
		steps = append(steps, issue.Step{Line: origin.Line, Message: fmt.Sprintf("'%s' is assigned here", ctx.Name(v))})
	}
	for _, c := range ctx.State.Constraints(v) {
		steps = append(steps, issue.Step{
			Line:    ctx.Node.Line,
			Message: fmt.Sprintf("'%s' is %s", ctx.Name(v), c.ValueAsString()),
		})
	}
	return steps
}
