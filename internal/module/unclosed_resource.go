package module

import (
	"fmt"
	"strings"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/constraint"
	"symscanner/internal/issue"
	"symscanner/internal/symbolic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const UnclosedResourceName = "unclosed-resource"

const ResourceDomain constraint.Domain = "resource"

// ResourceState tracks whether a closeable value still needs closing.
type ResourceState uint8

const (
	Open ResourceState = iota + 1
	Closed
)

func (r ResourceState) Domain() constraint.Domain                          { return ResourceDomain }
func (r ResourceState) Inverse() constraint.Constraint                     { return nil }
func (r ResourceState) CopyOver(constraint.Relation) constraint.Constraint { return nil }

func (r ResourceState) IsValidWith(other constraint.Constraint) bool {
	o, ok := other.(ResourceState)
	if !ok {
		return other == nil || other.Domain() != ResourceDomain
	}
	return o == r
}

func (r ResourceState) HasPreciseValue() bool { return false }

func (r ResourceState) ValueAsString() string {
	switch r {
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return ""
}

// Retained keeps open resources visible after their last reference so that
// leaks are still seen at the end of the path.
func (r ResourceState) Retained() bool { return r == Open }

func (r ResourceState) String() string {
	switch r {
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	}
	return fmt.Sprintf("ResourceState(%d)", uint8(r))
}

// UnclosedResource marks instances of resource types open when they are
// created and closed when close() is called on them. Passing a resource to
// a call or constructor, storing it in a field or returning it hands it
// over to someone else.
type UnclosedResource struct {
	*BaseModule
	checks config.ChecksConfig
}

func NewUnclosedResource(env *Env) (DetectionModule, error) {
	if env.Registry != nil {
		if err := env.Registry.Ensure(ResourceDomain, Open, Closed); err != nil {
			return nil, errors.Wrap(err, "register resource domain")
		}
	}
	ur := &UnclosedResource{
		BaseModule: &BaseModule{
			name:       UnclosedResourceName,
			ruleData:   RuleDataMap["S2095"],
			entryPoint: CallbackEntryPoint,
			preHooks:   []cfg.Kind{cfg.KindInvoke, cfg.KindNew, cfg.KindAssign, cfg.KindReturn},
			postHooks:  []cfg.Kind{cfg.KindNew},
			endOfPath:  true,
			Issues:     make([]*issue.Issue, 0),
		},
		checks: env.Checks,
	}
	return ur, nil
}

func (ur *UnclosedResource) Execute(ctx *Context) (issues []*issue.Issue, err error) {
	log.Debug("Entering UnclosedResource")
	defer log.Debug("Exiting UnclosedResource")

	defer func() {
		ur.Issues = append(ur.Issues, issues...)
	}()

	switch ctx.Phase {
	case PhasePre:
		return nil, ur.handOver(ctx)
	case PhasePost:
		return nil, ur.open(ctx)
	case PhaseEndOfPath:
		return ur.leaks(ctx), nil
	}
	return nil, nil
}

func (ur *UnclosedResource) handOver(ctx *Context) error {
	var escaping []int
	node := ctx.Node
	switch node.Kind {
	case cfg.KindInvoke:
		call := node.Call
		if !call.Static && call.Name == "close" && call.Arity == 0 {
			receiver, err := ctx.Operand(0)
			if err != nil {
				return err
			}
			if ctx.State.Constraint(receiver, ResourceDomain) == Open {
				ps, err := ctx.PutConstraint(ctx.State, receiver, Closed)
				if err != nil {
					return err
				}
				ctx.State = ps
			}
			return nil
		}
		for i := 0; i < call.Arity; i++ {
			escaping = append(escaping, i)
		}
	case cfg.KindNew:
		for i := 0; i < node.Arity; i++ {
			escaping = append(escaping, i)
		}
	case cfg.KindAssign:
		if strings.HasPrefix(node.Var, "this.") {
			escaping = append(escaping, 0)
		}
	case cfg.KindReturn:
		if node.Arity == 1 {
			escaping = append(escaping, 0)
		}
	}
	for _, depth := range escaping {
		v, err := ctx.Operand(depth)
		if err != nil {
			return err
		}
		if ctx.State.Constraint(v, ResourceDomain) == Open {
			ctx.State = ctx.State.RemoveConstraint(v, ResourceDomain)
		}
	}
	return nil
}

func (ur *UnclosedResource) open(ctx *Context) error {
	if !ur.checks.IsResource(ctx.Node.Type) {
		return nil
	}
	for i, s := range ctx.Successors {
		if s.Edge != cfg.EdgeSequential {
			continue
		}
		v, err := s.State.Peek(0)
		if err != nil {
			return errors.Wrapf(err, "%s", ctx.Node)
		}
		ps, err := ctx.PutConstraint(s.State, v, Open)
		if err != nil {
			return err
		}
		ctx.Successors[i].State = ps
	}
	return nil
}

func (ur *UnclosedResource) leaks(ctx *Context) []*issue.Issue {
	var issues []*issue.Issue
	for _, v := range ctx.State.ValuesWith(Open) {
		line := ctx.Arena.Record(v).Origin.Line
		description := fmt.Sprintf("Use try-with-resources or close this \"%s\" in a \"finally\" clause.", ctx.Name(v))
		if is := ur.newIssue(ctx, line, description, leakFlow(ctx, v)); is != nil {
			issues = append(issues, is)
		}
	}
	return issues
}

func leakFlow(ctx *Context, v symbolic.ID) []issue.Step {
	return []issue.Step{
		{Line: ctx.Arena.Record(v).Origin.Line, Message: fmt.Sprintf("'%s' is opened here", ctx.Name(v))},
		{Line: ctx.Node.Line, Message: "the path ends without closing it"},
	}
}
