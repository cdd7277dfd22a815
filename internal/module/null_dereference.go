package module

import (
	"fmt"
	"symscanner/internal/cfg"
	"symscanner/internal/constraint"
	"symscanner/internal/issue"

	log "github.com/sirupsen/logrus"
)

const NullDereferenceName = "null-dereference"

// NullDereference reports member selections and instance calls on a value
// known to be null on the current path.
type NullDereference struct {
	*BaseModule
}

func NewNullDereference(env *Env) (DetectionModule, error) {
	nd := &NullDereference{
		BaseModule: &BaseModule{
			name:       NullDereferenceName,
			ruleData:   RuleDataMap["S2259"],
			entryPoint: CallbackEntryPoint,
			preHooks:   []cfg.Kind{cfg.KindMemberSelect, cfg.KindInvoke},
			Issues:     make([]*issue.Issue, 0),
		},
	}
	return nd, nil
}

func (nd *NullDereference) Execute(ctx *Context) (issues []*issue.Issue, err error) {
	log.Debug("Entering NullDereference")
	defer log.Debug("Exiting NullDereference")

	defer func() {
		nd.Issues = append(nd.Issues, issues...)
	}()

	depth := 0
	if ctx.Node.Kind == cfg.KindInvoke {
		if ctx.Node.Call.Static {
			return nil, nil
		}
		depth = ctx.Node.Call.Arity
	}
	receiver, err := ctx.Operand(depth)
	if err != nil {
		return nil, err
	}
	if ctx.State.Constraint(receiver, constraint.NullnessDomain) != constraint.Null {
		return nil, nil
	}
	description := fmt.Sprintf("A \"NullPointerException\" could be thrown; \"%s\" is nullable here.", ctx.Name(receiver))
	is := nd.newIssue(ctx, ctx.Node.Line, description, Flow(ctx, receiver))
	if is == nil {
		return nil, nil
	}
	return []*issue.Issue{is}, nil
}
