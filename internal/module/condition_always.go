package module

import (
	"fmt"
	"sort"
	"symscanner/internal/cfg"
	"symscanner/internal/issue"
	"symscanner/internal/symbolic"

	log "github.com/sirupsen/logrus"
)

const ConditionAlwaysName = "condition-always"

// ConditionAlways collects which edges of every condition survived and,
// once the method is fully explored, reports conditions that only ever took
// one of them. Literal conditions such as while (true) are intended.
type ConditionAlways struct {
	*BaseModule
	outcomes map[cfg.NodeID]map[bool]bool
	literal  map[cfg.NodeID]bool
	contexts map[cfg.NodeID]Context
}

func NewConditionAlways(env *Env) (DetectionModule, error) {
	ca := &ConditionAlways{
		BaseModule: &BaseModule{
			name:       ConditionAlwaysName,
			ruleData:   RuleDataMap["S2583"],
			entryPoint: PostEntryPoint,
			postHooks:  []cfg.Kind{cfg.KindBranch, cfg.KindShortCircuit},
			Issues:     make([]*issue.Issue, 0),
		},
		outcomes: make(map[cfg.NodeID]map[bool]bool),
		literal:  make(map[cfg.NodeID]bool),
		contexts: make(map[cfg.NodeID]Context),
	}
	return ca, nil
}

func (ca *ConditionAlways) Execute(ctx *Context) ([]*issue.Issue, error) {
	log.Debug("Entering ConditionAlways")
	defer log.Debug("Exiting ConditionAlways")

	id := ctx.Node.ID
	condition, err := ctx.Operand(0)
	if err != nil {
		return nil, err
	}
	if condition == symbolic.True || condition == symbolic.False {
		ca.literal[id] = true
		return nil, nil
	}
	seen, ok := ca.outcomes[id]
	if !ok {
		seen = make(map[bool]bool)
		ca.outcomes[id] = seen
		ca.contexts[id] = *ctx
	}
	for _, s := range ctx.Successors {
		switch s.Edge {
		case cfg.EdgeTrue:
			seen[true] = true
		case cfg.EdgeFalse:
			seen[false] = true
		}
	}
	return nil, nil
}

func (ca *ConditionAlways) Finish(complete bool) (issues []*issue.Issue) {
	defer func() {
		ca.Issues = append(ca.Issues, issues...)
	}()
	if !complete {
		return nil
	}
	ids := make([]cfg.NodeID, 0, len(ca.outcomes))
	for id := range ca.outcomes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		seen := ca.outcomes[id]
		if ca.literal[id] || len(seen) != 1 {
			continue
		}
		ctx := ca.contexts[id]
		condition, err := ctx.Operand(0)
		if err != nil {
			continue
		}
		description := fmt.Sprintf("Change this condition so that it does not always evaluate to \"%t\".", seen[true])
		if is := ca.newIssue(&ctx, ctx.Node.Line, description, Flow(&ctx, condition)); is != nil {
			issues = append(issues, is)
		}
	}
	return issues
}
