package module

import (
	"symscanner/internal/cfg"
	"symscanner/internal/issue"
)

const (
	PostEntryPoint     = 0 // 方法分析完成之后，再判断和取issue
	CallbackEntryPoint = 1
)

type BaseModule struct {
	name       string
	ruleData   *RuleData  // 规则信息
	entryPoint int        // issue获取入口
	preHooks   []cfg.Kind // 在这些节点执行前，执行本模块的hook
	postHooks  []cfg.Kind // 在这些节点执行后，执行本模块的hook
	endOfPath  bool       // 路径结束时执行本模块的hook
	Issues     []*issue.Issue
	seen       map[string]bool
}

func (bm *BaseModule) Execute(ctx *Context) ([]*issue.Issue, error) {
	return nil, nil
}

// Finish is called once the method has been explored.
func (bm *BaseModule) Finish(complete bool) []*issue.Issue {
	return nil
}

func (bm *BaseModule) GetName() string {
	return bm.name
}

func (bm *BaseModule) GetPreHooks() []cfg.Kind {
	return bm.preHooks
}

func (bm *BaseModule) GetPostHooks() []cfg.Kind {
	return bm.postHooks
}

func (bm *BaseModule) HooksEndOfPath() bool {
	return bm.endOfPath
}

func (bm *BaseModule) GetEntryPoint() int {
	return bm.entryPoint
}

func (bm *BaseModule) GetRuleData() *RuleData {
	return bm.ruleData
}

func (bm *BaseModule) GetIssues() []*issue.Issue {
	return bm.Issues
}

// newIssue builds an issue of the module's rule at line, or nil when the
// same issue was already reported for this method.
func (bm *BaseModule) newIssue(ctx *Context, line int, description string, flow []issue.Step) *issue.Issue {
	is := &issue.Issue{
		ID:          bm.ruleData.ID,
		Title:       bm.ruleData.Title,
		Description: description,
		File:        ctx.File,
		Method:      ctx.Method.Symbol,
		Line:        line,
		Flow:        flow,
	}
	if bm.seen == nil {
		bm.seen = make(map[string]bool)
	}
	if bm.seen[is.Key()] {
		return nil
	}
	bm.seen[is.Key()] = true
	return is
}

type DetectionModule interface {
	Execute(*Context) ([]*issue.Issue, error)
	Finish(complete bool) []*issue.Issue
	GetName() string
	GetPreHooks() []cfg.Kind
	GetPostHooks() []cfg.Kind
	HooksEndOfPath() bool
	GetEntryPoint() int
	GetRuleData() *RuleData
	GetIssues() []*issue.Issue
}
