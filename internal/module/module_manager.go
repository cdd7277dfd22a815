package module

import (
	"sort"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/constraint"
	"symscanner/internal/issue"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Hook func(*Context) ([]*issue.Issue, error)

// Env is what a module factory may depend on.
type Env struct {
	Registry *constraint.Registry
	Checks   config.ChecksConfig
}

type Factory func(env *Env) (DetectionModule, error)

// ModuleManager 管理所有检测模块的构造函数，每个方法的分析使用一组新的模块实例
type ModuleManager struct {
	names     []string
	factories map[string]Factory
}

func NewModuleManager() *ModuleManager {
	return &ModuleManager{
		factories: make(map[string]Factory),
	}
}

// Default returns a manager holding the built-in checks.
func Default() *ModuleManager {
	mm := NewModuleManager()
	mm.Register(NullDereferenceName, NewNullDereference)
	mm.Register(ConditionAlwaysName, NewConditionAlways)
	mm.Register(UnclosedResourceName, NewUnclosedResource)
	return mm
}

func (mm *ModuleManager) Register(name string, factory Factory) {
	if _, ok := mm.factories[name]; !ok {
		mm.names = append(mm.names, name)
	}
	mm.factories[name] = factory
}

// Names returns the registered module names, sorted.
func (mm *ModuleManager) Names() []string {
	result := append([]string(nil), mm.names...)
	sort.Strings(result)
	return result
}

// NewSession instantiates every enabled module for one method.
func (mm *ModuleManager) NewSession(file string, method *cfg.Method, env *Env) (*Session, error) {
	s := &Session{
		File:      file,
		Method:    method,
		Registry:  env.Registry,
		PreHooks:  make(map[cfg.Kind][]Hook),
		PostHooks: make(map[cfg.Kind][]Hook),
	}
	for _, name := range mm.names {
		if !env.Checks.IsEnabled(name) {
			continue
		}
		dm, err := mm.factories[name](env)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", name)
		}
		s.AddModule(dm)
	}
	return s, nil
}

// Session is the set of module instances observing one method.
type Session struct {
	File      string
	Method    *cfg.Method
	Registry  *constraint.Registry
	Modules   []DetectionModule
	PreHooks  map[cfg.Kind][]Hook
	PostHooks map[cfg.Kind][]Hook
	PathHooks []Hook
}

func (s *Session) AddModule(dm DetectionModule) {
	s.Modules = append(s.Modules, dm)
	for _, kind := range dm.GetPreHooks() {
		s.PreHooks[kind] = append(s.PreHooks[kind], dm.Execute)
	}
	for _, kind := range dm.GetPostHooks() {
		s.PostHooks[kind] = append(s.PostHooks[kind], dm.Execute)
	}
	if dm.HooksEndOfPath() {
		s.PathHooks = append(s.PathHooks, dm.Execute)
	}
}

func (s *Session) Pre(ctx *Context) {
	ctx.Phase = PhasePre
	s.run(ctx, s.PreHooks[ctx.Node.Kind])
}

func (s *Session) Post(ctx *Context) {
	ctx.Phase = PhasePost
	s.run(ctx, s.PostHooks[ctx.Node.Kind])
}

func (s *Session) EndOfPath(ctx *Context) {
	ctx.Phase = PhaseEndOfPath
	s.run(ctx, s.PathHooks)
}

func (s *Session) run(ctx *Context, hooks []Hook) {
	if len(hooks) == 0 {
		return
	}
	ctx.File = s.File
	ctx.Method = s.Method
	ctx.Registry = s.Registry
	for _, hook := range hooks {
		if _, err := hook(ctx); err != nil {
			log.WithField("method", s.Method.Symbol).Warnf("%s hook at %s: %v", ctx.Phase, ctx.Node, err)
		}
	}
}

// Finish ends the session and returns the issues of every module.
func (s *Session) Finish(complete bool) []*issue.Issue {
	var result []*issue.Issue
	for _, dm := range s.Modules {
		issues := dm.Finish(complete)
		if dm.GetEntryPoint() == CallbackEntryPoint {
			issues = append(dm.GetIssues(), issues...)
		}
		result = append(result, issues...)
	}
	issue.Sort(result)
	return result
}
