package engine

import (
	"context"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/constraint"
	"symscanner/internal/module"
	"symscanner/internal/state"
	"symscanner/internal/strategy"
	"symscanner/internal/symbolic"
	"symscanner/internal/yield"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Explorer explores methods of one program. Callees without a published
// summary are explored on demand by child explorers that share the cache.
type Explorer struct {
	program *cfg.Program
	cache   *yield.Cache
	conf    config.EngineConfig
	session *module.Session
	stats   *Stats
	// chain lists the callers waiting for this explorer, outermost first.
	chain []string
}

func NewExplorer(program *cfg.Program, cache *yield.Cache, conf config.EngineConfig) *Explorer {
	return &Explorer{
		program: program,
		cache:   cache,
		conf:    conf,
		stats:   NewStats(),
	}
}

// SetSession attaches checks to the explorations of this explorer. Callee
// explorations never see them.
func (ex *Explorer) SetSession(s *module.Session) {
	ex.session = s
}

func (ex *Explorer) SetStats(s *Stats) {
	ex.stats = s
}

func (ex *Explorer) Stats() *Stats {
	return ex.stats
}

func (ex *Explorer) child(symbol string) *Explorer {
	return &Explorer{
		program: ex.program,
		cache:   ex.cache,
		conf:    ex.conf,
		stats:   ex.stats,
		chain:   append(append([]string(nil), ex.chain...), symbol),
	}
}

// transition is one outcome of a transfer function: a successor state on an
// edge, or a path leaving the method.
type transition struct {
	edge     cfg.EdgeKind
	to       cfg.NodeID
	state    *state.ProgramState
	terminal *Terminal
}

type run struct {
	ctx       context.Context
	ex        *Explorer
	method    *cfg.Method
	arena     *symbolic.Arena
	worklist  strategy.Strategy
	visited   map[cfg.NodeID]map[string][]*state.ProgramState
	params    []symbolic.ID
	terminals []Terminal
	steps     int
	// contextual is set once a callee was cut off by the callee depth.
	contextual bool
}

// Explore runs the method from its entry until every feasible path has
// ended or a bound was reached, then projects its yields. Only explorations
// without checks that neither failed nor became contextual publish them, so
// a published summary does not depend on where exploration started.
func (ex *Explorer) Explore(ctx context.Context, method *cfg.Method) (result *Result) {
	ex.stats.explored(method.Symbol)
	logger := log.WithField("method", method.Symbol)
	logger.Debug("exploring")

	if ex.conf.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ex.conf.Timeout.Duration)
		defer cancel()
	}
	worklist, err := strategy.New(ex.conf.Strategy)
	if err != nil {
		return &Result{Method: method.Symbol, Status: StatusFailed, Err: err}
	}
	r := &run{
		ctx:      ctx,
		ex:       ex,
		method:   method,
		arena:    symbolic.NewArena(),
		worklist: worklist,
		visited:  make(map[cfg.NodeID]map[string][]*state.ProgramState),
	}
	result = &Result{Method: method.Symbol, Arena: r.arena}

	defer func() {
		if p := recover(); p != nil {
			result.Status = StatusFailed
			result.Err = errors.Wrapf(ErrInternal, "%s: %v", method.Symbol, p)
			result.Yields = nil
		}
		result.Steps = r.steps
		ex.stats.stepped(method.Symbol, r.steps)
		fields := log.Fields{"steps": r.steps, "status": result.Status}
		switch result.Status {
		case StatusFailed:
			logger.WithFields(fields).Errorf("exploration failed: %v", result.Err)
		case StatusIncomplete:
			logger.WithFields(fields).Warnf("exploration abandoned: %v", result.Err)
		default:
			logger.WithFields(fields).Debug("explored")
		}
	}()

	for _, ps := range r.initialStates() {
		r.enqueue(method.Entry, ps)
	}
	if err := r.loop(); err != nil {
		switch errors.Cause(err) {
		case ErrStepBound, ErrDeadline:
			result.Status = StatusIncomplete
		default:
			result.Status = StatusFailed
		}
		result.Err = err
	}
	result.Params = r.params
	result.Terminals = r.terminals
	if result.Status == StatusFailed {
		return result
	}

	exits := make([]yield.Exit, 0, len(r.terminals))
	for _, t := range r.terminals {
		exits = append(exits, yield.Exit{
			State:       t.State,
			Value:       t.Value,
			Exceptional: t.Kind == TerminalThrow,
			Exception:   t.Exception,
		})
	}
	projected := yield.Project(method.Symbol, r.params, exits, result.Status == StatusComplete)
	result.Contextual = r.contextual
	if r.contextual || ex.session != nil {
		result.Yields = projected
		return result
	}
	result.Yields, _ = ex.cache.Put(projected)
	return result
}

// initialStates binds every parameter to a fresh value. Only nullability
// annotations are known at entry; a nullable parameter starts two paths.
func (r *run) initialStates() []*state.ProgramState {
	ps := state.New()
	for _, p := range r.method.Params {
		v := r.arena.Fresh(symbolic.Origin{Node: int(r.method.Entry), Line: r.method.Line, Text: p.Name})
		r.params = append(r.params, v)
		ps = ps.Bind(p.Name, v)
	}
	states := []*state.ProgramState{ps}
	for i, p := range r.method.Params {
		v := r.params[i]
		var next []*state.ProgramState
		for _, s := range states {
			switch p.Nullability {
			case cfg.NonNull:
				next = append(next, s.PutConstraint(v, constraint.NotNull))
			case cfg.Nullable:
				next = append(next, s.PutConstraint(v, constraint.Null), s.PutConstraint(v, constraint.NotNull))
			default:
				next = append(next, s)
			}
		}
		states = next
	}
	return states
}

func (r *run) loop() error {
	conf := r.ex.conf
	for r.worklist.HasNext() {
		if err := r.ctx.Err(); err != nil {
			return errors.Wrapf(ErrDeadline, "%s after %d steps", r.method.Symbol, r.steps)
		}
		if conf.MaxSteps > 0 && r.steps >= conf.MaxSteps {
			return errors.Wrapf(ErrStepBound, "%s after %d steps", r.method.Symbol, r.steps)
		}
		point, err := r.worklist.Pop()
		if err != nil {
			return errors.Wrap(err, "Pop")
		}
		r.steps++
		if err := r.execute(point); err != nil {
			return errors.Wrapf(ErrInternal, "%s: %v", r.method.Symbol, err)
		}
	}
	return nil
}

func (r *run) execute(point strategy.ProgramPoint) error {
	node := r.method.Node(point.Node)
	if node == nil {
		return errors.Errorf("no node %d", point.Node)
	}
	ps := point.State
	session := r.ex.session
	if session != nil {
		hookCtx := &module.Context{Node: node, State: ps, Arena: r.arena}
		session.Pre(hookCtx)
		ps = hookCtx.State
	}

	transitions, err := r.transfer(node, ps)
	if err != nil {
		return errors.Wrapf(err, "%s", node)
	}

	if session != nil && len(session.PostHooks[node.Kind]) > 0 {
		hookCtx := &module.Context{Node: node, State: ps, Arena: r.arena}
		hookCtx.Successors = make([]module.Successor, len(transitions))
		for i, t := range transitions {
			hookCtx.Successors[i] = module.Successor{Edge: t.edge, To: t.to, State: t.state}
		}
		session.Post(hookCtx)
		for i := range transitions {
			transitions[i].state = hookCtx.Successors[i].State
			if transitions[i].terminal != nil {
				transitions[i].terminal.State = transitions[i].state
			}
		}
	}

	for _, t := range transitions {
		if t.terminal != nil {
			r.terminate(node, *t.terminal)
			continue
		}
		r.enqueue(t.to, t.state)
	}
	return nil
}

func (r *run) terminate(node *cfg.Node, t Terminal) {
	t.Node = node.ID
	r.terminals = append(r.terminals, t)
	if r.ex.session != nil {
		r.ex.session.EndOfPath(&module.Context{Node: node, State: t.State, Arena: r.arena})
	}
}

// enqueue schedules node with ps unless the path already executed node too
// often or an equal state was already scheduled there.
func (r *run) enqueue(node cfg.NodeID, ps *state.ProgramState) {
	if ps.Visits(int(node)) >= r.ex.conf.MaxExecProgramPoint && r.ex.conf.MaxExecProgramPoint > 0 {
		log.WithField("method", r.method.Symbol).Debugf("path bound reached at node %d", node)
		return
	}
	ps = ps.Cleanup(r.arena, r.params...).Visit(int(node))
	seen, ok := r.visited[node]
	if !ok {
		seen = make(map[string][]*state.ProgramState)
		r.visited[node] = seen
	}
	fp := ps.Fingerprint()
	for _, other := range seen[fp] {
		if other.Equal(ps) {
			return
		}
	}
	seen[fp] = append(seen[fp], ps)
	_ = r.worklist.Push(strategy.ProgramPoint{Node: node, State: ps})
}

func (r *run) origin(node *cfg.Node, text string) symbolic.Origin {
	return symbolic.Origin{Node: int(node.ID), Line: node.Line, Text: text}
}
