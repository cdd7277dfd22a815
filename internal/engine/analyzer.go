package engine

import (
	"context"
	"sort"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/constraint"
	"symscanner/internal/issue"
	"symscanner/internal/module"
	"symscanner/internal/yield"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of analyzing one program.
type Report struct {
	Issues  []*issue.Issue
	Results []*Result
	Yields  []*yield.MethodYields
}

// Failed returns the methods whose exploration failed.
func (r *Report) Failed() []*Result {
	var result []*Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			result = append(result, res)
		}
	}
	return result
}

// Analyzer explores every method of a program with the enabled checks. The
// methods share one yield cache; each gets its own check session.
type Analyzer struct {
	program  *cfg.Program
	conf     config.Config
	manager  *module.ModuleManager
	cache    *yield.Cache
	registry *constraint.Registry
	stats    *Stats
}

func NewAnalyzer(program *cfg.Program, conf config.Config, manager *module.ModuleManager) *Analyzer {
	if manager == nil {
		manager = module.Default()
	}
	return &Analyzer{
		program:  program,
		conf:     conf,
		manager:  manager,
		cache:    yield.NewCache(),
		registry: constraint.NewRegistry(),
		stats:    NewStats(),
	}
}

func (a *Analyzer) Cache() *yield.Cache { return a.cache }
func (a *Analyzer) Stats() *Stats       { return a.stats }

// Run summarizes every method callees first, then analyzes each one with
// the enabled checks. A failed method does not stop the others; Run only
// returns an error when checks cannot be set up or ctx is cancelled.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	methods := a.program.MethodList()
	log.Infof("analyzing %d methods of %s", len(methods), a.program.File)
	startTime := time.Now()

	if err := a.summarize(ctx); err != nil {
		return nil, err
	}

	env := &module.Env{Registry: a.registry, Checks: a.conf.Checks}
	results := make([]*Result, len(methods))
	issues := make([][]*issue.Issue, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, method := range methods {
		i, method := i, method
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			session, err := a.manager.NewSession(a.program.File, method, env)
			if err != nil {
				return errors.Wrapf(err, "NewSession %s", method.Symbol)
			}
			ex := NewExplorer(a.program, a.cache, a.conf.Engine)
			ex.SetSession(session)
			ex.SetStats(a.stats)
			res := ex.Explore(gctx, method)
			results[i] = res
			if res.Status != StatusFailed {
				issues[i] = session.Finish(res.Status == StatusComplete)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results}
	for _, found := range issues {
		report.Issues = append(report.Issues, found...)
	}
	issue.Sort(report.Issues)
	for _, symbol := range a.cache.Methods() {
		if y, ok := a.cache.Get(symbol); ok {
			report.Yields = append(report.Yields, y)
		}
	}
	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Method < report.Results[j].Method
	})
	if failed := report.Failed(); len(failed) > 0 {
		log.Warnf("%d methods could not be analyzed", len(failed))
	}
	log.WithField("issues", len(report.Issues)).Infof("analysis done in %s", time.Since(startTime))
	return report, nil
}

func (a *Analyzer) workers() int {
	if a.conf.Analyzer.Workers <= 0 {
		return 1
	}
	return a.conf.Analyzer.Workers
}

// summarize publishes the yields of every method one call graph level at a
// time, so each exploration finds the summaries of its callees in the cache
// whatever the scheduling.
func (a *Analyzer) summarize(ctx context.Context) error {
	for level, methods := range a.program.CallGraph().Levels() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers())
		for _, method := range methods {
			method := method
			if _, ok := a.cache.Get(method.Symbol); ok {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ex := NewExplorer(a.program, a.cache, a.conf.Engine)
				ex.SetStats(a.stats)
				ex.Explore(gctx, method)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		log.WithField("level", level).Debugf("summarized %d methods", len(methods))
	}
	return nil
}
