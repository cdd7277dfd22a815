package engine

import (
	"context"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/module"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AnalyzerReportsLeakedResource(t *testing.T) {
	program, err := cfg.LoadFile("../../testdata/programs/resources.yaml")
	require.NoError(t, err)

	conf := config.Default()
	conf.Engine.Timeout = config.Duration{}
	analyzer := NewAnalyzer(program, conf, module.Default())
	report, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.Equal(t, StatusComplete, res.Status, res.Method)
	}
	assert.Empty(t, report.Failed())

	require.Len(t, report.Issues, 1)
	leak := report.Issues[0]
	assert.Equal(t, "S2095", leak.ID)
	assert.Equal(t, "Resources#read(String)", leak.Method)
	assert.Equal(t, 11, leak.Line)
	assert.Equal(t, "Resources.java", leak.File)

	assert.Len(t, report.Yields, 3)
	assert.Equal(t, []string{"Resources#describe(String)", "Resources#length(String)", "Resources#read(String)"}, analyzer.Cache().Methods())
}

func Test_AnalyzerHonorsDisabledChecks(t *testing.T) {
	program, err := cfg.LoadFile("../../testdata/programs/resources.yaml")
	require.NoError(t, err)

	conf := config.Default()
	conf.Engine.Timeout = config.Duration{}
	conf.Checks.Disabled = []string{module.UnclosedResourceName}
	conf.Analyzer.Workers = 1
	report, err := NewAnalyzer(program, conf, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
}

// Object maybe() { if (flag()) { return null; } return new Object(); }
// void deref() { x = maybe(); x.f; }
func Test_AnalyzerReportsNullDereferenceThroughYields(t *testing.T) {
	mb := cfg.NewBuilder("T#maybe()").At(2)
	m0 := mb.Invoke(cfg.Call{Symbol: "T#flag()", Name: "flag", Static: true})
	m1 := mb.Branch(cfg.NoNode, cfg.NoNode)
	m2 := mb.Null()
	m3 := mb.ReturnValue()
	m4 := mb.New("Object", 0)
	m5 := mb.ReturnValue()
	mb.Link(m0, m1)
	mb.SetTargets(m1, m2, m4)
	mb.Chain(m2, m3)
	mb.Chain(m4, m5)

	b := cfg.NewBuilder("T#deref()").At(5)
	n0 := b.Invoke(cfg.Call{Symbol: "T#maybe()", Name: "maybe", Static: true})
	n1 := b.Assign("x")
	b.At(6)
	n2 := b.Ident("x")
	n3 := b.MemberSelect("f")
	n4 := b.Pop()
	n5 := b.Return()
	b.Chain(n0, n1, n2, n3, n4, n5)

	program := newProgram(mb.MustBuild(), b.MustBuild())
	conf := config.Default()
	conf.Engine.Timeout = config.Duration{}
	conf.Analyzer.Workers = 1
	analyzer := NewAnalyzer(program, conf, nil)
	report, err := analyzer.Run(context.Background())
	require.NoError(t, err)

	maybe, ok := analyzer.Cache().Get("T#maybe()")
	require.True(t, ok)
	require.Len(t, maybe.Yields, 2)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, "S2259", report.Issues[0].ID)
	assert.Equal(t, "T#deref()", report.Issues[0].Method)
	assert.Equal(t, 6, report.Issues[0].Line)
}

func Test_AnalyzerYieldsIgnoreScheduling(t *testing.T) {
	render := func(workers int) []string {
		conf := config.Default()
		conf.Engine.Timeout = config.Duration{}
		conf.Analyzer.Workers = workers
		report, err := NewAnalyzer(callChain(), conf, nil).Run(context.Background())
		require.NoError(t, err)
		var result []string
		for _, y := range report.Yields {
			result = append(result, y.String())
		}
		return result
	}
	sequential := render(1)
	require.Len(t, sequential, 5)
	assert.Equal(t, "T#m0(): 1 yields (complete)\n  () -> NULL\n", sequential[0])
	if diff := cmp.Diff(sequential, render(4)); diff != "" {
		t.Errorf("yields depend on the number of workers (-1 +4):\n%s", diff)
	}
}
