package engine

import (
	"context"
	"fmt"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/constraint"
	"symscanner/internal/yield"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConf() config.EngineConfig {
	conf := config.Default().Engine
	conf.Timeout = config.Duration{}
	return conf
}

func newProgram(methods ...*cfg.Method) *cfg.Program {
	types := cfg.NewTypeHierarchy()
	types.Add("Exception", "Throwable")
	types.Add("RuntimeException", "Exception")
	types.Add("IOException", "Exception")
	types.Add("FileNotFoundException", "IOException")
	types.Add("Error", "Throwable")
	p := cfg.NewProgram("T.java", types)
	for _, m := range methods {
		p.AddMethod(m)
	}
	return p
}

func explore(program *cfg.Program, symbol string, conf config.EngineConfig) (*Result, *Explorer) {
	ex := NewExplorer(program, yield.NewCache(), conf)
	return ex.Explore(context.Background(), program.Methods[symbol]), ex
}

func terminalNodes(res *Result) []cfg.NodeID {
	seen := make(map[cfg.NodeID]bool)
	var result []cfg.NodeID
	for _, t := range res.Terminals {
		if !seen[t.Node] {
			seen[t.Node] = true
			result = append(result, t.Node)
		}
	}
	return result
}

func renderedYields(res *Result) []string {
	var result []string
	for _, y := range res.Yields.Yields {
		result = append(result, y.String())
	}
	return result
}

// String f(@Nullable String s) { if (s == null) { return 0; } return s.length; }
func nullCheck() *cfg.Method {
	b := cfg.NewBuilder("T#f(String)").Param("s", "String", cfg.Nullable).At(3)
	n0 := b.Ident("s")
	n1 := b.Null()
	n2 := b.Binary("==")
	n3 := b.Branch(cfg.NoNode, cfg.NoNode)
	b.At(4)
	n4 := b.Literal(cfg.LiteralInt, "0")
	n5 := b.ReturnValue()
	b.At(5)
	n6 := b.Ident("s")
	n7 := b.MemberSelect("length")
	n8 := b.ReturnValue()
	b.Chain(n0, n1, n2, n3)
	b.SetTargets(n3, n4, n6)
	b.Chain(n4, n5)
	b.Chain(n6, n7, n8)
	return b.MustBuild()
}

func Test_NullCheckSplitsNullableParameter(t *testing.T) {
	res, _ := explore(newProgram(nullCheck()), "T#f(String)", testConf())
	require.NoError(t, res.Err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.ElementsMatch(t, []cfg.NodeID{5, 8}, terminalNodes(res))
	require.NotNil(t, res.Yields)
	assert.True(t, res.Yields.Complete)
	assert.Equal(t, []string{"(NOT_NULL) -> _", "(NULL) -> NOT_NULL"}, renderedYields(res))
}

func Test_ExplorationIsDeterministic(t *testing.T) {
	program := newProgram(nullCheck())
	first, _ := explore(program, "T#f(String)", testConf())
	second, _ := explore(program, "T#f(String)", testConf())
	if diff := cmp.Diff(renderedYields(first), renderedYields(second)); diff != "" {
		t.Errorf("yields differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Steps, second.Steps)

	conf := testConf()
	conf.Strategy = "bfs"
	bfs, _ := explore(program, "T#f(String)", conf)
	if diff := cmp.Diff(renderedYields(first), renderedYields(bfs)); diff != "" {
		t.Errorf("yields depend on the strategy (-dfs +bfs):\n%s", diff)
	}
}

// void g(@NonNull Object x) { if (x == null) { x.f; } return; }
func Test_InfeasibleBranchIsPruned(t *testing.T) {
	b := cfg.NewBuilder("T#g(Object)").Param("x", "Object", cfg.NonNull).At(2)
	n0 := b.Ident("x")
	n1 := b.Null()
	n2 := b.Binary("==")
	n3 := b.Branch(cfg.NoNode, cfg.NoNode)
	n4 := b.Ident("x")
	n5 := b.MemberSelect("f")
	n6 := b.Pop()
	n7 := b.Return()
	b.Chain(n0, n1, n2, n3)
	b.SetTargets(n3, n4, n7)
	b.Chain(n4, n5, n6, n7)

	res, _ := explore(newProgram(b.MustBuild()), "T#g(Object)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	require.Len(t, res.Terminals, 1)
	assert.Equal(t, cfg.NodeID(7), res.Terminals[0].Node)
	assert.Equal(t, 5, res.Steps)
}

// int h(boolean b) { if (b && f()) { return 1; } return 2; }
func shortCircuit(symbol string, left func(b *cfg.Builder) cfg.NodeID) *cfg.Method {
	b := cfg.NewBuilder(symbol).Param("b", "boolean", cfg.Unannotated).At(2)
	n0 := left(b)
	n1 := b.ShortCircuit("&&", cfg.NoNode, cfg.NoNode)
	n2 := b.Invoke(cfg.Call{Symbol: "T#f()", Name: "f", Static: true})
	n3 := b.Branch(cfg.NoNode, cfg.NoNode)
	n4 := b.Literal(cfg.LiteralInt, "1")
	n5 := b.ReturnValue()
	n6 := b.Literal(cfg.LiteralInt, "2")
	n7 := b.ReturnValue()
	b.Link(n0, n1)
	b.SetTargets(n1, n2, n3)
	b.Link(n2, n3)
	b.SetTargets(n3, n4, n6)
	b.Chain(n4, n5)
	b.Chain(n6, n7)
	return b.MustBuild()
}

func Test_ShortCircuitSkipsDecidedRightOperand(t *testing.T) {
	literal := shortCircuit("T#h()", func(b *cfg.Builder) cfg.NodeID { return b.False() })
	res, _ := explore(newProgram(literal), "T#h()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, []cfg.NodeID{7}, terminalNodes(res))
	// false literal, &&, branch, 2, return
	assert.Equal(t, 5, res.Steps)

	param := shortCircuit("T#h(boolean)", func(b *cfg.Builder) cfg.NodeID { return b.Ident("b") })
	res, _ = explore(newProgram(param), "T#h(boolean)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Len(t, res.Terminals, 3)
	assert.ElementsMatch(t, []cfg.NodeID{5, 7}, terminalNodes(res))
}

// int t() { if (true) { return 1; } return 2; }
func Test_LiteralConditionKeepsOneEdge(t *testing.T) {
	b := cfg.NewBuilder("T#t()").At(2)
	n0 := b.True()
	n1 := b.Branch(cfg.NoNode, cfg.NoNode)
	n2 := b.Literal(cfg.LiteralInt, "1")
	n3 := b.ReturnValue()
	n4 := b.Literal(cfg.LiteralInt, "2")
	n5 := b.ReturnValue()
	b.Link(n0, n1)
	b.SetTargets(n1, n2, n4)
	b.Chain(n2, n3)
	b.Chain(n4, n5)

	res, _ := explore(newProgram(b.MustBuild()), "T#t()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, []cfg.NodeID{3}, terminalNodes(res))
	assert.Equal(t, 4, res.Steps)
}

// int k(Object a, Object b) { if (a == b) { if (a != b) { return 1; } return 2; } return 3; }
func Test_KnownRelationDecidesLaterComparison(t *testing.T) {
	b := cfg.NewBuilder("T#k(Object,Object)").Param("a", "Object", cfg.Unannotated).Param("b", "Object", cfg.Unannotated).At(2)
	n0 := b.Ident("a")
	n1 := b.Ident("b")
	n2 := b.Binary("==")
	n3 := b.Branch(cfg.NoNode, cfg.NoNode)
	n4 := b.Ident("a")
	n5 := b.Ident("b")
	n6 := b.Binary("!=")
	n7 := b.Branch(cfg.NoNode, cfg.NoNode)
	n8 := b.Literal(cfg.LiteralInt, "1")
	n9 := b.ReturnValue()
	n10 := b.Literal(cfg.LiteralInt, "2")
	n11 := b.ReturnValue()
	n12 := b.Literal(cfg.LiteralInt, "3")
	n13 := b.ReturnValue()
	b.Chain(n0, n1, n2, n3)
	b.SetTargets(n3, n4, n12)
	b.Chain(n4, n5, n6, n7)
	b.SetTargets(n7, n8, n10)
	b.Chain(n8, n9)
	b.Chain(n10, n11)
	b.Chain(n12, n13)

	res, _ := explore(newProgram(b.MustBuild()), "T#k(Object,Object)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.ElementsMatch(t, []cfg.NodeID{11, 13}, terminalNodes(res))
}

// boolean e(@NonNull Object x) { if (x.equals(null)) { return 1; } return 2; }
func Test_EqualsNullNeverHolds(t *testing.T) {
	b := cfg.NewBuilder("T#e(Object)").Param("x", "Object", cfg.NonNull).At(2)
	n0 := b.Ident("x")
	n1 := b.Null()
	n2 := b.Invoke(cfg.Call{Symbol: "Object#equals(Object)", Name: "equals", Arity: 1})
	n3 := b.Branch(cfg.NoNode, cfg.NoNode)
	n4 := b.Literal(cfg.LiteralInt, "1")
	n5 := b.ReturnValue()
	n6 := b.Literal(cfg.LiteralInt, "2")
	n7 := b.ReturnValue()
	b.Chain(n0, n1, n2, n3)
	b.SetTargets(n3, n4, n6)
	b.Chain(n4, n5)
	b.Chain(n6, n7)

	res, _ := explore(newProgram(b.MustBuild()), "T#e(Object)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, []cfg.NodeID{7}, terminalNodes(res))
}

// void spin() { while (more()) { x = 1; } }
func spin() *cfg.Method {
	b := cfg.NewBuilder("T#spin()").At(2)
	n0 := b.Invoke(cfg.Call{Symbol: "T#more()", Name: "more", Static: true})
	n1 := b.Branch(cfg.NoNode, cfg.NoNode)
	n2 := b.Literal(cfg.LiteralInt, "1")
	n3 := b.Assign("x")
	n4 := b.Return()
	b.Link(n0, n1)
	b.SetTargets(n1, n2, n4)
	b.Link(n2, n3)
	b.Link(n3, n0)
	return b.MustBuild()
}

func Test_LoopsTerminate(t *testing.T) {
	res, _ := explore(newProgram(spin()), "T#spin()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Len(t, res.Terminals, 2)
	assert.Equal(t, 10, res.Steps)
}

func Test_StepBoundLeavesIncompleteYields(t *testing.T) {
	conf := testConf()
	conf.MaxSteps = 4
	program := newProgram(spin())
	ex := NewExplorer(program, yield.NewCache(), conf)
	res := ex.Explore(context.Background(), program.Methods["T#spin()"])
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, ErrStepBound, errors.Cause(res.Err))
	assert.Equal(t, 4, res.Steps)

	published, ok := ex.cache.Get("T#spin()")
	require.True(t, ok)
	assert.False(t, published.Complete)
}

func Test_FailedExplorationPublishesNothing(t *testing.T) {
	b := cfg.NewBuilder("T#broken()").At(2)
	b.Pop()
	program := newProgram(b.MustBuild())
	ex := NewExplorer(program, yield.NewCache(), testConf())
	res := ex.Explore(context.Background(), program.Methods["T#broken()"])
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ErrInternal, errors.Cause(res.Err))
	assert.Nil(t, res.Yields)
	assert.Equal(t, 0, ex.cache.Len())
}

// Object make() { return new Object(); }
// void use() { a = make(); b = make(); a.f; }
func Test_CalleeIsExploredOnce(t *testing.T) {
	mb := cfg.NewBuilder("T#make()").At(2)
	mb.Chain(mb.New("Object", 0), mb.ReturnValue())

	call := cfg.Call{Symbol: "T#make()", Name: "make", Static: true}
	b := cfg.NewBuilder("T#use()").At(5)
	n0 := b.Invoke(call)
	n1 := b.Assign("a")
	n2 := b.Invoke(call)
	n3 := b.Assign("b")
	n4 := b.Ident("a")
	n5 := b.MemberSelect("f")
	n6 := b.Pop()
	n7 := b.Return()
	b.Chain(n0, n1, n2, n3, n4, n5, n6, n7)

	program := newProgram(mb.MustBuild(), b.MustBuild())
	res, ex := explore(program, "T#use()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 1, ex.Stats().Explorations("T#make()"))
	assert.Equal(t, 1, ex.Stats().Explorations("T#use()"))

	made, ok := ex.cache.Get("T#make()")
	require.True(t, ok)
	assert.True(t, made.Complete)
	require.Len(t, made.Yields, 1)
	assert.Equal(t, "() -> NOT_NULL", made.Yields[0].String())
	require.Len(t, res.Terminals, 1)
	end := res.Terminals[0].State
	for _, name := range []string{"a", "b"} {
		v, ok := end.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, constraint.Constraint(constraint.NotNull), end.Constraint(v, constraint.NullnessDomain), name)
	}
}

// void a() { b(); }  void b() { a(); }
func Test_MutualRecursionEnds(t *testing.T) {
	method := func(symbol, callee string) *cfg.Method {
		b := cfg.NewBuilder(symbol).At(2)
		b.Chain(b.Invoke(cfg.Call{Symbol: callee, Name: callee, Static: true}), b.Pop(), b.Return())
		return b.MustBuild()
	}
	program := newProgram(method("T#a()", "T#b()"), method("T#b()", "T#a()"))
	res, ex := explore(program, "T#a()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.False(t, res.Contextual)
	assert.Equal(t, 1, ex.Stats().Explorations("T#a()"))
	assert.Equal(t, 0, ex.Stats().Explorations("T#b()"))

	published, ok := ex.cache.Get("T#a()")
	require.True(t, ok)
	assert.True(t, published.Complete)
}

// Object m0() { return m1(); } ... Object m3() { return m4(); } Object m4() { return null; }
func callChain() *cfg.Program {
	var methods []*cfg.Method
	for i := 0; i < 4; i++ {
		b := cfg.NewBuilder(fmt.Sprintf("T#m%d()", i)).At(i + 2)
		callee := fmt.Sprintf("T#m%d()", i+1)
		b.Chain(b.Invoke(cfg.Call{Symbol: callee, Name: callee, Static: true}), b.ReturnValue())
		methods = append(methods, b.MustBuild())
	}
	b := cfg.NewBuilder("T#m4()").At(6)
	b.Chain(b.Null(), b.ReturnValue())
	return newProgram(append(methods, b.MustBuild())...)
}

func Test_PublishedYieldsDoNotDependOnOrder(t *testing.T) {
	program := callChain()
	published := func(order ...string) map[string]string {
		cache := yield.NewCache()
		for _, symbol := range order {
			NewExplorer(program, cache, testConf()).Explore(context.Background(), program.Methods[symbol])
		}
		result := make(map[string]string)
		for _, symbol := range cache.Methods() {
			y, _ := cache.Get(symbol)
			result[symbol] = y.String()
		}
		return result
	}

	outerFirst := published("T#m0()", "T#m3()")
	innerFirst := published("T#m3()", "T#m0()")
	require.Contains(t, outerFirst, "T#m3()")
	for symbol, y := range outerFirst {
		if diff := cmp.Diff(y, innerFirst[symbol]); diff != "" {
			t.Errorf("yields of %s depend on the order (-outer first +inner first):\n%s", symbol, diff)
		}
	}
	assert.Equal(t, "T#m3(): 1 yields (complete)\n  () -> NULL\n", innerFirst["T#m3()"])
	assert.Contains(t, innerFirst, "T#m0()")
}

func Test_CalleeDepthKeepsYieldsLocal(t *testing.T) {
	program := callChain()
	ex := NewExplorer(program, yield.NewCache(), testConf())
	res := ex.Explore(context.Background(), program.Methods["T#m0()"])
	assert.Equal(t, StatusComplete, res.Status)
	assert.True(t, res.Contextual)
	require.NotNil(t, res.Yields)
	assert.Equal(t, []string{"() -> _"}, renderedYields(res))
	assert.Equal(t, 0, ex.cache.Len())
	assert.Equal(t, 0, ex.Stats().Explorations("T#m4()"))
}

// Object get() { return find(); }  @Nullable Object find() { ... }
func Test_CutOffCalleeFallsBackToItsDeclaration(t *testing.T) {
	fb := cfg.NewBuilder("T#find()").Returns(cfg.Nullable).At(2)
	fb.Chain(fb.New("Object", 0), fb.ReturnValue())
	gb := cfg.NewBuilder("T#get()").At(5)
	gb.Chain(gb.Invoke(cfg.Call{Symbol: "T#find()", Name: "find", Static: true}), gb.ReturnValue())
	program := newProgram(fb.MustBuild(), gb.MustBuild())

	conf := testConf()
	conf.MaxCalleeDepth = 0
	res, ex := explore(program, "T#get()", conf)
	assert.Equal(t, StatusComplete, res.Status)
	assert.True(t, res.Contextual)
	assert.Equal(t, []string{"() -> NOT_NULL", "() -> NULL"}, renderedYields(res))
	_, ok := ex.cache.Get("T#get()")
	assert.False(t, ok)
}

// void open() {
//   try { Files.open(); Files.read(); }
//   catch (FileNotFoundException e) { return; } catch (IOException e) { return; }
// }
func Test_DefiniteCatchStopsRouting(t *testing.T) {
	b := cfg.NewBuilder("T#open()").At(2)
	r := b.Region(-1)
	n0 := b.Try()
	b.Enter(r)
	n1 := b.Invoke(cfg.Call{Symbol: "Files#open()", Name: "open", Static: true, Throws: []string{"FileNotFoundException"}})
	n2 := b.Pop()
	n3 := b.Invoke(cfg.Call{Symbol: "Files#read()", Name: "read", Static: true, Throws: []string{"IOException"}})
	n4 := b.Pop()
	b.Leave()
	n5 := b.Return()
	n6 := b.Catch("e")
	n7 := b.Return()
	n8 := b.Catch("e")
	n9 := b.Return()
	b.Chain(n0, n1, n2, n3, n4, n5)
	b.Chain(n6, n7)
	b.Chain(n8, n9)
	b.AddCatch(r, n6, "FileNotFoundException")
	b.AddCatch(r, n8, "IOException")

	res, _ := explore(newProgram(b.MustBuild()), "T#open()", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.ElementsMatch(t, []cfg.NodeID{5, 7, 9}, terminalNodes(res))

	caught := make(map[cfg.NodeID][]string)
	for _, term := range res.Terminals {
		if term.Node == 5 {
			continue
		}
		e, ok := term.State.Lookup("e")
		require.True(t, ok)
		exceptionType, ok := res.Arena.ExceptionType(e)
		require.True(t, ok)
		caught[term.Node] = append(caught[term.Node], exceptionType)
	}
	assert.ElementsMatch(t, []string{"FileNotFoundException", "IOException"}, caught[7])
	assert.Equal(t, []string{"IOException"}, caught[9])
}

// void rethrow(Throwable x) { try { throw x; } catch (IOException e) { return; } catch (RuntimeException e) { return; } }
func Test_UnknownExceptionReachesEveryCatch(t *testing.T) {
	b := cfg.NewBuilder("T#rethrow(Throwable)").Param("x", "Throwable", cfg.Unannotated).At(2)
	r := b.Region(-1)
	n0 := b.Try()
	b.Enter(r)
	n1 := b.Ident("x")
	n2 := b.Throw("")
	b.Leave()
	n3 := b.Catch("e")
	n4 := b.Return()
	n5 := b.Catch("e")
	n6 := b.Return()
	b.Chain(n0, n1, n2)
	b.Chain(n3, n4)
	b.Chain(n5, n6)
	b.AddCatch(r, n3, "IOException")
	b.AddCatch(r, n5, "RuntimeException")

	res, _ := explore(newProgram(b.MustBuild()), "T#rethrow(Throwable)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	assert.ElementsMatch(t, []cfg.NodeID{2, 4, 6}, terminalNodes(res))
	for _, term := range res.Terminals {
		if term.Node == 2 {
			assert.Equal(t, TerminalThrow, term.Kind)
		}
	}
	assert.Equal(t, []string{"(NOT_NULL) -> _", "(NOT_NULL) -> throws ?"}, renderedYields(res))
}

// void query() { try { Db.query(); } catch (Exception e) { return; } }
func Test_UndeclaredExceptionTypeMayReachAnyCatch(t *testing.T) {
	b := cfg.NewBuilder("T#query()").At(2)
	r := b.Region(-1)
	n0 := b.Try()
	b.Enter(r)
	n1 := b.Invoke(cfg.Call{Symbol: "Db#query()", Name: "query", Static: true, Throws: []string{"SQLException"}})
	n2 := b.Pop()
	b.Leave()
	n3 := b.Return()
	n4 := b.Catch("e")
	n5 := b.Return()
	b.Chain(n0, n1, n2, n3)
	b.Chain(n4, n5)
	b.AddCatch(r, n4, "Exception")

	conf := testConf()
	conf.ImplicitRuntimeExceptions = false
	res, _ := explore(newProgram(b.MustBuild()), "T#query()", conf)
	assert.Equal(t, StatusComplete, res.Status)
	assert.ElementsMatch(t, []cfg.NodeID{1, 3, 5}, terminalNodes(res))
	assert.Equal(t, []string{"() -> _", "() -> throws SQLException"}, renderedYields(res))
}

// int fin(boolean b) { try { if (b) { return 1; } return 2; } finally { log(); } }
func Test_FinallyRunsOncePerExit(t *testing.T) {
	b := cfg.NewBuilder("T#fin(boolean)").Param("b", "boolean", cfg.Unannotated).At(2)
	r := b.Region(-1)
	n0 := b.Try()
	b.Enter(r)
	n1 := b.Ident("b")
	n2 := b.Branch(cfg.NoNode, cfg.NoNode)
	n3 := b.Literal(cfg.LiteralInt, "1")
	n4 := b.ReturnValue()
	n5 := b.Literal(cfg.LiteralInt, "2")
	n6 := b.ReturnValue()
	b.Leave()
	n7 := b.Finally()
	n8 := b.Invoke(cfg.Call{Symbol: "T#log()", Name: "log", Static: true})
	n9 := b.Pop()
	n10 := b.FinallyEnd()
	b.Chain(n0, n1, n2)
	b.SetTargets(n2, n3, n5)
	b.Chain(n3, n4)
	b.Chain(n5, n6)
	b.Chain(n7, n8, n9, n10)
	b.SetFinally(r, n7)

	res, _ := explore(newProgram(b.MustBuild()), "T#fin(boolean)", testConf())
	assert.Equal(t, StatusComplete, res.Status)
	require.Len(t, res.Terminals, 2)
	for _, term := range res.Terminals {
		assert.Equal(t, cfg.NodeID(10), term.Node)
		assert.Equal(t, TerminalReturn, term.Kind)
		assert.Empty(t, term.State.Completions())
	}
	// try, b, branch, then literal, return, log, pop, finally-end per exit
	assert.Equal(t, 13, res.Steps)
}

// int length(String s) { try { return s.length(); } catch (RuntimeException e) { return -1; } }
func Test_ImplicitExceptionsNeedAnObserver(t *testing.T) {
	build := func(symbol string, catching bool) *cfg.Method {
		b := cfg.NewBuilder(symbol).Param("s", "String", cfg.NonNull).At(2)
		r := b.Region(-1)
		n0 := b.Try()
		b.Enter(r)
		n1 := b.Ident("s")
		n2 := b.Invoke(cfg.Call{Symbol: "String#length()", Name: "length"})
		n3 := b.ReturnValue()
		b.Leave()
		n4 := b.Catch("e")
		n5 := b.Literal(cfg.LiteralInt, "-1")
		n6 := b.ReturnValue()
		b.Chain(n0, n1, n2, n3)
		b.Chain(n4, n5, n6)
		if catching {
			b.AddCatch(r, n4, "RuntimeException")
		} else {
			b.AddCatch(r, n4, "IOException")
		}
		return b.MustBuild()
	}
	program := newProgram(build("T#caught(String)", true), build("T#ignored(String)", false))

	res, _ := explore(program, "T#caught(String)", testConf())
	assert.ElementsMatch(t, []cfg.NodeID{3, 6}, terminalNodes(res))

	res, _ = explore(program, "T#ignored(String)", testConf())
	assert.Equal(t, []cfg.NodeID{3}, terminalNodes(res))

	conf := testConf()
	conf.ImplicitRuntimeExceptions = false
	res, _ = explore(program, "T#caught(String)", conf)
	assert.Equal(t, []cfg.NodeID{3}, terminalNodes(res))
}
