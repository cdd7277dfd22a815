package cfg

// CallGraph groups the methods of a program into strongly connected
// components of the calls between them and layers the components so that a
// method only calls into lower levels or into its own component.
type CallGraph struct {
	component map[string]int
	levels    [][]*Method
}

func newCallGraph(p *Program) *CallGraph {
	g := &CallGraph{component: make(map[string]int)}

	// Tarjan; components come out callees first.
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var components [][]string
	var visit func(symbol string)
	visit = func(symbol string) {
		index[symbol] = len(index)
		low[symbol] = index[symbol]
		stack = append(stack, symbol)
		onStack[symbol] = true
		for _, callee := range p.callees(symbol) {
			if _, ok := index[callee]; !ok {
				visit(callee)
				low[symbol] = min(low[symbol], low[callee])
			} else if onStack[callee] {
				low[symbol] = min(low[symbol], index[callee])
			}
		}
		if low[symbol] != index[symbol] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == symbol {
				break
			}
		}
		components = append(components, component)
	}
	for _, symbol := range p.order {
		if _, ok := index[symbol]; !ok {
			visit(symbol)
		}
	}

	level := make([]int, len(components))
	for i, component := range components {
		for _, symbol := range component {
			g.component[symbol] = i
		}
		for _, symbol := range component {
			for _, callee := range p.callees(symbol) {
				if c := g.component[callee]; c != i {
					level[i] = max(level[i], level[c]+1)
				}
			}
		}
	}
	for _, symbol := range p.order {
		l := level[g.component[symbol]]
		for len(g.levels) <= l {
			g.levels = append(g.levels, nil)
		}
		g.levels[l] = append(g.levels[l], p.Methods[symbol])
	}
	return g
}

// SameComponent reports whether a and b are methods of the program that can
// reach each other through calls. A recursive method shares a component
// with itself.
func (g *CallGraph) SameComponent(a, b string) bool {
	ca, ok := g.component[a]
	if !ok {
		return false
	}
	cb, ok := g.component[b]
	return ok && ca == cb
}

// Levels returns the methods layered callees first. Methods of one level
// never call each other unless they share a component.
func (g *CallGraph) Levels() [][]*Method {
	return g.levels
}

// callees returns the program methods symbol invokes, in node order.
func (p *Program) callees(symbol string) []string {
	m, ok := p.Methods[symbol]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var result []string
	for _, n := range m.Nodes {
		if n == nil || n.Kind != KindInvoke || n.Call == nil {
			continue
		}
		if _, ok := p.Methods[n.Call.Symbol]; !ok || seen[n.Call.Symbol] {
			continue
		}
		seen[n.Call.Symbol] = true
		result = append(result, n.Call.Symbol)
	}
	return result
}
