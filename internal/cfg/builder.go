package cfg

import (
	"github.com/pkg/errors"
)

var (
	ErrNoNodes       = errors.New("method has no nodes")
	ErrDanglingEdge  = errors.New("edge points outside the method")
	ErrInvalidRegion = errors.New("invalid try region")
)

// Builder assembles a Method node by node. Nodes receive the current line
// and region at the time they are added.
type Builder struct {
	method  *Method
	line    int
	regions []int
	err     error
}

func NewBuilder(symbol string) *Builder {
	return &Builder{
		method: &Method{Symbol: symbol, Entry: NoNode},
	}
}

func (b *Builder) Param(name, typ string, nullability Nullability) *Builder {
	b.method.Params = append(b.method.Params, Param{Name: name, Type: typ, Nullability: nullability})
	return b
}

func (b *Builder) Throws(types ...string) *Builder {
	b.method.Throws = append(b.method.Throws, types...)
	return b
}

func (b *Builder) Returns(n Nullability) *Builder {
	b.method.Returns = n
	return b
}

// At sets the source line of the nodes added next.
func (b *Builder) At(line int) *Builder {
	b.line = line
	if b.method.Line == 0 {
		b.method.Line = line
	}
	return b
}

// Add appends a copy of n and returns its id.
func (b *Builder) Add(n Node) NodeID {
	id := NodeID(len(b.method.Nodes))
	n.ID = id
	if n.Line == 0 {
		n.Line = b.line
	}
	n.Region = b.currentRegion()
	if n.Kind != KindBranch && n.Kind != KindShortCircuit {
		n.True, n.False = NoNode, NoNode
	}
	b.method.Nodes = append(b.method.Nodes, &n)
	if b.method.Entry == NoNode {
		b.method.Entry = id
	}
	return id
}

func (b *Builder) Literal(kind LiteralKind, value string) NodeID {
	return b.Add(Node{Kind: KindLiteral, Literal: kind, Value: value})
}

func (b *Builder) Null() NodeID  { return b.Literal(LiteralNull, "null") }
func (b *Builder) True() NodeID  { return b.Literal(LiteralTrue, "true") }
func (b *Builder) False() NodeID { return b.Literal(LiteralFalse, "false") }

func (b *Builder) Ident(name string) NodeID {
	return b.Add(Node{Kind: KindIdentifier, Var: name})
}

func (b *Builder) Assign(name string) NodeID {
	return b.Add(Node{Kind: KindAssign, Var: name})
}

func (b *Builder) Binary(op string) NodeID {
	return b.Add(Node{Kind: KindBinary, Op: op})
}

func (b *Builder) Unary(op string) NodeID {
	return b.Add(Node{Kind: KindUnary, Op: op})
}

func (b *Builder) MemberSelect(field string) NodeID {
	return b.Add(Node{Kind: KindMemberSelect, Var: field})
}

func (b *Builder) Invoke(call Call) NodeID {
	c := call
	if c.Symbol == "" {
		c.Symbol = c.Name
	}
	return b.Add(Node{Kind: KindInvoke, Call: &c})
}

func (b *Builder) New(typ string, arity int, throws ...string) NodeID {
	return b.Add(Node{Kind: KindNew, Type: typ, Arity: arity, Call: &Call{Symbol: typ + "#<init>", Name: "<init>", Arity: arity, Throws: throws}})
}

func (b *Builder) Pop() NodeID {
	return b.Add(Node{Kind: KindPop})
}

func (b *Builder) Unknown(arity int) NodeID {
	return b.Add(Node{Kind: KindUnknown, Arity: arity})
}

func (b *Builder) Return() NodeID {
	return b.Add(Node{Kind: KindReturn})
}

// ReturnValue adds a return that pops the returned value.
func (b *Builder) ReturnValue() NodeID {
	return b.Add(Node{Kind: KindReturn, Arity: 1})
}

func (b *Builder) Throw(typ string) NodeID {
	return b.Add(Node{Kind: KindThrow, Type: typ})
}

func (b *Builder) Try() NodeID {
	return b.Add(Node{Kind: KindTry})
}

func (b *Builder) Catch(name string) NodeID {
	return b.Add(Node{Kind: KindCatch, Var: name})
}

func (b *Builder) Finally() NodeID {
	return b.Add(Node{Kind: KindFinally})
}

func (b *Builder) FinallyEnd() NodeID {
	return b.Add(Node{Kind: KindFinallyEnd})
}

// Branch adds a conditional jump on the value on top of the stack.
func (b *Builder) Branch(whenTrue, whenFalse NodeID) NodeID {
	return b.Add(Node{Kind: KindBranch, True: whenTrue, False: whenFalse})
}

// ShortCircuit adds a && or || node. The true edge leads to the right
// operand for &&, the false edge for ||.
func (b *Builder) ShortCircuit(op string, whenTrue, whenFalse NodeID) NodeID {
	return b.Add(Node{Kind: KindShortCircuit, Op: op, True: whenTrue, False: whenFalse})
}

// SetTargets fills in the true and false edges of a branch added before its
// targets existed.
func (b *Builder) SetTargets(id, whenTrue, whenFalse NodeID) {
	n := b.node(id)
	if n == nil {
		return
	}
	n.True, n.False = whenTrue, whenFalse
}

// Link adds sequential edges from one node to others.
func (b *Builder) Link(from NodeID, to ...NodeID) {
	n := b.node(from)
	if n == nil {
		return
	}
	n.Next = append(n.Next, to...)
}

// Chain links each node to the next one.
func (b *Builder) Chain(ids ...NodeID) {
	for i := 0; i+1 < len(ids); i++ {
		b.Link(ids[i], ids[i+1])
	}
}

// Region declares a try region nested in parent (-1 for top level).
func (b *Builder) Region(parent int) int {
	id := len(b.method.Regions)
	b.method.Regions = append(b.method.Regions, &Region{ID: id, Parent: parent, Finally: NoNode})
	return id
}

func (b *Builder) AddCatch(region int, handler NodeID, types ...string) {
	r := b.method.Region(region)
	if r == nil {
		b.fail(errors.Wrapf(ErrInvalidRegion, "catch on region %d", region))
		return
	}
	r.Catches = append(r.Catches, Catch{Types: types, Handler: handler})
}

func (b *Builder) SetFinally(region int, marker NodeID) {
	r := b.method.Region(region)
	if r == nil {
		b.fail(errors.Wrapf(ErrInvalidRegion, "finally on region %d", region))
		return
	}
	r.Finally = marker
}

// Enter makes region the region of the nodes added next.
func (b *Builder) Enter(region int) {
	b.regions = append(b.regions, region)
}

func (b *Builder) Leave() {
	if len(b.regions) > 0 {
		b.regions = b.regions[:len(b.regions)-1]
	}
}

func (b *Builder) SetEntry(id NodeID) {
	b.method.Entry = id
}

func (b *Builder) Build() (*Method, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.method.Validate(); err != nil {
		return nil, err
	}
	return b.method, nil
}

// MustBuild is Build for statically known graphs.
func (b *Builder) MustBuild() *Method {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func (b *Builder) currentRegion() int {
	if len(b.regions) == 0 {
		return -1
	}
	return b.regions[len(b.regions)-1]
}

func (b *Builder) node(id NodeID) *Node {
	n := b.method.Node(id)
	if n == nil {
		b.fail(errors.Wrapf(ErrDanglingEdge, "node %d", id))
	}
	return n
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Validate checks that every edge, region and handler refers to something
// inside the method.
func (m *Method) Validate() error {
	if len(m.Nodes) == 0 {
		return errors.Wrapf(ErrNoNodes, "%s", m.Symbol)
	}
	if m.Node(m.Entry) == nil {
		return errors.Wrapf(ErrDanglingEdge, "%s: entry %d", m.Symbol, m.Entry)
	}
	for i, n := range m.Nodes {
		if n == nil || n.ID != NodeID(i) {
			return errors.Errorf("%s: node %d is out of place", m.Symbol, i)
		}
		if n.Kind == KindBranch || n.Kind == KindShortCircuit {
			if m.Node(n.True) == nil || m.Node(n.False) == nil {
				return errors.Wrapf(ErrDanglingEdge, "%s: %s needs both targets", m.Symbol, n)
			}
		}
		for _, next := range n.Next {
			if m.Node(next) == nil {
				return errors.Wrapf(ErrDanglingEdge, "%s: %s -> %d", m.Symbol, n, next)
			}
		}
		if n.Region >= len(m.Regions) || n.Region < -1 {
			return errors.Wrapf(ErrInvalidRegion, "%s: %s in region %d", m.Symbol, n, n.Region)
		}
		if n.Kind == KindInvoke && n.Call == nil {
			return errors.Errorf("%s: %s has no call metadata", m.Symbol, n)
		}
	}
	for _, r := range m.Regions {
		if r.Parent >= r.ID || r.Parent < -1 {
			return errors.Wrapf(ErrInvalidRegion, "%s: region %d has parent %d", m.Symbol, r.ID, r.Parent)
		}
		if r.Finally != NoNode {
			f := m.Node(r.Finally)
			if f == nil || f.Kind != KindFinally {
				return errors.Wrapf(ErrInvalidRegion, "%s: region %d finally %d is not a finally marker", m.Symbol, r.ID, r.Finally)
			}
			if len(f.Next) != 1 {
				return errors.Wrapf(ErrInvalidRegion, "%s: finally marker %d needs exactly one successor", m.Symbol, f.ID)
			}
		}
		for _, c := range r.Catches {
			h := m.Node(c.Handler)
			if h == nil || h.Kind != KindCatch {
				return errors.Wrapf(ErrInvalidRegion, "%s: region %d handler %d is not a catch", m.Symbol, r.ID, c.Handler)
			}
		}
	}
	return nil
}
