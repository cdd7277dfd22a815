// Package cfg is the control-flow graph model the engine consumes. Graphs
// are produced by a frontend; this package only describes them.
package cfg

import (
	"fmt"
	"sync"
)

type NodeID int

// NoNode marks an absent successor or finally block.
const NoNode NodeID = -1

type Kind uint8

const (
	KindUnknown Kind = iota
	KindLiteral
	KindIdentifier
	KindAssign
	KindBinary
	KindUnary
	KindShortCircuit
	KindMemberSelect
	KindInvoke
	KindNew
	KindBranch
	KindPop
	KindTry
	KindCatch
	KindFinally
	KindFinallyEnd
	KindReturn
	KindThrow
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindLiteral:      "literal",
	KindIdentifier:   "identifier",
	KindAssign:       "assign",
	KindBinary:       "binary",
	KindUnary:        "unary",
	KindShortCircuit: "short-circuit",
	KindMemberSelect: "member-select",
	KindInvoke:       "invoke",
	KindNew:          "new",
	KindBranch:       "branch",
	KindPop:          "pop",
	KindTry:          "try",
	KindCatch:        "catch",
	KindFinally:      "finally",
	KindFinallyEnd:   "finally-end",
	KindReturn:       "return",
	KindThrow:        "throw",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

type LiteralKind uint8

const (
	LiteralOther LiteralKind = iota
	LiteralNull
	LiteralTrue
	LiteralFalse
	LiteralInt
	LiteralString
)

var literalNames = map[LiteralKind]string{
	LiteralOther:  "other",
	LiteralNull:   "null",
	LiteralTrue:   "true",
	LiteralFalse:  "false",
	LiteralInt:    "int",
	LiteralString: "string",
}

func (l LiteralKind) String() string {
	if name, ok := literalNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LiteralKind(%d)", uint8(l))
}

func ParseLiteralKind(s string) (LiteralKind, bool) {
	for k, name := range literalNames {
		if name == s {
			return k, true
		}
	}
	return LiteralOther, false
}

type Nullability uint8

const (
	Unannotated Nullability = iota
	NonNull
	Nullable
)

func (n Nullability) String() string {
	switch n {
	case NonNull:
		return "nonnull"
	case Nullable:
		return "nullable"
	}
	return ""
}

func ParseNullability(s string) (Nullability, bool) {
	switch s {
	case "":
		return Unannotated, true
	case "nonnull":
		return NonNull, true
	case "nullable":
		return Nullable, true
	}
	return Unannotated, false
}

type EdgeKind uint8

const (
	EdgeSequential EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeException
)

func (e EdgeKind) String() string {
	switch e {
	case EdgeSequential:
		return "seq"
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	case EdgeException:
		return "exception"
	}
	return fmt.Sprintf("EdgeKind(%d)", uint8(e))
}

// Edge is a resolved successor. Exception edges carry the thrown type.
type Edge struct {
	Kind      EdgeKind
	To        NodeID
	Exception string
}

// Call is the static metadata of an invocation.
type Call struct {
	Symbol  string
	Name    string
	Arity   int
	Static  bool
	Throws  []string
	Returns Nullability
}

// IsEquals reports whether the call is an instance equals(Object) call.
func (c *Call) IsEquals() bool {
	return c != nil && !c.Static && c.Name == "equals" && c.Arity == 1
}

type Node struct {
	ID      NodeID
	Kind    Kind
	Line    int
	Var     string
	Literal LiteralKind
	Value   string
	Op      string
	Type    string
	Call    *Call
	// Arity is the number of operands popped by new and unknown nodes.
	Arity int
	// Region is the innermost try region protecting the node, -1 if none.
	Region int
	Next   []NodeID
	True   NodeID
	False  NodeID
}

func (n *Node) String() string {
	switch n.Kind {
	case KindLiteral:
		if n.Value != "" {
			return fmt.Sprintf("#%d literal %s", n.ID, n.Value)
		}
		return fmt.Sprintf("#%d literal %s", n.ID, n.Literal)
	case KindIdentifier, KindAssign, KindCatch:
		return fmt.Sprintf("#%d %s %s", n.ID, n.Kind, n.Var)
	case KindBinary, KindUnary, KindShortCircuit:
		return fmt.Sprintf("#%d %s %s", n.ID, n.Kind, n.Op)
	case KindInvoke:
		if n.Call != nil {
			return fmt.Sprintf("#%d invoke %s", n.ID, n.Call.Symbol)
		}
	case KindNew, KindThrow:
		if n.Type != "" {
			return fmt.Sprintf("#%d %s %s", n.ID, n.Kind, n.Type)
		}
	case KindMemberSelect:
		return fmt.Sprintf("#%d member-select .%s", n.ID, n.Var)
	}
	return fmt.Sprintf("#%d %s", n.ID, n.Kind)
}

// Catch is one catch clause; a multi-catch lists several types.
type Catch struct {
	Types   []string
	Handler NodeID
}

// Region is a protected range of nodes: a try body, or a catch body that
// still owes the try's finally block.
type Region struct {
	ID      int
	Parent  int
	Catches []Catch
	// Finally is the finally marker node, NoNode when there is none.
	Finally NodeID
}

type Param struct {
	Name        string
	Type        string
	Nullability Nullability
}

type Method struct {
	Symbol  string
	Params  []Param
	Entry   NodeID
	Nodes   []*Node
	Regions []*Region
	Throws  []string
	Returns Nullability
	Line    int
}

func (m *Method) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(m.Nodes) {
		return nil
	}
	return m.Nodes[id]
}

func (m *Method) Region(id int) *Region {
	if id < 0 || id >= len(m.Regions) {
		return nil
	}
	return m.Regions[id]
}

// Successors returns the static successors of a node. Exceptional
// successors depend on thrown types and are computed by the engine.
func (m *Method) Successors(n *Node) []Edge {
	if n.Kind == KindBranch || n.Kind == KindShortCircuit {
		return []Edge{{Kind: EdgeTrue, To: n.True}, {Kind: EdgeFalse, To: n.False}}
	}
	result := make([]Edge, 0, len(n.Next))
	for _, next := range n.Next {
		result = append(result, Edge{Kind: EdgeSequential, To: next})
	}
	return result
}

// Program is everything the frontend hands over for one source file.
type Program struct {
	File    string
	Types   *TypeHierarchy
	Methods map[string]*Method
	order   []string

	mu    sync.Mutex
	graph *CallGraph
}

func NewProgram(file string, types *TypeHierarchy) *Program {
	if types == nil {
		types = NewTypeHierarchy()
	}
	return &Program{
		File:    file,
		Types:   types,
		Methods: make(map[string]*Method),
	}
}

func (p *Program) AddMethod(m *Method) {
	if _, ok := p.Methods[m.Symbol]; !ok {
		p.order = append(p.order, m.Symbol)
	}
	p.Methods[m.Symbol] = m
	p.mu.Lock()
	p.graph = nil
	p.mu.Unlock()
}

// CallGraph returns the call graph of the methods added so far.
func (p *Program) CallGraph() *CallGraph {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.graph == nil {
		p.graph = newCallGraph(p)
	}
	return p.graph
}

// MethodList returns the methods in the order they were added.
func (p *Program) MethodList() []*Method {
	result := make([]*Method, 0, len(p.order))
	for _, symbol := range p.order {
		result = append(result, p.Methods[symbol])
	}
	return result
}
