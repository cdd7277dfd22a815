package cfg

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type programFile struct {
	File    string              `yaml:"file"`
	Types   map[string][]string `yaml:"types"`
	Methods []methodFile        `yaml:"methods"`
}

type methodFile struct {
	Symbol  string       `yaml:"symbol"`
	Line    int          `yaml:"line"`
	Params  []paramFile  `yaml:"params"`
	Throws  []string     `yaml:"throws"`
	Returns string       `yaml:"returns"`
	Entry   *int         `yaml:"entry"`
	Regions []regionFile `yaml:"regions"`
	Nodes   []nodeFile   `yaml:"nodes"`
}

type paramFile struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Nullability string `yaml:"nullability"`
}

type regionFile struct {
	ID      int         `yaml:"id"`
	Parent  *int        `yaml:"parent"`
	Catches []catchFile `yaml:"catches"`
	Finally *int        `yaml:"finally"`
}

type catchFile struct {
	Types   []string `yaml:"types"`
	Handler int      `yaml:"handler"`
}

type callFile struct {
	Symbol  string   `yaml:"symbol"`
	Name    string   `yaml:"name"`
	Arity   int      `yaml:"arity"`
	Static  bool     `yaml:"static"`
	Throws  []string `yaml:"throws"`
	Returns string   `yaml:"returns"`
}

type nodeFile struct {
	ID      int       `yaml:"id"`
	Kind    string    `yaml:"kind"`
	Line    int       `yaml:"line"`
	Var     string    `yaml:"var"`
	Literal string    `yaml:"literal"`
	Value   string    `yaml:"value"`
	Op      string    `yaml:"op"`
	Type    string    `yaml:"type"`
	Call    *callFile `yaml:"call"`
	Arity   int       `yaml:"arity"`
	Region  *int      `yaml:"region"`
	Next    []int     `yaml:"next"`
	True    *int      `yaml:"true"`
	False   *int      `yaml:"false"`
}

// LoadFile reads a YAML program description.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if p.File == "" {
		p.File = path
	}
	return p, nil
}

// Decode parses a YAML program description and validates every method.
func Decode(r io.Reader) (*Program, error) {
	var pf programFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, errors.Wrap(err, "decode program")
	}
	types := NewTypeHierarchy()
	names := make([]string, 0, len(pf.Types))
	for name := range pf.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		types.Add(name, pf.Types[name]...)
	}
	program := NewProgram(pf.File, types)
	for i := range pf.Methods {
		m, err := pf.Methods[i].method()
		if err != nil {
			return nil, err
		}
		if _, dup := program.Methods[m.Symbol]; dup {
			return nil, errors.Errorf("method %s declared twice", m.Symbol)
		}
		program.AddMethod(m)
	}
	return program, nil
}

func (mf *methodFile) method() (*Method, error) {
	if mf.Symbol == "" {
		return nil, errors.New("method without symbol")
	}
	returns, ok := ParseNullability(mf.Returns)
	if !ok {
		return nil, errors.Errorf("%s: unknown nullability %q", mf.Symbol, mf.Returns)
	}
	m := &Method{
		Symbol:  mf.Symbol,
		Line:    mf.Line,
		Throws:  mf.Throws,
		Returns: returns,
		Entry:   0,
	}
	if mf.Entry != nil {
		m.Entry = NodeID(*mf.Entry)
	}
	for _, pf := range mf.Params {
		n, ok := ParseNullability(pf.Nullability)
		if !ok {
			return nil, errors.Errorf("%s: parameter %s has unknown nullability %q", mf.Symbol, pf.Name, pf.Nullability)
		}
		m.Params = append(m.Params, Param{Name: pf.Name, Type: pf.Type, Nullability: n})
	}
	for i, rf := range mf.Regions {
		if rf.ID != i {
			return nil, errors.Wrapf(ErrInvalidRegion, "%s: region ids must be dense, got %d at %d", mf.Symbol, rf.ID, i)
		}
		r := &Region{ID: rf.ID, Parent: optional(rf.Parent), Finally: NodeID(optional(rf.Finally))}
		for _, cf := range rf.Catches {
			r.Catches = append(r.Catches, Catch{Types: cf.Types, Handler: NodeID(cf.Handler)})
		}
		m.Regions = append(m.Regions, r)
	}
	nodes := append([]nodeFile(nil), mf.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for i, nf := range nodes {
		if nf.ID != i {
			return nil, errors.Errorf("%s: node ids must be dense, missing %d", mf.Symbol, i)
		}
		n, err := nf.node()
		if err != nil {
			return nil, errors.Wrapf(err, "%s", mf.Symbol)
		}
		m.Nodes = append(m.Nodes, n)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (nf *nodeFile) node() (*Node, error) {
	kind, ok := ParseKind(nf.Kind)
	if !ok {
		return nil, errors.Errorf("node %d: unknown kind %q", nf.ID, nf.Kind)
	}
	n := &Node{
		ID:     NodeID(nf.ID),
		Kind:   kind,
		Line:   nf.Line,
		Var:    nf.Var,
		Value:  nf.Value,
		Op:     nf.Op,
		Type:   nf.Type,
		Arity:  nf.Arity,
		Region: optional(nf.Region),
		True:   NodeID(optional(nf.True)),
		False:  NodeID(optional(nf.False)),
	}
	if nf.Literal != "" {
		if n.Literal, ok = ParseLiteralKind(nf.Literal); !ok {
			return nil, errors.Errorf("node %d: unknown literal %q", nf.ID, nf.Literal)
		}
	}
	for _, next := range nf.Next {
		n.Next = append(n.Next, NodeID(next))
	}
	if nf.Call != nil {
		returns, ok := ParseNullability(nf.Call.Returns)
		if !ok {
			return nil, errors.Errorf("node %d: unknown nullability %q", nf.ID, nf.Call.Returns)
		}
		n.Call = &Call{
			Symbol:  nf.Call.Symbol,
			Name:    nf.Call.Name,
			Arity:   nf.Call.Arity,
			Static:  nf.Call.Static,
			Throws:  nf.Call.Throws,
			Returns: returns,
		}
		if n.Call.Symbol == "" {
			n.Call.Symbol = n.Call.Name
		}
	}
	return n, nil
}

func optional(v *int) int {
	if v == nil {
		return -1
	}
	return *v
}
