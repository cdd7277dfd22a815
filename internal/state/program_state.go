// Package state holds the immutable snapshot the engine forks along each
// explored path. Every operation returns a new ProgramState; nothing here
// mutates a state that has been handed out.
package state

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"symscanner/internal/constraint"
	"symscanner/internal/symbolic"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrNoCompletion   = errors.New("no pending completion")
)

type CompletionKind uint8

const (
	CompletionNormal CompletionKind = iota
	CompletionReturn
	CompletionThrow
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionNormal:
		return "normal"
	case CompletionReturn:
		return "return"
	case CompletionThrow:
		return "throw"
	}
	return fmt.Sprintf("CompletionKind(%d)", uint8(k))
}

// Completion is the way control entered a finally block, resumed when the
// block ends.
type Completion struct {
	Kind  CompletionKind
	Value symbolic.ID
	// Region is where a return or throw continues after the finally block.
	Region int
}

type constraintMap map[constraint.Domain]constraint.Constraint

type fingerprint struct {
	once  sync.Once
	value string
}

type ProgramState struct {
	stack       []symbolic.ID
	vars        map[string]symbolic.ID
	constraints map[symbolic.ID]constraintMap
	relations   []Relation
	completions []Completion
	// visits counts program points on this path; it is not part of equality.
	visits map[int]int
	fp     *fingerprint
}

// New returns the state every exploration starts from: the literal values
// carry their constraints, nothing else is known.
func New() *ProgramState {
	return &ProgramState{
		vars: map[string]symbolic.ID{},
		constraints: map[symbolic.ID]constraintMap{
			symbolic.Null:  {constraint.NullnessDomain: constraint.Null},
			symbolic.True:  {constraint.BooleanDomain: constraint.True, constraint.NullnessDomain: constraint.NotNull},
			symbolic.False: {constraint.BooleanDomain: constraint.False, constraint.NullnessDomain: constraint.NotNull},
		},
		visits: map[int]int{},
		fp:     &fingerprint{},
	}
}

func (ps *ProgramState) clone() *ProgramState {
	c := *ps
	c.fp = &fingerprint{}
	return &c
}

func (ps *ProgramState) Push(values ...symbolic.ID) *ProgramState {
	c := ps.clone()
	c.stack = make([]symbolic.ID, len(ps.stack), len(ps.stack)+len(values))
	copy(c.stack, ps.stack)
	c.stack = append(c.stack, values...)
	return c
}

func (ps *ProgramState) Pop() (*ProgramState, symbolic.ID, error) {
	if len(ps.stack) == 0 {
		return nil, symbolic.None, ErrStackUnderflow
	}
	c := ps.clone()
	c.stack = ps.stack[:len(ps.stack)-1:len(ps.stack)-1]
	return c, ps.stack[len(ps.stack)-1], nil
}

// PopN removes n values and returns them in push order.
func (ps *ProgramState) PopN(n int) (*ProgramState, []symbolic.ID, error) {
	if n < 0 || len(ps.stack) < n {
		return nil, nil, errors.Wrapf(ErrStackUnderflow, "pop %d of %d", n, len(ps.stack))
	}
	c := ps.clone()
	keep := len(ps.stack) - n
	c.stack = ps.stack[:keep:keep]
	return c, append([]symbolic.ID(nil), ps.stack[keep:]...), nil
}

// Peek returns the value depth positions below the top of the stack.
func (ps *ProgramState) Peek(depth int) (symbolic.ID, error) {
	if depth < 0 || depth >= len(ps.stack) {
		return symbolic.None, errors.Wrapf(ErrStackUnderflow, "peek %d of %d", depth, len(ps.stack))
	}
	return ps.stack[len(ps.stack)-1-depth], nil
}

func (ps *ProgramState) StackSize() int { return len(ps.stack) }

func (ps *ProgramState) Stack() []symbolic.ID {
	return append([]symbolic.ID(nil), ps.stack...)
}

func (ps *ProgramState) ClearStack() *ProgramState {
	if len(ps.stack) == 0 {
		return ps
	}
	c := ps.clone()
	c.stack = nil
	return c
}

func (ps *ProgramState) Bind(name string, v symbolic.ID) *ProgramState {
	if old, ok := ps.vars[name]; ok && old == v {
		return ps
	}
	c := ps.clone()
	c.vars = make(map[string]symbolic.ID, len(ps.vars)+1)
	for k, old := range ps.vars {
		c.vars[k] = old
	}
	c.vars[name] = v
	return c
}

// Unbind forgets every variable whose name matches.
func (ps *ProgramState) Unbind(match func(name string) bool) *ProgramState {
	var drop []string
	for k := range ps.vars {
		if match(k) {
			drop = append(drop, k)
		}
	}
	if len(drop) == 0 {
		return ps
	}
	c := ps.clone()
	c.vars = make(map[string]symbolic.ID, len(ps.vars))
	for k, v := range ps.vars {
		c.vars[k] = v
	}
	for _, k := range drop {
		delete(c.vars, k)
	}
	return c
}

func (ps *ProgramState) Lookup(name string) (symbolic.ID, bool) {
	v, ok := ps.vars[name]
	return v, ok
}

// Vars returns the bound variable names, sorted.
func (ps *ProgramState) Vars() []string {
	names := make([]string, 0, len(ps.vars))
	for k := range ps.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (ps *ProgramState) Constraint(v symbolic.ID, domain constraint.Domain) constraint.Constraint {
	return ps.constraints[v][domain]
}

func (ps *ProgramState) Constraints(v symbolic.ID) constraint.Set {
	return constraint.NewSet(ps.constraints[v])
}

// AddConstraint records c on v. ok is false when v already holds a
// constraint of the same domain that c is not valid with; the existing
// constraint wins when they are compatible.
func (ps *ProgramState) AddConstraint(v symbolic.ID, c constraint.Constraint) (*ProgramState, bool) {
	existing := ps.constraints[v][c.Domain()]
	if existing != nil {
		if !existing.IsValidWith(c) || !c.IsValidWith(existing) {
			return nil, false
		}
		return ps, true
	}
	return ps.PutConstraint(v, c), true
}

// PutConstraint overwrites the constraint of c's domain on v. Checks use it
// for state transitions such as open to closed.
func (ps *ProgramState) PutConstraint(v symbolic.ID, c constraint.Constraint) *ProgramState {
	if ps.constraints[v][c.Domain()] == c {
		return ps
	}
	n := ps.clone()
	n.constraints = make(map[symbolic.ID]constraintMap, len(ps.constraints)+1)
	for k, m := range ps.constraints {
		n.constraints[k] = m
	}
	m := make(constraintMap, len(ps.constraints[v])+1)
	for d, old := range ps.constraints[v] {
		m[d] = old
	}
	m[c.Domain()] = c
	n.constraints[v] = m
	return n
}

func (ps *ProgramState) RemoveConstraint(v symbolic.ID, domain constraint.Domain) *ProgramState {
	if _, ok := ps.constraints[v][domain]; !ok {
		return ps
	}
	n := ps.clone()
	n.constraints = make(map[symbolic.ID]constraintMap, len(ps.constraints))
	for k, m := range ps.constraints {
		n.constraints[k] = m
	}
	m := make(constraintMap, len(ps.constraints[v]))
	for d, old := range ps.constraints[v] {
		if d != domain {
			m[d] = old
		}
	}
	if len(m) == 0 {
		delete(n.constraints, v)
	} else {
		n.constraints[v] = m
	}
	return n
}

// ValuesWith returns the values currently holding c, sorted by id.
func (ps *ProgramState) ValuesWith(c constraint.Constraint) []symbolic.ID {
	var result []symbolic.ID
	for v, m := range ps.constraints {
		if m[c.Domain()] == c {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Relations returns the relations known to hold on this path.
func (ps *ProgramState) Relations() []Relation {
	return append([]Relation(nil), ps.relations...)
}

func (ps *ProgramState) withRelation(r Relation) *ProgramState {
	r = r.normalize()
	i := sort.Search(len(ps.relations), func(i int) bool { return !ps.relations[i].less(r) })
	if i < len(ps.relations) && ps.relations[i] == r {
		return ps
	}
	c := ps.clone()
	c.relations = make([]Relation, 0, len(ps.relations)+1)
	c.relations = append(c.relations, ps.relations[:i]...)
	c.relations = append(c.relations, r)
	c.relations = append(c.relations, ps.relations[i:]...)
	return c
}

func (ps *ProgramState) PushCompletion(comp Completion) *ProgramState {
	c := ps.clone()
	c.completions = make([]Completion, len(ps.completions), len(ps.completions)+1)
	copy(c.completions, ps.completions)
	c.completions = append(c.completions, comp)
	return c
}

func (ps *ProgramState) PopCompletion() (*ProgramState, Completion, error) {
	if len(ps.completions) == 0 {
		return nil, Completion{}, ErrNoCompletion
	}
	c := ps.clone()
	last := len(ps.completions) - 1
	c.completions = ps.completions[:last:last]
	return c, ps.completions[last], nil
}

func (ps *ProgramState) Completions() []Completion {
	return append([]Completion(nil), ps.completions...)
}

// Visit counts one more execution of a program point on this path.
func (ps *ProgramState) Visit(point int) *ProgramState {
	c := ps.clone()
	c.visits = make(map[int]int, len(ps.visits)+1)
	for k, v := range ps.visits {
		c.visits[k] = v
	}
	c.visits[point]++
	return c
}

func (ps *ProgramState) Visits(point int) int {
	return ps.visits[point]
}

// Cleanup drops what can no longer influence the path: constraints and
// relations of values unreachable from the stack, the variables, pending
// completions and roots. Retained constraints survive.
func (ps *ProgramState) Cleanup(arena *symbolic.Arena, roots ...symbolic.ID) *ProgramState {
	live := map[symbolic.ID]bool{symbolic.Null: true, symbolic.True: true, symbolic.False: true}
	var queue []symbolic.ID
	mark := func(v symbolic.ID) {
		if v == symbolic.None || live[v] {
			return
		}
		live[v] = true
		queue = append(queue, v)
	}
	for _, v := range roots {
		mark(v)
	}
	for _, v := range ps.stack {
		mark(v)
	}
	for _, v := range ps.vars {
		mark(v)
	}
	for _, comp := range ps.completions {
		mark(comp.Value)
	}
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, op := range arena.Record(v).ComputedFrom() {
			mark(op)
		}
	}

	changed := false
	constraints := make(map[symbolic.ID]constraintMap, len(ps.constraints))
	for v, m := range ps.constraints {
		if live[v] {
			constraints[v] = m
			continue
		}
		kept := constraintMap{}
		for d, c := range m {
			if constraint.IsRetained(c) {
				kept[d] = c
			}
		}
		if len(kept) != len(m) {
			changed = true
		}
		if len(kept) > 0 {
			constraints[v] = kept
		}
	}
	var relations []Relation
	for _, r := range ps.relations {
		if live[r.Left] && live[r.Right] {
			relations = append(relations, r)
		} else {
			changed = true
		}
	}
	if !changed {
		return ps
	}
	c := ps.clone()
	c.constraints = constraints
	c.relations = relations
	return c
}

// Equal compares stack, bindings, constraints, relations and pending
// completions. Visit counters are ignored.
func (ps *ProgramState) Equal(o *ProgramState) bool {
	if ps == o {
		return true
	}
	if o == nil || len(ps.stack) != len(o.stack) || len(ps.vars) != len(o.vars) ||
		len(ps.constraints) != len(o.constraints) || len(ps.relations) != len(o.relations) ||
		len(ps.completions) != len(o.completions) {
		return false
	}
	for i := range ps.stack {
		if ps.stack[i] != o.stack[i] {
			return false
		}
	}
	for k, v := range ps.vars {
		if ov, ok := o.vars[k]; !ok || ov != v {
			return false
		}
	}
	for v, m := range ps.constraints {
		om, ok := o.constraints[v]
		if !ok || len(om) != len(m) {
			return false
		}
		for d, c := range m {
			if om[d] != c {
				return false
			}
		}
	}
	for i := range ps.relations {
		if ps.relations[i] != o.relations[i] {
			return false
		}
	}
	for i := range ps.completions {
		if ps.completions[i] != o.completions[i] {
			return false
		}
	}
	return true
}

// Fingerprint is a hash of everything Equal compares. Equal states have
// equal fingerprints.
func (ps *ProgramState) Fingerprint() string {
	ps.fp.once.Do(func() {
		h := sha256.New()
		writeInt := func(v int64) { _ = binary.Write(h, binary.LittleEndian, v) }

		writeInt(int64(len(ps.stack)))
		for _, v := range ps.stack {
			writeInt(int64(v))
		}
		for _, name := range ps.Vars() {
			h.Write([]byte(name))
			writeInt(int64(ps.vars[name]))
		}
		h.Write([]byte{0})
		ids := make([]symbolic.ID, 0, len(ps.constraints))
		for v := range ps.constraints {
			ids = append(ids, v)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, v := range ids {
			writeInt(int64(v))
			for _, c := range constraint.NewSet(ps.constraints[v]) {
				fmt.Fprintf(h, "%s=%T:%v;", c.Domain(), c, c)
			}
		}
		h.Write([]byte{1})
		for _, r := range ps.relations {
			writeInt(int64(r.Kind))
			writeInt(int64(r.Left))
			writeInt(int64(r.Right))
		}
		h.Write([]byte{2})
		for _, comp := range ps.completions {
			writeInt(int64(comp.Kind))
			writeInt(int64(comp.Value))
			writeInt(int64(comp.Region))
		}
		ps.fp.value = fmt.Sprintf("%x", h.Sum(nil))
	})
	return ps.fp.value
}

func (ps *ProgramState) String() string {
	var builder strings.Builder
	builder.WriteString("stack=[")
	for i, v := range ps.stack {
		if i > 0 {
			builder.WriteString(" ")
		}
		fmt.Fprintf(&builder, "SV_%d", v)
	}
	builder.WriteString("] vars={")
	for i, name := range ps.Vars() {
		if i > 0 {
			builder.WriteString(" ")
		}
		fmt.Fprintf(&builder, "%s:SV_%d", name, ps.vars[name])
	}
	builder.WriteString("} constraints={")
	ids := make([]symbolic.ID, 0, len(ps.constraints))
	for v := range ps.constraints {
		if v > symbolic.False {
			ids = append(ids, v)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, v := range ids {
		if i > 0 {
			builder.WriteString(" ")
		}
		fmt.Fprintf(&builder, "SV_%d:%s", v, ps.Constraints(v))
	}
	builder.WriteString("}")
	if len(ps.relations) > 0 {
		builder.WriteString(" relations=[")
		for i, r := range ps.relations {
			if i > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(r.String())
		}
		builder.WriteString("]")
	}
	if len(ps.completions) > 0 {
		builder.WriteString(" pending=[")
		for i, comp := range ps.completions {
			if i > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(comp.Kind.String())
		}
		builder.WriteString("]")
	}
	return builder.String()
}
