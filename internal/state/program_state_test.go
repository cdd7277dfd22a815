package state

import (
	"symscanner/internal/constraint"
	"symscanner/internal/symbolic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openness uint8

const (
	open openness = iota + 1
	closed
)

func (o openness) Domain() constraint.Domain                          { return "resource" }
func (o openness) Inverse() constraint.Constraint                     { return nil }
func (o openness) CopyOver(constraint.Relation) constraint.Constraint { return nil }
func (o openness) IsValidWith(c constraint.Constraint) bool {
	return c == nil || c.Domain() != "resource" || c == constraint.Constraint(o)
}
func (o openness) HasPreciseValue() bool { return false }
func (o openness) ValueAsString() string { return "resource" }
func (o openness) Retained() bool        { return o == open }

func Test_StackOperations(t *testing.T) {
	ps := New().Push(3, 4, 5)
	assert.Equal(t, 3, ps.StackSize())

	top, err := ps.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, symbolic.ID(5), top)

	popped, v, err := ps.Pop()
	require.NoError(t, err)
	assert.Equal(t, symbolic.ID(5), v)
	assert.Equal(t, 2, popped.StackSize())
	assert.Equal(t, 3, ps.StackSize())

	rest, vs, err := ps.PopN(2)
	require.NoError(t, err)
	assert.Equal(t, []symbolic.ID{4, 5}, vs)
	assert.Equal(t, []symbolic.ID{3}, rest.Stack())

	_, _, err = New().Pop()
	assert.Equal(t, ErrStackUnderflow, errors.Cause(err))
	_, _, err = ps.PopN(4)
	assert.Equal(t, ErrStackUnderflow, errors.Cause(err))
	_, err = ps.Peek(3)
	assert.Equal(t, ErrStackUnderflow, errors.Cause(err))
}

func Test_PushDoesNotShareBacking(t *testing.T) {
	base, _, err := New().Push(3, 4).Pop()
	require.NoError(t, err)
	a := base.Push(7)
	b := base.Push(8)
	assert.Equal(t, []symbolic.ID{3, 7}, a.Stack())
	assert.Equal(t, []symbolic.ID{3, 8}, b.Stack())
}

func Test_Bindings(t *testing.T) {
	ps := New().Bind("x", 3).Bind("this.f", 4)
	v, ok := ps.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, symbolic.ID(3), v)
	assert.Equal(t, []string{"this.f", "x"}, ps.Vars())

	forgot := ps.Unbind(func(name string) bool { return name == "this.f" })
	_, ok = forgot.Lookup("this.f")
	assert.False(t, ok)
	_, ok = ps.Lookup("this.f")
	assert.True(t, ok)
	assert.Same(t, ps, ps.Bind("x", 3))
}

func Test_AddConstraint(t *testing.T) {
	ps := New()
	next, ok := ps.AddConstraint(5, constraint.NotNull)
	require.True(t, ok)
	assert.Equal(t, constraint.Constraint(constraint.NotNull), next.Constraint(5, constraint.NullnessDomain))
	assert.Nil(t, ps.Constraint(5, constraint.NullnessDomain))

	same, ok := next.AddConstraint(5, constraint.NotNull)
	assert.True(t, ok)
	assert.Same(t, next, same)

	_, ok = next.AddConstraint(5, constraint.Null)
	assert.False(t, ok)

	put := next.PutConstraint(5, constraint.Null)
	assert.Equal(t, constraint.Constraint(constraint.Null), put.Constraint(5, constraint.NullnessDomain))
	removed := put.RemoveConstraint(5, constraint.NullnessDomain)
	assert.Empty(t, removed.Constraints(5))
}

func Test_Completions(t *testing.T) {
	ps := New().PushCompletion(Completion{Kind: CompletionReturn, Value: 4, Region: -1})
	next, c, err := ps.PopCompletion()
	require.NoError(t, err)
	assert.Equal(t, CompletionReturn, c.Kind)
	assert.Empty(t, next.Completions())
	_, _, err = next.PopCompletion()
	assert.Equal(t, ErrNoCompletion, errors.Cause(err))
}

func Test_EqualityIgnoresVisits(t *testing.T) {
	a := New().Push(3).Bind("x", 3)
	b := New().Bind("x", 3).Push(3).Visit(7).Visit(7)
	assert.Equal(t, 2, b.Visits(7))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, _ := a.AddConstraint(3, constraint.NotNull)
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func Test_Cleanup(t *testing.T) {
	arena := symbolic.NewArena()
	x := arena.Fresh(symbolic.Origin{})
	y := arena.Fresh(symbolic.Origin{})
	dead := arena.Fresh(symbolic.Origin{})
	res := arena.Fresh(symbolic.Origin{})
	rel := arena.Relation(constraint.Equal, x, y, symbolic.Origin{})

	ps := New().Push(rel)
	ps, _ = ps.AddConstraint(x, constraint.NotNull)
	ps, _ = ps.AddConstraint(dead, constraint.Null)
	ps = ps.PutConstraint(res, open)
	ps = ps.withRelation(Relation{Kind: constraint.Equal, Left: dead, Right: x})

	cleaned := ps.Cleanup(arena)
	assert.Equal(t, constraint.Constraint(constraint.NotNull), cleaned.Constraint(x, constraint.NullnessDomain))
	assert.Nil(t, cleaned.Constraint(dead, constraint.NullnessDomain))
	assert.Equal(t, constraint.Constraint(open), cleaned.Constraint(res, "resource"))
	assert.Empty(t, cleaned.Relations())
	assert.Equal(t, []symbolic.ID{res}, cleaned.ValuesWith(open))

	assert.Same(t, cleaned, cleaned.Cleanup(arena))
}

func Test_StringIsStable(t *testing.T) {
	ps := New().Push(4).Bind("x", 4)
	ps, _ = ps.AddConstraint(4, constraint.NotNull)
	assert.Equal(t, "stack=[SV_4] vars={x:SV_4} constraints={SV_4:NOT_NULL}", ps.String())
}
