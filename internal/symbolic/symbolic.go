// Package symbolic allocates the opaque identities the engine uses for
// runtime values. Values live in an Arena and are compared by ID only.
package symbolic

import (
	"fmt"
	"strings"
	"symscanner/internal/constraint"
	"sync"
)

// ID addresses a value record inside its Arena.
type ID int32

// None marks the absence of a value.
const None ID = -1

// Literal values every arena starts with.
const (
	Null ID = iota
	True
	False
)

type Kind uint8

const (
	KindPlain Kind = iota
	KindRelational
	KindNot
	KindAnd
	KindOr
	KindXor
	KindExceptional
	KindCaughtException
)

var kindNames = [...]string{
	KindPlain:           "plain",
	KindRelational:      "relational",
	KindNot:             "not",
	KindAnd:             "and",
	KindOr:              "or",
	KindXor:             "xor",
	KindExceptional:     "exceptional",
	KindCaughtException: "caught",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsLogical reports whether values of kind k combine boolean operands.
func (k Kind) IsLogical() bool {
	return k == KindNot || k == KindAnd || k == KindOr || k == KindXor
}

// Origin is the program point a value was created at.
type Origin struct {
	Node int
	Line int
	Text string
}

// Record describes one value. Operands never change once the record is
// allocated.
type Record struct {
	Kind     Kind
	Relation constraint.Relation
	operands []ID
	// Exception is the static type of an exceptional value, empty when it
	// cannot be determined.
	Exception string
	Origin    Origin
}

// ComputedFrom returns a copy of the operands the value was built from.
func (r Record) ComputedFrom() []ID {
	return append([]ID(nil), r.operands...)
}

func (r Record) Operand(i int) ID {
	if i < 0 || i >= len(r.operands) {
		return None
	}
	return r.operands[i]
}

func (r Record) Arity() int { return len(r.operands) }

// Arena owns the values of one exploration. It is safe for concurrent use
// but the engine only shares it between a driver and its checks.
type Arena struct {
	mu      sync.RWMutex
	records []Record
}

func NewArena() *Arena {
	return &Arena{
		records: []Record{
			Null:  {Kind: KindPlain, Origin: Origin{Node: -1, Text: "null"}},
			True:  {Kind: KindPlain, Origin: Origin{Node: -1, Text: "true"}},
			False: {Kind: KindPlain, Origin: Origin{Node: -1, Text: "false"}},
		},
	}
}

func (a *Arena) alloc(r Record) ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, r)
	return ID(len(a.records) - 1)
}

// Len returns the number of allocated values, literals included.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Record returns the record of id. Unknown ids yield a zero plain record.
func (a *Arena) Record(id ID) Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || int(id) >= len(a.records) {
		return Record{Kind: KindPlain, Origin: Origin{Node: -1}}
	}
	return a.records[id]
}

func (a *Arena) Kind(id ID) Kind {
	return a.Record(id).Kind
}

// Fresh allocates a plain value.
func (a *Arena) Fresh(origin Origin) ID {
	return a.alloc(Record{Kind: KindPlain, Origin: origin})
}

// Relation allocates a relational value between left and right.
func (a *Arena) Relation(rel constraint.Relation, left, right ID, origin Origin) ID {
	return a.alloc(Record{
		Kind:     KindRelational,
		Relation: rel,
		operands: []ID{left, right},
		Origin:   origin,
	})
}

// Compare allocates the relational value for a source comparison operator.
// Operators without a relation kind of their own are normalised by swapping
// operands: a > b is b < a and a <= b is b >= a.
func (a *Arena) Compare(op string, left, right ID, origin Origin) (ID, bool) {
	switch op {
	case "==":
		return a.Relation(constraint.Equal, left, right, origin), true
	case "!=":
		return a.Relation(constraint.NotEqual, left, right, origin), true
	case "<":
		return a.Relation(constraint.LessThan, left, right, origin), true
	case ">=":
		return a.Relation(constraint.GreaterOrEqual, left, right, origin), true
	case ">":
		return a.Relation(constraint.LessThan, right, left, origin), true
	case "<=":
		return a.Relation(constraint.GreaterOrEqual, right, left, origin), true
	}
	return None, false
}

// Logical allocates a not/and/or/xor value.
func (a *Arena) Logical(kind Kind, origin Origin, operands ...ID) ID {
	if !kind.IsLogical() {
		panic(fmt.Sprintf("symbolic: %s is not a logical kind", kind))
	}
	want := 2
	if kind == KindNot {
		want = 1
	}
	if len(operands) != want {
		panic(fmt.Sprintf("symbolic: %s takes %d operands, got %d", kind, want, len(operands)))
	}
	return a.alloc(Record{Kind: kind, operands: append([]ID(nil), operands...), Origin: origin})
}

// Exceptional allocates the value of a thrown exception. An empty type
// means the type is unknown.
func (a *Arena) Exceptional(exceptionType string, origin Origin) ID {
	return a.alloc(Record{Kind: KindExceptional, Exception: exceptionType, Origin: origin})
}

// Caught wraps an exceptional value bound to a catch parameter.
func (a *Arena) Caught(exceptional ID, origin Origin) ID {
	r := a.Record(exceptional)
	return a.alloc(Record{
		Kind:      KindCaughtException,
		operands:  []ID{exceptional},
		Exception: r.Exception,
		Origin:    origin,
	})
}

// ExceptionType returns the thrown type carried by an exceptional or caught
// value, and whether v is such a value.
func (a *Arena) ExceptionType(v ID) (string, bool) {
	r := a.Record(v)
	if r.Kind == KindExceptional || r.Kind == KindCaughtException {
		return r.Exception, true
	}
	return "", false
}

// Describe renders v for debugging output.
func (a *Arena) Describe(v ID) string {
	switch v {
	case None:
		return "<none>"
	case Null:
		return "null"
	case True:
		return "true"
	case False:
		return "false"
	}
	r := a.Record(v)
	switch r.Kind {
	case KindRelational:
		return fmt.Sprintf("SV_%d(SV_%d %s SV_%d)", v, r.Operand(0), r.Relation, r.Operand(1))
	case KindNot, KindAnd, KindOr, KindXor:
		parts := make([]string, r.Arity())
		for i := range parts {
			parts[i] = fmt.Sprintf("SV_%d", r.Operand(i))
		}
		return fmt.Sprintf("SV_%d(%s %s)", v, r.Kind, strings.Join(parts, " "))
	case KindExceptional:
		t := r.Exception
		if t == "" {
			t = "?"
		}
		return fmt.Sprintf("SV_%d(throw %s)", v, t)
	case KindCaughtException:
		return fmt.Sprintf("SV_%d(caught SV_%d)", v, r.Operand(0))
	}
	return fmt.Sprintf("SV_%d", v)
}
