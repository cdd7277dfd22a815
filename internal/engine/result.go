// Package engine explores method control-flow graphs symbolically, path by
// path, and folds what it finds into method yields and check events.
package engine

import (
	"fmt"
	"symscanner/internal/cfg"
	"symscanner/internal/state"
	"symscanner/internal/symbolic"
	"symscanner/internal/yield"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrInternal  = errors.New("internal invariant violation")
	ErrStepBound = errors.New("step bound exceeded")
	ErrDeadline  = errors.New("deadline exceeded")
)

type Status uint8

const (
	StatusComplete Status = iota
	StatusIncomplete
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusIncomplete:
		return "incomplete"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

type TerminalKind uint8

const (
	TerminalReturn TerminalKind = iota
	TerminalThrow
)

func (k TerminalKind) String() string {
	if k == TerminalThrow {
		return "throw"
	}
	return "return"
}

// Terminal is a path that left the method.
type Terminal struct {
	Node  cfg.NodeID
	State *state.ProgramState
	Kind  TerminalKind
	// Value is the returned value, or the exceptional value for a throw.
	// symbolic.None for a void return.
	Value     symbolic.ID
	Exception string
}

type Result struct {
	Method    string
	Status    Status
	Steps     int
	Params    []symbolic.ID
	Terminals []Terminal
	// Yields is the published summary, or the local projection when the
	// exploration ran checks or was contextual. Nil when it failed.
	Yields *yield.MethodYields
	// Contextual is set when a callee was cut off by the callee depth, which
	// makes the yields depend on the callers above this exploration.
	Contextual bool
	Arena      *symbolic.Arena
	Err        error
}

// Stats counts explorations and processed steps per method. It is shared by
// all explorers of an analysis.
type Stats struct {
	mu           sync.Mutex
	explorations map[string]int
	steps        map[string]int
}

func NewStats() *Stats {
	return &Stats{
		explorations: make(map[string]int),
		steps:        make(map[string]int),
	}
}

func (s *Stats) explored(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.explorations[method]++
}

func (s *Stats) stepped(method string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[method] += n
}

// Explorations returns how often the body of method was explored.
func (s *Stats) Explorations(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explorations[method]
}

// Steps returns how many transfer functions ran for method.
func (s *Stats) Steps(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps[method]
}
