// Package strategy 实现状态处理的策略
package strategy

import (
	"symscanner/internal/cfg"
	"symscanner/internal/state"

	"github.com/pkg/errors"
)

var ErrEmpty = errors.New("state queue is empty")

// ProgramPoint 待执行的节点与到达该节点时的状态
type ProgramPoint struct {
	Node  cfg.NodeID
	State *state.ProgramState
}

type Strategy interface {
	Size() int
	HasNext() bool
	Pop() (ProgramPoint, error)
	Push(...ProgramPoint) error
}

// New returns the strategy registered under name, dfs when name is empty.
func New(name string) (Strategy, error) {
	switch name {
	case "", "dfs":
		return NewDFS(), nil
	case "bfs":
		return NewBFS(), nil
	}
	return nil, errors.Errorf("unknown strategy %q", name)
}
