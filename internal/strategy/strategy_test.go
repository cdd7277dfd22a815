package strategy

import (
	"symscanner/internal/cfg"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(nodes ...cfg.NodeID) []ProgramPoint {
	result := make([]ProgramPoint, len(nodes))
	for i, n := range nodes {
		result[i] = ProgramPoint{Node: n}
	}
	return result
}

func drain(t *testing.T, s Strategy) []cfg.NodeID {
	var order []cfg.NodeID
	for s.HasNext() {
		p, err := s.Pop()
		require.NoError(t, err)
		order = append(order, p.Node)
	}
	return order
}

func Test_DFS(t *testing.T) {
	dfs := NewDFS()
	require.NoError(t, dfs.Push(points(1, 2)...))
	require.NoError(t, dfs.Push(points(3)...))
	assert.Equal(t, 3, dfs.Size())
	assert.Equal(t, []cfg.NodeID{3, 1, 2}, drain(t, dfs))

	_, err := dfs.Pop()
	assert.Equal(t, ErrEmpty, errors.Cause(err))
}

func Test_BFS(t *testing.T) {
	bfs := NewBFS()
	require.NoError(t, bfs.Push(points(1, 2)...))
	p, err := bfs.Pop()
	require.NoError(t, err)
	assert.Equal(t, cfg.NodeID(1), p.Node)
	require.NoError(t, bfs.Push(points(3)...))
	assert.Equal(t, []cfg.NodeID{2, 3}, drain(t, bfs))
	assert.Equal(t, 0, bfs.Size())

	_, err = bfs.Pop()
	assert.Equal(t, ErrEmpty, errors.Cause(err))
}

func Test_New(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &DFS{}, s)
	s, err = New("bfs")
	require.NoError(t, err)
	assert.IsType(t, &BFS{}, s)
	_, err = New("random")
	assert.Error(t, err)
}
