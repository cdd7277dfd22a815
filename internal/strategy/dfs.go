// Package strategy 实现状态处理的策略
package strategy

// DFS 深度优先搜索策略
type DFS struct {
	points []ProgramPoint
}

func NewDFS() *DFS {
	return &DFS{
		points: make([]ProgramPoint, 0),
	}
}

func (dfs *DFS) Size() int {
	return len(dfs.points)
}

func (dfs *DFS) HasNext() bool {
	return len(dfs.points) > 0
}

func (dfs *DFS) Pop() (ProgramPoint, error) {
	if len(dfs.points) <= 0 {
		return ProgramPoint{}, ErrEmpty
	}
	point := dfs.points[len(dfs.points)-1]
	dfs.points = dfs.points[:len(dfs.points)-1]
	return point, nil
}

// Push 逆序入栈，使第一个后继最先被执行
func (dfs *DFS) Push(points ...ProgramPoint) error {
	for i := len(points) - 1; i >= 0; i-- {
		dfs.points = append(dfs.points, points[i])
	}
	return nil
}
