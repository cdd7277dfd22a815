package strategy

// BFS 广度优先搜索策略
type BFS struct {
	points []ProgramPoint
	head   int
}

func NewBFS() *BFS {
	return &BFS{
		points: make([]ProgramPoint, 0),
	}
}

func (bfs *BFS) Size() int {
	return len(bfs.points) - bfs.head
}

func (bfs *BFS) HasNext() bool {
	return bfs.Size() > 0
}

func (bfs *BFS) Pop() (ProgramPoint, error) {
	if bfs.Size() <= 0 {
		return ProgramPoint{}, ErrEmpty
	}
	point := bfs.points[bfs.head]
	bfs.points[bfs.head] = ProgramPoint{}
	bfs.head++
	if bfs.head == len(bfs.points) {
		bfs.points = bfs.points[:0]
		bfs.head = 0
	}
	return point, nil
}

func (bfs *BFS) Push(points ...ProgramPoint) error {
	bfs.points = append(bfs.points, points...)
	return nil
}
