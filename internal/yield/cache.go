package yield

import (
	"sort"
	"sync"
)

// Cache publishes at most one summary per method symbol. It is shared by
// every worker of an analysis.
type Cache struct {
	yields sync.Map
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(method string) (*MethodYields, bool) {
	v, ok := c.yields.Load(method)
	if !ok {
		return nil, false
	}
	return v.(*MethodYields), true
}

// Put stores y unless a summary for the same method was published first.
// It returns the published summary and whether it was y.
func (c *Cache) Put(y *MethodYields) (*MethodYields, bool) {
	v, loaded := c.yields.LoadOrStore(y.Method, y)
	return v.(*MethodYields), !loaded
}

func (c *Cache) Len() int {
	n := 0
	c.yields.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Methods returns the symbols with a published summary, sorted.
func (c *Cache) Methods() []string {
	var result []string
	c.yields.Range(func(k, _ any) bool {
		result = append(result, k.(string))
		return true
	})
	sort.Strings(result)
	return result
}
