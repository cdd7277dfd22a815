package cfg

import "sort"

// TypeHierarchy answers subtype queries for the types a program mentions.
// Types it has never seen are only subtypes of themselves.
type TypeHierarchy struct {
	supers map[string][]string
}

func NewTypeHierarchy() *TypeHierarchy {
	return &TypeHierarchy{supers: make(map[string][]string)}
}

// Add declares the direct supertypes of t.
func (h *TypeHierarchy) Add(t string, supers ...string) {
	h.supers[t] = append(h.supers[t], supers...)
}

// Known reports whether t was declared. The unknown type "" never is.
func (h *TypeHierarchy) Known(t string) bool {
	_, ok := h.supers[t]
	return ok
}

// IsSubtype reports whether sub is sub or a transitive subtype of super.
// The unknown type "" is never a definite subtype of anything.
func (h *TypeHierarchy) IsSubtype(sub, super string) bool {
	if sub == "" || super == "" {
		return false
	}
	if sub == super {
		return true
	}
	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, s := range h.supers[t] {
			if s == super {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

// Types returns every declared type, sorted.
func (h *TypeHierarchy) Types() []string {
	result := make([]string, 0, len(h.supers))
	for t := range h.supers {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}
