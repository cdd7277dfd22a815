package constraint

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrDuplicateDomain = errors.New("domain already registered")

// Registry lists the domains known to one engine configuration. Checks
// register their own domains here instead of changing the engine.
type Registry struct {
	mu      sync.RWMutex
	domains map[Domain][]Constraint
}

// NewRegistry returns a registry holding the built-in domains.
func NewRegistry() *Registry {
	r := &Registry{domains: make(map[Domain][]Constraint)}
	r.domains[BooleanDomain] = []Constraint{True, False}
	r.domains[NullnessDomain] = []Constraint{Null, NotNull}
	return r
}

// Register adds a domain with the constraints it is made of.
func (r *Registry) Register(domain Domain, values ...Constraint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.domains[domain]; ok {
		return errors.Wrapf(ErrDuplicateDomain, "%s", domain)
	}
	for _, v := range values {
		if v.Domain() != domain {
			return errors.Errorf("constraint %s belongs to %s, not %s", Describe(v), v.Domain(), domain)
		}
	}
	r.domains[domain] = append([]Constraint(nil), values...)
	return nil
}

// Ensure registers domain unless it is already known.
func (r *Registry) Ensure(domain Domain, values ...Constraint) error {
	err := r.Register(domain, values...)
	if errors.Cause(err) == ErrDuplicateDomain {
		return nil
	}
	return err
}

func (r *Registry) Has(domain Domain) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.domains[domain]
	return ok
}

// Domains returns the registered domains in name order.
func (r *Registry) Domains() []Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Domain, 0, len(r.domains))
	for d := range r.domains {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Set holds at most one constraint per domain, ordered by domain.
type Set []Constraint

// NewSet builds a set from a domain map.
func NewSet(m map[Domain]Constraint) Set {
	if len(m) == 0 {
		return nil
	}
	s := make(Set, 0, len(m))
	for _, c := range m {
		s = append(s, c)
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Domain() < s[j].Domain() })
	return s
}

func (s Set) Get(domain Domain) Constraint {
	for _, c := range s {
		if c.Domain() == domain {
			return c
		}
	}
	return nil
}

func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	if len(s) == 0 {
		return "_"
	}
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = Describe(c)
	}
	return strings.Join(parts, "&")
}
