// Package random allocates live variables to one of a discrete set of
// variations, the way a client-side experiment assigns a visitor to a
// bucket before the first resolution.
//
// Allocation is sticky: once a variable has a value in the store, it is
// left alone, so repeated resolutions keep returning the same variation.
package random

import (
	"math/rand"
	"sync"

	"github.com/flagkit/flagkit/store"
)

// Target is the store an Allocator writes to.
type Target interface {
	store.Getter
	store.Setter
}

// Allocator picks variations with its own source of randomness.
type Allocator struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewAllocator returns an Allocator drawing from r. *rand.Rand is not safe
// for concurrent use, so the Allocator serializes access to it.
func NewAllocator(r *rand.Rand) *Allocator {
	return &Allocator{r: r}
}

// Allocate stores one of variations, picked uniformly, under id, unless id
// already has a value. It returns the value in effect afterwards. With no
// variations it does nothing and returns the empty string.
func (a *Allocator) Allocate(t Target, id string, variations ...string) string {
	if len(variations) == 0 {
		return ""
	}
	if v, ok := t.Get(id); ok {
		return v
	}
	a.mu.Lock()
	v := variations[a.r.Intn(len(variations))]
	a.mu.Unlock()
	t.Set(id, v)
	return v
}
