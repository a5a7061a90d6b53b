package game

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is a seedable random source safe for use by concurrent games.
type Rand struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRand seeds a source. Zero means "unset" and picks a seed from the
// clock, so reproducible runs need a non-zero seed.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// Pick returns a uniformly random element of a non-empty slice.
func (r *Rand) Pick(keys []int) int {
	return keys[r.Intn(len(keys))]
}
