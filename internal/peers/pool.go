package peers

import (
	"errors"
	"sync/atomic"
)

// ErrNoBackends is returned when a pool has no configured members.
var ErrNoBackends = errors.New("no backend available")

// Pool hands out backend URLs in round-robin order. The cursor is an atomic
// counter owned by the pool instance, so concurrent selections stay cheap
// and cyclic.
type Pool struct {
	backends []string
	cursor   atomic.Uint64
}

// NewPool builds a pool over the configured backend URLs.
func NewPool(backends []string) *Pool {
	return &Pool{backends: backends}
}

// Next returns the next backend in cyclic order, starting from the first
// configured member.
func (p *Pool) Next() (string, error) {
	if len(p.backends) == 0 {
		return "", ErrNoBackends
	}
	n := p.cursor.Add(1) - 1
	return p.backends[n%uint64(len(p.backends))], nil
}

// Size returns the number of configured backends.
func (p *Pool) Size() int {
	return len(p.backends)
}
