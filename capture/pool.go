// Package capture produces outbound audio: one blocking
// listen-until-silence-or-timeout cycle at a time, offloaded to a
// bounded worker pool so the session loop never stalls.
package capture

import "context"

// DefaultPoolSize caps blocking capture operations in flight
// system-wide. The bound is a deliberate resource cap.
const DefaultPoolSize = 3

// Pool gates blocking capture calls onto a fixed number of slots.
// Excess callers queue for a free slot.
type Pool struct {
	slots chan struct{}
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Do runs f once a slot is free and returns its result. Waiting for a
// slot is aborted when ctx is cancelled.
func (p *Pool) Do(ctx context.Context, f func() ([]byte, error)) ([]byte, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slots }()

	return f()
}
