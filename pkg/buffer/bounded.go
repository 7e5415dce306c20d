// ABOUTME: Bounded buffer monitor
// ABOUTME: Blocking insert/remove over a ring of chunk slots with broadcast wake-up
package buffer

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the number of chunk slots used by a player session
const DefaultCapacity = 10

// ErrDrained is returned by Remove when the buffer is empty and the producer
// has announced that no more chunks will be inserted.
var ErrDrained = errors.New("buffer drained")

// Stats is a point-in-time view of the buffer counters
type Stats struct {
	Capacity int
	Occupied int
	Inserted int64
	Removed  int64
}

// Bounded is a fixed-capacity FIFO of chunks.
//
// Empty and full both have nextIn == nextOut; the roomAvailable and
// dataAvailable flags tell them apart.
type Bounded struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots   [][]byte
	nextIn  int
	nextOut int

	inserted int64
	removed  int64

	roomAvailable bool
	dataAvailable bool
	inputClosed   bool
}

// New creates a buffer with the given number of slots.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Bounded {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	b := &Bounded{
		slots:         make([][]byte, capacity),
		roomAvailable: true,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Insert stores chunk at the tail, waiting while the buffer is full.
// The wait ends early with ctx.Err() when ctx is cancelled; unread data is
// never overwritten.
func (b *Bounded) Insert(ctx context.Context, chunk []byte) error {
	stop := b.wakeOnDone(ctx)
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.roomAvailable {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.slots[b.nextIn] = chunk
	b.nextIn = (b.nextIn + 1) % len(b.slots)
	b.inserted++

	if b.nextIn == b.nextOut {
		b.roomAvailable = false
	}
	b.dataAvailable = true

	b.cond.Broadcast()
	return nil
}

// Remove takes the chunk at the head, waiting while the buffer is empty.
// It returns ErrDrained instead of waiting once the input is closed and
// everything inserted has been removed, and ctx.Err() if ctx is cancelled.
func (b *Bounded) Remove(ctx context.Context) ([]byte, error) {
	stop := b.wakeOnDone(ctx)
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()

	for !b.dataAvailable {
		if b.inputClosed {
			return nil, ErrDrained
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunk := b.slots[b.nextOut]
	b.slots[b.nextOut] = nil
	b.nextOut = (b.nextOut + 1) % len(b.slots)
	b.removed++

	if b.inserted == b.removed {
		b.dataAvailable = false
	}
	b.roomAvailable = true

	b.cond.Broadcast()
	return chunk, nil
}

// IOEven reports whether every inserted chunk has been removed
func (b *Bounded) IOEven() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inserted == b.removed
}

// CloseInput records that no further Insert will happen and wakes any
// goroutine waiting in Remove so it can observe the end of the stream.
func (b *Bounded) CloseInput() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inputClosed = true
	b.cond.Broadcast()
}

// Reset returns the buffer to its initial empty state and wakes all waiters
// so they re-evaluate their predicates. Chunks still queued are discarded.
//
// Reset must not race with a producer or consumer that is still iterating:
// stop them first (cancel their context and wait for them to return).
func (b *Bounded) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.slots {
		b.slots[i] = nil
	}
	b.nextIn, b.nextOut = 0, 0
	b.inserted, b.removed = 0, 0
	b.roomAvailable = true
	b.dataAvailable = false
	b.inputClosed = false

	b.cond.Broadcast()
}

// Stats returns a consistent snapshot of the counters
func (b *Bounded) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Capacity: len(b.slots),
		Occupied: b.occupied(),
		Inserted: b.inserted,
		Removed:  b.removed,
	}
}

// Capacity returns the number of slots
func (b *Bounded) Capacity() int {
	return len(b.slots)
}

// occupied returns the number of unread chunks (must hold b.mu)
func (b *Bounded) occupied() int {
	switch {
	case !b.dataAvailable:
		return 0
	case !b.roomAvailable:
		return len(b.slots)
	default:
		return (b.nextIn - b.nextOut + len(b.slots)) % len(b.slots)
	}
}

// wakeOnDone broadcasts on the condition variable when ctx is done so that a
// goroutine parked in Wait rechecks ctx.Err(). The broadcast takes the lock,
// which orders it after any waiter that already tested ctx.
func (b *Bounded) wakeOnDone(ctx context.Context) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
}
