// ABOUTME: Null audio output
// ABOUTME: Discards PCM while counting bytes, used for headless and benchmark runs
package output

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
)

// Null accepts any format and discards everything written
type Null struct {
	open    atomic.Bool
	written atomic.Int64
}

// NewNull creates a new Null output
func NewNull() *Null {
	return &Null{}
}

func (n *Null) Open(format audio.Format) error {
	n.open.Store(true)
	return nil
}

func (n *Null) Start() error {
	if !n.open.Load() {
		return ErrNotOpen
	}
	return nil
}

func (n *Null) Write(p []byte) (int, error) {
	if !n.open.Load() {
		return 0, ErrNotOpen
	}
	n.written.Add(int64(len(p)))
	return len(p), nil
}

func (n *Null) Drain() error { return nil }

func (n *Null) Stop() error { return nil }

func (n *Null) Close() error {
	n.open.Store(false)
	return nil
}

// Written returns the number of bytes accepted so far
func (n *Null) Written() int64 {
	return n.written.Load()
}
