//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
)

var errNoPortAudio = fmt.Errorf("%w: PortAudio support not enabled (build with -tags portaudio)", ErrUnsupportedFormat)

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(format audio.Format) error {
	return errNoPortAudio
}

func (p *PortAudio) Start() error { return errNoPortAudio }

func (p *PortAudio) Write(b []byte) (int, error) { return 0, errNoPortAudio }

func (p *PortAudio) Drain() error { return errNoPortAudio }

func (p *PortAudio) Stop() error { return errNoPortAudio }

// Close is a no-op
func (p *PortAudio) Close() error { return nil }
