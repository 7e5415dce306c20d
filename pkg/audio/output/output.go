// ABOUTME: Audio sink interface definition
// ABOUTME: Common interface and factory for playback backends
package output

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
)

// ErrUnsupportedFormat is returned by Open when a backend cannot play a format
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrNotOpen is returned when a sink is used before Open
var ErrNotOpen = errors.New("output not opened")

// Sink represents an audio output device
type Sink interface {
	// Open prepares the device for the given PCM format
	Open(format audio.Format) error

	// Start begins playback
	Start() error

	// Write queues PCM bytes (blocks while the device is full)
	Write(p []byte) (int, error)

	// Drain blocks until queued audio has been played
	Drain() error

	// Stop halts playback
	Stop() error

	// Close releases output resources
	Close() error
}

// Backend names accepted by New
const (
	BackendOto       = "oto"
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
	BackendWAV       = "wav"
	BackendNull      = "null"
)

// New creates a sink for the named backend. path is only used by the WAV
// backend.
func New(backend, path string) (Sink, error) {
	switch backend {
	case "", BackendOto:
		return NewOto(), nil
	case BackendMalgo:
		return NewMalgo(), nil
	case BackendPortAudio:
		return NewPortAudio(), nil
	case BackendWAV:
		if path == "" {
			return nil, fmt.Errorf("wav output requires a file path")
		}
		return NewWAVFile(path), nil
	case BackendNull:
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}

func unsupported(backend string, format audio.Format) error {
	return fmt.Errorf("%w: %s cannot play %s", ErrUnsupportedFormat, backend, format)
}
