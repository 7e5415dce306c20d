// ABOUTME: Source interface definition and factory
// ABOUTME: Picks a decoder by URL scheme or file extension
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
)

// ErrUnsupported is returned for inputs no decoder understands
var ErrUnsupported = errors.New("unsupported audio input")

// Source produces interleaved little-endian PCM
type Source interface {
	io.Reader

	// Format describes the PCM returned by Read
	Format() audio.Format

	// Frames returns the total number of frames, or -1 when unknown
	Frames() int64

	// Title returns a display name for the input
	Title() string

	// Close releases the underlying file or connection
	Close() error
}

// NewSource opens an audio source from a file path or HTTP URL.
// "tone" (or an empty string) returns a ten second 440Hz test tone.
func NewSource(pathOrURL string) (Source, error) {
	if pathOrURL == "" || pathOrURL == "tone" {
		return NewToneSource(DefaultToneRate, DefaultToneChannels, DefaultToneDuration), nil
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return NewHTTPSource(pathOrURL)
	}

	if _, err := os.Stat(pathOrURL); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(pathOrURL)); ext {
	case ".mp3":
		return NewMP3Source(pathOrURL)
	case ".flac":
		return NewFLACSource(pathOrURL)
	case ".wav", ".wave":
		return NewWAVSource(pathOrURL)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav)", ErrUnsupported, ext)
	}
}

// titleFromPath strips directory and extension
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
