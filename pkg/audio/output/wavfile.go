// ABOUTME: WAV file output implementation
// ABOUTME: Writes played PCM to a RIFF/WAVE file for headless runs
package output

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	log "github.com/sirupsen/logrus"
)

// WAVFile writes every chunk it receives to a WAV file
type WAVFile struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	format  audio.Format
	buf     *goaudio.IntBuffer
	pending []byte
	written int64
}

// NewWAVFile creates a WAV sink writing to path
func NewWAVFile(path string) *WAVFile {
	return &WAVFile{path: path}
}

// Open creates the file and writes the header
func (w *WAVFile) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", w.path, err)
	}

	w.file = f
	w.format = format
	w.encoder = wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, 1)
	w.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		SourceBitDepth: format.BitDepth,
	}

	log.Printf("Audio output initialized: %s (wav: %s)", format, w.path)
	return nil
}

// Start is a no-op for files
func (w *WAVFile) Start() error {
	if w.encoder == nil {
		return ErrNotOpen
	}
	return nil
}

// Write encodes whole samples from p; a trailing partial sample is kept for
// the next call
func (w *WAVFile) Write(p []byte) (int, error) {
	if w.encoder == nil {
		return 0, ErrNotOpen
	}

	data := p
	if len(w.pending) > 0 {
		data = append(w.pending, p...)
		w.pending = nil
	}

	size := w.format.BytesPerSample()
	whole := len(data) - len(data)%size
	samples := make([]int, 0, whole/size)
	for i := 0; i < whole; i += size {
		if w.format.BitDepth == 8 {
			// WAV stores 8-bit samples unsigned
			samples = append(samples, int(data[i]))
			continue
		}
		samples = append(samples, int(audio.Sample(data[i:i+size], w.format.BitDepth)))
	}
	if whole < len(data) {
		w.pending = append([]byte(nil), data[whole:]...)
	}

	if len(samples) > 0 {
		w.buf.Data = samples
		if err := w.encoder.Write(w.buf); err != nil {
			return 0, fmt.Errorf("wav encode failed: %w", err)
		}
	}
	w.written += int64(whole)
	return len(p), nil
}

// Drain is a no-op; Close finalizes the header
func (w *WAVFile) Drain() error {
	if w.encoder == nil {
		return ErrNotOpen
	}
	return nil
}

// Stop is a no-op for files
func (w *WAVFile) Stop() error {
	if w.encoder == nil {
		return ErrNotOpen
	}
	return nil
}

// Close finalizes the WAV header and closes the file
func (w *WAVFile) Close() error {
	if w.encoder == nil {
		return nil
	}
	err := w.encoder.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.encoder = nil
	w.file = nil
	log.WithField("bytes", w.written).Debugf("wav output closed: %s", w.path)
	return err
}
