//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using a blocking PortAudio stream
package output

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/gordonklaus/portaudio"
	log "github.com/sirupsen/logrus"
)

// framesPerBuffer is the block size handed to Pa_WriteStream
const framesPerBuffer = 1024

// PortAudio output implementation
type PortAudio struct {
	stream   *portaudio.Stream
	format   audio.Format
	buffer   []int16
	pending  []byte // partial frame carried between writes
	filled   int    // samples in buffer
	initDone bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio with a blocking output stream
func (p *PortAudio) Open(format audio.Format) error {
	if format.BitDepth != 16 {
		return unsupported("portaudio", format)
	}
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	p.initDone = true

	p.buffer = make([]int16, framesPerBuffer*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), framesPerBuffer, &p.buffer)
	if err != nil {
		portaudio.Terminate()
		p.initDone = false
		return fmt.Errorf("%w: failed to open stream: %v", ErrUnsupportedFormat, err)
	}

	p.stream = stream
	p.format = format
	log.Printf("Audio output initialized: %s (portaudio)", format)
	return nil
}

// Start starts the stream
func (p *PortAudio) Start() error {
	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Start()
}

// Write converts PCM bytes to int16 samples and writes whole blocks
func (p *PortAudio) Write(b []byte) (int, error) {
	if p.stream == nil {
		return 0, ErrNotOpen
	}

	data := b
	if len(p.pending) > 0 {
		data = append(p.pending, b...)
		p.pending = nil
	}

	i := 0
	for ; i+2 <= len(data); i += 2 {
		p.buffer[p.filled] = int16(binary.LittleEndian.Uint16(data[i:]))
		p.filled++
		if p.filled == len(p.buffer) {
			if err := p.stream.Write(); err != nil {
				return 0, fmt.Errorf("stream write failed: %w", err)
			}
			p.filled = 0
		}
	}
	if i < len(data) {
		p.pending = append([]byte(nil), data[i:]...)
	}
	return len(b), nil
}

// Drain pads and writes the final partial block
func (p *PortAudio) Drain() error {
	if p.stream == nil {
		return ErrNotOpen
	}
	if p.filled == 0 {
		return nil
	}
	for i := p.filled; i < len(p.buffer); i++ {
		p.buffer[i] = 0
	}
	p.filled = 0
	if err := p.stream.Write(); err != nil {
		return fmt.Errorf("stream write failed: %w", err)
	}
	return nil
}

// Stop stops the stream
func (p *PortAudio) Stop() error {
	if p.stream == nil {
		return ErrNotOpen
	}
	return p.stream.Stop()
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	if p.initDone {
		p.initDone = false
		return portaudio.Terminate()
	}
	return nil
}
