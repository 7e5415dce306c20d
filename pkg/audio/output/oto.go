// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams PCM into a persistent oto player through a pipe
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/ebitengine/oto/v3"
	log "github.com/sirupsen/logrus"
)

// drainTimeout bounds how long Drain waits for oto to empty its buffer
const drainTimeout = 5 * time.Second

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	format     audio.Format
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// Open creates the oto context. oto plays unsigned 8-bit and signed 16-bit
// integer PCM; anything else is rejected since formats are never converted.
func (o *Oto) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var otoFormat oto.Format
	switch format.BitDepth {
	case 8:
		otoFormat = oto.FormatUnsignedInt8
	case 16:
		otoFormat = oto.FormatSignedInt16LE
	default:
		return unsupported("oto", format)
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("oto output already opened")
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       otoFormat,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format

	// Persistent player fed by a pipe so Write blocks while oto is busy
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.ready = true

	log.Printf("Audio output initialized: %s (oto)", format)

	return nil
}

// Start begins playback
func (o *Oto) Start() error {
	if !o.ready {
		return ErrNotOpen
	}
	o.player.Play()
	return nil
}

// Write outputs PCM bytes (blocks until oto has read them)
func (o *Oto) Write(p []byte) (int, error) {
	if !o.ready {
		return 0, ErrNotOpen
	}
	n, err := o.pipeWriter.Write(p)
	if err != nil {
		return n, fmt.Errorf("pipe write failed: %w", err)
	}
	return n, nil
}

// Drain closes the pipe and waits until oto has played what it buffered
func (o *Oto) Drain() error {
	if !o.ready {
		return ErrNotOpen
	}
	o.pipeWriter.Close()

	deadline := time.Now().Add(drainTimeout)
	for o.player.IsPlaying() && o.player.BufferedSize() > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("oto drain timed out with %d bytes buffered", o.player.BufferedSize())
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Stop pauses the player
func (o *Oto) Stop() error {
	if !o.ready {
		return ErrNotOpen
	}
	o.player.Pause()
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.WithError(err).Warn("oto player close error")
		}
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.WithError(err).Warn("oto suspend error")
		}
	}
	o.ready = false
	return nil
}
