// ABOUTME: Test tone source
// ABOUTME: Generates a finite 440Hz sine wave as 16-bit PCM
package decode

import (
	"io"
	"math"
	"time"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
)

const (
	DefaultToneRate     = 44100
	DefaultToneChannels = 2
	DefaultToneDuration = 10 * time.Second

	toneFrequency = 440.0 // A4 note
)

// ToneSource generates a sine wave of fixed length
type ToneSource struct {
	format      audio.Format
	frequency   float64
	frames      int64
	sampleIndex int64
}

// NewToneSource creates a 440Hz tone lasting the given duration
func NewToneSource(sampleRate, channels int, duration time.Duration) *ToneSource {
	if sampleRate <= 0 {
		sampleRate = DefaultToneRate
	}
	if channels <= 0 {
		channels = DefaultToneChannels
	}

	return &ToneSource{
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
		frequency: toneFrequency,
		frames:    int64(duration.Seconds() * float64(sampleRate)),
	}
}

// Read writes whole frames into p
func (s *ToneSource) Read(p []byte) (int, error) {
	frameSize := s.format.FrameSize()
	remaining := s.frames - s.sampleIndex
	if remaining <= 0 {
		return 0, io.EOF
	}

	numFrames := int64(len(p) / frameSize)
	if numFrames == 0 {
		return 0, io.ErrShortBuffer
	}
	if numFrames > remaining {
		numFrames = remaining
	}

	pos := 0
	for i := int64(0); i < numFrames; i++ {
		t := float64(s.sampleIndex+i) / float64(s.format.SampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 50% volume
		pcmValue := int32(sample * 32767.0 * 0.5)

		for ch := 0; ch < s.format.Channels; ch++ {
			audio.PutSample(p[pos:], pcmValue, 16)
			pos += 2
		}
	}

	s.sampleIndex += numFrames
	return pos, nil
}

func (s *ToneSource) Format() audio.Format { return s.format }
func (s *ToneSource) Frames() int64        { return s.frames }
func (s *ToneSource) Title() string        { return "Test Tone (440Hz)" }
func (s *ToneSource) Close() error         { return nil }
