// ABOUTME: FLAC audio source
// ABOUTME: Decodes FLAC frames and packs them as little-endian PCM
package decode

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	log "github.com/sirupsen/logrus"
)

// FLACSource reads PCM from a FLAC file
type FLACSource struct {
	file    *os.File
	stream  *flac.Stream
	format  audio.Format
	shift   int // left shift from the stream's bit depth to format.BitDepth
	frames  int64
	title   string
	pending []byte
}

// NewFLACSource opens a FLAC file
func NewFLACSource(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	bps := int(info.BitsPerSample)
	outDepth := containerDepth(bps)

	frames := int64(info.NSamples)
	if frames == 0 {
		// Unknown length in STREAMINFO
		frames = -1
	}

	title := titleFromPath(path)
	log.WithField("title", title).Debugf("Loaded FLAC (sample rate: %d Hz, channels: %d, bit depth: %d)",
		info.SampleRate, info.NChannels, bps)

	return &FLACSource{
		file:   f,
		stream: stream,
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
			BitDepth:   outDepth,
		},
		shift:  outDepth - bps,
		frames: frames,
		title:  title,
	}, nil
}

// Read fills p from decoded frames, parsing more frames as needed
func (s *FLACSource) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		f, err := s.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		s.pending = s.pack(f)
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// pack interleaves subframe samples into PCM bytes
func (s *FLACSource) pack(f *frame.Frame) []byte {
	bytesPerSample := s.format.BytesPerSample()
	blockSize := int(f.BlockSize)
	out := make([]byte, blockSize*s.format.Channels*bytesPerSample)

	pos := 0
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < s.format.Channels; ch++ {
			sample := f.Subframes[ch].Samples[i] << s.shift
			audio.PutSample(out[pos:], sample, s.format.BitDepth)
			pos += bytesPerSample
		}
	}
	return out
}

func (s *FLACSource) Format() audio.Format { return s.format }
func (s *FLACSource) Frames() int64        { return s.frames }
func (s *FLACSource) Title() string        { return s.title }

// Close closes the file; a stream created with flac.New does not own it
func (s *FLACSource) Close() error {
	return s.file.Close()
}

// containerDepth rounds a FLAC bit depth up to a playable PCM container
func containerDepth(bps int) int {
	switch {
	case bps <= 16:
		return 16
	case bps <= 24:
		return 24
	default:
		return 32
	}
}
