// ABOUTME: WAV audio source
// ABOUTME: Reads the PCM data chunk of a RIFF/WAVE file
package decode

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/go-audio/wav"
	log "github.com/sirupsen/logrus"
)

// WAVSource reads raw PCM from a WAV file's data chunk
type WAVSource struct {
	file    *os.File
	decoder *wav.Decoder
	format  audio.Format
	frames  int64
	title   string
}

// NewWAVSource opens a WAV file and positions it at the start of the PCM data
func NewWAVSource(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: invalid WAV file %s", ErrUnsupported, path)
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("%w: WAV encoding %d (only integer PCM)", ErrUnsupported, decoder.WavAudioFormat)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to find WAV data chunk: %w", err)
	}

	format := audio.Format{
		Codec:      "wav",
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}

	frames := int64(-1)
	if fs := format.FrameSize(); fs > 0 {
		frames = int64(decoder.PCMSize) / int64(fs)
	}

	title := titleFromPath(path)
	log.WithField("title", title).Debugf("Loaded WAV (%s)", format)

	return &WAVSource{
		file:    f,
		decoder: decoder,
		format:  format,
		frames:  frames,
		title:   title,
	}, nil
}

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE
)

func (s *WAVSource) Read(p []byte) (int, error) { return s.decoder.PCMChunk.Read(p) }
func (s *WAVSource) Format() audio.Format       { return s.format }
func (s *WAVSource) Frames() int64              { return s.frames }
func (s *WAVSource) Title() string              { return s.title }
func (s *WAVSource) Close() error               { return s.file.Close() }
