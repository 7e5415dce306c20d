// ABOUTME: MP3 audio source
// ABOUTME: Decodes MP3 files and HTTP streams to 16-bit stereo PCM
package decode

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
	log "github.com/sirupsen/logrus"
)

// go-mp3 always produces 16-bit little-endian stereo
const mp3FrameSize = 4

// MP3Source reads PCM from an MP3 decoder
type MP3Source struct {
	rc      io.ReadCloser
	decoder *mp3.Decoder
	format  audio.Format
	title   string
}

// NewMP3Source opens an MP3 file
func NewMP3Source(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	src, err := NewMP3Reader(f, titleFromPath(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewMP3Reader decodes MP3 data from rc. The length is only known when rc
// also implements io.Seeker.
func NewMP3Reader(rc io.ReadCloser, title string) (*MP3Source, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	log.WithField("title", title).Debugf("Loaded MP3 (sample rate: %d Hz)", decoder.SampleRate())

	return &MP3Source{
		rc:      rc,
		decoder: decoder,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
		title: title,
	}, nil
}

func (s *MP3Source) Read(p []byte) (int, error) { return s.decoder.Read(p) }
func (s *MP3Source) Format() audio.Format       { return s.format }
func (s *MP3Source) Title() string              { return s.title }
func (s *MP3Source) Close() error               { return s.rc.Close() }

// Frames returns the decoded length, or -1 for unseekable streams
func (s *MP3Source) Frames() int64 {
	length := s.decoder.Length()
	if length < 0 {
		return -1
	}
	return length / mp3FrameSize
}

// NewHTTPSource streams MP3 from an HTTP URL
func NewHTTPSource(url string) (*MP3Source, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	src, err := NewMP3Reader(resp.Body, url)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return src, nil
}
