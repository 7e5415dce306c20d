// ABOUTME: Tests for audio sources
// ABOUTME: Tests source selection, tone generation and WAV decoding
package decode

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestNewSourceTone(t *testing.T) {
	for _, input := range []string{"", "tone"} {
		src, err := NewSource(input)
		if err != nil {
			t.Fatalf("NewSource(%q) failed: %v", input, err)
		}
		if _, ok := src.(*ToneSource); !ok {
			t.Errorf("NewSource(%q): expected *ToneSource, got %T", input, src)
		}
		src.Close()
	}
}

func TestNewSourceMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.mp3"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewSourceUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewSource(path)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestNewSourceCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.flac", "bad.wav"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("definitely not audio data"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewSource(path); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestToneSource(t *testing.T) {
	src := NewToneSource(8000, 2, 1500*time.Millisecond)
	format := src.Format()

	if format.BitDepth != 16 || format.Channels != 2 || format.SampleRate != 8000 {
		t.Fatalf("unexpected format %s", format)
	}
	if src.Frames() != 12000 {
		t.Errorf("expected 12000 frames, got %d", src.Frames())
	}

	chunk := make([]byte, format.BytesPerSecond())

	n, err := io.ReadFull(src, chunk)
	if err != nil || n != len(chunk) {
		t.Fatalf("first chunk: n=%d err=%v", n, err)
	}

	n, err = io.ReadFull(src, chunk)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("expected short terminal chunk, got err=%v", err)
	}
	if n != len(chunk)/2 {
		t.Errorf("expected half a chunk, got %d bytes", n)
	}

	n, err = io.ReadFull(src, chunk)
	if err != io.EOF || n != 0 {
		t.Errorf("expected EOF after the tone, got n=%d err=%v", n, err)
	}
}

func TestToneSourceShortBuffer(t *testing.T) {
	src := NewToneSource(8000, 2, time.Second)
	if _, err := src.Read(make([]byte, 3)); err != io.ErrShortBuffer {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}

func TestWAVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	samples := []int{0, 1000, -1000, 32767, -32768, 5, -5, 12345}
	writeWAV(t, path, 22050, 2, samples)

	src, err := NewSource(path)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	defer src.Close()

	format := src.Format()
	if format.Codec != "wav" || format.SampleRate != 22050 || format.Channels != 2 || format.BitDepth != 16 {
		t.Fatalf("unexpected format %s", format)
	}
	if src.Frames() != int64(len(samples)/2) {
		t.Errorf("expected %d frames, got %d", len(samples)/2, src.Frames())
	}
	if src.Title() != "clip" {
		t.Errorf("expected title 'clip', got %q", src.Title())
	}

	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(data))
	}
	for i, want := range samples {
		got := int(int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8))
		if got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func writeWAV(t *testing.T, path string, rate, channels int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}
