// ABOUTME: Tests for player application orchestration
// ABOUTME: Runs whole sessions headless with WAV files, stdin commands and the control socket
package app

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/control"
	"github.com/Resonate-Protocol/chunkstream/internal/protocol"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio/decode"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowSink plays nothing but takes its time about it
type slowSink struct {
	output.Null
	delay time.Duration
}

func (s *slowSink) Write(p []byte) (int, error) {
	time.Sleep(s.delay)
	return s.Null.Write(p)
}

func writeTone(t *testing.T, seconds float64) string {
	t.Helper()

	// tone rendered through the WAV sink gives a real file to decode
	path := filepath.Join(t.TempDir(), "tone.wav")
	src := decode.NewToneSource(8000, 1, time.Duration(seconds*float64(time.Second)))
	pcm, err := io.ReadAll(src)
	require.NoError(t, err)

	sink := output.NewWAVFile(path)
	require.NoError(t, sink.Open(src.Format()))
	_, err = sink.Write(pcm)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	return path
}

func TestNewPlayer(t *testing.T) {
	p := New(Config{Input: "tone", Backend: output.BackendNull})
	require.NotNil(t, p)
	assert.Nil(t, p.Session(), "session is created by Run")
	assert.Equal(t, "tone", p.config.Input)
}

func TestRunWAVToWAV(t *testing.T) {
	in := writeTone(t, 2.5)
	out := filepath.Join(t.TempDir(), "out.wav")

	p := New(Config{Input: in, Backend: output.BackendWAV, OutputPath: out, Capacity: 2})
	require.NoError(t, p.Run(context.Background()))

	want, err := decode.NewWAVSource(in)
	require.NoError(t, err)
	defer want.Close()
	got, err := decode.NewWAVSource(out)
	require.NoError(t, err)
	defer got.Close()

	assert.Equal(t, want.Format(), got.Format())

	wantPCM, err := io.ReadAll(want)
	require.NoError(t, err)
	gotPCM, err := io.ReadAll(got)
	require.NoError(t, err)
	assert.Equal(t, wantPCM, gotPCM)

	assert.True(t, p.Session().IsDrainedAndDone())
	assert.False(t, p.Session().Stopped())
}

func TestRunUnknownInput(t *testing.T) {
	p := New(Config{Input: filepath.Join(t.TempDir(), "song.ogg"), Backend: output.BackendNull})
	assert.Error(t, p.Run(context.Background()))
}

func TestRunUnknownBackend(t *testing.T) {
	p := New(Config{Input: "tone", Backend: "jack"})
	assert.Error(t, p.Run(context.Background()))
}

func TestRunUnsupportedOutputFormat(t *testing.T) {
	src := decode.NewToneSource(8000, 1, time.Second)
	p := New(Config{Source: src, Sink: &rejectingSink{}})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, output.ErrUnsupportedFormat)
}

type rejectingSink struct{ output.Null }

func (r *rejectingSink) Open(format audio.Format) error {
	return output.ErrUnsupportedFormat
}

func TestStdinHalt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	p := New(Config{
		Source: decode.NewToneSource(8000, 1, 30*time.Second),
		Sink:   &slowSink{delay: 100 * time.Millisecond},
		Stdin:  pr,
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	time.Sleep(100 * time.Millisecond)
	_, err := io.WriteString(pw, "hello\nX\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("player did not halt on X")
	}
	assert.True(t, p.Session().Stopped())
}

func TestContextCancelHalts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(Config{
		Source: decode.NewToneSource(8000, 1, 30*time.Second),
		Sink:   &slowSink{delay: 100 * time.Millisecond},
		Stdin:  strings.NewReader(""),
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("player did not halt on cancel")
	}
}

// closeCountingSource records how often it was closed
type closeCountingSource struct {
	*decode.ToneSource
	closes atomic.Int32
}

func (c *closeCountingSource) Close() error {
	c.closes.Add(1)
	return c.ToneSource.Close()
}

// openCountingSink records how often the device was opened
type openCountingSink struct {
	output.Null
	opens atomic.Int32
}

func (o *openCountingSink) Open(format audio.Format) error {
	o.opens.Add(1)
	return o.Null.Open(format)
}

func TestControlServerBindFailure(t *testing.T) {
	src := &closeCountingSource{ToneSource: decode.NewToneSource(8000, 1, time.Second)}
	sink := &openCountingSink{}
	p := New(Config{Source: src, Sink: sink, ControlAddr: "256.0.0.1:0"})

	err := p.Run(context.Background())
	assert.Error(t, err)
	assert.True(t, p.Session().Stopped())
	assert.Equal(t, int32(1), src.closes.Load())
	assert.Zero(t, sink.opens.Load())
}

func freeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRemoteHaltReportsStatus(t *testing.T) {
	addr := freeAddr(t)
	p := New(Config{
		Source:      decode.NewToneSource(8000, 1, 30*time.Second),
		Sink:        &slowSink{delay: 100 * time.Millisecond},
		ControlAddr: addr,
	})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// the control socket comes up just before playback starts
	var resp control.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = control.SendCommand(ctx, addr, "x")
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)

	assert.True(t, resp.Reply.Halted)
	require.NotNil(t, resp.Status)
	assert.Equal(t, protocol.StateStopped, resp.Status.State)
	assert.Equal(t, "Test Tone (440Hz)", resp.Status.Title)
	assert.Equal(t, 10, resp.Status.Capacity)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("player did not halt on remote command")
	}
}
