// ABOUTME: Tests for the control server and client
// ABOUTME: Runs a real websocket round trip on a loopback port
package control

import (
	"context"
	"testing"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/protocol"
	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, stopper Stopper) *Server {
	t.Helper()

	srv := NewServer(Config{Addr: "127.0.0.1:0", SessionID: "test-session"}, NewInterpreter(stopper, nil))
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	require.NotZero(t, srv.Port())
	return srv
}

// endingStopper reports the stopped state once the halt has been handled,
// the way a player does after its session unwinds
type endingStopper struct {
	fakeStopper
	srv *Server
}

func (e *endingStopper) Stop() {
	e.fakeStopper.Stop()
	go func() {
		time.Sleep(20 * time.Millisecond)
		e.srv.SetStats(buffer.Stats{Capacity: 10, Inserted: 4, Removed: 4})
		e.srv.SetState(protocol.StateStopped, "")
	}()
}

func TestSendCommandHalts(t *testing.T) {
	stopper := &endingStopper{}
	srv := NewServer(Config{Addr: "127.0.0.1:0"}, NewInterpreter(stopper, nil))
	stopper.srv = srv
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	srv.SetState(protocol.StatePlaying, "song.flac")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := SendCommand(ctx, srv.Addr(), "X")
	require.NoError(t, err)

	assert.True(t, resp.Reply.Halted)
	assert.Equal(t, "Command received: halt playback", resp.Reply.Text)
	assert.Equal(t, int32(1), stopper.stops.Load())

	require.NotNil(t, resp.Status)
	assert.Equal(t, protocol.StateStopped, resp.Status.State)
	assert.Equal(t, "song.flac", resp.Status.Title)
	assert.Equal(t, int64(4), resp.Status.Removed)
}

func TestSendCommandHaltWithoutStatus(t *testing.T) {
	srv := startTestServer(t, &fakeStopper{})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	resp, err := SendCommand(ctx, srv.Addr(), "x")
	require.NoError(t, err)

	assert.True(t, resp.Reply.Halted)
	assert.Nil(t, resp.Status)
}

func TestSendCommandUnrecognised(t *testing.T) {
	stopper := &fakeStopper{}
	srv := startTestServer(t, stopper)

	resp, err := SendCommand(context.Background(), srv.Addr(), "volume up")
	require.NoError(t, err)

	assert.False(t, resp.Reply.Halted)
	assert.Equal(t, "Unrecognised command: volume up", resp.Reply.Text)
	assert.Zero(t, stopper.stops.Load())
}

func TestServerHello(t *testing.T) {
	srv := startTestServer(t, &fakeStopper{})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+Path, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello protocol.ServerHello
	require.NoError(t, readTyped(conn, protocol.TypeServerHello, &hello))
	assert.Equal(t, "test-session", hello.SessionID)
	assert.Equal(t, "chunkstream", hello.Name)
	assert.NotEmpty(t, hello.Version)

	// unknown message types are ignored and the connection stays usable
	require.NoError(t, conn.WriteJSON(protocol.Message{Type: "client/bogus"}))
	require.NoError(t, conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.ClientCommand{Text: "?"},
	}))

	var reply protocol.ServerReply
	require.NoError(t, readTyped(conn, protocol.TypeServerReply, &reply))
	assert.Equal(t, "Unrecognised command: ?", reply.Text)
}

func TestServerPushesStatus(t *testing.T) {
	srv := startTestServer(t, &fakeStopper{})
	srv.SetState(protocol.StatePlaying, "tone")

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+Path, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello protocol.ServerHello
	require.NoError(t, readTyped(conn, protocol.TypeServerHello, &hello))

	// a new client gets the current status straight after the hello
	var status protocol.ServerStatus
	require.NoError(t, readTyped(conn, protocol.TypeServerStatus, &status))
	assert.Equal(t, protocol.StatePlaying, status.State)
	assert.Equal(t, "tone", status.Title)

	srv.SetStats(buffer.Stats{Capacity: 10, Occupied: 2, Inserted: 5, Removed: 3})
	require.NoError(t, readTyped(conn, protocol.TypeServerStatus, &status))
	assert.Equal(t, protocol.StatePlaying, status.State)
	assert.Equal(t, 10, status.Capacity)
	assert.Equal(t, 2, status.Occupied)
	assert.Equal(t, int64(5), status.Inserted)
	assert.Equal(t, int64(3), status.Removed)

	srv.SetState(protocol.StateFinished, "")
	require.NoError(t, readTyped(conn, protocol.TypeServerStatus, &status))
	assert.True(t, status.Ended())
	assert.Equal(t, "tone", status.Title)
	assert.Equal(t, status, srv.Status())
}

func TestServerNoStatusBeforeFirstUpdate(t *testing.T) {
	srv := startTestServer(t, &fakeStopper{})

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+Path, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello protocol.ServerHello
	require.NoError(t, readTyped(conn, protocol.TypeServerHello, &hello))

	// the first message after the hello is the reply, not a status
	require.NoError(t, conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.ClientCommand{Text: "hello"},
	}))
	var reply protocol.ServerReply
	require.NoError(t, readTyped(conn, protocol.TypeServerReply, &reply))
}

func TestSendCommandNoServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := SendCommand(ctx, "127.0.0.1:1", "x")
	assert.Error(t, err)
}

func TestServerStopIdempotent(t *testing.T) {
	srv := NewServer(Config{Addr: "127.0.0.1:0"}, NewInterpreter(&fakeStopper{}, nil))
	require.NoError(t, srv.Start())
	srv.Stop()
	srv.Stop()
}
