// ABOUTME: WebSocket control client
// ABOUTME: Sends one command to a running player and waits for the reply and final status
package control

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/protocol"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// replyTimeout bounds each read from the player
const replyTimeout = 5 * time.Second

// Response is what a player sent back for one command
type Response struct {
	Reply protocol.ServerReply

	// Status is the last status pushed by the player, nil if none arrived.
	// After a halt it is the ended state when the player reported it in time.
	Status *protocol.ServerStatus
}

// SendCommand connects to the player at addr (host:port), sends text and
// returns the player's reply. When the command halts playback it also waits
// for the player to report that the session ended.
func SendCommand(ctx context.Context, addr, text string) (Response, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	var hello protocol.ServerHello
	if err := readTyped(conn, protocol.TypeServerHello, &hello); err != nil {
		return Response{}, fmt.Errorf("handshake failed: %w", err)
	}
	log.WithField("session", hello.SessionID).Debugf("Connected to %s %s", hello.Name, hello.Version)

	cmd := protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.ClientCommand{Text: text},
	}
	if err := conn.WriteJSON(cmd); err != nil {
		return Response{}, fmt.Errorf("failed to send command: %w", err)
	}

	resp, err := readResponse(ctx, conn)
	if err != nil {
		return Response{}, err
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return resp, nil
}

// readResponse reads until the reply arrives and, for a halt, until the
// player reports an ended state or stops talking
func readResponse(ctx context.Context, conn *websocket.Conn) (Response, error) {
	var resp Response
	gotReply := false

	for {
		conn.SetReadDeadline(readDeadline(ctx))

		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if gotReply {
				// the player may close the socket as it shuts down
				return resp, nil
			}
			return Response{}, fmt.Errorf("failed to read reply: %w", err)
		}

		switch msg.Type {
		case protocol.TypeServerStatus:
			var status protocol.ServerStatus
			if err := protocol.DecodePayload(msg, &status); err != nil {
				log.WithError(err).Debug("ignoring bad status")
				continue
			}
			resp.Status = &status
			if gotReply && status.Ended() {
				return resp, nil
			}

		case protocol.TypeServerReply:
			if err := protocol.DecodePayload(msg, &resp.Reply); err != nil {
				return Response{}, fmt.Errorf("failed to read reply: %w", err)
			}
			gotReply = true
			if !resp.Reply.Halted || (resp.Status != nil && resp.Status.Ended()) {
				return resp, nil
			}

		default:
			log.Debugf("ignoring message type: %s", msg.Type)
		}
	}
}

func readDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

func readTyped(conn *websocket.Conn, want string, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(replyTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		return err
	}
	if msg.Type != want {
		return fmt.Errorf("expected %s, got %s", want, msg.Type)
	}
	return protocol.DecodePayload(msg, v)
}
