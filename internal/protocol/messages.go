// ABOUTME: Control protocol message type definitions
// ABOUTME: Defines structs for the JSON messages exchanged on the control socket
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message types
const (
	TypeServerHello   = "server/hello"
	TypeClientCommand = "client/command"
	TypeServerReply   = "server/reply"
	TypeServerStatus  = "server/status"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ServerHello is sent by a player as soon as a control client connects
type ServerHello struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// ClientCommand carries one line of command text
type ClientCommand struct {
	Text string `json:"text"`
}

// ServerReply answers a ClientCommand
type ServerReply struct {
	Text   string `json:"text"`
	Halted bool   `json:"halted"`
}

// Playback states carried in ServerStatus
const (
	StatePlaying  = "playing"
	StateStopped  = "stopped"
	StateFinished = "finished"
)

// ServerStatus reports playback progress. Players push one whenever the
// buffer or the playback state changes.
type ServerStatus struct {
	State    string `json:"state"`
	Title    string `json:"title,omitempty"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
	Inserted int64  `json:"inserted"`
	Removed  int64  `json:"removed"`
}

// Ended reports whether the session has stopped or run to completion
func (s ServerStatus) Ended() bool {
	return s.State == StateStopped || s.State == StateFinished
}

// DecodePayload converts a generically decoded payload into v
func DecodePayload(msg Message, v interface{}) error {
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", msg.Type, err)
	}
	if err := json.Unmarshal(payloadBytes, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", msg.Type, err)
	}
	return nil
}
