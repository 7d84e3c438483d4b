package network

import (
	"encoding/json"
	"fmt"

	"github.com/amalg/go-sokoban/internal/game"
)

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgJoin    MsgType = "join"
	MsgKey     MsgType = "key"
	MsgWelcome MsgType = "welcome"
	MsgState   MsgType = "state"
	MsgError   MsgType = "error"
)

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- Client → Server Messages ---

// JoinMsg is sent by a viewer to attach to the hosted puzzle.
type JoinMsg struct {
	Name string `json:"name"`
}

// KeyMsg reports a directional key going down (Pressed) or up.
type KeyMsg struct {
	Direction game.Direction `json:"direction"`
	Pressed   bool           `json:"pressed"`
}

// --- Server → Client Messages ---

// WelcomeMsg is sent to a viewer after joining.
type WelcomeMsg struct {
	ViewerID string     `json:"viewer_id"`
	TickRate int        `json:"tick_rate"`
	State    game.State `json:"state"`
}

// StateMsg is the settled state broadcast to all viewers after every tick.
type StateMsg struct {
	State game.State `json:"state"`
}

// ErrorMsg notifies a viewer of an error.
type ErrorMsg struct {
	Message string `json:"message"`
}

// Encode serializes a message into one WebSocket text frame body.
func Encode(msgType MsgType, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		Type:    msgType,
		Payload: json.RawMessage(payloadBytes),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return body, nil
}

// Decode parses one frame body into its envelope.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("unmarshal envelope: missing type")
	}
	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target interface{}) error {
	return json.Unmarshal(env.Payload, target)
}
