package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/artillery/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMatch      = "start_match"
	TypeEndMatch        = "end_match"
	TypeTankState       = "tank_state"
	TypeProjectileState = "projectile_state"
	TypeShotEvent       = "shot_event"
	TypeHitEvent        = "hit_event"
	TypeKillEvent       = "kill_event"
	TypeAck             = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload carries the match header and the opening world.
type StartMatchPayload struct {
	Match *core.Match `json:"match"`
	World *core.World `json:"world"`
}

// EndMatchPayload closes a match.
type EndMatchPayload struct {
	MatchID uint `json:"matchId"`
	Ticks   uint `json:"ticks"`
}

// NewEnvelope marshals payload under msgType.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
