// Package arenadto holds the wire types of the engine's HTTP and websocket
// surface. Session snapshots travel as raw JSON so the gateway never copies
// the aggregate field by field.
package arenadto

import "encoding/json"

// PlayerSeat is one seat in a create request. AI seats set IsAI and are
// driven by the engine's dispatcher.
type PlayerSeat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"is_ai,omitempty"`
}

// CreateSessionRequest mirrors the matchmaking negotiation.
type CreateSessionRequest struct {
	Mode     string          `json:"mode"`
	Player1  PlayerSeat      `json:"player1"`
	Player2  PlayerSeat      `json:"player2"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// ActionRequest submits one client action to a session.
type ActionRequest struct {
	UserID  string          `json:"user_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection events accepted by the connection endpoint.
const (
	ConnectionDrop   = "drop"
	ConnectionResume = "resume"
)

// ConnectionRequest reports a transport-level drop or resume for a player.
type ConnectionRequest struct {
	UserID string `json:"user_id"`
	Event  string `json:"event"`
}

// ErrorResponse carries a stable machine code plus user-facing text.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event is one websocket push frame.
type Event struct {
	Type    string          `json:"type"` // "state" or "outcome"
	Session json.RawMessage `json:"session,omitempty"`
	Outcome json.RawMessage `json:"outcome,omitempty"`
}
