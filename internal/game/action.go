package game

import "encoding/json"

// Action is the versioned client message: a type discriminator plus an
// opaque payload decoded by the owning mode module.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client action types. Mode modules accept a subset each.
const (
	ActionMove         = "move"
	ActionPass         = "pass"
	ActionResign       = "resign"
	ActionScoreRequest = "score_request"
	ActionNigiriGuess  = "nigiri_guess"
	ActionBasePlace    = "base_place"
	ActionHiddenPlace  = "hidden_place"
	ActionMissile      = "missile"
	ActionRoleSelect   = "role_select"
	ActionDiceRoll     = "dice_roll"
	ActionThiefMove    = "thief_move"
	ActionFlick        = "flick"
	ActionThrow        = "throw"
	ActionRoundAck     = "round_ack"
)

// Synthetic move-log entry types written by the engine itself.
const (
	LogNigiriStart   = "nigiri_start"
	LogNigiriResolve = "nigiri_resolve"
	LogTimeout       = "timeout"
	LogAutoFill      = "auto_fill"
	LogAutoRoll      = "auto_roll"
	LogReveal        = "reveal"
	LogDisconnect    = "disconnect"
	LogReconnect     = "reconnect"
	LogForfeit       = "forfeit"
	LogRoundEnd      = "round_end"
	LogSeatAssign    = "seat_assign"
	LogAIMove        = "ai_move"
)

// MovePayload is a board coordinate action (move, hidden_place, missile,
// thief_move target).
type MovePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NigiriGuessPayload carries the parity guess: 1=odd, 2=even.
type NigiriGuessPayload struct {
	Guess int `json:"guess"`
}

// BasePlacePayload places one hidden base stone during base setup.
type BasePlacePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RoleSelectPayload picks a thief-mode role.
type RoleSelectPayload struct {
	Role Role `json:"role"`
}

// FlickPayload is an alkkagi flick: own stone index plus direction/power.
type FlickPayload struct {
	Stone int     `json:"stone"`
	Angle float64 `json:"angle"` // radians
	Power float64 `json:"power"` // 0..1
}

// ThrowPayload is a curling throw.
type ThrowPayload struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// NewAction builds an action with a marshaled payload.
func NewAction(typ string, payload any) Action {
	a := Action{Type: typ}
	if payload != nil {
		raw, _ := json.Marshal(payload)
		a.Payload = raw
	}
	return a
}

// DecodePayload unmarshals into dst and converts failures into a
// bad-payload rejection.
func DecodePayload(a Action, dst any) error {
	if len(a.Payload) == 0 {
		return RejectBadPayload("empty payload")
	}
	if err := json.Unmarshal(a.Payload, dst); err != nil {
		return RejectBadPayload(err.Error())
	}
	return nil
}
