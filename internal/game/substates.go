package game

import "github.com/park285/Baduk-Arena-Engine/internal/board"

// Per-mode extension state. Each is allocated by the owning rule module on
// Initialize and serialized as part of the session snapshot.

// BaseState tracks the secret base-stone placement window of base mode.
type BaseState struct {
	Remaining map[string]int           `json:"remaining"`
	Placed    map[string][]board.Point `json:"placed"`
	Done      bool                     `json:"done"`
}

// HiddenStone is a concealed stone; Revealed flips the first time an opposing
// stone touches it or it takes part in a capture.
type HiddenStone struct {
	Point    board.Point `json:"point"`
	OwnerID  string      `json:"owner_id"`
	Revealed bool        `json:"revealed"`
}

// HiddenState tracks hidden-mode setup and concealment.
type HiddenState struct {
	Remaining map[string]int `json:"remaining"`
	Stones    []HiddenStone  `json:"stones"`
}

// SpeedState is the Fischer clock of speed mode, milliseconds remaining per
// player id.
type SpeedState struct {
	RemainingMS map[string]int64 `json:"remaining_ms"`
}

// MissileState counts one-shot strikes left per player.
type MissileState struct {
	Remaining map[string]int `json:"remaining"`
}

// DiceState is the per-turn dice sub-phase of dice mode.
type DiceState struct {
	LastRoll  int `json:"last_roll"`
	MovesLeft int `json:"moves_left"`
}

// Role is a thief-mode role.
type Role string

const (
	RoleThief  Role = "thief"
	RolePolice Role = "police"
)

// ThiefState carries the round structure of thief mode: fixed roles per
// round, role swap after round 1, deathmatch reselection on tie, and the
// confirmable round summary.
type ThiefState struct {
	Round      int             `json:"round"`
	Deathmatch bool            `json:"deathmatch"`
	Roles      map[string]Role `json:"roles"`
	Selections map[string]Role `json:"selections,omitempty"` // deathmatch role picks
	Scores     map[string]int  `json:"scores"`
	ThiefPos   *board.Point    `json:"thief_pos,omitempty"`
	ThiefMoves int             `json:"thief_moves"`
	Acks       map[string]bool `json:"acks,omitempty"`
	LastWinner string          `json:"last_winner,omitempty"`
}

// AlkkagiStone is a physical stone with a continuous position.
type AlkkagiStone struct {
	OwnerID string  `json:"owner_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OnBoard bool    `json:"on_board"`
}

// AlkkagiState tracks flicking-mode stones and timeout skips.
type AlkkagiState struct {
	Stones     []AlkkagiStone `json:"stones"`
	SkipStreak map[string]int `json:"skip_streak"`
}

// CurlingStone is a delivered curling stone resting on the board.
type CurlingStone struct {
	OwnerID string  `json:"owner_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OnBoard bool    `json:"on_board"`
}

// CurlingState tracks ends, throws and delivered stones.
type CurlingState struct {
	End      int            `json:"end"`
	Thrown   map[string]int `json:"thrown"`
	Stones   []CurlingStone `json:"stones"`
	EndsWon  map[string]int `json:"ends_won"`
	Forfeits map[string]int `json:"forfeits"` // stones lost to throw timeouts
}
