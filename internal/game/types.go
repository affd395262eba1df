package game

import (
	"encoding/json"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/nigiri"
)

// Mode identifies a rule variant. The set is closed; an unknown mode is a
// deployment error, never a runtime case.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeCapture  Mode = "capture"
	ModeSpeed    Mode = "speed"
	ModeBase     Mode = "base"
	ModeHidden   Mode = "hidden"
	ModeMissile  Mode = "missile"
	ModeMix      Mode = "mix"
	ModeOmok     Mode = "omok"
	ModeTtamok   Mode = "ttamok"
	ModeDice     Mode = "dice"
	ModeThief    Mode = "thief"
	ModeAlkkagi  Mode = "alkkagi"
	ModeCurling  Mode = "curling"
)

// Status is the current phase of a session. The generic machine owns the
// shared vocabulary; playful modes layer their own entries on top.
type Status string

const (
	StatusNigiriChoosing Status = "NIGIRI_CHOOSING"
	StatusNigiriGuessing Status = "NIGIRI_GUESSING"
	StatusNigiriReveal   Status = "NIGIRI_REVEAL"
	StatusBaseSetup      Status = "BASE_SETUP"
	StatusHiddenSetup    Status = "HIDDEN_SETUP"
	StatusRoleSelect     Status = "ROLE_SELECT"
	StatusDiceRolling    Status = "DICE_ROLLING"
	StatusPlaying        Status = "PLAYING"
	StatusRoundSummary   Status = "ROUND_SUMMARY"
	StatusEnded          Status = "ENDED"
	StatusNoContest      Status = "NO_CONTEST"
)

// WinReason explains how a finished match was decided.
type WinReason string

const (
	WinReasonScore      WinReason = "score"
	WinReasonResign     WinReason = "resign"
	WinReasonTimeout    WinReason = "timeout"
	WinReasonCapture    WinReason = "capture"
	WinReasonFiveInRow  WinReason = "five_in_row"
	WinReasonDisconnect WinReason = "disconnect_forfeit"
	WinReasonSkips      WinReason = "skip_forfeit"
	WinReasonExhausted  WinReason = "stones_exhausted"
	WinReasonRounds     WinReason = "round_score"
	WinReasonDraw       WinReason = "draw"
)

// Player is one participant. AI seats are first-class players whose actions
// come from the dispatcher instead of the gateway.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IsAI bool   `json:"is_ai,omitempty"`
}

// Settings is the immutable configuration snapshot taken at session creation.
type Settings struct {
	BoardSize        int     `json:"board_size"`
	TurnTimeLimitSec int     `json:"turn_time_limit_sec"`
	MainTimeSec      int     `json:"main_time_sec"`       // speed
	FischerIncSec    int     `json:"fischer_inc_sec"`     // speed
	CaptureGoal      int     `json:"capture_goal"`        // capture/mix/dice
	BaseStoneCount   int     `json:"base_stone_count"`    // base
	HiddenStoneCount int     `json:"hidden_stone_count"`  // hidden
	MissileCount     int     `json:"missile_count"`       // missile
	PairCaptureGoal  int     `json:"pair_capture_goal"`   // ttamok
	ThiefSurvival    int     `json:"thief_survival"`      // thief: moves to survive
	ThiefRounds      int     `json:"thief_rounds"`        // thief: fixed rounds before deathmatch
	AlkkagiStones    int     `json:"alkkagi_stones"`      // alkkagi
	AlkkagiSkipLimit int     `json:"alkkagi_skip_limit"`  // alkkagi: consecutive skips to forfeit
	CurlingStones    int     `json:"curling_stones"`      // curling: throws per player per end
	CurlingEnds      int     `json:"curling_ends"`        // curling
	Komi             float64 `json:"komi"`
	NoContestPlies   int     `json:"no_contest_plies"`
	GraceWindowSec   int     `json:"grace_window_sec"`
	AIDifficulty     int     `json:"ai_difficulty"`
}

// Normalize fills zero fields with platform defaults.
func (s *Settings) Normalize() {
	if s.BoardSize <= 0 {
		s.BoardSize = 19
	}
	if s.TurnTimeLimitSec <= 0 {
		s.TurnTimeLimitSec = 60
	}
	if s.MainTimeSec <= 0 {
		s.MainTimeSec = 180
	}
	if s.FischerIncSec <= 0 {
		s.FischerIncSec = 5
	}
	if s.CaptureGoal <= 0 {
		s.CaptureGoal = 5
	}
	if s.BaseStoneCount <= 0 {
		s.BaseStoneCount = 3
	}
	if s.HiddenStoneCount <= 0 {
		s.HiddenStoneCount = 2
	}
	if s.MissileCount <= 0 {
		s.MissileCount = 2
	}
	if s.PairCaptureGoal <= 0 {
		s.PairCaptureGoal = 5
	}
	if s.ThiefSurvival <= 0 {
		s.ThiefSurvival = 15
	}
	if s.ThiefRounds <= 0 {
		s.ThiefRounds = 2
	}
	if s.AlkkagiStones <= 0 {
		s.AlkkagiStones = 5
	}
	if s.AlkkagiSkipLimit <= 0 {
		s.AlkkagiSkipLimit = 3
	}
	if s.CurlingStones <= 0 {
		s.CurlingStones = 4
	}
	if s.CurlingEnds <= 0 {
		s.CurlingEnds = 3
	}
	if s.Komi == 0 {
		s.Komi = 6.5
	}
	if s.NoContestPlies <= 0 {
		s.NoContestPlies = 10
	}
	if s.GraceWindowSec <= 0 {
		s.GraceWindowSec = 90
	}
}

// Negotiation is the pre-session agreement handed over by matchmaking.
type Negotiation struct {
	Mode     Mode     `json:"mode"`
	Player1  Player   `json:"player1"`
	Player2  Player   `json:"player2"`
	Settings Settings `json:"settings"`
}

// DisconnectionState is the open grace window for one dropped player.
// At most one window is open per session.
type DisconnectionState struct {
	PlayerID       string        `json:"player_id"`
	StartedAt      time.Time     `json:"started_at"`
	Deadline       time.Time     `json:"deadline"`
	TurnRemaining  time.Duration `json:"turn_remaining"` // suspended turn time, restored on resume
	SuspendedPhase Status        `json:"suspended_phase"`
}

// MoveRecord is one append-only entry of the session move log. Rand carries
// the seed or outcome consumed by randomized resolutions so timeout-triggered
// and action-triggered paths replay identically.
type MoveRecord struct {
	Seq      int             `json:"seq"`
	PlayerID string          `json:"player_id,omitempty"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Rand     int64           `json:"rand,omitempty"`
	At       time.Time       `json:"at"`
}

// Outcome is the terminal result handed to the reward collaborator.
type Outcome struct {
	SessionID string    `json:"session_id"`
	Mode      Mode      `json:"mode"`
	Winner    string    `json:"winner,omitempty"` // empty on draw / no-contest
	Reason    WinReason `json:"reason"`
	MoveCount int       `json:"move_count"`
	NoContest bool      `json:"no_contest,omitempty"`
}

// Session is the aggregate root for one live match. It is owned exclusively
// by the engine manager; nothing outside the per-session serialization
// boundary may hold a mutable reference.
type Session struct {
	ID      string    `json:"id"`
	Mode    Mode      `json:"mode"`
	Players [2]Player `json:"players"`

	Status        Status      `json:"status"`
	BlackID       string      `json:"black_id,omitempty"`
	WhiteID       string      `json:"white_id,omitempty"`
	CurrentPlayer board.Stone `json:"current_player,omitempty"`

	Board       *board.Board `json:"board,omitempty"`
	TurnStarted time.Time    `json:"turn_started,omitempty"`
	// TurnDeadline doubles as the generic phase deadline for non-turn
	// phases (nigiri reveal, round summary, setup windows).
	TurnDeadline time.Time `json:"turn_deadline,omitempty"`

	MoveHistory []MoveRecord `json:"move_history"`
	PassStreak  int          `json:"pass_streak,omitempty"`
	// Captured stone counts keyed by the capturing color.
	CapturesBlack int `json:"captures_black,omitempty"`
	CapturesWhite int `json:"captures_white,omitempty"`

	Nigiri  *nigiri.State `json:"nigiri,omitempty"`
	Speed   *SpeedState   `json:"speed,omitempty"`
	Base    *BaseState    `json:"base,omitempty"`
	Hidden  *HiddenState  `json:"hidden,omitempty"`
	Missile *MissileState `json:"missile,omitempty"`
	Dice    *DiceState    `json:"dice,omitempty"`
	Thief   *ThiefState   `json:"thief,omitempty"`
	Alkkagi *AlkkagiState `json:"alkkagi,omitempty"`
	Curling *CurlingState `json:"curling,omitempty"`

	Disconnect       *DisconnectionState `json:"disconnect,omitempty"`
	DisconnectCounts map[string]int      `json:"disconnect_counts,omitempty"`

	Settings Settings `json:"settings"`

	Winner    string    `json:"winner,omitempty"`
	WinReason WinReason `json:"win_reason,omitempty"`
	Drawn     bool      `json:"drawn,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sanitized returns a copy of the session with concealed sub-state stripped
// for public frames: the nigiri stone count before the reveal, secret base
// picks while the setup window is open, and hidden stones that no contact has
// revealed yet. The receiver is not modified; shared sub-state is copied
// before redaction.
func (s *Session) Sanitized() *Session {
	out := *s
	if n := s.Nigiri; n != nil && (n.Phase == nigiri.PhaseChoosing || n.Phase == nigiri.PhaseGuessing) {
		nc := *n
		nc.Stones = 0
		out.Nigiri = &nc
	}
	if b := s.Base; b != nil && !b.Done {
		bc := *b
		bc.Placed = nil
		out.Base = &bc
	}
	if h := s.Hidden; h != nil {
		hc := *h
		hc.Stones = nil
		for _, st := range h.Stones {
			if st.Revealed {
				hc.Stones = append(hc.Stones, st)
			}
		}
		out.Hidden = &hc
	}
	return &out
}

// Participant reports whether userID is seated in this session.
func (s *Session) Participant(userID string) bool {
	return s.Players[0].ID == userID || s.Players[1].ID == userID
}

// PlayerByID returns the seated player, or nil.
func (s *Session) PlayerByID(userID string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == userID {
			return &s.Players[i]
		}
	}
	return nil
}

// OpponentID returns the other seat's player id.
func (s *Session) OpponentID(userID string) string {
	if s.Players[0].ID == userID {
		return s.Players[1].ID
	}
	if s.Players[1].ID == userID {
		return s.Players[0].ID
	}
	return ""
}

// ColorOf returns the stone color assigned to userID, Empty before colors
// are decided.
func (s *Session) ColorOf(userID string) board.Stone {
	switch userID {
	case s.BlackID:
		return board.Black
	case s.WhiteID:
		return board.White
	}
	return board.Empty
}

// PlayerIDByColor is the inverse of ColorOf.
func (s *Session) PlayerIDByColor(c board.Stone) string {
	switch c {
	case board.Black:
		return s.BlackID
	case board.White:
		return s.WhiteID
	}
	return ""
}

// CurrentPlayerID returns the id owning the current turn.
func (s *Session) CurrentPlayerID() string { return s.PlayerIDByColor(s.CurrentPlayer) }

// Terminal reports whether the session left the active sweep set.
func (s *Session) Terminal() bool {
	return s.Status == StatusEnded || s.Status == StatusNoContest
}

// plyActions are the record types that count as game progress for the
// no-contest gate: board moves and passes for the go-family modes, flicks,
// throws and thief steps for the physical and round modes. Setup picks and
// synthetic log entries are excluded.
var plyActions = map[string]bool{
	ActionMove:      true,
	ActionPass:      true,
	ActionFlick:     true,
	ActionThrow:     true,
	ActionThiefMove: true,
}

// Plies is the number of logged progress actions.
func (s *Session) Plies() int {
	n := 0
	for _, r := range s.MoveHistory {
		if plyActions[r.Type] {
			n++
		}
	}
	return n
}

// Record appends a move-log entry and bumps the session clock.
func (s *Session) Record(playerID, actionType string, payload any, seed int64, now time.Time) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	s.MoveHistory = append(s.MoveHistory, MoveRecord{
		Seq:      len(s.MoveHistory) + 1,
		PlayerID: playerID,
		Type:     actionType,
		Payload:  raw,
		Rand:     seed,
		At:       now,
	})
	s.UpdatedAt = now
}

// SetPhase transitions the session phase and arms the phase deadline.
// A zero duration leaves the phase untimed.
func (s *Session) SetPhase(st Status, now time.Time, d time.Duration) {
	s.Status = st
	s.TurnStarted = now
	if d > 0 {
		s.TurnDeadline = now.Add(d)
	} else {
		s.TurnDeadline = time.Time{}
	}
	s.UpdatedAt = now
}

// StartTurn hands the turn to color with the mode's per-turn limit.
func (s *Session) StartTurn(c board.Stone, now time.Time) {
	s.CurrentPlayer = c
	s.TurnStarted = now
	s.TurnDeadline = now.Add(time.Duration(s.Settings.TurnTimeLimitSec) * time.Second)
	s.UpdatedAt = now
}

// DeadlineExpired reports whether the armed phase deadline is in the past.
func (s *Session) DeadlineExpired(now time.Time) bool {
	return !s.TurnDeadline.IsZero() && now.After(s.TurnDeadline)
}

// Finish ends the match with a winner.
func (s *Session) Finish(winnerID string, reason WinReason, now time.Time) {
	s.Status = StatusEnded
	s.Winner = winnerID
	s.WinReason = reason
	s.TurnDeadline = time.Time{}
	s.UpdatedAt = now
}

// FinishDraw ends the match without a winner.
func (s *Session) FinishDraw(now time.Time) {
	s.Status = StatusEnded
	s.Drawn = true
	s.WinReason = WinReasonDraw
	s.TurnDeadline = time.Time{}
	s.UpdatedAt = now
}

// Void marks the match no-contest.
func (s *Session) Void(now time.Time) {
	s.Status = StatusNoContest
	s.Winner = ""
	s.TurnDeadline = time.Time{}
	s.UpdatedAt = now
}

// Outcome builds the reward-collaborator event for a terminal session.
func (s *Session) Outcome() Outcome {
	return Outcome{
		SessionID: s.ID,
		Mode:      s.Mode,
		Winner:    s.Winner,
		Reason:    s.WinReason,
		MoveCount: s.Plies(),
		NoContest: s.Status == StatusNoContest,
	}
}

// AddCapture credits captured stones to color.
func (s *Session) AddCapture(c board.Stone, n int) {
	switch c {
	case board.Black:
		s.CapturesBlack += n
	case board.White:
		s.CapturesWhite += n
	}
}

// CapturesOf returns the captured-stone tally for color.
func (s *Session) CapturesOf(c board.Stone) int {
	if c == board.Black {
		return s.CapturesBlack
	}
	return s.CapturesWhite
}
