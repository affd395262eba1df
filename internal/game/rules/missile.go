package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Missile mode: standard baduk plus a small stock of one-shot strikes. A
// strike removes a single enemy stone, consumes the turn, and does not count
// toward captures.
type Missile struct{ strategic }

func (m *Missile) Initialize(s *game.Session, now time.Time) error {
	s.Missile = &game.MissileState{Remaining: map[string]int{
		s.Players[0].ID: s.Settings.MissileCount,
		s.Players[1].ID: s.Settings.MissileCount,
	}}
	m.initNigiri(s, now)
	return nil
}

func (m *Missile) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginPlay); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.timeoutAutoMove(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Missile) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		nextTurn(s, now)
		return true, nil
	case game.ActionMissile:
		return m.strike(s, act, userID, now)
	case game.ActionPass:
		if err := m.applyPass(s, userID, now); err != nil {
			return false, err
		}
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	case game.ActionScoreRequest:
		return m.handleScoreRequest(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

func (m *Missile) strike(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	if err := requireTurn(s, userID); err != nil {
		return false, err
	}
	if s.Missile.Remaining[userID] <= 0 {
		return false, game.RejectNoResource("no missiles left")
	}
	var p game.MovePayload
	if err := game.DecodePayload(act, &p); err != nil {
		return false, err
	}
	pt := board.Point{X: p.X, Y: p.Y}
	if s.Board.At(pt) != s.ColorOf(userID).Opponent() {
		return false, game.RejectIllegalPoint("strike must target an enemy stone")
	}
	s.Board.Remove(pt)
	s.Missile.Remaining[userID]--
	s.PassStreak = 0
	s.Record(userID, game.ActionMissile, p, 0, now)
	nextTurn(s, now)
	return true, nil
}
