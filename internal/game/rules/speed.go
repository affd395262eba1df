package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Speed is blitz baduk on a single Fischer-increment clock. There is no
// byoyomi and no grace: crossing the deadline is an immediate, terminal loss.
type Speed struct{ strategic }

func (m *Speed) Initialize(s *game.Session, now time.Time) error {
	s.Speed = &game.SpeedState{RemainingMS: map[string]int64{
		s.Players[0].ID: int64(s.Settings.MainTimeSec) * 1000,
		s.Players[1].ID: int64(s.Settings.MainTimeSec) * 1000,
	}}
	m.initNigiri(s, now)
	return nil
}

func (m *Speed) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginSpeed); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if m.flagFall(s, now) {
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Speed) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		// A move racing past the flag loses to the flag: the clock is
		// authoritative on both the tick and the action path.
		if s.Status == game.StatusPlaying && m.flagFall(s, now) {
			return true, game.RejectSessionOver()
		}
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		m.chargeAndPass(s, userID, now)
		return true, nil
	case game.ActionPass:
		if s.Status == game.StatusPlaying && m.flagFall(s, now) {
			return true, game.RejectSessionOver()
		}
		if err := requireTurn(s, userID); err != nil {
			return false, err
		}
		s.Board.ToMove = s.ColorOf(userID)
		s.Board.Play(board.PassPoint)
		s.PassStreak++
		s.Record(userID, game.ActionPass, nil, 0, now)
		if s.PassStreak >= 2 {
			m.scoreAndFinish(s, now)
			return true, nil
		}
		m.chargeAndPass(s, userID, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	case game.ActionScoreRequest:
		return m.handleScoreRequest(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

func (m *Speed) beginSpeed(s *game.Session, now time.Time) {
	s.Board = board.New(s.Settings.BoardSize)
	s.Board.ToMove = board.Black
	s.Status = game.StatusPlaying
	m.armClock(s, s.BlackID, now)
	s.CurrentPlayer = board.Black
}

// armClock points the turn deadline at the mover's remaining clock.
func (m *Speed) armClock(s *game.Session, playerID string, now time.Time) {
	rem := time.Duration(s.Speed.RemainingMS[playerID]) * time.Millisecond
	s.TurnStarted = now
	s.TurnDeadline = now.Add(rem)
	s.UpdatedAt = now
}

// chargeAndPass deducts the elapsed think time, adds the Fischer increment
// and hands the clock to the opponent.
func (m *Speed) chargeAndPass(s *game.Session, userID string, now time.Time) {
	elapsed := now.Sub(s.TurnStarted).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	rem := s.Speed.RemainingMS[userID] - elapsed + int64(s.Settings.FischerIncSec)*1000
	if rem < 0 {
		rem = 0
	}
	s.Speed.RemainingMS[userID] = rem
	next := s.OpponentID(userID)
	s.CurrentPlayer = s.ColorOf(next)
	m.armClock(s, next, now)
}

// flagFall fires the terminal timeout loss exactly once; the transition to
// StatusEnded is the idempotence guard.
func (m *Speed) flagFall(s *game.Session, now time.Time) bool {
	if !s.DeadlineExpired(now) {
		return false
	}
	loser := s.CurrentPlayerID()
	s.Record(loser, game.LogTimeout, map[string]string{"consequence": "loss"}, 0, now)
	s.Finish(s.OpponentID(loser), game.WinReasonTimeout, now)
	return true
}
