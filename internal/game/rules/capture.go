package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Capture mode: the first player to take Settings.CaptureGoal stones wins.
// Double pass falls back to comparing capture tallies.
type Capture struct{ strategic }

func (m *Capture) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Capture) UpdateState(s *game.Session, now time.Time) (bool, error) {
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
			m.checkGoal(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Capture) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		if m.checkGoal(s, now) {
			return true, nil
		}
		nextTurn(s, now)
		return true, nil
	case game.ActionPass:
		if err := m.passCompare(s, userID, now); err != nil {
			return false, err
		}
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

// checkGoal finishes the game when a side reaches the capture goal.
func (m *Capture) checkGoal(s *game.Session, now time.Time) bool {
	if s.Terminal() {
		return true
	}
	goal := s.Settings.CaptureGoal
	if s.CapturesBlack >= goal {
		s.Finish(s.BlackID, game.WinReasonCapture, now)
		return true
	}
	if s.CapturesWhite >= goal {
		s.Finish(s.WhiteID, game.WinReasonCapture, now)
		return true
	}
	return false
}

// passCompare is the double-pass ending: more captures wins, equal is a draw.
func (m *Capture) passCompare(s *game.Session, userID string, now time.Time) error {
	if err := requireTurn(s, userID); err != nil {
		return err
	}
	s.Board.ToMove = s.ColorOf(userID)
	s.Board.Play(board.PassPoint)
	s.PassStreak++
	s.Record(userID, game.ActionPass, nil, 0, now)
	if s.PassStreak < 2 {
		nextTurn(s, now)
		return nil
	}
	switch {
	case s.CapturesBlack > s.CapturesWhite:
		s.Finish(s.BlackID, game.WinReasonCapture, now)
	case s.CapturesWhite > s.CapturesBlack:
		s.Finish(s.WhiteID, game.WinReasonCapture, now)
	default:
		s.FinishDraw(now)
	}
	return nil
}
