package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Mix: full baduk mechanics with two extra win triggers — reaching the
// capture goal or lining up five stones — whichever fires first. Double pass
// still ends by area scoring.
type Mix struct{ strategic }

func (m *Mix) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Mix) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginPlay); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			p, placed := m.timeoutAutoMove(s, now)
			m.checkHybrid(s, p, placed, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Mix) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		var mp game.MovePayload
		if err := game.DecodePayload(act, &mp); err != nil {
			return false, err
		}
		color := s.ColorOf(userID)
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		if s.CapturesOf(color) >= s.Settings.CaptureGoal {
			s.Finish(userID, game.WinReasonCapture, now)
			return true, nil
		}
		if pt := (gamePoint(mp)); s.Board.At(pt) == color && s.Board.LineLength(pt, color) >= 5 {
			s.Finish(userID, game.WinReasonFiveInRow, now)
			return true, nil
		}
		nextTurn(s, now)
		return true, nil
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

// checkHybrid applies the extra win triggers after a timeout auto-move: the
// capture goal, then five-in-a-row at the auto-played point.
func (m *Mix) checkHybrid(s *game.Session, p board.Point, placed bool, now time.Time) {
	if s.Terminal() {
		return
	}
	for _, id := range []string{s.BlackID, s.WhiteID} {
		if s.CapturesOf(s.ColorOf(id)) >= s.Settings.CaptureGoal {
			s.Finish(id, game.WinReasonCapture, now)
			return
		}
	}
	if !placed {
		return
	}
	if c := s.Board.At(p); c != board.Empty && s.Board.LineLength(p, c) >= 5 {
		s.Finish(s.PlayerIDByColor(c), game.WinReasonFiveInRow, now)
	}
}
