package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Omok: five (or more) in a row wins; no captures, no ko. A full board with
// no line is a draw.
type Omok struct{ strategic }

func (m *Omok) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Omok) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginPlay); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.timeoutAutoPlace(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Omok) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		pt, err := omokPlace(s, act, userID, now)
		if err != nil {
			return false, err
		}
		if finishLineOrDraw(s, pt, s.ColorOf(userID), now) {
			return true, nil
		}
		nextTurn(s, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

// timeoutAutoPlace drops a seeded random stone for the expired turn.
func (m *Omok) timeoutAutoPlace(s *game.Session, now time.Time) {
	seed := game.NewSeed()
	empties := randomEmpties(s.Board, 1, seed)
	if len(empties) == 0 {
		s.FinishDraw(now)
		return
	}
	p := empties[0]
	color := s.CurrentPlayer
	s.Board.Place(p, color)
	s.Record(s.CurrentPlayerID(), game.LogTimeout, game.MovePayload{X: p.X, Y: p.Y}, seed, now)
	if finishLineOrDraw(s, p, color, now) {
		return
	}
	nextTurn(s, now)
}

// omokPlace validates and places a stone without go-rule capture mechanics.
func omokPlace(s *game.Session, act game.Action, userID string, now time.Time) (board.Point, error) {
	if err := requireTurn(s, userID); err != nil {
		return board.Point{}, err
	}
	var mp game.MovePayload
	if err := game.DecodePayload(act, &mp); err != nil {
		return board.Point{}, err
	}
	pt := board.Point{X: mp.X, Y: mp.Y}
	if !s.Board.Place(pt, s.ColorOf(userID)) {
		return board.Point{}, game.RejectIllegalPoint("occupied or off board")
	}
	s.Record(userID, game.ActionMove, mp, 0, now)
	return pt, nil
}

// finishLineOrDraw ends the game when the placement completed a five-line or
// filled the board.
func finishLineOrDraw(s *game.Session, p board.Point, color board.Stone, now time.Time) bool {
	if s.Board.LineLength(p, color) >= 5 {
		s.Finish(s.PlayerIDByColor(color), game.WinReasonFiveInRow, now)
		return true
	}
	if len(s.Board.EmptyPoints()) == 0 {
		s.FinishDraw(now)
		return true
	}
	return false
}
