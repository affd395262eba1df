package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Ttamok: omok placement plus custodial pair capture — flanking exactly two
// enemy stones in a straight line removes them. Win by five-in-a-row or by
// reaching the pair-capture goal. Captured pairs are tallied as stones, two
// per pair.
type Ttamok struct{ strategic }

func (m *Ttamok) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Ttamok) UpdateState(s *game.Session, now time.Time) (bool, error) {
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

func (m *Ttamok) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionMove:
		pt, err := omokPlace(s, act, userID, now)
		if err != nil {
			return false, err
		}
		if m.resolve(s, pt, s.ColorOf(userID), now) {
			return true, nil
		}
		nextTurn(s, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

func (m *Ttamok) timeoutAutoPlace(s *game.Session, now time.Time) {
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
	if m.resolve(s, p, color, now) {
		return
	}
	nextTurn(s, now)
}

// resolve applies pair captures around p and checks both win conditions.
func (m *Ttamok) resolve(s *game.Session, p board.Point, color board.Stone, now time.Time) bool {
	pairs := capturePairs(s.Board, p, color)
	if pairs > 0 {
		s.AddCapture(color, pairs*2)
	}
	goal := s.Settings.PairCaptureGoal * 2
	if s.CapturesOf(color) >= goal {
		s.Finish(s.PlayerIDByColor(color), game.WinReasonCapture, now)
		return true
	}
	return finishLineOrDraw(s, p, color, now)
}

// capturePairs removes every enemy pair flanked by the new stone in any of
// the eight directions and returns how many pairs fell.
func capturePairs(b *board.Board, p board.Point, color board.Stone) int {
	enemy := color.Opponent()
	pairs := 0
	dirs := [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}}
	for _, d := range dirs {
		a := board.Point{X: p.X + d[0], Y: p.Y + d[1]}
		c := board.Point{X: p.X + 2*d[0], Y: p.Y + 2*d[1]}
		e := board.Point{X: p.X + 3*d[0], Y: p.Y + 3*d[1]}
		if b.At(a) == enemy && b.At(c) == enemy && b.In(e) && b.At(e) == color {
			b.Remove(a)
			b.Remove(c)
			pairs++
		}
	}
	return pairs
}
