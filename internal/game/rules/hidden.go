package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Hidden mode: each player commits a few concealed stones during setup. A
// concealed stone sits on the board for rule purposes but stays invisible to
// the opponent's view until an opposing stone becomes adjacent to it, or it
// takes part in a capture. View filtering is the broadcaster's job; this
// module only tracks the reveal state.
type Hidden struct{ strategic }

func (m *Hidden) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Hidden) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginSetup); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusHiddenSetup:
		if s.DeadlineExpired(now) {
			m.autofill(s, now)
			m.startPlay(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.timeoutAutoMove(s, now)
			m.sweepReveals(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Hidden) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionHiddenPlace:
		return m.place(s, act, userID, now)
	case game.ActionMove:
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		m.sweepReveals(s, now)
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

func (m *Hidden) beginSetup(s *game.Session, now time.Time) {
	s.Board = board.New(s.Settings.BoardSize)
	n := s.Settings.HiddenStoneCount
	s.Hidden = &game.HiddenState{
		Remaining: map[string]int{s.Players[0].ID: n, s.Players[1].ID: n},
	}
	s.SetPhase(game.StatusHiddenSetup, now, setupWindow)
}

func (m *Hidden) place(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	if s.Status != game.StatusHiddenSetup {
		return false, game.RejectWrongPhase(s.Status)
	}
	if !s.Participant(userID) {
		return false, game.RejectNotParticipant()
	}
	st := s.Hidden
	if st.Remaining[userID] <= 0 {
		return false, game.RejectNoResource("no hidden stones left")
	}
	var p game.MovePayload
	if err := game.DecodePayload(act, &p); err != nil {
		return false, err
	}
	pt := board.Point{X: p.X, Y: p.Y}
	if !s.Board.Place(pt, s.ColorOf(userID)) {
		return false, game.RejectIllegalPoint("occupied or off board")
	}
	st.Stones = append(st.Stones, game.HiddenStone{Point: pt, OwnerID: userID})
	st.Remaining[userID]--
	s.Record(userID, game.ActionHiddenPlace, p, 0, now)
	if st.Remaining[s.Players[0].ID] == 0 && st.Remaining[s.Players[1].ID] == 0 {
		m.startPlay(s, now)
	}
	return true, nil
}

func (m *Hidden) autofill(s *game.Session, now time.Time) {
	st := s.Hidden
	for _, pl := range s.Players {
		need := st.Remaining[pl.ID]
		if need <= 0 {
			continue
		}
		seed := game.NewSeed()
		placed := 0
		for _, p := range randomEmpties(s.Board, s.Board.Size*s.Board.Size, seed) {
			if placed >= need {
				break
			}
			if s.Board.Place(p, s.ColorOf(pl.ID)) {
				st.Stones = append(st.Stones, game.HiddenStone{Point: p, OwnerID: pl.ID})
				placed++
			}
		}
		st.Remaining[pl.ID] = 0
		s.Record(pl.ID, game.LogAutoFill, map[string]int{"count": placed}, seed, now)
	}
}

func (m *Hidden) startPlay(s *game.Session, now time.Time) {
	s.Board.ToMove = board.Black
	s.Status = game.StatusPlaying
	s.StartTurn(board.Black, now)
}

// sweepReveals uncovers hidden stones now adjacent to an enemy stone or
// removed from the board by a capture.
func (m *Hidden) sweepReveals(s *game.Session, now time.Time) {
	st := s.Hidden
	if st == nil {
		return
	}
	for i := range st.Stones {
		h := &st.Stones[i]
		if h.Revealed {
			continue
		}
		own := s.ColorOf(h.OwnerID)
		if s.Board.At(h.Point) != own {
			// Captured (or displaced): reveal on removal.
			h.Revealed = true
			s.Record(h.OwnerID, game.LogReveal, game.MovePayload{X: h.Point.X, Y: h.Point.Y}, 0, now)
			continue
		}
		for _, n := range s.Board.Neighbors(h.Point) {
			if s.Board.At(n) == own.Opponent() {
				h.Revealed = true
				s.Record(h.OwnerID, game.LogReveal, game.MovePayload{X: h.Point.X, Y: h.Point.Y}, 0, now)
				break
			}
		}
	}
}
