package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Base mode: after nigiri, both players secretly place a fixed count of base
// stones; the placement deadline auto-distributes whatever is left. Play then
// proceeds as standard baduk on the pre-seeded board.
type Base struct{ strategic }

func (m *Base) Initialize(s *game.Session, now time.Time) error {
	m.initNigiri(s, now)
	return nil
}

func (m *Base) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	if dirty, inNigiri := m.tickNigiri(s, now, m.beginSetup); dirty || inNigiri {
		return dirty, nil
	}
	switch s.Status {
	case game.StatusBaseSetup:
		if s.DeadlineExpired(now) {
			m.autofill(s, now)
			m.commit(s, now)
			return true, nil
		}
		return false, nil
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

func (m *Base) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionNigiriGuess:
		return m.handleGuess(s, act, userID, now)
	case game.ActionBasePlace:
		return m.place(s, act, userID, now)
	case game.ActionMove:
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
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

func (m *Base) beginSetup(s *game.Session, now time.Time) {
	s.Board = board.New(s.Settings.BoardSize)
	n := s.Settings.BaseStoneCount
	s.Base = &game.BaseState{
		Remaining: map[string]int{s.Players[0].ID: n, s.Players[1].ID: n},
		Placed:    map[string][]board.Point{},
	}
	s.SetPhase(game.StatusBaseSetup, now, setupWindow)
}

// place records one secret base stone. Collisions with the opponent's secret
// picks are resolved at commit time, not here — neither player can see the
// other's stones during the window.
func (m *Base) place(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	if s.Status != game.StatusBaseSetup {
		return false, game.RejectWrongPhase(s.Status)
	}
	if !s.Participant(userID) {
		return false, game.RejectNotParticipant()
	}
	st := s.Base
	if st.Remaining[userID] <= 0 {
		return false, game.RejectNoResource("no base stones left")
	}
	var p game.BasePlacePayload
	if err := game.DecodePayload(act, &p); err != nil {
		return false, err
	}
	pt := board.Point{X: p.X, Y: p.Y}
	if !s.Board.In(pt) {
		return false, game.RejectIllegalPoint("off board")
	}
	for _, prev := range st.Placed[userID] {
		if prev == pt {
			return false, game.RejectIllegalPoint("already chosen")
		}
	}
	st.Placed[userID] = append(st.Placed[userID], pt)
	st.Remaining[userID]--
	s.Record(userID, game.ActionBasePlace, p, 0, now)
	if st.Remaining[s.Players[0].ID] == 0 && st.Remaining[s.Players[1].ID] == 0 {
		m.commit(s, now)
	}
	return true, nil
}

// autofill distributes the unplaced remainder uniformly at random; the seed
// is recorded so the distribution replays.
func (m *Base) autofill(s *game.Session, now time.Time) {
	st := s.Base
	for _, pl := range s.Players {
		need := st.Remaining[pl.ID]
		if need <= 0 {
			continue
		}
		seed := game.NewSeed()
		taken := func(p board.Point) bool {
			for _, q := range st.Placed[pl.ID] {
				if q == p {
					return true
				}
			}
			return false
		}
		added := 0
		for _, p := range randomEmpties(s.Board, s.Board.Size*s.Board.Size, seed) {
			if added >= need {
				break
			}
			if taken(p) {
				continue
			}
			st.Placed[pl.ID] = append(st.Placed[pl.ID], p)
			added++
		}
		st.Remaining[pl.ID] = 0
		s.Record(pl.ID, game.LogAutoFill, map[string]int{"count": added}, seed, now)
	}
}

// commit reveals both secret sets onto the board, black's first. A collision
// relocates the later stone to a seeded random empty point.
func (m *Base) commit(s *game.Session, now time.Time) {
	st := s.Base
	if st.Done {
		return
	}
	st.Done = true
	order := []struct {
		id    string
		color board.Stone
	}{{s.BlackID, board.Black}, {s.WhiteID, board.White}}
	for _, o := range order {
		for _, p := range st.Placed[o.id] {
			if s.Board.Place(p, o.color) {
				continue
			}
			seed := game.NewSeed()
			if alt := randomEmpties(s.Board, 1, seed); len(alt) == 1 {
				s.Board.Place(alt[0], o.color)
				s.Record(o.id, game.LogAutoFill, map[string]any{"relocated": true, "from": p}, seed, now)
			}
		}
	}
	s.Board.ToMove = board.Black
	s.Status = game.StatusPlaying
	s.StartTurn(board.Black, now)
}
