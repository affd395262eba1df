package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Thief mode: one player runs a single thief stone, the other walls it in
// with police stones. Rounds are fixed-role: two rounds with a role swap,
// then deathmatch rounds with role reselection while the score stays tied.
// Every round ends in a confirmable summary phase requiring both players (or
// the ack timeout) before the next round begins.
//
// Board mapping: the thief always plays Black for the round, police White.
type Thief struct{ strategic }

func (m *Thief) Initialize(s *game.Session, now time.Time) error {
	s.Thief = &game.ThiefState{
		Round:      1,
		Roles:      map[string]game.Role{},
		Selections: map[string]game.Role{},
		Scores:     map[string]int{s.Players[0].ID: 0, s.Players[1].ID: 0},
	}
	s.SetPhase(game.StatusRoleSelect, now, roleWindow)
	return nil
}

func (m *Thief) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	switch s.Status {
	case game.StatusRoleSelect:
		if s.DeadlineExpired(now) {
			m.assignRoles(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.timeoutMove(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusRoundSummary:
		if s.DeadlineExpired(now) {
			m.nextRound(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Thief) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	st := s.Thief
	switch act.Type {
	case game.ActionRoleSelect:
		if s.Status != game.StatusRoleSelect {
			return false, game.RejectWrongPhase(s.Status)
		}
		if !s.Participant(userID) {
			return false, game.RejectNotParticipant()
		}
		var p game.RoleSelectPayload
		if err := game.DecodePayload(act, &p); err != nil {
			return false, err
		}
		if p.Role != game.RoleThief && p.Role != game.RolePolice {
			return false, game.RejectBadPayload("role must be thief or police")
		}
		st.Selections[userID] = p.Role
		s.Record(userID, game.ActionRoleSelect, p, 0, now)
		if len(st.Selections) == 2 {
			m.assignRoles(s, now)
		}
		return true, nil
	case game.ActionThiefMove:
		if err := m.requireRole(s, userID, game.RoleThief); err != nil {
			return false, err
		}
		var p game.MovePayload
		if err := game.DecodePayload(act, &p); err != nil {
			return false, err
		}
		dst := board.Point{X: p.X, Y: p.Y}
		if !m.stepThief(s, dst) {
			return false, game.RejectIllegalPoint("thief moves one step to an empty point")
		}
		s.Record(userID, game.ActionThiefMove, p, 0, now)
		m.afterThiefStep(s, now)
		return true, nil
	case game.ActionMove:
		if err := m.requireRole(s, userID, game.RolePolice); err != nil {
			return false, err
		}
		var p game.MovePayload
		if err := game.DecodePayload(act, &p); err != nil {
			return false, err
		}
		pt := board.Point{X: p.X, Y: p.Y}
		if !s.Board.Place(pt, board.White) {
			return false, game.RejectIllegalPoint("occupied or off board")
		}
		s.Record(userID, game.ActionMove, p, 0, now)
		m.afterPoliceStone(s, now)
		return true, nil
	case game.ActionRoundAck:
		if s.Status != game.StatusRoundSummary {
			return false, game.RejectWrongPhase(s.Status)
		}
		if !s.Participant(userID) {
			return false, game.RejectNotParticipant()
		}
		if st.Acks == nil {
			st.Acks = map[string]bool{}
		}
		st.Acks[userID] = true
		s.Record(userID, game.ActionRoundAck, nil, 0, now)
		if st.Acks[s.Players[0].ID] && st.Acks[s.Players[1].ID] {
			m.nextRound(s, now)
		}
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

func (m *Thief) requireRole(s *game.Session, userID string, role game.Role) error {
	if s.Terminal() {
		return game.RejectSessionOver()
	}
	if !s.Participant(userID) {
		return game.RejectNotParticipant()
	}
	if s.Status != game.StatusPlaying {
		return game.RejectWrongPhase(s.Status)
	}
	if s.Thief.Roles[userID] != role {
		return game.RejectNotYourRole()
	}
	if s.ColorOf(userID) != s.CurrentPlayer {
		return game.RejectWrongTurn()
	}
	return nil
}

// assignRoles settles the selection phase: distinct picks are honored,
// conflicts and absences fall to a seeded coin flip.
func (m *Thief) assignRoles(s *game.Session, now time.Time) {
	st := s.Thief
	a, b := s.Players[0].ID, s.Players[1].ID
	ra, rb := st.Selections[a], st.Selections[b]
	if ra == "" || rb == "" || ra == rb {
		seed := game.NewSeed()
		if game.Rng(seed).Intn(2) == 0 {
			ra, rb = game.RoleThief, game.RolePolice
		} else {
			ra, rb = game.RolePolice, game.RoleThief
		}
		s.Record("", game.LogAutoRoll, map[string]string{"decision": "role_flip"}, seed, now)
	}
	st.Roles = map[string]game.Role{a: ra, b: rb}
	st.Selections = map[string]game.Role{}
	m.startRound(s, now)
}

// startRound resets the board, seats the thief as Black in the center and
// gives the thief the first turn.
func (m *Thief) startRound(s *game.Session, now time.Time) {
	st := s.Thief
	for id, r := range st.Roles {
		if r == game.RoleThief {
			s.BlackID = id
		} else {
			s.WhiteID = id
		}
	}
	s.Board = board.New(s.Settings.BoardSize)
	c := s.Settings.BoardSize / 2
	center := board.Point{X: c, Y: c}
	s.Board.Place(center, board.Black)
	st.ThiefPos = &center
	st.ThiefMoves = 0
	st.Acks = map[string]bool{}
	s.Status = game.StatusPlaying
	s.StartTurn(board.Black, now)
}

// stepThief moves the thief stone one orthogonal step onto an empty point.
func (m *Thief) stepThief(s *game.Session, dst board.Point) bool {
	st := s.Thief
	cur := *st.ThiefPos
	dx, dy := dst.X-cur.X, dst.Y-cur.Y
	if dx*dx+dy*dy != 1 {
		return false
	}
	if !s.Board.In(dst) || s.Board.At(dst) != board.Empty {
		return false
	}
	s.Board.Remove(cur)
	s.Board.Place(dst, board.Black)
	*st.ThiefPos = dst
	return true
}

func (m *Thief) afterThiefStep(s *game.Session, now time.Time) {
	st := s.Thief
	st.ThiefMoves++
	if st.ThiefMoves >= s.Settings.ThiefSurvival {
		m.endRound(s, s.BlackID, now)
		return
	}
	nextTurn(s, now)
}

func (m *Thief) afterPoliceStone(s *game.Session, now time.Time) {
	if m.thiefTrapped(s) {
		m.endRound(s, s.WhiteID, now)
		return
	}
	nextTurn(s, now)
}

func (m *Thief) thiefTrapped(s *game.Session) bool {
	for _, n := range s.Board.Neighbors(*s.Thief.ThiefPos) {
		if s.Board.At(n) == board.Empty {
			return false
		}
	}
	return true
}

// timeoutMove substitutes a seeded random action for the expired turn: a
// random step for the thief (trapped thieves lose the round), a random stone
// for the police.
func (m *Thief) timeoutMove(s *game.Session, now time.Time) {
	st := s.Thief
	seed := game.NewSeed()
	rng := game.Rng(seed)
	if s.CurrentPlayer == board.Black { // thief
		var opts []board.Point
		for _, n := range s.Board.Neighbors(*st.ThiefPos) {
			if s.Board.At(n) == board.Empty {
				opts = append(opts, n)
			}
		}
		if len(opts) == 0 {
			s.Record(s.BlackID, game.LogTimeout, map[string]string{"consequence": "trapped"}, seed, now)
			m.endRound(s, s.WhiteID, now)
			return
		}
		dst := opts[rng.Intn(len(opts))]
		m.stepThief(s, dst)
		s.Record(s.BlackID, game.LogTimeout, game.MovePayload{X: dst.X, Y: dst.Y}, seed, now)
		m.afterThiefStep(s, now)
		return
	}
	empties := s.Board.EmptyPoints()
	if len(empties) == 0 {
		m.endRound(s, s.BlackID, now)
		return
	}
	p := empties[rng.Intn(len(empties))]
	s.Board.Place(p, board.White)
	s.Record(s.WhiteID, game.LogTimeout, game.MovePayload{X: p.X, Y: p.Y}, seed, now)
	m.afterPoliceStone(s, now)
}

// endRound credits the round and opens the confirmable summary.
func (m *Thief) endRound(s *game.Session, winnerID string, now time.Time) {
	st := s.Thief
	st.Scores[winnerID]++
	st.LastWinner = winnerID
	st.Acks = map[string]bool{}
	s.Record("", game.LogRoundEnd, map[string]any{"round": st.Round, "winner": winnerID, "scores": st.Scores}, 0, now)
	s.SetPhase(game.StatusRoundSummary, now, summaryWindow)
}

// nextRound advances past a confirmed summary: role swap into round 2,
// deathmatch reselection while tied, otherwise the match result.
func (m *Thief) nextRound(s *game.Session, now time.Time) {
	st := s.Thief
	a, b := s.Players[0].ID, s.Players[1].ID
	if st.Round < s.Settings.ThiefRounds {
		st.Round++
		st.Roles[a], st.Roles[b] = st.Roles[b], st.Roles[a]
		m.startRound(s, now)
		return
	}
	if st.Scores[a] == st.Scores[b] {
		st.Round++
		st.Deathmatch = true
		st.Selections = map[string]game.Role{}
		s.SetPhase(game.StatusRoleSelect, now, roleWindow)
		return
	}
	winner := a
	if st.Scores[b] > st.Scores[a] {
		winner = b
	}
	s.Finish(winner, game.WinReasonRounds, now)
}
