package rules

import (
	"math"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Curling: players alternate sliding stones from the bottom edge toward the
// board center. The slide is deterministic from (angle, power) plus a small
// seeded jitter recorded in the move log. When both hands are empty the stone
// closest to the center takes the end; most ends takes the match. An expired
// throw forfeits that stone.
type Curling struct{ strategic }

const (
	throwRange = 1.2 // board-lengths at full power
	pushRadius = 0.8
	pushDist   = 1.0
	jitterSpan = 0.4
)

func (m *Curling) Initialize(s *game.Session, now time.Time) error {
	assignSeats(s, now)
	s.Curling = &game.CurlingState{
		End:      1,
		Thrown:   map[string]int{s.Players[0].ID: 0, s.Players[1].ID: 0},
		EndsWon:  map[string]int{s.Players[0].ID: 0, s.Players[1].ID: 0},
		Forfeits: map[string]int{},
	}
	s.Status = game.StatusPlaying
	s.CurrentPlayer = s.ColorOf(s.BlackID)
	s.StartTurn(s.CurrentPlayer, now)
	return nil
}

func (m *Curling) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.forfeitThrow(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Curling) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionThrow:
		if err := requireTurn(s, userID); err != nil {
			return false, err
		}
		st := s.Curling
		if st.Thrown[userID] >= s.Settings.CurlingStones {
			return false, game.RejectNoResource("no stones left this end")
		}
		var p game.ThrowPayload
		if err := game.DecodePayload(act, &p); err != nil {
			return false, err
		}
		seed := game.NewSeed()
		m.resolveThrow(s, userID, p, seed)
		st.Thrown[userID]++
		s.Record(userID, game.ActionThrow, p, seed, now)
		m.advance(s, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

// resolveThrow slides a stone from the bottom-center hack. Angle 0 points at
// the far edge; the seeded jitter models ice drift and is replayable.
func (m *Curling) resolveThrow(s *game.Session, userID string, p game.ThrowPayload, seed int64) {
	size := float64(s.Settings.BoardSize)
	rng := game.Rng(seed)
	power := clamp01(p.Power)
	dist := power * size * throwRange
	x := size/2 + math.Sin(p.Angle)*dist + (rng.Float64()-0.5)*jitterSpan
	y := (size - 1) - math.Cos(p.Angle)*dist + (rng.Float64()-0.5)*jitterSpan

	st := s.Curling
	// Takeout: a resting stone near the landing point is pushed onward.
	dirX, dirY := math.Sin(p.Angle), -math.Cos(p.Angle)
	for i := range st.Stones {
		other := &st.Stones[i]
		if !other.OnBoard {
			continue
		}
		if math.Hypot(other.X-x, other.Y-y) < pushRadius {
			other.X += dirX * pushDist
			other.Y += dirY * pushDist
			if other.X < 0 || other.Y < 0 || other.X >= size || other.Y >= size {
				other.OnBoard = false
			}
			break
		}
	}

	stone := game.CurlingStone{OwnerID: userID, X: x, Y: y, OnBoard: true}
	if x < 0 || y < 0 || x >= size || y >= size {
		stone.OnBoard = false
	}
	st.Stones = append(st.Stones, stone)
}

// forfeitThrow is the timeout consequence: the stone is lost unthrown.
func (m *Curling) forfeitThrow(s *game.Session, now time.Time) {
	id := s.CurrentPlayerID()
	st := s.Curling
	st.Thrown[id]++
	st.Forfeits[id]++
	s.Record(id, game.LogTimeout, map[string]string{"consequence": "stone_forfeit"}, 0, now)
	m.advance(s, now)
}

// advance scores the end when both hands are empty, otherwise hands the next
// throw to whichever player has thrown fewer stones.
func (m *Curling) advance(s *game.Session, now time.Time) {
	st := s.Curling
	a, b := s.Players[0].ID, s.Players[1].ID
	limit := s.Settings.CurlingStones
	if st.Thrown[a] >= limit && st.Thrown[b] >= limit {
		m.scoreEnd(s, now)
		return
	}
	next := a
	if st.Thrown[b] < st.Thrown[a] || (st.Thrown[a] == st.Thrown[b] && s.CurrentPlayerID() == a) {
		next = b
	}
	if st.Thrown[next] >= limit {
		next = s.OpponentID(next)
	}
	s.CurrentPlayer = s.ColorOf(next)
	s.StartTurn(s.CurrentPlayer, now)
}

// scoreEnd awards the end to the closest stone and opens the next end or the
// match result.
func (m *Curling) scoreEnd(s *game.Session, now time.Time) {
	st := s.Curling
	size := float64(s.Settings.BoardSize)
	cx, cy := (size-1)/2, (size-1)/2
	best := math.MaxFloat64
	winner := ""
	for _, stone := range st.Stones {
		if !stone.OnBoard {
			continue
		}
		if d := math.Hypot(stone.X-cx, stone.Y-cy); d < best {
			best = d
			winner = stone.OwnerID
		}
	}
	if winner != "" {
		st.EndsWon[winner]++
	}
	s.Record("", game.LogRoundEnd, map[string]any{"end": st.End, "winner": winner, "ends_won": st.EndsWon}, 0, now)

	if st.End < s.Settings.CurlingEnds {
		st.End++
		st.Stones = nil
		for id := range st.Thrown {
			st.Thrown[id] = 0
		}
		s.CurrentPlayer = s.ColorOf(s.BlackID)
		s.StartTurn(s.CurrentPlayer, now)
		return
	}
	a, b := s.Players[0].ID, s.Players[1].ID
	switch {
	case st.EndsWon[a] > st.EndsWon[b]:
		s.Finish(a, game.WinReasonRounds, now)
	case st.EndsWon[b] > st.EndsWon[a]:
		s.Finish(b, game.WinReasonRounds, now)
	default:
		s.FinishDraw(now)
	}
}
