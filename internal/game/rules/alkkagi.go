package rules

import (
	"math"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Alkkagi: stone-flicking on a continuous board plane. A flick is resolved by
// deterministic straight-line physics from its (angle, power) inputs — no
// hidden randomness, so the move log alone replays the match. Stones leaving
// the plane are removed; losing every stone loses the match. An expired turn
// is skipped, and a streak of skips forfeits.
type Alkkagi struct{ strategic }

const (
	flickRange = 1.5 // board-lengths at full power
	hitRadius  = 0.7
	pathStep   = 0.05
)

func (m *Alkkagi) Initialize(s *game.Session, now time.Time) error {
	assignSeats(s, now)
	size := float64(s.Settings.BoardSize)
	n := s.Settings.AlkkagiStones
	st := &game.AlkkagiState{SkipStreak: map[string]int{}}
	for j := 0; j < n; j++ {
		x := size * float64(j+1) / float64(n+1)
		st.Stones = append(st.Stones,
			game.AlkkagiStone{OwnerID: s.BlackID, X: x, Y: 1.5, OnBoard: true},
			game.AlkkagiStone{OwnerID: s.WhiteID, X: x, Y: size - 2.5, OnBoard: true},
		)
	}
	s.Alkkagi = st
	s.Status = game.StatusPlaying
	s.CurrentPlayer = s.ColorOf(s.BlackID)
	s.StartTurn(s.CurrentPlayer, now)
	return nil
}

func (m *Alkkagi) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	switch s.Status {
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.skipTurn(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Alkkagi) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionFlick:
		if err := requireTurn(s, userID); err != nil {
			return false, err
		}
		var p game.FlickPayload
		if err := game.DecodePayload(act, &p); err != nil {
			return false, err
		}
		st := s.Alkkagi
		if p.Stone < 0 || p.Stone >= len(st.Stones) {
			return false, game.RejectBadPayload("stone index out of range")
		}
		stone := &st.Stones[p.Stone]
		if stone.OwnerID != userID || !stone.OnBoard {
			return false, game.RejectIllegalPoint("not your stone or already off the board")
		}
		m.resolveFlick(s, stone, p)
		st.SkipStreak[userID] = 0
		s.Record(userID, game.ActionFlick, p, 0, now)
		if m.checkExhausted(s, now) {
			return true, nil
		}
		nextTurn(s, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

// resolveFlick slides the stone along its angle. The first other stone within
// the hit radius of the path is struck and carried the remaining distance in
// the same direction; the flicked stone stops at the impact point. Without an
// impact the stone travels the full distance and may leave the plane.
func (m *Alkkagi) resolveFlick(s *game.Session, stone *game.AlkkagiStone, p game.FlickPayload) {
	size := float64(s.Settings.BoardSize)
	power := clamp01(p.Power)
	dist := power * size * flickRange
	dx, dy := math.Cos(p.Angle), math.Sin(p.Angle)
	st := s.Alkkagi

	for travelled := pathStep; travelled <= dist; travelled += pathStep {
		x := stone.X + dx*travelled
		y := stone.Y + dy*travelled
		for i := range st.Stones {
			other := &st.Stones[i]
			if other == stone || !other.OnBoard {
				continue
			}
			if math.Hypot(other.X-x, other.Y-y) < hitRadius {
				// Impact: momentum transfers to the struck stone.
				stone.X, stone.Y = x, y
				rest := dist - travelled
				other.X += dx * rest
				other.Y += dy * rest
				clipStone(other, size)
				clipStone(stone, size)
				return
			}
		}
	}
	stone.X += dx * dist
	stone.Y += dy * dist
	clipStone(stone, size)
}

func clipStone(st *game.AlkkagiStone, size float64) {
	if st.X < 0 || st.Y < 0 || st.X >= size || st.Y >= size {
		st.OnBoard = false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// skipTurn is the timeout consequence: the turn is skipped, and repeated
// skips forfeit the match.
func (m *Alkkagi) skipTurn(s *game.Session, now time.Time) {
	id := s.CurrentPlayerID()
	st := s.Alkkagi
	st.SkipStreak[id]++
	s.Record(id, game.LogTimeout, map[string]int{"skip_streak": st.SkipStreak[id]}, 0, now)
	if st.SkipStreak[id] >= s.Settings.AlkkagiSkipLimit {
		s.Record(id, game.LogForfeit, nil, 0, now)
		s.Finish(s.OpponentID(id), game.WinReasonSkips, now)
		return
	}
	nextTurn(s, now)
}

func (m *Alkkagi) checkExhausted(s *game.Session, now time.Time) bool {
	st := s.Alkkagi
	alive := map[string]int{}
	for _, stone := range st.Stones {
		if stone.OnBoard {
			alive[stone.OwnerID]++
		}
	}
	a, b := s.Players[0].ID, s.Players[1].ID
	switch {
	case alive[a] == 0 && alive[b] == 0:
		s.FinishDraw(now)
		return true
	case alive[a] == 0:
		s.Finish(b, game.WinReasonExhausted, now)
		return true
	case alive[b] == 0:
		s.Finish(a, game.WinReasonExhausted, now)
		return true
	}
	return false
}
