// Package ai substitutes actions for AI-seated players. The dispatcher only
// produces actions; legality stays with the rule modules, which validate an
// AI action on exactly the same path as a human one.
package ai

import (
	"math"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

type Dispatcher struct{}

func New() *Dispatcher { return &Dispatcher{} }

// Next returns the player id the session is currently waiting on, if any.
// Time-driven phases (nigiri choosing/reveal) wait on nobody.
func (d *Dispatcher) Next(s *game.Session) (string, bool) {
	if s.Terminal() {
		return "", false
	}
	switch s.Status {
	case game.StatusNigiriGuessing:
		if s.Nigiri != nil {
			return s.Nigiri.GuesserID, true
		}
	case game.StatusBaseSetup:
		if s.Base != nil {
			for _, p := range s.Players {
				if s.Base.Remaining[p.ID] > 0 {
					return p.ID, true
				}
			}
		}
	case game.StatusHiddenSetup:
		if s.Hidden != nil {
			for _, p := range s.Players {
				if s.Hidden.Remaining[p.ID] > 0 {
					return p.ID, true
				}
			}
		}
	case game.StatusRoleSelect:
		if s.Thief != nil {
			for _, p := range s.Players {
				if _, ok := s.Thief.Selections[p.ID]; !ok {
					return p.ID, true
				}
			}
		}
	case game.StatusRoundSummary:
		if s.Thief != nil {
			for _, p := range s.Players {
				if !s.Thief.Acks[p.ID] {
					return p.ID, true
				}
			}
		}
	case game.StatusDiceRolling, game.StatusPlaying:
		if id := s.CurrentPlayerID(); id != "" {
			return id, true
		}
	}
	return "", false
}

// Generate builds an action for userID from the recorded seed. Phases with
// no generator fall back to a pass so a session never wedges on an AI seat.
func (d *Dispatcher) Generate(s *game.Session, userID string, seed int64) game.Action {
	rng := game.Rng(seed)
	switch s.Status {
	case game.StatusNigiriGuessing:
		return game.NewAction(game.ActionNigiriGuess, game.NigiriGuessPayload{Guess: 1 + rng.Intn(2)})
	case game.StatusBaseSetup:
		if p, ok := randomEmpty(s.Board, rng.Int63()); ok {
			return game.NewAction(game.ActionBasePlace, game.BasePlacePayload{X: p.X, Y: p.Y})
		}
	case game.StatusHiddenSetup:
		if p, ok := randomEmpty(s.Board, rng.Int63()); ok {
			return game.NewAction(game.ActionHiddenPlace, game.MovePayload{X: p.X, Y: p.Y})
		}
	case game.StatusRoleSelect:
		role := game.RoleThief
		if rng.Intn(2) == 1 {
			role = game.RolePolice
		}
		return game.NewAction(game.ActionRoleSelect, game.RoleSelectPayload{Role: role})
	case game.StatusRoundSummary:
		return game.NewAction(game.ActionRoundAck, nil)
	case game.StatusDiceRolling:
		return game.NewAction(game.ActionDiceRoll, nil)
	case game.StatusPlaying:
		return d.playingAction(s, userID, rng.Int63())
	}
	return game.NewAction(game.ActionPass, nil)
}

func (d *Dispatcher) playingAction(s *game.Session, userID string, seed int64) game.Action {
	rng := game.Rng(seed)
	switch s.Mode {
	case game.ModeThief:
		if s.Thief != nil && s.Thief.Roles[userID] == game.RoleThief {
			if s.Thief.ThiefPos != nil {
				var open []board.Point
				for _, n := range s.Board.Neighbors(*s.Thief.ThiefPos) {
					if s.Board.At(n) == board.Empty {
						open = append(open, n)
					}
				}
				if len(open) > 0 {
					p := open[rng.Intn(len(open))]
					return game.NewAction(game.ActionThiefMove, game.MovePayload{X: p.X, Y: p.Y})
				}
			}
			break
		}
		if p, ok := randomEmpty(s.Board, rng.Int63()); ok {
			return game.NewAction(game.ActionMove, game.MovePayload{X: p.X, Y: p.Y})
		}
	case game.ModeAlkkagi:
		if s.Alkkagi != nil {
			var mine []int
			for i, st := range s.Alkkagi.Stones {
				if st.OnBoard && st.OwnerID == userID {
					mine = append(mine, i)
				}
			}
			if len(mine) > 0 {
				return game.NewAction(game.ActionFlick, game.FlickPayload{
					Stone: mine[rng.Intn(len(mine))],
					Angle: rng.Float64() * 2 * math.Pi,
					Power: 0.4 + 0.6*rng.Float64(),
				})
			}
		}
	case game.ModeCurling:
		return game.NewAction(game.ActionThrow, game.ThrowPayload{
			Angle: (rng.Float64() - 0.5) * 0.6,
			Power: 0.3 + 0.6*rng.Float64(),
		})
	case game.ModeOmok, game.ModeTtamok:
		if p, ok := randomEmpty(s.Board, rng.Int63()); ok {
			return game.NewAction(game.ActionMove, game.MovePayload{X: p.X, Y: p.Y})
		}
	default:
		legal := s.Board.LegalMoves()
		if len(legal) > 0 {
			p := legal[rng.Intn(len(legal))]
			return game.NewAction(game.ActionMove, game.MovePayload{X: p.X, Y: p.Y})
		}
	}
	return game.NewAction(game.ActionPass, nil)
}

func randomEmpty(b *board.Board, seed int64) (board.Point, bool) {
	if b == nil {
		return board.Point{}, false
	}
	empties := b.EmptyPoints()
	if len(empties) == 0 {
		return board.Point{}, false
	}
	return empties[game.Rng(seed).Intn(len(empties))], true
}
