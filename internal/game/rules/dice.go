package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Dice mode: every turn opens with a die roll that grants 1–3 stone
// placements (1–3 pips → one, 4–5 → two, 6 → three). Placements follow full
// baduk capture rules; the capture goal decides the match. Rolls and
// timeout-substituted placements are seeded and logged for replay.
type Dice struct{ strategic }

func (m *Dice) Initialize(s *game.Session, now time.Time) error {
	assignSeats(s, now)
	s.Board = board.New(s.Settings.BoardSize)
	s.Dice = &game.DiceState{}
	s.CurrentPlayer = board.Black
	s.SetPhase(game.StatusDiceRolling, now, time.Duration(s.Settings.TurnTimeLimitSec)*time.Second)
	return nil
}

func (m *Dice) UpdateState(s *game.Session, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, nil
	}
	switch s.Status {
	case game.StatusDiceRolling:
		if s.DeadlineExpired(now) {
			m.roll(s, s.CurrentPlayerID(), game.LogAutoRoll, now)
			return true, nil
		}
		return false, nil
	case game.StatusPlaying:
		if s.DeadlineExpired(now) {
			m.timeoutPlacements(s, now)
			return true, nil
		}
		return false, nil
	case game.StatusEnded, game.StatusNoContest:
		return false, nil
	}
	return false, game.ErrUnknownStatus
}

func (m *Dice) HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	switch act.Type {
	case game.ActionDiceRoll:
		if s.Status != game.StatusDiceRolling {
			return false, game.RejectWrongPhase(s.Status)
		}
		if s.ColorOf(userID) != s.CurrentPlayer {
			return false, game.RejectWrongTurn()
		}
		m.roll(s, userID, game.ActionDiceRoll, now)
		return true, nil
	case game.ActionMove:
		if _, err := m.applyMove(s, act, userID, now); err != nil {
			return false, err
		}
		m.afterPlacement(s, now)
		return true, nil
	case game.ActionPass:
		// Forfeit the remaining placements of this turn.
		if err := requireTurn(s, userID); err != nil {
			return false, err
		}
		s.Record(userID, game.ActionPass, nil, 0, now)
		m.endTurn(s, now)
		return true, nil
	case game.ActionResign:
		return handleResign(s, userID, now)
	}
	return false, game.RejectUnknownAction(act.Type)
}

// roll consumes a seed for the die and opens the placement sub-phase.
func (m *Dice) roll(s *game.Session, userID, logType string, now time.Time) {
	seed := game.NewSeed()
	pips := game.Rng(seed).Intn(6) + 1
	moves := 1
	switch {
	case pips == 6:
		moves = 3
	case pips >= 4:
		moves = 2
	}
	s.Dice.LastRoll = pips
	s.Dice.MovesLeft = moves
	s.Record(userID, logType, map[string]int{"pips": pips, "moves": moves}, seed, now)
	s.Status = game.StatusPlaying
	s.StartTurn(s.CurrentPlayer, now)
}

// afterPlacement books one placement and either re-arms the turn or hands
// the dice to the opponent.
func (m *Dice) afterPlacement(s *game.Session, now time.Time) {
	if m.checkGoal(s, now) {
		return
	}
	s.Dice.MovesLeft--
	if s.Dice.MovesLeft > 0 {
		s.StartTurn(s.CurrentPlayer, now)
		return
	}
	m.endTurn(s, now)
}

func (m *Dice) endTurn(s *game.Session, now time.Time) {
	s.Dice.MovesLeft = 0
	s.CurrentPlayer = s.CurrentPlayer.Opponent()
	s.SetPhase(game.StatusDiceRolling, now, time.Duration(s.Settings.TurnTimeLimitSec)*time.Second)
}

// timeoutPlacements substitutes seeded random placements for whatever the
// expired turn still owed, then passes the dice.
func (m *Dice) timeoutPlacements(s *game.Session, now time.Time) {
	color := s.CurrentPlayer
	for s.Dice.MovesLeft > 0 && !s.Terminal() {
		seed := game.NewSeed()
		// Play flips ToMove after every placement; legality must be judged
		// for the mover, not whoever moved last.
		s.Board.ToMove = color
		legal := s.Board.LegalMoves()
		if len(legal) == 0 {
			break
		}
		p := legal[game.Rng(seed).Intn(len(legal))]
		captured, _ := s.Board.Play(p)
		s.AddCapture(color, captured)
		s.Record(s.CurrentPlayerID(), game.LogTimeout, game.MovePayload{X: p.X, Y: p.Y}, seed, now)
		s.Dice.MovesLeft--
		if m.checkGoal(s, now) {
			return
		}
	}
	m.endTurn(s, now)
}

func (m *Dice) checkGoal(s *game.Session, now time.Time) bool {
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
