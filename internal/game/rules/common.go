package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/nigiri"
)

// Shared phase timings.
const (
	setupWindow   = 60 * time.Second // base/hidden placement window
	summaryWindow = 30 * time.Second // round summary ack window
	roleWindow    = 30 * time.Second // thief role selection window
)

// strategic carries the behavior every nigiri-opened go-family mode shares:
// the tiebreak pre-game, board move application, pass/scoring, resignation
// and the no-contest gate.
type strategic struct{}

// initNigiri opens the tiebreak. The holder seat is drawn from a recorded
// seed; resolution assigns colors.
func (strategic) initNigiri(s *game.Session, now time.Time) {
	seed := game.NewSeed()
	holder, guesser := s.Players[0].ID, s.Players[1].ID
	if game.Rng(seed).Intn(2) == 1 {
		holder, guesser = guesser, holder
	}
	s.Nigiri = nigiri.New(holder, guesser, seed, now)
	s.Record("", game.LogNigiriStart, map[string]string{"holder": holder, "guesser": guesser}, seed, now)
	s.SetPhase(game.StatusNigiriChoosing, now, nigiri.ChoosingDelay)
}

// tickNigiri advances the tiebreak phases. begin is invoked exactly once when
// the reveal hold elapses; the Processed flag guards re-entry across repeated
// ticks. Returns (dirty, stillInNigiri).
func (strategic) tickNigiri(s *game.Session, now time.Time, begin func(*game.Session, time.Time)) (bool, bool) {
	n := s.Nigiri
	if n == nil {
		return false, false
	}
	switch s.Status {
	case game.StatusNigiriChoosing:
		if n.StartGuessing(now) {
			s.SetPhase(game.StatusNigiriGuessing, now, nigiri.GuessTimeout)
			return true, true
		}
		return false, true
	case game.StatusNigiriGuessing:
		if n.GuessExpired(now) {
			seed := game.NewSeed()
			guess, _ := n.TimeoutGuess(seed, now)
			s.Record("", game.LogNigiriResolve, map[string]int{"stones": n.Stones, "guess": guess}, seed, now)
			s.SetPhase(game.StatusNigiriReveal, now, nigiri.RevealDelay)
			return true, true
		}
		return false, true
	case game.StatusNigiriReveal:
		if n.RevealDone(now) && n.MarkProcessed() {
			s.BlackID = n.BlackID()
			s.WhiteID = n.WhiteID()
			begin(s, now)
			return true, false
		}
		return false, true
	}
	return false, false
}

// handleGuess applies an explicit nigiri guess from the designated guesser.
func (strategic) handleGuess(s *game.Session, act game.Action, userID string, now time.Time) (bool, error) {
	n := s.Nigiri
	if n == nil || s.Status != game.StatusNigiriGuessing {
		return false, game.RejectWrongPhase(s.Status)
	}
	if userID != n.GuesserID {
		return false, game.RejectNotYourRole()
	}
	var p game.NigiriGuessPayload
	if err := game.DecodePayload(act, &p); err != nil {
		return false, err
	}
	if !n.ApplyGuess(p.Guess, now) {
		return false, game.RejectBadPayload("guess must be 1 (odd) or 2 (even)")
	}
	s.Record(userID, game.ActionNigiriGuess, p, 0, now)
	s.Record("", game.LogNigiriResolve, map[string]int{"stones": n.Stones, "guess": p.Guess}, 0, now)
	s.SetPhase(game.StatusNigiriReveal, now, nigiri.RevealDelay)
	return true, nil
}

// beginPlay allocates the board and hands black the first turn.
func (strategic) beginPlay(s *game.Session, now time.Time) {
	s.Board = board.New(s.Settings.BoardSize)
	s.Board.ToMove = board.Black
	s.Status = game.StatusPlaying
	s.StartTurn(board.Black, now)
}

// requireTurn validates the actor owns the current playing turn.
func requireTurn(s *game.Session, userID string) error {
	if s.Terminal() {
		return game.RejectSessionOver()
	}
	if !s.Participant(userID) {
		return game.RejectNotParticipant()
	}
	if s.Status != game.StatusPlaying {
		return game.RejectWrongPhase(s.Status)
	}
	if s.ColorOf(userID) != s.CurrentPlayer {
		return game.RejectWrongTurn()
	}
	return nil
}

// applyMove validates and plays a board move for the turn owner, crediting
// captures. The caller decides how the turn advances.
func (strategic) applyMove(s *game.Session, act game.Action, userID string, now time.Time) (captured int, err error) {
	if err := requireTurn(s, userID); err != nil {
		return 0, err
	}
	var mp game.MovePayload
	if err := game.DecodePayload(act, &mp); err != nil {
		return 0, err
	}
	p := board.Point{X: mp.X, Y: mp.Y}
	color := s.ColorOf(userID)
	if s.Board.KoPoint != nil && *s.Board.KoPoint == p {
		return 0, game.RejectKo()
	}
	if !s.Board.IsLegal(p, color) {
		return 0, game.RejectIllegalPoint("occupied or suicidal point")
	}
	s.Board.ToMove = color
	captured, _ = s.Board.Play(p)
	s.AddCapture(color, captured)
	s.PassStreak = 0
	s.Record(userID, game.ActionMove, mp, 0, now)
	return captured, nil
}

// applyPass plays a pass for the turn owner. Two consecutive passes end the
// game by area scoring in the modes that use this helper.
func (m strategic) applyPass(s *game.Session, userID string, now time.Time) error {
	if err := requireTurn(s, userID); err != nil {
		return err
	}
	s.Board.ToMove = s.ColorOf(userID)
	s.Board.Play(board.PassPoint)
	s.PassStreak++
	s.Record(userID, game.ActionPass, nil, 0, now)
	if s.PassStreak >= 2 {
		m.scoreAndFinish(s, now)
		return nil
	}
	nextTurn(s, now)
	return nil
}

// nextTurn hands the turn to the opposite color with a fresh deadline.
func nextTurn(s *game.Session, now time.Time) {
	s.StartTurn(s.CurrentPlayer.Opponent(), now)
}

// scoreAndFinish applies area counting plus komi for white.
func (strategic) scoreAndFinish(s *game.Session, now time.Time) {
	black, white := s.Board.AreaScore()
	bw := float64(black)
	ww := float64(white) + s.Settings.Komi
	switch {
	case bw > ww:
		s.Finish(s.BlackID, game.WinReasonScore, now)
	case ww > bw:
		s.Finish(s.WhiteID, game.WinReasonScore, now)
	default:
		s.FinishDraw(now)
	}
}

// handleResign finishes or voids the match. A resignation below the
// no-contest ply threshold voids instead of scoring (early-exit griefing
// protection; manner penalties are the reward collaborator's business).
func handleResign(s *game.Session, userID string, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, game.RejectSessionOver()
	}
	if !s.Participant(userID) {
		return false, game.RejectNotParticipant()
	}
	s.Record(userID, game.ActionResign, nil, 0, now)
	if s.Plies() < s.Settings.NoContestPlies {
		s.Void(now)
		return true, nil
	}
	s.Finish(s.OpponentID(userID), game.WinReasonResign, now)
	return true, nil
}

// handleScoreRequest scores the board immediately, with the same no-contest
// gate as resignation.
func (m strategic) handleScoreRequest(s *game.Session, userID string, now time.Time) (bool, error) {
	if s.Terminal() {
		return false, game.RejectSessionOver()
	}
	if !s.Participant(userID) {
		return false, game.RejectNotParticipant()
	}
	if s.Status != game.StatusPlaying {
		return false, game.RejectWrongPhase(s.Status)
	}
	s.Record(userID, game.ActionScoreRequest, nil, 0, now)
	if s.Plies() < s.Settings.NoContestPlies {
		s.Void(now)
		return true, nil
	}
	m.scoreAndFinish(s, now)
	return true, nil
}

// timeoutAutoMove substitutes a random legal move for an expired turn, the
// standard consequence for non-speed go-family modes. The seed is recorded
// with the synthetic log entry. Falls back to a pass when nothing is legal.
// Returns the played point so callers can apply point-local win triggers.
func (m strategic) timeoutAutoMove(s *game.Session, now time.Time) (board.Point, bool) {
	color := s.CurrentPlayer
	seed := game.NewSeed()
	// Legality is judged for the turn owner, not whoever moved last.
	s.Board.ToMove = color
	legal := s.Board.LegalMoves()
	if len(legal) == 0 {
		s.Board.Play(board.PassPoint)
		s.PassStreak++
		s.Record(s.CurrentPlayerID(), game.LogTimeout, map[string]string{"consequence": "pass"}, seed, now)
		if s.PassStreak >= 2 {
			m.scoreAndFinish(s, now)
			return board.PassPoint, false
		}
		nextTurn(s, now)
		return board.PassPoint, false
	}
	p := legal[game.Rng(seed).Intn(len(legal))]
	captured, _ := s.Board.Play(p)
	s.AddCapture(color, captured)
	s.PassStreak = 0
	s.Record(s.CurrentPlayerID(), game.LogTimeout, game.MovePayload{X: p.X, Y: p.Y}, seed, now)
	nextTurn(s, now)
	return p, true
}

func gamePoint(mp game.MovePayload) board.Point { return board.Point{X: mp.X, Y: mp.Y} }

// assignSeats draws colors for modes that skip nigiri; the seed is recorded.
func assignSeats(s *game.Session, now time.Time) {
	seed := game.NewSeed()
	black, white := s.Players[0].ID, s.Players[1].ID
	if game.Rng(seed).Intn(2) == 1 {
		black, white = white, black
	}
	s.BlackID, s.WhiteID = black, white
	s.Record("", game.LogSeatAssign, map[string]string{"black": black, "white": white}, seed, now)
}

// randomEmpties draws n distinct empty points from seed.
func randomEmpties(b *board.Board, n int, seed int64) []board.Point {
	empties := b.EmptyPoints()
	rng := game.Rng(seed)
	rng.Shuffle(len(empties), func(i, j int) { empties[i], empties[j] = empties[j], empties[i] })
	if n > len(empties) {
		n = len(empties)
	}
	return empties[:n]
}
