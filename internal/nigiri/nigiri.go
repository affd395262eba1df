// Package nigiri implements the hidden-parity tiebreak used to assign stone
// colors before strategic-mode play. The resolution formula is a single pure
// function shared by the explicit-guess and timeout paths, so both produce
// bit-identical outcomes for the same (stones, guess) pair.
package nigiri

import "time"

// Phase is the tiebreak sub-state.
type Phase string

const (
	PhaseChoosing Phase = "CHOOSING" // flavor delay while the holder "grabs" stones
	PhaseGuessing Phase = "GUESSING"
	PhaseReveal   Phase = "REVEAL"
	PhaseResolved Phase = "RESOLVED"
)

// Guess encoding: 1 = odd, 2 = even.
const (
	GuessOdd  = 1
	GuessEven = 2
)

// Phase timings.
const (
	ChoosingDelay = 2 * time.Second
	GuessTimeout  = 30 * time.Second
	RevealDelay   = 5 * time.Second
)

// State is the per-session tiebreak record.
type State struct {
	HolderID  string    `json:"holder_id"`
	GuesserID string    `json:"guesser_id"`
	Stones    int       `json:"stones"` // hidden from the guesser until reveal
	Guess     int       `json:"guess,omitempty"`
	Phase     Phase     `json:"phase"`
	Deadline  time.Time `json:"deadline"`
	// GuesserIsBlack is set when the guess is applied.
	GuesserIsBlack bool `json:"guesser_is_black"`
	// Processed guards the one-shot hand-off into the playing phase.
	Processed bool `json:"processed"`
}

// New starts the tiebreak. The hidden stone count is drawn from seed; the
// caller records the seed in the move log.
func New(holderID, guesserID string, seed int64, now time.Time) *State {
	stones := int(seedRand(seed)%10) + 1
	return &State{
		HolderID:  holderID,
		GuesserID: guesserID,
		Stones:    stones,
		Phase:     PhaseChoosing,
		Deadline:  now.Add(ChoosingDelay),
	}
}

// Resolve is the single winner-determination formula: the guess matches the
// hidden parity ⇒ the guesser takes black.
func Resolve(stones, guess int) (guesserIsBlack bool) {
	odd := stones%2 == 1
	return (odd && guess == GuessOdd) || (!odd && guess == GuessEven)
}

// StartGuessing leaves the choosing delay once it has elapsed.
func (s *State) StartGuessing(now time.Time) bool {
	if s.Phase != PhaseChoosing || now.Before(s.Deadline) {
		return false
	}
	s.Phase = PhaseGuessing
	s.Deadline = now.Add(GuessTimeout)
	return true
}

// ApplyGuess resolves the tiebreak with the given guess, whether it came from
// the designated guesser or from the timeout path. Returns false outside the
// guessing phase (idempotence guard).
func (s *State) ApplyGuess(guess int, now time.Time) bool {
	if s.Phase != PhaseGuessing {
		return false
	}
	if guess != GuessOdd && guess != GuessEven {
		return false
	}
	s.Guess = guess
	s.GuesserIsBlack = Resolve(s.Stones, guess)
	s.Phase = PhaseReveal
	s.Deadline = now.Add(RevealDelay)
	return true
}

// TimeoutGuess draws a uniformly random guess from seed and applies it.
func (s *State) TimeoutGuess(seed int64, now time.Time) (guess int, ok bool) {
	guess = GuessOdd
	if seedRand(seed)%2 == 0 {
		guess = GuessEven
	}
	return guess, s.ApplyGuess(guess, now)
}

// Shift moves the phase deadline forward by d. Used when a suspension pauses
// play mid-tiebreak; the window must not run down while nobody can act.
func (s *State) Shift(d time.Duration) {
	if s.Phase == PhaseResolved || s.Deadline.IsZero() || d <= 0 {
		return
	}
	s.Deadline = s.Deadline.Add(d)
}

// GuessExpired reports whether the guessing window lapsed without a guess.
func (s *State) GuessExpired(now time.Time) bool {
	return s.Phase == PhaseGuessing && now.After(s.Deadline)
}

// RevealDone reports whether the reveal hold has elapsed and the hand-off has
// not happened yet.
func (s *State) RevealDone(now time.Time) bool {
	return s.Phase == PhaseReveal && !s.Processed && now.After(s.Deadline)
}

// MarkProcessed performs the one-shot hand-off. Returns false if already done.
func (s *State) MarkProcessed() bool {
	if s.Processed {
		return false
	}
	s.Processed = true
	s.Phase = PhaseResolved
	return true
}

// BlackID returns the player assigned black after resolution.
func (s *State) BlackID() string {
	if s.GuesserIsBlack {
		return s.GuesserID
	}
	return s.HolderID
}

// WhiteID returns the player assigned white after resolution.
func (s *State) WhiteID() string {
	if s.GuesserIsBlack {
		return s.HolderID
	}
	return s.GuesserID
}

// seedRand is a tiny splitmix step; enough for a parity draw and keeps the
// package free of math/rand state.
func seedRand(seed int64) uint64 {
	z := uint64(seed) + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
