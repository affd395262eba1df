package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/nigiri"
)

var base = time.Unix(1_700_000_000, 0)

func sampleSession() *Session {
	s := &Session{
		ID:   "s1",
		Mode: ModeStandard,
		Players: [2]Player{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
	}
	s.Settings.Normalize()
	s.BlackID, s.WhiteID = "alice", "bob"
	return s
}

func TestSettingsNormalizeDefaults(t *testing.T) {
	var cfg Settings
	cfg.Normalize()

	assert.Equal(t, 19, cfg.BoardSize)
	assert.Equal(t, 60, cfg.TurnTimeLimitSec)
	assert.Equal(t, 6.5, cfg.Komi)
	assert.Equal(t, 10, cfg.NoContestPlies)
	assert.Equal(t, 90, cfg.GraceWindowSec)

	// Explicit values survive normalization.
	cfg = Settings{BoardSize: 9, CaptureGoal: 3}
	cfg.Normalize()
	assert.Equal(t, 9, cfg.BoardSize)
	assert.Equal(t, 3, cfg.CaptureGoal)
}

func TestSeatLookups(t *testing.T) {
	s := sampleSession()

	assert.True(t, s.Participant("alice"))
	assert.False(t, s.Participant("mallory"))
	assert.Equal(t, "bob", s.OpponentID("alice"))
	assert.Equal(t, board.Black, s.ColorOf("alice"))
	assert.Equal(t, board.White, s.ColorOf("bob"))
	assert.Equal(t, "alice", s.PlayerIDByColor(board.Black))
}

func TestPliesCountsProgressActions(t *testing.T) {
	s := sampleSession()
	s.Record("alice", ActionMove, MovePayload{X: 3, Y: 3}, 0, base)
	s.Record("bob", ActionPass, nil, 0, base)
	s.Record("", LogNigiriStart, nil, 42, base)
	s.Record("alice", LogDisconnect, nil, 0, base)

	assert.Equal(t, 2, s.Plies())
	require.Len(t, s.MoveHistory, 4)
	assert.Equal(t, 1, s.MoveHistory[0].Seq)
	assert.Equal(t, int64(42), s.MoveHistory[2].Rand)

	// The physical and round modes advance by their own action types.
	s.Record("alice", ActionFlick, FlickPayload{Stone: 0, Angle: 1, Power: 0.5}, 0, base)
	s.Record("bob", ActionThrow, ThrowPayload{Angle: 0, Power: 0.4}, 0, base)
	s.Record("alice", ActionThiefMove, MovePayload{X: 4, Y: 4}, 0, base)
	s.Record("alice", ActionBasePlace, BasePlacePayload{X: 2, Y: 2}, 0, base)

	assert.Equal(t, 5, s.Plies())
}

func TestSanitizedHidesConcealedSubState(t *testing.T) {
	s := sampleSession()
	s.Nigiri = &nigiri.State{HolderID: "alice", GuesserID: "bob", Stones: 7, Phase: nigiri.PhaseGuessing}
	s.Base = &BaseState{Placed: map[string][]board.Point{"alice": {{X: 2, Y: 2}}}}
	s.Hidden = &HiddenState{Stones: []HiddenStone{
		{Point: board.Point{X: 1, Y: 1}, OwnerID: "alice"},
		{Point: board.Point{X: 3, Y: 3}, OwnerID: "bob", Revealed: true},
	}}

	pub := s.Sanitized()
	assert.Zero(t, pub.Nigiri.Stones)
	assert.Nil(t, pub.Base.Placed)
	require.Len(t, pub.Hidden.Stones, 1)
	assert.True(t, pub.Hidden.Stones[0].Revealed)

	// The live session is untouched.
	assert.Equal(t, 7, s.Nigiri.Stones)
	assert.Len(t, s.Hidden.Stones, 2)

	// After the reveal the parity is public.
	s.Nigiri.Phase = nigiri.PhaseReveal
	assert.Equal(t, 7, s.Sanitized().Nigiri.Stones)

	// Committed base picks are on the board and no longer secret.
	s.Base.Done = true
	assert.NotNil(t, s.Sanitized().Base.Placed)
}

func TestFinishProducesOutcome(t *testing.T) {
	s := sampleSession()
	s.Record("alice", ActionMove, MovePayload{X: 3, Y: 3}, 0, base)
	s.Finish("alice", WinReasonResign, base.Add(time.Minute))

	require.True(t, s.Terminal())
	out := s.Outcome()
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, "alice", out.Winner)
	assert.Equal(t, WinReasonResign, out.Reason)
	assert.False(t, out.NoContest)
	assert.Equal(t, 1, out.MoveCount)
}

func TestVoidOutcomeHasNoWinner(t *testing.T) {
	s := sampleSession()
	s.Void(base)

	require.Equal(t, StatusNoContest, s.Status)
	out := s.Outcome()
	assert.Empty(t, out.Winner)
	assert.True(t, out.NoContest)
}

func TestDeadlineExpiry(t *testing.T) {
	s := sampleSession()

	// No armed deadline never expires.
	assert.False(t, s.DeadlineExpired(base.Add(time.Hour)))

	s.StartTurn(board.Black, base)
	assert.False(t, s.DeadlineExpired(base.Add(time.Second)))
	assert.True(t, s.DeadlineExpired(base.Add(time.Duration(s.Settings.TurnTimeLimitSec)*time.Second+time.Millisecond)))
}
