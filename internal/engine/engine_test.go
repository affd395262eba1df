package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/broadcast"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/nigiri"
)

type fakeStore struct {
	saves    int
	sessions map[string]*game.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*game.Session{}}
}

func (f *fakeStore) Save(_ context.Context, s *game.Session) error {
	f.saves++
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) LoadActive(_ context.Context) ([]*game.Session, error) {
	var out []*game.Session
	for _, s := range f.sessions {
		if !s.Terminal() {
			out = append(out, s)
		}
	}
	return out, nil
}

var testBase = time.Unix(1_700_000_000, 0)

func testNegotiation(mode game.Mode) game.Negotiation {
	return game.Negotiation{
		Mode:    mode,
		Player1: game.Player{ID: "alice", Name: "Alice"},
		Player2: game.Player{ID: "bob", Name: "Bob"},
		Settings: game.Settings{
			BoardSize: 9,
		},
	}
}

// toPlaying walks a strategic session through the nigiri phases with an
// explicit guess and returns the time at which play began.
func toPlaying(t *testing.T, m *Manager, id string, base time.Time) time.Time {
	t.Helper()
	ctx := context.Background()
	now := base.Add(nigiri.ChoosingDelay + time.Millisecond)
	if err := m.Step(ctx, id, now); err != nil {
		t.Fatalf("step to guessing: %v", err)
	}
	snap, err := m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Status != game.StatusNigiriGuessing {
		t.Fatalf("status = %s, want %s", snap.Status, game.StatusNigiriGuessing)
	}
	guess := game.NewAction(game.ActionNigiriGuess, game.NigiriGuessPayload{Guess: nigiri.GuessOdd})
	if _, err := m.HandleAction(ctx, id, snap.Nigiri.GuesserID, guess, now); err != nil {
		t.Fatalf("guess: %v", err)
	}
	now = now.Add(nigiri.RevealDelay + time.Millisecond)
	if err := m.Step(ctx, id, now); err != nil {
		t.Fatalf("step to playing: %v", err)
	}
	snap, _ = m.Get(id)
	if snap.Status != game.StatusPlaying {
		t.Fatalf("status = %s, want %s", snap.Status, game.StatusPlaying)
	}
	if snap.BlackID == "" || snap.WhiteID == "" || snap.BlackID == snap.WhiteID {
		t.Fatalf("colors not assigned: black=%q white=%q", snap.BlackID, snap.WhiteID)
	}
	return now
}

// playPlies submits n alternating legal moves starting with black.
func playPlies(t *testing.T, m *Manager, id string, n int, now time.Time) {
	t.Helper()
	ctx := context.Background()
	snap, err := m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	actors := [2]string{snap.BlackID, snap.WhiteID}
	for i := 0; i < n; i++ {
		act := game.NewAction(game.ActionMove, game.MovePayload{X: i % snap.Settings.BoardSize, Y: i / snap.Settings.BoardSize})
		if _, err := m.HandleAction(ctx, id, actors[i%2], act, now); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}
}

func TestCreateUnknownModeFails(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	neg := testNegotiation(game.Mode("janggi"))
	if _, err := m.Create(context.Background(), neg, testBase); !errors.Is(err, game.ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}
}

func TestCreateRejectsDuplicateSeat(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	neg := testNegotiation(game.ModeStandard)
	neg.Player2.ID = neg.Player1.ID
	if _, err := m.Create(context.Background(), neg, testBase); err == nil {
		t.Fatal("expected error for duplicate participants")
	}
}

func TestTickIsIdempotent(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, broadcast.Nop{})
	s, err := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := toPlaying(t, m, s.ID, testBase)

	saves := store.saves
	// No elapsed time: repeated sweeps must not dirty the session.
	for i := 0; i < 5; i++ {
		if err := m.Step(context.Background(), s.ID, now); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if store.saves != saves {
		t.Fatalf("idle ticks persisted: saves %d -> %d", saves, store.saves)
	}
}

func TestDisconnectSuspendsDeadline(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	snap, _ := m.Get(s.ID)
	remaining := snap.TurnDeadline.Sub(now)
	dropAt := now.Add(10 * time.Second)

	snap, err := m.ReportDrop(ctx, s.ID, snap.BlackID, dropAt)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if snap.Disconnect == nil || !snap.TurnDeadline.IsZero() {
		t.Fatalf("deadline not suspended: %+v", snap.Disconnect)
	}

	// Mid-window ticks must not end the game.
	if err := m.Step(ctx, s.ID, dropAt.Add(60*time.Second)); err != nil {
		t.Fatalf("step in grace: %v", err)
	}
	snap, _ = m.Get(s.ID)
	if snap.Terminal() {
		t.Fatalf("session ended inside grace window: %s", snap.Status)
	}

	resumeAt := dropAt.Add(70 * time.Second)
	snap, err = m.ReportResume(ctx, s.ID, snap.Disconnect.PlayerID, resumeAt)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if snap.Disconnect != nil {
		t.Fatal("window still open after resume")
	}
	wantDeadline := resumeAt.Add(remaining - 10*time.Second)
	if got := snap.TurnDeadline; !got.Equal(wantDeadline) {
		t.Fatalf("restored deadline = %v, want %v", got, wantDeadline)
	}
}

func TestNigiriGuessWindowSuspendsOnDrop(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	ctx := context.Background()

	now := testBase.Add(nigiri.ChoosingDelay + time.Millisecond)
	if err := m.Step(ctx, s.ID, now); err != nil {
		t.Fatalf("step to guessing: %v", err)
	}
	snap, _ := m.Get(s.ID)
	if snap.Status != game.StatusNigiriGuessing {
		t.Fatalf("status = %s", snap.Status)
	}
	guesser := snap.Nigiri.GuesserID

	// Drop with 25s of the guess window left, resume a full minute later.
	dropAt := now.Add(nigiri.GuessTimeout - 25*time.Second)
	if _, err := m.ReportDrop(ctx, s.ID, guesser, dropAt); err != nil {
		t.Fatalf("drop: %v", err)
	}
	resumeAt := dropAt.Add(60 * time.Second)
	if _, err := m.ReportResume(ctx, s.ID, guesser, resumeAt); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if err := m.Step(ctx, s.ID, resumeAt.Add(time.Second)); err != nil {
		t.Fatalf("step: %v", err)
	}
	snap, _ = m.Get(s.ID)
	if snap.Status != game.StatusNigiriGuessing {
		t.Fatalf("guess window ran down during suspension: status=%s", snap.Status)
	}
	// The restored window holds what remained at the drop.
	guess := game.NewAction(game.ActionNigiriGuess, game.NigiriGuessPayload{Guess: nigiri.GuessOdd})
	if _, err := m.HandleAction(ctx, s.ID, guesser, guess, resumeAt.Add(10*time.Second)); err != nil {
		t.Fatalf("guess after resume: %v", err)
	}
}

func TestDropPastDeadlineRearmsOnResume(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	snap, _ := m.Get(s.ID)
	// The drop notice lands after the turn deadline already passed.
	dropAt := snap.TurnDeadline.Add(5 * time.Second)
	snap, err := m.ReportDrop(ctx, s.ID, snap.BlackID, dropAt)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if snap.Disconnect == nil || snap.Disconnect.TurnRemaining <= 0 {
		t.Fatalf("suspended remaining must be floored positive: %+v", snap.Disconnect)
	}

	resumeAt := dropAt.Add(10 * time.Second)
	snap, err = m.ReportResume(ctx, s.ID, snap.Disconnect.PlayerID, resumeAt)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if snap.TurnDeadline.IsZero() {
		t.Fatal("resumed phase must stay timed")
	}

	// The next sweep past the floor fires the normal timeout consequence.
	if err := m.Step(ctx, s.ID, snap.TurnDeadline.Add(time.Second)); err != nil {
		t.Fatalf("step: %v", err)
	}
	final, _ := m.Get(s.ID)
	resolved := false
	for _, r := range final.MoveHistory {
		if r.Type == game.LogTimeout {
			resolved = true
		}
	}
	if !resolved {
		t.Fatal("expired turn must resolve after resume")
	}
}

func TestGraceExpiryVoidsEarlyMatch(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	snap, _ := m.Get(s.ID)
	if _, err := m.ReportDrop(ctx, s.ID, snap.WhiteID, now); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := m.Step(ctx, s.ID, now.Add(91*time.Second)); err != nil {
		t.Fatalf("step: %v", err)
	}
	final := store.sessions[s.ID]
	if final == nil || final.Status != game.StatusNoContest {
		t.Fatalf("final = %+v, want %s", final, game.StatusNoContest)
	}
}

func TestGraceExpiryForfeitsAfterThreshold(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	playPlies(t, m, s.ID, 12, now)
	snap, _ := m.Get(s.ID)
	if _, err := m.ReportDrop(ctx, s.ID, snap.WhiteID, now); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := m.Step(ctx, s.ID, now.Add(91*time.Second)); err != nil {
		t.Fatalf("step: %v", err)
	}
	final := store.sessions[s.ID]
	if final == nil || final.Status != game.StatusEnded || final.Winner != snap.BlackID || final.WinReason != game.WinReasonDisconnect {
		t.Fatalf("final = %+v", final)
	}
}

func TestThirdDisconnectForfeitsImmediately(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	playPlies(t, m, s.ID, 12, now)
	snap, _ := m.Get(s.ID)
	black, white := snap.BlackID, snap.WhiteID
	for i := 0; i < 2; i++ {
		now = now.Add(time.Second)
		if _, err := m.ReportDrop(ctx, s.ID, white, now); err != nil {
			t.Fatalf("drop %d: %v", i+1, err)
		}
		now = now.Add(time.Second)
		if _, err := m.ReportResume(ctx, s.ID, white, now); err != nil {
			t.Fatalf("resume %d: %v", i+1, err)
		}
	}
	now = now.Add(time.Second)
	snap, err := m.ReportDrop(ctx, s.ID, white, now)
	if err != nil {
		t.Fatalf("third drop: %v", err)
	}
	if snap.Status != game.StatusEnded || snap.Winner != black || snap.WinReason != game.WinReasonDisconnect {
		t.Fatalf("got status=%s winner=%q reason=%s", snap.Status, snap.Winner, snap.WinReason)
	}
}

func TestNoContestGateOnResign(t *testing.T) {
	for _, tc := range []struct {
		plies int
		want  game.Status
	}{
		{8, game.StatusNoContest},
		{12, game.StatusEnded},
	} {
		t.Run(fmt.Sprintf("plies_%d", tc.plies), func(t *testing.T) {
			m := NewManager(newFakeStore(), nil, broadcast.Nop{})
			s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
			now := toPlaying(t, m, s.ID, testBase)
			playPlies(t, m, s.ID, tc.plies, now)

			snap, _ := m.Get(s.ID)
			res, err := m.HandleAction(context.Background(), s.ID, snap.WhiteID, game.NewAction(game.ActionResign, nil), now)
			if err != nil {
				t.Fatalf("resign: %v", err)
			}
			if res.Status != tc.want {
				t.Fatalf("status = %s, want %s", res.Status, tc.want)
			}
			if tc.want == game.StatusEnded && res.Winner != snap.BlackID {
				t.Fatalf("winner = %q, want black %q", res.Winner, snap.BlackID)
			}
		})
	}
}

func TestSuspendedSessionRejectsMoves(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	s, _ := m.Create(context.Background(), testNegotiation(game.ModeStandard), testBase)
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	snap, _ := m.Get(s.ID)
	if _, err := m.ReportDrop(ctx, s.ID, snap.WhiteID, now); err != nil {
		t.Fatalf("drop: %v", err)
	}
	act := game.NewAction(game.ActionMove, game.MovePayload{X: 0, Y: 0})
	_, err := m.HandleAction(ctx, s.ID, snap.BlackID, act, now)
	if _, ok := game.AsRejection(err); !ok {
		t.Fatalf("err = %v, want rejection while suspended", err)
	}
}

func TestSpeedFlagFallEndsOnce(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, broadcast.Nop{})
	neg := testNegotiation(game.ModeSpeed)
	neg.Settings.MainTimeSec = 1
	s, err := m.Create(context.Background(), neg, testBase)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := toPlaying(t, m, s.ID, testBase)
	ctx := context.Background()

	if err := m.Step(ctx, s.ID, now.Add(5*time.Second)); err != nil {
		t.Fatalf("step past flag: %v", err)
	}
	snap, err := m.Get(s.ID)
	if !errors.Is(err, ErrSessionNotFound) {
		// Terminal sessions leave the live set after the outcome is emitted.
		t.Fatalf("get after flag fall: snap=%v err=%v", snap, err)
	}
	final := store.sessions[s.ID]
	if final == nil || final.Status != game.StatusEnded || final.WinReason != game.WinReasonTimeout {
		t.Fatalf("final snapshot = %+v", final)
	}
	// Further sweeps of a retired id are a not-found no-op for the driver.
	if err := m.Step(ctx, s.ID, now.Add(6*time.Second)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("step retired = %v, want ErrSessionNotFound", err)
	}
}

func TestRestoreReloadsActiveSessions(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, broadcast.Nop{})
	s, err := m.Create(context.Background(), testNegotiation(game.ModeCapture), testBase)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m2 := NewManager(store, nil, broadcast.Nop{})
	if err := m2.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got, err := m2.Get(s.ID); err != nil || got.Mode != game.ModeCapture {
		t.Fatalf("restored get = %v, %v", got, err)
	}
}

func TestAISeatsPlayWithoutHumans(t *testing.T) {
	m := NewManager(newFakeStore(), nil, broadcast.Nop{})
	neg := testNegotiation(game.ModeStandard)
	neg.Player1.IsAI = true
	neg.Player2.IsAI = true
	s, err := m.Create(context.Background(), neg, testBase)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ctx := context.Background()

	// The nigiri guess and the opening moves all come from the dispatcher.
	now := testBase
	for i := 0; i < 6; i++ {
		now = now.Add(31 * time.Second)
		if err := m.Step(ctx, s.ID, now); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return // both seats resigned-by-score already, fine
			}
			t.Fatalf("step %d: %v", i, err)
		}
	}
	snap, err := m.Get(s.ID)
	if err != nil {
		return
	}
	if snap.Status == game.StatusPlaying && snap.Plies() == 0 {
		t.Fatal("AI seats produced no moves")
	}
	marked := false
	for _, r := range snap.MoveHistory {
		if r.Type == game.LogAIMove {
			marked = true
			break
		}
	}
	if !marked {
		t.Fatal("no AI substitution marker in the move log")
	}
}
