package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

func newTestStore(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	r, err := Open(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testSession(id string, status game.Status) *game.Session {
	s := &game.Session{
		ID:      id,
		Mode:    game.ModeCapture,
		Players: [2]game.Player{{ID: "u1"}, {ID: "u2"}},
		Status:  status,
	}
	s.Settings.Normalize()
	s.Record("u1", game.ActionMove, game.MovePayload{X: 3, Y: 3}, 0, time.Unix(1000, 0))
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := newTestStore(t)
	ctx := context.Background()

	s := testSession("g1", game.StatusPlaying)
	if err := r.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.Load(ctx, "g1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.ID != s.ID || got.Mode != s.Mode || got.Status != s.Status {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if len(got.MoveHistory) != 1 || got.MoveHistory[0].Type != game.ActionMove {
		t.Fatalf("move history lost: %+v", got.MoveHistory)
	}
	if got.Settings.BoardSize != 19 {
		t.Fatalf("settings lost: %+v", got.Settings)
	}
}

func TestLoadMissingIsNil(t *testing.T) {
	r := newTestStore(t)
	got, err := r.Load(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("got %v, %v; want nil, nil", got, err)
	}
}

func TestActiveIndexExcludesTerminal(t *testing.T) {
	r := newTestStore(t)
	ctx := context.Background()

	if err := r.Save(ctx, testSession("live", game.StatusPlaying)); err != nil {
		t.Fatalf("save live: %v", err)
	}
	if err := r.Save(ctx, testSession("done", game.StatusEnded)); err != nil {
		t.Fatalf("save done: %v", err)
	}

	active, err := r.LoadActive(ctx)
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "live" {
		t.Fatalf("active = %v, want just live", active)
	}

	// Finishing a previously live session must pull it out of the index.
	if err := r.Save(ctx, testSession("live", game.StatusEnded)); err != nil {
		t.Fatalf("finish live: %v", err)
	}
	active, err = r.LoadActive(ctx)
	if err != nil {
		t.Fatalf("load active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active = %v, want empty", active)
	}
	// Final snapshots stay readable.
	if got, err := r.Load(ctx, "done"); err != nil || got == nil {
		t.Fatalf("final snapshot gone: %v, %v", got, err)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6379/2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := ParseRedisURL("http://x"); err == nil {
		t.Fatal("expected scheme error")
	}
}
