package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

func TestBuildSGF(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s := &game.Session{
		ID:      "g1",
		Mode:    game.ModeStandard,
		Players: [2]game.Player{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob]"}},
		BlackID: "u1",
		WhiteID: "u2",
		Status:  game.StatusEnded,
		Winner:  "u2",
	}
	s.Settings.Normalize()
	s.WinReason = game.WinReasonResign
	s.UpdatedAt = now
	s.Record("u1", game.ActionMove, game.MovePayload{X: 2, Y: 2}, 0, now)
	s.Record("u2", game.ActionMove, game.MovePayload{X: 16, Y: 16}, 0, now)
	s.Record("u1", game.ActionPass, nil, 0, now)
	s.Record("", game.LogTimeout, nil, 0, now) // not a board move

	sgf := BuildSGF(s)
	for _, want := range []string{
		"SZ[19]",
		"DT[2026-03-14]",
		"PB[Alice]",
		"PW[Bob)]", // closing bracket sanitized out of the name
		"RE[W+R]",
		";B[cc]",
		";W[qq]",
		";B[]",
	} {
		if !strings.Contains(sgf, want) {
			t.Fatalf("SGF missing %q:\n%s", want, sgf)
		}
	}
	if strings.Count(sgf, ";") != 4 { // root node + three moves
		t.Fatalf("unexpected node count in %s", sgf)
	}
}

func TestBuildSGFNoContest(t *testing.T) {
	s := &game.Session{
		ID:      "g2",
		Players: [2]game.Player{{ID: "u1"}, {ID: "u2"}},
		Status:  game.StatusNoContest,
	}
	s.Settings.Normalize()
	if got := BuildSGF(s); !strings.Contains(got, "RE[Void]") {
		t.Fatalf("no-contest result = %s", got)
	}
}

func TestNewRequiresDatabaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}
}
