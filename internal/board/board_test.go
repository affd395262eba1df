package board

import "testing"

func mustPlay(t *testing.T, b *Board, x, y int) {
	t.Helper()
	p := Point{X: x, Y: y}
	if !b.IsLegal(p, b.ToMove) {
		t.Fatalf("move (%d,%d) for %s should be legal", x, y, b.ToMove)
	}
	b.Play(p)
}

func TestCaptureSingleStone(t *testing.T) {
	b := New(5)
	// White stone at (1,1) surrounded by black on three sides, then the last.
	b.Place(Point{1, 1}, White)
	b.Place(Point{0, 1}, Black)
	b.Place(Point{2, 1}, Black)
	b.Place(Point{1, 0}, Black)
	captured, removed := b.Play(Point{1, 2}) // black fills last liberty
	if captured != 1 || len(removed) != 1 {
		t.Fatalf("captured=%d removed=%v, want 1 stone", captured, removed)
	}
	if b.At(Point{1, 1}) != Empty {
		t.Fatalf("captured stone still on board")
	}
}

func TestMultiGroupCapture(t *testing.T) {
	b := New(5)
	// Two separate white stones in atari share (2,1) as their last liberty.
	b.Place(Point{1, 1}, White)
	b.Place(Point{3, 1}, White)
	for _, p := range []Point{{0, 1}, {1, 0}, {1, 2}, {3, 0}, {3, 2}, {4, 1}} {
		b.Place(p, Black)
	}
	captured, _ := b.Play(Point{2, 1})
	if captured != 2 {
		t.Fatalf("captured=%d, want both white groups", captured)
	}
	if b.At(Point{1, 1}) != Empty || b.At(Point{3, 1}) != Empty {
		t.Fatalf("multi-group capture left stones behind")
	}
}

func TestSuicideIllegalButCaptureLegal(t *testing.T) {
	b := New(5)
	// Single-point eye at (0,0) owned by white: playing there as black is suicide.
	b.Place(Point{1, 0}, White)
	b.Place(Point{0, 1}, White)
	if b.IsLegal(Point{0, 0}, Black) {
		t.Fatalf("suicide into one-point eye must be illegal")
	}
	// But if the surrounding white group itself is in atari, the same point captures.
	b2 := New(5)
	b2.Place(Point{1, 0}, White)
	b2.Place(Point{0, 1}, White)
	b2.Place(Point{2, 0}, Black)
	b2.Place(Point{1, 1}, Black)
	b2.Place(Point{0, 2}, Black)
	if !b2.IsLegal(Point{0, 0}, Black) {
		t.Fatalf("capturing move misread as suicide")
	}
	captured, _ := b2.Play(Point{0, 0})
	if captured != 2 {
		t.Fatalf("captured=%d, want 2", captured)
	}
}

func TestKoForbiddenForOneMove(t *testing.T) {
	b := New(5)
	// Classic ko shape around (1,1)/(2,1).
	b.Place(Point{1, 0}, Black)
	b.Place(Point{0, 1}, Black)
	b.Place(Point{1, 2}, Black)
	b.Place(Point{2, 0}, White)
	b.Place(Point{3, 1}, White)
	b.Place(Point{2, 2}, White)
	b.Place(Point{1, 1}, White)
	b.ToMove = Black
	captured, _ := b.Play(Point{2, 1}) // black captures the ko stone
	if captured != 1 {
		t.Fatalf("ko capture failed, captured=%d", captured)
	}
	if b.KoPoint == nil || *b.KoPoint != (Point{1, 1}) {
		t.Fatalf("ko point not recorded: %v", b.KoPoint)
	}
	if b.IsLegal(Point{1, 1}, White) {
		t.Fatalf("immediate ko recapture must be illegal")
	}
	// White plays elsewhere; the ko opens again.
	b.Play(Point{4, 4})
	b.Play(Point{4, 3}) // black elsewhere
	if !b.IsLegal(Point{1, 1}, White) {
		t.Fatalf("ko must reopen after one move")
	}
}

func TestEveryStoneHasLibertyAfterLegalPlay(t *testing.T) {
	b := New(5)
	moves := []Point{{2, 2}, {2, 1}, {1, 1}, {3, 2}, {2, 3}, {1, 2}}
	for _, p := range moves {
		if !b.IsLegal(p, b.ToMove) {
			t.Fatalf("setup move %v illegal", p)
		}
		b.Play(p)
		for y := 0; y < b.Size; y++ {
			for x := 0; x < b.Size; x++ {
				q := Point{X: x, Y: y}
				if b.At(q) == Empty {
					continue
				}
				if _, libs := b.GroupAndLiberties(q); len(libs) == 0 {
					t.Fatalf("stone at %v has no liberties after %v", q, p)
				}
			}
		}
	}
}

func TestPassAlwaysLegalAndSwapsTurn(t *testing.T) {
	b := New(9)
	if !b.IsLegal(PassPoint, Black) {
		t.Fatalf("pass must be legal")
	}
	b.Play(PassPoint)
	if b.ToMove != White || b.MoveCount != 1 {
		t.Fatalf("pass did not advance turn: toMove=%v count=%d", b.ToMove, b.MoveCount)
	}
}

func TestLegalMovesOnSmallBoard(t *testing.T) {
	b := New(3)
	mustPlay(t, b, 1, 1)
	moves := b.LegalMoves()
	if len(moves) != 8 {
		t.Fatalf("expected 8 legal replies on 3x3 after center, got %d", len(moves))
	}
}

func TestAreaScore(t *testing.T) {
	b := New(3)
	// Black wall on column 1 owns column 0; column 2 is white's.
	for y := 0; y < 3; y++ {
		b.Place(Point{1, y}, Black)
		b.Place(Point{2, y}, White)
	}
	black, white := b.AreaScore()
	if black != 6 || white != 3 {
		t.Fatalf("area score black=%d white=%d, want 6/3", black, white)
	}
}

func TestLineLength(t *testing.T) {
	b := New(9)
	for i := 0; i < 5; i++ {
		b.Place(Point{2 + i, 3 + i}, Black)
	}
	if n := b.LineLength(Point{4, 5}, Black); n != 5 {
		t.Fatalf("diagonal run length=%d, want 5", n)
	}
}
