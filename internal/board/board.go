package board

// 바둑판 규칙 엔진: 합법수/따냄/패 판정만 담당. 세션/시간 개념 없음.

// Stone is the tri-state content of a board cell.
type Stone int8

const (
	Empty Stone = 0
	Black Stone = 1
	White Stone = 2
)

// Opponent returns the opposing color; Empty maps to Empty.
func (s Stone) Opponent() Stone {
	switch s {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (s Stone) String() string {
	switch s {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Point addresses an intersection. X and Y are 0-based.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PassPoint is the sentinel for a pass move; it never collides with a board
// coordinate because real coordinates are non-negative.
var PassPoint = Point{X: -1, Y: -1}

// IsPass reports whether the point is the pass sentinel.
func (p Point) IsPass() bool { return p.X < 0 || p.Y < 0 }

// Board holds one position. Values are copied freely; callers own their copy.
type Board struct {
	Size      int     `json:"size"`
	Cells     []Stone `json:"cells"`
	ToMove    Stone   `json:"to_move"`
	KoPoint   *Point  `json:"ko_point,omitempty"`
	MoveCount int     `json:"move_count"`
}

// New returns an empty board with black to move.
func New(size int) *Board {
	if size < 2 {
		size = 2
	}
	return &Board{
		Size:   size,
		Cells:  make([]Stone, size*size),
		ToMove: Black,
	}
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	c := *b
	c.Cells = make([]Stone, len(b.Cells))
	copy(c.Cells, b.Cells)
	if b.KoPoint != nil {
		kp := *b.KoPoint
		c.KoPoint = &kp
	}
	return &c
}

// In reports whether p is on the board.
func (b *Board) In(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Size && p.Y < b.Size
}

// At returns the stone at p. Off-board points read as Empty.
func (b *Board) At(p Point) Stone {
	if !b.In(p) {
		return Empty
	}
	return b.Cells[p.Y*b.Size+p.X]
}

func (b *Board) set(p Point, s Stone) { b.Cells[p.Y*b.Size+p.X] = s }

// Neighbors returns the on-board orthogonal neighbors of p.
func (b *Board) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, n := range [4]Point{{p.X - 1, p.Y}, {p.X + 1, p.Y}, {p.X, p.Y - 1}, {p.X, p.Y + 1}} {
		if b.In(n) {
			out = append(out, n)
		}
	}
	return out
}

// GroupAndLiberties flood-fills the same-color group containing p and returns
// the group's stones plus its liberty points. An empty p yields nil, nil.
func (b *Board) GroupAndLiberties(p Point) (stones []Point, liberties []Point) {
	color := b.At(p)
	if color == Empty {
		return nil, nil
	}
	seen := make(map[Point]bool, 8)
	libSeen := make(map[Point]bool, 8)
	queue := []Point{p}
	seen[p] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		stones = append(stones, cur)
		for _, n := range b.Neighbors(cur) {
			switch b.At(n) {
			case Empty:
				if !libSeen[n] {
					libSeen[n] = true
					liberties = append(liberties, n)
				}
			case color:
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return stones, liberties
}

// IsLegal reports whether color may play at p. Pass is always legal.
// 단수 패 규칙: 직전 따냄 지점 한 곳만 한 수 동안 금지 (superko 아님).
func (b *Board) IsLegal(p Point, color Stone) bool {
	if p.IsPass() {
		return true
	}
	if !b.In(p) || b.At(p) != Empty {
		return false
	}
	if b.KoPoint != nil && *b.KoPoint == p {
		return false
	}
	// Trial placement on a scratch copy; Play enforces capture-then-suicide
	// order so the copy ends in the resolved position.
	trial := b.Clone()
	trial.ToMove = color
	captured, _ := trial.Play(p)
	if captured > 0 {
		return true
	}
	_, libs := trial.GroupAndLiberties(p)
	return len(libs) > 0
}

// LegalMoves enumerates every legal board point for the side to move.
// Pass is implicitly legal and not included.
func (b *Board) LegalMoves() []Point {
	var out []Point
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			p := Point{X: x, Y: y}
			if b.At(p) == Empty && b.IsLegal(p, b.ToMove) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Play places a stone for the side to move (or passes), removes every enemy
// group left without liberties, then removes the mover's own group if it has
// none (suicide net — enforced unconditionally because Play is also used for
// capture look-ahead). Returns the number of enemy stones captured and the
// points removed.
func (b *Board) Play(p Point) (captured int, removed []Point) {
	mover := b.ToMove
	if p.IsPass() {
		b.ToMove = mover.Opponent()
		b.KoPoint = nil
		b.MoveCount++
		return 0, nil
	}
	if !b.In(p) || b.At(p) != Empty {
		return 0, nil
	}
	b.set(p, mover)

	enemy := mover.Opponent()
	for _, n := range b.Neighbors(p) {
		if b.At(n) != enemy {
			continue
		}
		stones, libs := b.GroupAndLiberties(n)
		if len(libs) == 0 {
			for _, s := range stones {
				b.set(s, Empty)
			}
			captured += len(stones)
			removed = append(removed, stones...)
		}
	}

	// Suicide net: only reachable when nothing was captured.
	if captured == 0 {
		stones, libs := b.GroupAndLiberties(p)
		if len(libs) == 0 {
			for _, s := range stones {
				b.set(s, Empty)
			}
			removed = append(removed, stones...)
		}
	}

	// Ko arises only from a single-stone snapback capture.
	b.KoPoint = nil
	if captured == 1 {
		if stones, libs := b.GroupAndLiberties(p); len(stones) == 1 && len(libs) == 1 {
			kp := removed[0]
			b.KoPoint = &kp
		}
	}

	b.ToMove = enemy
	b.MoveCount++
	return captured, removed
}

// Remove clears a stone from the board regardless of liberties. Used by rule
// variants that strike stones outside normal play (missile mode).
func (b *Board) Remove(p Point) bool {
	if !b.In(p) || b.At(p) == Empty {
		return false
	}
	b.set(p, Empty)
	b.KoPoint = nil
	return true
}

// Place puts a stone without turn bookkeeping; setup phases (base/hidden
// stones) use it before normal play begins. Returns false if occupied.
func (b *Board) Place(p Point, s Stone) bool {
	if !b.In(p) || b.At(p) != Empty || s == Empty {
		return false
	}
	b.set(p, s)
	return true
}

// EmptyPoints lists every empty intersection.
func (b *Board) EmptyPoints() []Point {
	var out []Point
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			p := Point{X: x, Y: y}
			if b.At(p) == Empty {
				out = append(out, p)
			}
		}
	}
	return out
}

// AreaScore counts stones plus empty regions bordered by exactly one color.
// Shared borders count for neither side.
func (b *Board) AreaScore() (black, white int) {
	seen := make(map[Point]bool)
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			p := Point{X: x, Y: y}
			switch b.At(p) {
			case Black:
				black++
			case White:
				white++
			case Empty:
				if seen[p] {
					continue
				}
				region, owner := b.emptyRegion(p, seen)
				switch owner {
				case Black:
					black += len(region)
				case White:
					white += len(region)
				}
			}
		}
	}
	return black, white
}

func (b *Board) emptyRegion(start Point, seen map[Point]bool) ([]Point, Stone) {
	var region []Point
	owner := Empty
	mixed := false
	queue := []Point{start}
	seen[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		region = append(region, cur)
		for _, n := range b.Neighbors(cur) {
			switch c := b.At(n); c {
			case Empty:
				if !seen[n] {
					seen[n] = true
					queue = append(queue, n)
				}
			default:
				if owner == Empty {
					owner = c
				} else if owner != c {
					mixed = true
				}
			}
		}
	}
	if mixed {
		return region, Empty
	}
	return region, owner
}

// LineLength returns the longest run of color through p along any of the four
// directions. Omok-family win checks use it after each placement.
func (b *Board) LineLength(p Point, color Stone) int {
	best := 0
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		n := 1
		for i := 1; ; i++ {
			q := Point{X: p.X + d[0]*i, Y: p.Y + d[1]*i}
			if b.At(q) != color || !b.In(q) {
				break
			}
			n++
		}
		for i := 1; ; i++ {
			q := Point{X: p.X - d[0]*i, Y: p.Y - d[1]*i}
			if b.At(q) != color || !b.In(q) {
				break
			}
			n++
		}
		if n > best {
			best = n
		}
	}
	return best
}
