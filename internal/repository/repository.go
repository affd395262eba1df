// Package repository records final match results in Postgres for ratings,
// history and replay. Writes are upserts keyed by session id, so replaying
// an outcome after a crash is harmless.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Baduk-Arena-Engine/internal/board"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

type Repository struct {
	db *sql.DB
}

func New(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one final result row together with the raw move log
// and an SGF rendering of the board moves.
func (r *Repository) SaveResult(ctx context.Context, s *game.Session, o game.Outcome) error {
	if r == nil || r.db == nil || s == nil {
		return nil
	}

	historyRaw, _ := json.Marshal(s.MoveHistory)
	duration := s.UpdatedAt.Sub(s.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO arena_games (
	    session_id, mode, black_id, white_id,
	    player1_id, player1_name, player2_id, player2_name,
	    winner_id, win_reason, no_contest, move_count,
	    move_log, sgf, started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
	  ) ON CONFLICT (session_id) DO UPDATE SET
	    winner_id=EXCLUDED.winner_id,
	    win_reason=EXCLUDED.win_reason,
	    no_contest=EXCLUDED.no_contest,
	    move_count=EXCLUDED.move_count,
	    move_log=EXCLUDED.move_log,
	    sgf=EXCLUDED.sgf,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		s.ID, string(s.Mode), s.BlackID, s.WhiteID,
		s.Players[0].ID, s.Players[0].Name, s.Players[1].ID, s.Players[1].Name,
		o.Winner, string(o.Reason), o.NoContest, o.MoveCount,
		string(historyRaw), BuildSGF(s), s.CreatedAt, s.UpdatedAt, duration,
	)
	return err
}

// BuildSGF renders the board moves of the session as a single SGF game
// record. Pass moves become empty coordinates; non-board records (rolls,
// flicks, reveals) are outside SGF vocabulary and are skipped.
func BuildSGF(s *game.Session) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	date := s.UpdatedAt
	if date.IsZero() {
		date = s.CreatedAt
	}
	b.WriteString("(;GM[1]FF[4]CA[UTF-8]AP[baduk-arena-engine]")
	fmt.Fprintf(&b, "SZ[%d]", s.Settings.BoardSize)
	fmt.Fprintf(&b, "DT[%04d-%02d-%02d]", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "PB[%s]PW[%s]", sanitizeSGF(nameOf(s, s.BlackID)), sanitizeSGF(nameOf(s, s.WhiteID)))
	fmt.Fprintf(&b, "KM[%.1f]", s.Settings.Komi)
	fmt.Fprintf(&b, "RE[%s]", sgfResult(s))

	for _, rec := range s.MoveHistory {
		if rec.Type != game.ActionMove && rec.Type != game.ActionPass {
			continue
		}
		tag := "B"
		if s.ColorOf(rec.PlayerID) == board.White {
			tag = "W"
		}
		coord := ""
		if rec.Type == game.ActionMove {
			var p game.MovePayload
			if err := json.Unmarshal(rec.Payload, &p); err == nil {
				coord = sgfCoord(p.X, p.Y)
			}
		}
		fmt.Fprintf(&b, ";%s[%s]", tag, coord)
	}
	b.WriteString(")")
	return b.String()
}

func sgfResult(s *game.Session) string {
	switch {
	case s.Status == game.StatusNoContest:
		return "Void"
	case s.Drawn:
		return "Draw"
	case s.Winner == "":
		return "?"
	}
	side := "B"
	if s.ColorOf(s.Winner) == board.White {
		side = "W"
	}
	switch s.WinReason {
	case game.WinReasonResign:
		return side + "+R"
	case game.WinReasonTimeout:
		return side + "+T"
	case game.WinReasonDisconnect:
		return side + "+F"
	default:
		return side + "+" + string(s.WinReason)
	}
}

func sgfCoord(x, y int) string {
	if x < 0 || y < 0 || x > 25 || y > 25 {
		return ""
	}
	return string([]byte{byte('a' + x), byte('a' + y)})
}

func nameOf(s *game.Session, id string) string {
	if p := s.PlayerByID(id); p != nil && p.Name != "" {
		return p.Name
	}
	return id
}

func sanitizeSGF(v string) string {
	v = strings.ReplaceAll(v, "\\", " ")
	v = strings.ReplaceAll(v, "]", ")")
	return strings.TrimSpace(v)
}
