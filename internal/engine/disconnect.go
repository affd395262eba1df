package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

// Disconnection policy: a drop opens one grace window for the session and
// pauses play; the in-flight deadline is captured and restored on resume, so
// suspension never costs turn time. Drops are counted per player for the
// whole match; the third drop forfeits immediately without a window.

// minResumeRemaining floors the restored turn time. A deadline that was
// already past when the drop arrived re-arms on resume and the timeout
// consequence fires on the next sweep instead of leaving the phase untimed.
const minResumeRemaining = time.Second

// ReportDrop handles a connection-loss notice from the connection layer.
// A repeated drop notice for the already-suspended player is a no-op.
func (m *Manager) ReportDrop(ctx context.Context, id, userID string, now time.Time) (*game.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess

	if s.Terminal() {
		return snapshot(s), nil
	}
	if !s.Participant(userID) {
		return snapshot(s), game.RejectNotParticipant()
	}
	if s.Disconnect != nil && s.Disconnect.PlayerID == userID {
		return snapshot(s), nil
	}

	if s.DisconnectCounts == nil {
		s.DisconnectCounts = map[string]int{}
	}
	s.DisconnectCounts[userID]++
	count := s.DisconnectCounts[userID]
	s.Record(userID, game.LogDisconnect, map[string]int{"count": count}, 0, now)
	obslog.L().Info("session_disconnect",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.Int("count", count),
	)

	if count >= 3 {
		s.Record(userID, game.LogForfeit, nil, 0, now)
		s.Finish(s.OpponentID(userID), game.WinReasonDisconnect, now)
		return m.commitSnap(ctx, s)
	}

	// Only the first open window suspends; a second player dropping during
	// an existing window is counted above but does not stack a new one.
	if s.Disconnect == nil {
		d := &game.DisconnectionState{
			PlayerID:       userID,
			StartedAt:      now,
			Deadline:       now.Add(time.Duration(s.Settings.GraceWindowSec) * time.Second),
			SuspendedPhase: s.Status,
		}
		if !s.TurnDeadline.IsZero() {
			d.TurnRemaining = s.TurnDeadline.Sub(now)
			if d.TurnRemaining < minResumeRemaining {
				d.TurnRemaining = minResumeRemaining
			}
		}
		s.TurnDeadline = time.Time{}
		s.Disconnect = d
	}
	return m.commitSnap(ctx, s)
}

// ReportResume closes the grace window and rearms the suspended deadline
// with the time that remained when the window opened.
func (m *Manager) ReportResume(ctx context.Context, id, userID string, now time.Time) (*game.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess

	d := s.Disconnect
	if s.Terminal() || d == nil || d.PlayerID != userID {
		return snapshot(s), nil
	}

	// Shift the turn origin so elapsed-before-drop is preserved; speed-mode
	// clock charges measure against TurnStarted and must not include the
	// suspension.
	elapsedBefore := d.StartedAt.Sub(s.TurnStarted)
	if elapsedBefore > 0 {
		s.TurnStarted = now.Add(-elapsedBefore)
	} else {
		s.TurnStarted = now
	}
	if d.TurnRemaining > 0 {
		s.TurnDeadline = now.Add(d.TurnRemaining)
	}
	// The nigiri sub-state keeps its own deadline; it is suspended the same
	// way the turn deadline is.
	if s.Nigiri != nil {
		s.Nigiri.Shift(now.Sub(d.StartedAt))
	}
	s.Disconnect = nil
	s.Record(userID, game.LogReconnect, nil, 0, now)
	obslog.L().Info("session_reconnect",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.String("status", string(s.Status)),
	)
	return m.commitSnap(ctx, s)
}

// tickDisconnect runs the open grace window down. Expiry forfeits the
// dropped player, except that an early drop voids the match the same way an
// early resignation does.
func (m *Manager) tickDisconnect(s *game.Session, now time.Time) bool {
	d := s.Disconnect
	if d == nil || now.Before(d.Deadline) {
		return false
	}
	s.Disconnect = nil
	s.Record(d.PlayerID, game.LogForfeit, map[string]string{"cause": "grace_expired"}, 0, now)
	if s.Plies() < s.Settings.NoContestPlies {
		s.Void(now)
	} else {
		s.Finish(s.OpponentID(d.PlayerID), game.WinReasonDisconnect, now)
	}
	obslog.L().Info("session_grace_expired",
		zap.String("session_id", s.ID),
		zap.String("user_id", d.PlayerID),
		zap.String("status", string(s.Status)),
	)
	return true
}

func (m *Manager) commitSnap(ctx context.Context, s *game.Session) (*game.Session, error) {
	if err := m.commit(ctx, s); err != nil {
		return nil, err
	}
	return snapshot(s), nil
}
