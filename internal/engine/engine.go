// Package engine owns the live sessions. The Manager is the single writer:
// every session mutation happens under that session's lock, whether it came
// from a gateway action, a connection notice, or the tick sweep.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/broadcast"
	"github.com/park285/Baduk-Arena-Engine/internal/engine/ai"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/game/rules"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

// SessionStore persists session snapshots and the active-session index.
type SessionStore interface {
	Save(ctx context.Context, s *game.Session) error
	LoadActive(ctx context.Context) ([]*game.Session, error)
}

// ResultSink records final results durably (database, rating pipeline).
type ResultSink interface {
	SaveResult(ctx context.Context, s *game.Session, o game.Outcome) error
}

// MultiSink fans one outcome out to several sinks; the first failure wins
// but every sink still gets the event.
type MultiSink []ResultSink

func (m MultiSink) SaveResult(ctx context.Context, s *game.Session, o game.Outcome) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.SaveResult(ctx, s, o); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ErrSessionNotFound is returned for ids outside the live set.
var ErrSessionNotFound = errors.New("session not found")

// aiStepLimit bounds chained AI substitutions in one pass so a buggy
// generator cannot spin a session forever inside a single lock hold.
const aiStepLimit = 8

type entry struct {
	mu   sync.Mutex
	sess *game.Session
	mod  rules.Module
}

// Manager holds every live session in memory behind per-session locks and
// drives persistence, broadcast and outcome emission off the dirty signal.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry

	store SessionStore
	sink  ResultSink
	pub   broadcast.Publisher
	ai    *ai.Dispatcher

	maxSessions int // 0 = unlimited
}

// ErrCapacity is returned when the live-session cap is reached.
var ErrCapacity = errors.New("session capacity reached")

// SetCapacity bounds the number of concurrent live sessions.
func (m *Manager) SetCapacity(n int) { m.maxSessions = n }

func NewManager(store SessionStore, sink ResultSink, pub broadcast.Publisher) *Manager {
	if pub == nil {
		pub = broadcast.Nop{}
	}
	return &Manager{
		entries: make(map[string]*entry),
		store:   store,
		sink:    sink,
		pub:     pub,
		ai:      ai.New(),
	}
}

// Restore reloads non-terminal sessions from the store after a restart.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	sessions, err := m.store.LoadActive(ctx)
	if err != nil {
		return fmt.Errorf("load active sessions: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		if s == nil || s.Terminal() {
			continue
		}
		mod, err := rules.ForMode(s.Mode)
		if err != nil {
			obslog.L().Error("session_restore_unknown_mode",
				zap.String("session_id", s.ID), zap.String("mode", string(s.Mode)))
			continue
		}
		m.entries[s.ID] = &entry{sess: s, mod: mod}
	}
	obslog.L().Info("session_restore", zap.Int("count", len(m.entries)))
	return nil
}

// Create forms a session from a matchmaking negotiation and runs the mode's
// opening transition.
func (m *Manager) Create(ctx context.Context, neg game.Negotiation, now time.Time) (*game.Session, error) {
	p1, p2 := neg.Player1, neg.Player2
	if strings.TrimSpace(p1.ID) == "" || strings.TrimSpace(p2.ID) == "" || p1.ID == p2.ID {
		return nil, game.RejectBadPayload("participants must be two distinct users")
	}
	mod, err := rules.ForMode(neg.Mode)
	if err != nil {
		return nil, err
	}
	settings := neg.Settings
	settings.Normalize()

	s := &game.Session{
		ID:               uuid.NewString(),
		Mode:             neg.Mode,
		Players:          [2]game.Player{p1, p2},
		Settings:         settings,
		DisconnectCounts: map[string]int{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := mod.Initialize(s, now); err != nil {
		return nil, fmt.Errorf("initialize %s session: %w", neg.Mode, err)
	}
	m.driveAI(s, mod, now)

	e := &entry{sess: s, mod: mod}
	m.mu.Lock()
	if m.maxSessions > 0 && len(m.entries) >= m.maxSessions {
		m.mu.Unlock()
		return nil, ErrCapacity
	}
	m.entries[s.ID] = e
	m.mu.Unlock()

	if err := m.commit(ctx, s); err != nil {
		return nil, err
	}
	obslog.L().Info("session_create",
		zap.String("session_id", s.ID),
		zap.String("mode", string(s.Mode)),
		zap.String("player1", p1.ID),
		zap.String("player2", p2.ID),
		zap.String("status", string(s.Status)),
	)
	return snapshot(s), nil
}

// Get returns a point-in-time copy of the session.
func (m *Manager) Get(id string) (*game.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.sess), nil
}

// ActiveIDs snapshots the live session ids for the tick sweep.
func (m *Manager) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids
}

// HandleAction validates and applies one client action, then lets any AI
// seat respond. Rejections come back as *game.Rejection with state
// untouched; fatal errors indicate a programming fault and are logged loud.
func (m *Manager) HandleAction(ctx context.Context, id, userID string, act game.Action, now time.Time) (*game.Session, error) {
	e, ok := m.entry(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess

	if s.Terminal() {
		return snapshot(s), game.RejectSessionOver()
	}
	if !s.Participant(userID) {
		return snapshot(s), game.RejectNotParticipant()
	}
	// Paused sessions accept only resignation until the window closes.
	if s.Disconnect != nil && act.Type != game.ActionResign {
		return snapshot(s), game.RejectWrongPhase(s.Status)
	}

	dirty, err := e.mod.HandleAction(s, act, userID, now)
	if err != nil {
		if rej, ok := game.AsRejection(err); ok {
			obslog.L().Debug("action_reject",
				zap.String("session_id", s.ID),
				zap.String("user_id", userID),
				zap.String("action", act.Type),
				zap.String("code", rej.Code),
			)
			return snapshot(s), err
		}
		obslog.L().Error("action_fatal",
			zap.String("session_id", s.ID),
			zap.String("action", act.Type),
			zap.Error(err),
		)
		return nil, err
	}
	if m.driveAI(s, e.mod, now) {
		dirty = true
	}
	if dirty {
		if err := m.commit(ctx, s); err != nil {
			return nil, err
		}
	}
	obslog.L().Info("session_action",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.String("action", act.Type),
		zap.String("status", string(s.Status)),
		zap.Bool("dirty", dirty),
	)
	return snapshot(s), nil
}

// Step advances one session for the tick: disconnection window first, then
// the mode module, then AI substitution. Persists and broadcasts only when
// something changed.
func (m *Manager) Step(ctx context.Context, id string, now time.Time) error {
	e, ok := m.entry(id)
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sess
	if s.Terminal() {
		m.forget(s.ID)
		return nil
	}

	var dirty bool
	if s.Disconnect != nil {
		dirty = m.tickDisconnect(s, now)
	} else {
		var err error
		dirty, err = e.mod.UpdateState(s, now)
		if err != nil {
			return fmt.Errorf("update session %s: %w", s.ID, err)
		}
		if m.driveAI(s, e.mod, now) {
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return m.commit(ctx, s)
}

// driveAI generates actions for AI seats until a human is up, a phase is
// time-driven, or the step limit trips.
func (m *Manager) driveAI(s *game.Session, mod rules.Module, now time.Time) bool {
	dirty := false
	for i := 0; i < aiStepLimit; i++ {
		if s.Terminal() {
			break
		}
		uid, ok := m.ai.Next(s)
		if !ok {
			break
		}
		p := s.PlayerByID(uid)
		if p == nil || !p.IsAI {
			break
		}
		seed := game.NewSeed()
		act := m.ai.Generate(s, uid, seed)
		applied, err := mod.HandleAction(s, act, uid, now)
		if err != nil || !applied {
			if err != nil {
				obslog.L().Warn("ai_action_reject",
					zap.String("session_id", s.ID),
					zap.String("user_id", uid),
					zap.String("action", act.Type),
					zap.Error(err),
				)
			}
			break
		}
		s.Record(uid, game.LogAIMove, map[string]string{"action": act.Type}, seed, now)
		dirty = true
	}
	return dirty
}

// commit persists the snapshot, broadcasts it, and on a terminal transition
// emits the outcome and retires the session from the live set.
func (m *Manager) commit(ctx context.Context, s *game.Session) error {
	if m.store != nil {
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("save session %s: %w", s.ID, err)
		}
	}
	// Broadcast frames are public; concealed sub-state stays server-side.
	if err := m.pub.State(ctx, s.Sanitized()); err != nil {
		obslog.L().Warn("broadcast_state_error", zap.String("session_id", s.ID), zap.Error(err))
	}
	if !s.Terminal() {
		return nil
	}
	out := s.Outcome()
	if m.sink != nil {
		if err := m.sink.SaveResult(ctx, s, out); err != nil {
			obslog.L().Error("result_persist_error", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	if err := m.pub.Outcome(ctx, out); err != nil {
		obslog.L().Warn("broadcast_outcome_error", zap.String("session_id", s.ID), zap.Error(err))
	}
	m.forget(s.ID)
	obslog.L().Info("session_end",
		zap.String("session_id", s.ID),
		zap.String("mode", string(s.Mode)),
		zap.String("winner", s.Winner),
		zap.String("reason", string(s.WinReason)),
		zap.Bool("no_contest", out.NoContest),
		zap.Int("moves", out.MoveCount),
	)
	return nil
}

func (m *Manager) entry(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

// snapshot deep-copies via the JSON form so callers never share mutable
// state with the locked original.
func snapshot(s *game.Session) *game.Session {
	raw, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out game.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return s
	}
	return &out
}
