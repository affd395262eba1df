package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/park285/Baduk-Arena-Engine/internal/broadcast"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/pkg/arenadto"
)

// subscriber buffer; a consumer this far behind starts losing frames rather
// than stalling the engine.
const subBuffer = 16

// Hub is the in-process fan-out for websocket watchers. It implements the
// engine's publisher interface, so locally connected clients get the same
// frames the broker does.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan []byte]struct{}{}}
}

// Subscribe registers a watcher for one session. cancel is idempotent.
func (h *Hub) Subscribe(sessionID string) (<-chan []byte, func()) {
	ch := make(chan []byte, subBuffer)
	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = map[chan []byte]struct{}{}
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[sessionID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (h *Hub) State(_ context.Context, s *game.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(arenadto.Event{Type: "state", Session: raw})
	if err != nil {
		return err
	}
	h.send(s.ID, frame)
	return nil
}

func (h *Hub) Outcome(_ context.Context, o game.Outcome) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(arenadto.Event{Type: "outcome", Outcome: raw})
	if err != nil {
		return err
	}
	h.send(o.SessionID, frame)
	return nil
}

func (h *Hub) Close() error { return nil }

func (h *Hub) send(sessionID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- frame:
		default: // slow consumer, frame dropped
		}
	}
}

var _ broadcast.Publisher = (*Hub)(nil)
