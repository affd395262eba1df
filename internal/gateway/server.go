// Package gateway is the HTTP surface of the engine: session creation,
// action submission, connection notices, snapshot reads and a websocket
// stream of state frames.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/park285/Baduk-Arena-Engine/internal/engine"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/msgcat"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
	"github.com/park285/Baduk-Arena-Engine/pkg/arenadto"
)

// Engine is the slice of the session manager the gateway calls.
type Engine interface {
	Create(ctx context.Context, neg game.Negotiation, now time.Time) (*game.Session, error)
	Get(id string) (*game.Session, error)
	HandleAction(ctx context.Context, id, userID string, act game.Action, now time.Time) (*game.Session, error)
	ReportDrop(ctx context.Context, id, userID string, now time.Time) (*game.Session, error)
	ReportResume(ctx context.Context, id, userID string, now time.Time) (*game.Session, error)
}

type Server struct {
	eng  Engine
	hub  *Hub
	cat  *msgcat.Catalog
	http *http.Server
}

func NewServer(addr string, eng Engine, hub *Hub, cat *msgcat.Catalog) *Server {
	s := &Server{eng: eng, hub: hub, cat: cat}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleCreate)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGet)
	mux.HandleFunc("POST /v1/sessions/{id}/actions", s.handleAction)
	mux.HandleFunc("POST /v1/sessions/{id}/connection", s.handleConnection)
	mux.HandleFunc("GET /v1/ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket streams
	}
	return s
}

func (s *Server) ListenAndServe() error { return s.http.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.http.Shutdown(ctx) }

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req arenadto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, game.RejectBadPayload(err.Error()))
		return
	}
	neg := game.Negotiation{
		Mode:    game.Mode(strings.TrimSpace(req.Mode)),
		Player1: game.Player{ID: req.Player1.ID, Name: req.Player1.Name, IsAI: req.Player1.IsAI},
		Player2: game.Player{ID: req.Player2.ID, Name: req.Player2.Name, IsAI: req.Player2.IsAI},
	}
	if len(req.Settings) > 0 {
		if err := json.Unmarshal(req.Settings, &neg.Settings); err != nil {
			s.writeError(w, http.StatusBadRequest, game.RejectBadPayload("settings: "+err.Error()))
			return
		}
	}
	sess, err := s.eng.Create(r.Context(), neg, time.Now())
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeSession(w, http.StatusCreated, sess)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.eng.Get(r.PathValue("id"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK, sess)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req arenadto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, game.RejectBadPayload(err.Error()))
		return
	}
	act := game.Action{Type: strings.TrimSpace(req.Type), Payload: req.Payload}
	sess, err := s.eng.HandleAction(r.Context(), r.PathValue("id"), req.UserID, act, time.Now())
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK, sess)
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	var req arenadto.ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, game.RejectBadPayload(err.Error()))
		return
	}
	id := r.PathValue("id")
	var (
		sess *game.Session
		err  error
	)
	switch req.Event {
	case arenadto.ConnectionDrop:
		sess, err = s.eng.ReportDrop(r.Context(), id, req.UserID, time.Now())
	case arenadto.ConnectionResume:
		sess, err = s.eng.ReportResume(r.Context(), id, req.UserID, time.Now())
	default:
		s.writeError(w, http.StatusBadRequest, game.RejectBadPayload("event must be drop or resume"))
		return
	}
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeSession(w, http.StatusOK, sess)
}

// handleWS streams state frames for one session until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		s.writeError(w, http.StatusBadRequest, game.RejectBadPayload("session query parameter required"))
		return
	}
	if _, err := s.eng.Get(sessionID); err != nil {
		s.mapError(w, err)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	frames, cancel := s.hub.Subscribe(sessionID)
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(wctx, websocket.MessageText, frame)
			wcancel()
			if err != nil {
				return
			}
		}
	}
}

// writeSession serves the public view of a snapshot. Concealed sub-state
// (nigiri parity, un-revealed stones, open setup picks) never leaves the
// engine, whoever asks.
func (s *Server) writeSession(w http.ResponseWriter, status int, sess *game.Session) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(sess.Sanitized())
}

// mapError converts engine errors to transport responses: rejections are
// client mistakes, unknown ids are 404, everything else is a server fault.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		s.writeJSON(w, http.StatusNotFound, arenadto.ErrorResponse{Code: "not_found", Message: "session not found"})
	case errors.Is(err, game.ErrUnknownMode):
		s.writeJSON(w, http.StatusBadRequest, arenadto.ErrorResponse{Code: "unknown_mode", Message: "unsupported game mode"})
	case errors.Is(err, engine.ErrCapacity):
		s.writeJSON(w, http.StatusServiceUnavailable, arenadto.ErrorResponse{Code: "capacity", Message: "engine at capacity"})
	default:
		if rej, ok := game.AsRejection(err); ok {
			s.writeError(w, http.StatusConflict, rej)
			return
		}
		obslog.L().Error("gateway_internal_error", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, arenadto.ErrorResponse{Code: "internal", Message: "internal error"})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, rej *game.Rejection) {
	msg := rej.Code
	if s.cat != nil {
		msg = s.cat.RenderOr(rej.MsgKey, rej.Code, nil)
	}
	s.writeJSON(w, status, arenadto.ErrorResponse{Code: rej.Code, Message: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
