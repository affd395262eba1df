package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/engine"
	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/msgcat"
	"github.com/park285/Baduk-Arena-Engine/internal/nigiri"
	"github.com/park285/Baduk-Arena-Engine/pkg/arenadto"
)

type fakeEngine struct {
	sess      *game.Session
	actionErr error
}

func (f *fakeEngine) Create(_ context.Context, neg game.Negotiation, _ time.Time) (*game.Session, error) {
	if neg.Mode == "" {
		return nil, game.ErrUnknownMode
	}
	return f.sess, nil
}

func (f *fakeEngine) Get(id string) (*game.Session, error) {
	if f.sess == nil || f.sess.ID != id {
		return nil, engine.ErrSessionNotFound
	}
	return f.sess, nil
}

func (f *fakeEngine) HandleAction(_ context.Context, id, _ string, _ game.Action, _ time.Time) (*game.Session, error) {
	if f.sess == nil || f.sess.ID != id {
		return nil, engine.ErrSessionNotFound
	}
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return f.sess, nil
}

func (f *fakeEngine) ReportDrop(_ context.Context, id, _ string, _ time.Time) (*game.Session, error) {
	return f.Get(id)
}

func (f *fakeEngine) ReportResume(_ context.Context, id, _ string, _ time.Time) (*game.Session, error) {
	return f.Get(id)
}

func newTestServer(t *testing.T, eng Engine) *httptest.Server {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	srv := NewServer(":0", eng, NewHub(), cat)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testSession() *game.Session {
	return &game.Session{
		ID:      "sess-1",
		Mode:    game.ModeStandard,
		Status:  game.StatusPlaying,
		Players: [2]game.Player{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
	}
}

func TestCreateSessionReturnsSnapshot(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{sess: testSession()})

	body, _ := json.Marshal(arenadto.CreateSessionRequest{
		Mode:    string(game.ModeStandard),
		Player1: arenadto.PlayerSeat{ID: "alice", Name: "Alice"},
		Player2: arenadto.PlayerSeat{ID: "bob", Name: "Bob"},
	})
	resp, err := http.Post(ts.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var got game.Session
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "sess-1" {
		t.Fatalf("session id = %q", got.ID)
	}
}

func TestCreateUnknownModeIs400(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{sess: testSession()})

	body := []byte(`{"mode":"","player1":{"id":"a"},"player2":{"id":"b"}}`)
	resp, err := http.Post(ts.URL+"/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRejectionMapsToConflictWithCatalogText(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{sess: testSession(), actionErr: game.RejectWrongTurn()})

	body := []byte(`{"user_id":"bob","type":"move","payload":{"x":3,"y":3}}`)
	resp, err := http.Post(ts.URL+"/v1/sessions/sess-1/actions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var er arenadto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Code != game.CodeWrongTurn {
		t.Fatalf("code = %q", er.Code)
	}
	if er.Message == "" || er.Message == er.Code {
		t.Fatalf("expected rendered catalog text, got %q", er.Message)
	}
}

func TestSnapshotHidesNigiriParity(t *testing.T) {
	sess := testSession()
	sess.Status = game.StatusNigiriGuessing
	sess.Nigiri = &nigiri.State{HolderID: "alice", GuesserID: "bob", Stones: 7, Phase: nigiri.PhaseGuessing}
	ts := newTestServer(t, &fakeEngine{sess: sess})

	resp, err := http.Get(ts.URL + "/v1/sessions/sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got game.Session
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Nigiri == nil || got.Nigiri.Stones != 0 {
		t.Fatalf("concealed stone count leaked: %+v", got.Nigiri)
	}
	// The held copy is untouched; the guesser just cannot read it.
	if sess.Nigiri.Stones != 7 {
		t.Fatalf("live state mutated: %d", sess.Nigiri.Stones)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{sess: testSession()})

	resp, err := http.Get(ts.URL + "/v1/sessions/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestConnectionEventValidation(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{sess: testSession()})

	body := []byte(`{"user_id":"alice","event":"vanish"}`)
	resp, err := http.Post(ts.URL+"/v1/sessions/sess-1/connection", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	body = []byte(`{"user_id":"alice","event":"drop"}`)
	resp2, err := http.Post(ts.URL+"/v1/sessions/sess-1/connection", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp2.StatusCode)
	}
}

func TestHubFanout(t *testing.T) {
	hub := NewHub()
	frames, cancel := hub.Subscribe("sess-1")
	defer cancel()

	if err := hub.State(context.Background(), testSession()); err != nil {
		t.Fatalf("state: %v", err)
	}

	select {
	case frame := <-frames:
		var ev arenadto.Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		if ev.Type != "state" {
			t.Fatalf("event type = %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	// Frames for other sessions never reach this subscriber.
	other := testSession()
	other.ID = "sess-2"
	if err := hub.State(context.Background(), other); err != nil {
		t.Fatalf("state: %v", err)
	}
	select {
	case <-frames:
		t.Fatal("received frame for foreign session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("sess-1")
	cancel()
	cancel()

	if err := hub.State(context.Background(), testSession()); err != nil {
		t.Fatalf("state after cancel: %v", err)
	}
}
