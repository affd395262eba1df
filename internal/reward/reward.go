// Package reward pushes final outcomes to the economy service, which owns
// ratings, point settlement and manner-score penalties for early exits. The
// engine itself never computes rewards.
package reward

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

type Notifier struct {
	baseURL string
	http    *fasthttp.Client

	timeout  time.Duration
	retryMax int
}

type Option func(*Notifier)

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

func WithRetry(max int) Option {
	return func(n *Notifier) { n.retryMax = max }
}

func NewNotifier(baseURL string, opts ...Option) *Notifier {
	n := &Notifier{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		timeout:  5 * time.Second,
		retryMax: 3,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// outcomeEvent is the wire form sent to the economy service. NoContest lets
// it apply the manner-score penalty without re-deriving the void condition.
type outcomeEvent struct {
	game.Outcome
	BlackID  string `json:"black_id,omitempty"`
	WhiteID  string `json:"white_id,omitempty"`
	Player1  string `json:"player1_id"`
	Player2  string `json:"player2_id"`
	Drawn    bool   `json:"drawn,omitempty"`
	EndedAt  int64  `json:"ended_at"`
	Duration int64  `json:"duration_ms"`
}

// SaveResult implements the engine's result sink against the economy API.
func (n *Notifier) SaveResult(ctx context.Context, s *game.Session, o game.Outcome) error {
	if n == nil || strings.TrimSpace(n.baseURL) == "" {
		return nil
	}
	ev := outcomeEvent{
		Outcome:  o,
		BlackID:  s.BlackID,
		WhiteID:  s.WhiteID,
		Player1:  s.Players[0].ID,
		Player2:  s.Players[1].ID,
		Drawn:    s.Drawn,
		EndedAt:  s.UpdatedAt.Unix(),
		Duration: s.UpdatedAt.Sub(s.CreatedAt).Milliseconds(),
	}
	if err := n.post(ctx, "/v1/outcomes", ev); err != nil {
		return err
	}
	obslog.L().Info("reward_notify", zap.String("session_id", o.SessionID), zap.String("reason", string(o.Reason)))
	return nil
}

func (n *Notifier) post(ctx context.Context, path string, in any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(n.baseURL + path)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	attempts := n.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := n.http.DoDeadline(req, resp, n.deadline(ctx))
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return nil
			}
			err = fmt.Errorf("economy api error: status=%d", status)
			if status >= 400 && status < 500 {
				return err
			}
		}
		lastErr = err
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}
	}
	return lastErr
}

func (n *Notifier) deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(n.timeout)
}
