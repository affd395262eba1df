package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

// Subject layout. Session snapshots fan out per session so gateways can
// subscribe narrowly; outcomes go to one stream for the reward consumer.
const (
	subjectOutcome  = "arena.outcome"
	subjectStateFmt = "arena.session.%s.state"
)

// StateSubject returns the per-session snapshot subject.
func StateSubject(sessionID string) string {
	return fmt.Sprintf(subjectStateFmt, sessionID)
}

// NATS publishes engine events over a core NATS connection.
type NATS struct {
	nc *nats.Conn
}

// ConnectNATS dials the broker with reconnect logging wired in.
func ConnectNATS(url string) (*NATS, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("NATS_URL required for broadcast publisher")
	}
	nc, err := nats.Connect(url,
		nats.Name("baduk-arena-engine"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			obslog.L().Warn("nats_disconnect", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			obslog.L().Info("nats_reconnect", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (p *NATS) State(_ context.Context, s *game.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.nc.Publish(StateSubject(s.ID), raw)
}

func (p *NATS) Outcome(_ context.Context, o game.Outcome) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return p.nc.Publish(subjectOutcome, raw)
}

func (p *NATS) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

var _ Publisher = (*NATS)(nil)
var _ Publisher = Nop{}
