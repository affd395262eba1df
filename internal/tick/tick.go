// Package tick drives every live session forward on a fixed cadence. The
// sweep is the only component allowed to call the engine for all sessions;
// one misbehaving session must never stall the rest, so each step runs under
// its own recover.
package tick

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/engine"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
)

// Engine is the slice of the session manager the driver needs.
type Engine interface {
	ActiveIDs() []string
	Step(ctx context.Context, id string, now time.Time) error
}

type Driver struct {
	eng      Engine
	interval time.Duration
}

func New(eng Engine, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{eng: eng, interval: interval}
}

// Run sweeps on a ticker until the context ends.
func (d *Driver) Run(ctx context.Context) {
	t := time.NewTicker(d.interval)
	defer t.Stop()
	obslog.L().Info("tick_start", zap.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			obslog.L().Info("tick_stop")
			return
		case now := <-t.C:
			d.Sweep(ctx, now)
		}
	}
}

// Sweep advances every session known at the start of the sweep. Sessions
// retired mid-sweep surface as not-found, which is not an error here.
func (d *Driver) Sweep(ctx context.Context, now time.Time) {
	for _, id := range d.eng.ActiveIDs() {
		d.step(ctx, id, now)
	}
}

func (d *Driver) step(ctx context.Context, id string, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("tick_panic",
				zap.String("session_id", id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	if err := d.eng.Step(ctx, id, now); err != nil && !errors.Is(err, engine.ErrSessionNotFound) {
		obslog.L().Error("tick_step_error", zap.String("session_id", id), zap.Error(err))
	}
}
