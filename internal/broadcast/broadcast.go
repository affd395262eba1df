// Package broadcast pushes session snapshots and final outcomes to the
// realtime fan-out layer. The engine only sees the Publisher interface;
// deployments without a broker run the Nop publisher.
package broadcast

import (
	"context"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Publisher delivers engine events downstream. Implementations must be safe
// for concurrent use; the engine publishes from action handlers and from the
// tick sweep at the same time.
type Publisher interface {
	State(ctx context.Context, s *game.Session) error
	Outcome(ctx context.Context, o game.Outcome) error
	Close() error
}

// Tee duplicates events to every publisher; errors are collected into the
// first non-nil one so one slow consumer cannot hide another's failure.
func Tee(pubs ...Publisher) Publisher { return tee(pubs) }

type tee []Publisher

func (t tee) State(ctx context.Context, s *game.Session) error {
	var first error
	for _, p := range t {
		if err := p.State(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) Outcome(ctx context.Context, o game.Outcome) error {
	var first error
	for _, p := range t {
		if err := p.Outcome(ctx, o); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) Close() error {
	var first error
	for _, p := range t {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Nop discards everything. Used in tests and broker-less deployments.
type Nop struct{}

func (Nop) State(context.Context, *game.Session) error { return nil }
func (Nop) Outcome(context.Context, game.Outcome) error { return nil }
func (Nop) Close() error { return nil }
