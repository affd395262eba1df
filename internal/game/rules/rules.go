// Package rules holds one module per rule variant. Every module conforms to
// the same three-operation contract; the generic session machine dispatches
// through it and never switches on the mode tag itself.
package rules

import (
	"time"

	"github.com/park285/Baduk-Arena-Engine/internal/game"
)

// Module is the capability contract a rule variant implements over the
// session aggregate. UpdateState must be idempotent: safe with no elapsed
// time and safe arbitrarily far past a deadline without re-firing one-shot
// consequences. HandleAction rejects expected misuse with *game.Rejection
// and leaves state untouched; it never partially applies.
type Module interface {
	Initialize(s *game.Session, now time.Time) error
	UpdateState(s *game.Session, now time.Time) (dirty bool, err error)
	HandleAction(s *game.Session, act game.Action, userID string, now time.Time) (dirty bool, err error)
}

// ForMode returns the module for a mode. The set is closed; an unknown mode
// is a configuration fault, not a runtime case.
func ForMode(m game.Mode) (Module, error) {
	switch m {
	case game.ModeStandard:
		return &Standard{}, nil
	case game.ModeCapture:
		return &Capture{}, nil
	case game.ModeSpeed:
		return &Speed{}, nil
	case game.ModeBase:
		return &Base{}, nil
	case game.ModeHidden:
		return &Hidden{}, nil
	case game.ModeMissile:
		return &Missile{}, nil
	case game.ModeMix:
		return &Mix{}, nil
	case game.ModeOmok:
		return &Omok{}, nil
	case game.ModeTtamok:
		return &Ttamok{}, nil
	case game.ModeDice:
		return &Dice{}, nil
	case game.ModeThief:
		return &Thief{}, nil
	case game.ModeAlkkagi:
		return &Alkkagi{}, nil
	case game.ModeCurling:
		return &Curling{}, nil
	}
	return nil, game.ErrUnknownMode
}
