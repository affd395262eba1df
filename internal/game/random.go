package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// NewSeed draws a fresh seed for a randomized resolution. The seed is written
// to the move log at the moment it is consumed so timeout-triggered and
// action-triggered paths stay reproducible.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63))
}

// Rng returns a deterministic generator for a recorded seed.
func Rng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
