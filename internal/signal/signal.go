// Package signal proposes trade candidates to the session loop.
package signal

import (
	"context"
	"sync"

	"scalp-engine/internal/domain"
)

// Candidate is one proposed entry: a symbol, a direction, and how much the
// source believes in it. Confidence is in [0, 1].
type Candidate struct {
	Symbol     string
	Direction  domain.Direction
	Confidence float64
	Note       string
}

// Source produces candidates. Returning (nil, nil) means no candidate this
// cycle; the caller skips the attempt.
type Source interface {
	Next(ctx context.Context, symbols []string) (*Candidate, error)
}

// RoundRobin cycles through the symbol list, alternating direction per
// symbol visit. It is a placeholder for a real signal model and exists so
// the loop always has something to attempt.
type RoundRobin struct {
	mu   sync.Mutex
	i    int
	long bool
}

// NewRoundRobin creates a RoundRobin source.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{long: true}
}

// Next returns the next symbol in rotation.
func (r *RoundRobin) Next(_ context.Context, symbols []string) (*Candidate, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sym := symbols[r.i%len(symbols)]
	r.i++
	dir := domain.DirectionLong
	if !r.long {
		dir = domain.DirectionShort
	}
	r.long = !r.long

	// A rotation carries no conviction; every candidate is a coin flip.
	return &Candidate{Symbol: sym, Direction: dir, Confidence: 0.5, Note: "round-robin"}, nil
}

var _ Source = (*RoundRobin)(nil)

// Static always proposes the same candidate. Useful in tests and replays.
type Static struct {
	Candidate *Candidate
}

// Next returns the fixed candidate regardless of the symbol list.
func (s *Static) Next(_ context.Context, _ []string) (*Candidate, error) {
	return s.Candidate, nil
}

var _ Source = (*Static)(nil)
