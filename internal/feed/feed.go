// Package feed supplies prices to the session loop and the exit monitor.
package feed

import (
	"context"
	"errors"
	"sync"
)

// ErrNoPrice is returned when a source has no price for a symbol. The exit
// monitor treats it as a feed gap.
var ErrNoPrice = errors.New("feed: no price available")

// Source returns the current price for a symbol.
type Source interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Static serves fixed prices from a map. Useful in tests and demos.
type Static struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStatic creates a Static source with the given prices.
func NewStatic(prices map[string]float64) *Static {
	cp := make(map[string]float64, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &Static{prices: cp}
}

// Set updates a symbol's price.
func (s *Static) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Price returns the symbol's price, or ErrNoPrice.
func (s *Static) Price(_ context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[symbol]
	if !ok {
		return 0, ErrNoPrice
	}
	return p, nil
}

var _ Source = (*Static)(nil)

// Replay walks a recorded price tape one tick per call, per symbol. A
// non-positive tick is served as a gap; walking off the end repeats the last
// tick. Replays make exit behavior reproducible.
type Replay struct {
	mu    sync.Mutex
	tapes map[string][]float64
	pos   map[string]int
}

// NewReplay creates a Replay source over the given tapes.
func NewReplay(tapes map[string][]float64) *Replay {
	cp := make(map[string][]float64, len(tapes))
	for k, v := range tapes {
		cp[k] = append([]float64(nil), v...)
	}
	return &Replay{tapes: cp, pos: make(map[string]int)}
}

// Price returns the next tick of the symbol's tape.
func (r *Replay) Price(_ context.Context, symbol string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tape, ok := r.tapes[symbol]
	if !ok || len(tape) == 0 {
		return 0, ErrNoPrice
	}

	i := r.pos[symbol]
	if i >= len(tape) {
		i = len(tape) - 1
	} else {
		r.pos[symbol] = i + 1
	}

	p := tape[i]
	if p <= 0 {
		return 0, ErrNoPrice
	}
	return p, nil
}

var _ Source = (*Replay)(nil)
