// Package execution places and closes orders. The engine only ever holds one
// position at a time, so the service surface is deliberately small: open,
// close, look up.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scalp-engine/internal/domain"
)

// Side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// EntrySide returns the order side that opens a position in the given
// direction; ExitSide the one that closes it.
func EntrySide(d domain.Direction) Side {
	if d == domain.DirectionShort {
		return SideSell
	}
	return SideBuy
}

func ExitSide(d domain.Direction) Side {
	if d == domain.DirectionShort {
		return SideBuy
	}
	return SideSell
}

// Status of an order.
type Status string

const (
	StatusFilled   Status = "FILLED"
	StatusRejected Status = "REJECTED"
)

// OrderRequest describes one market order. OrderID is the caller's
// idempotency key; submitting the same ID twice returns the first fill.
type OrderRequest struct {
	OrderID  string
	Symbol   string
	Side     Side
	Quantity float64
	Price    float64 // reference price for paper fills
}

// OrderResult is the exchange's answer.
type OrderResult struct {
	OrderID   string
	Symbol    string
	Side      Side
	Quantity  float64
	FillPrice float64
	Status    Status
	FilledAt  time.Time
}

// Service submits orders to an exchange, real or simulated.
type Service interface {
	// Submit places a market order. Resubmitting an OrderID returns the
	// original result without a second fill.
	Submit(ctx context.Context, req OrderRequest) (*OrderResult, error)

	// Lookup returns a previously submitted order, or ErrUnknownOrder.
	Lookup(ctx context.Context, orderID string) (*OrderResult, error)
}

// Execution errors.
var (
	ErrUnknownOrder = errors.New("execution: unknown order id")
	ErrRejected     = errors.New("execution: order rejected")
)

// NewOrderID returns a fresh idempotency key.
func NewOrderID() string {
	return uuid.NewString()
}

// PaperService fills every order at its reference price, optionally shifted
// by a slippage function. Fills are remembered by OrderID so retries after a
// timeout cannot double-fill.
type PaperService struct {
	mu     sync.Mutex
	fills  map[string]*OrderResult
	slip   func(req OrderRequest) float64
	now    func() time.Time
}

// PaperOptions configures a PaperService.
type PaperOptions struct {
	// Slippage returns a price offset applied to the fill. Nil means
	// perfect fills at the reference price.
	Slippage func(req OrderRequest) float64

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewPaperService creates a PaperService.
func NewPaperService(opts PaperOptions) *PaperService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &PaperService{
		fills: make(map[string]*OrderResult),
		slip:  opts.Slippage,
		now:   now,
	}
}

// Submit fills the order at the reference price plus slippage.
func (s *PaperService) Submit(_ context.Context, req OrderRequest) (*OrderResult, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrRejected)
	}
	if req.Symbol == "" || req.Quantity <= 0 || req.Price <= 0 {
		return nil, fmt.Errorf("%w: %s qty %.8f at %.8f", ErrRejected, req.Symbol, req.Quantity, req.Price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.fills[req.OrderID]; ok {
		out := *prev
		return &out, nil
	}

	fill := req.Price
	if s.slip != nil {
		fill += s.slip(req)
	}

	res := &OrderResult{
		OrderID:   req.OrderID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		FillPrice: fill,
		Status:    StatusFilled,
		FilledAt:  s.now(),
	}
	s.fills[req.OrderID] = res

	out := *res
	return &out, nil
}

// Lookup returns a prior fill by OrderID.
func (s *PaperService) Lookup(_ context.Context, orderID string) (*OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.fills[orderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	out := *res
	return &out, nil
}

var _ Service = (*PaperService)(nil)
