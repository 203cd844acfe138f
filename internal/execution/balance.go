package execution

import (
	"context"
	"fmt"
	"sync"
)

// PaperBalance is an in-memory balance book for demo accounts.
type PaperBalance struct {
	mu       sync.RWMutex
	balances map[string]float64
}

// NewPaperBalance creates an empty balance book.
func NewPaperBalance() *PaperBalance {
	return &PaperBalance{balances: make(map[string]float64)}
}

// Set replaces the balance for an account.
func (b *PaperBalance) Set(account string, amount float64) {
	b.mu.Lock()
	b.balances[account] = amount
	b.mu.Unlock()
}

// Credit applies a delta to an account's balance. Negative deltas debit.
func (b *PaperBalance) Credit(account string, delta float64) {
	b.mu.Lock()
	b.balances[account] += delta
	b.mu.Unlock()
}

// Available returns the account's balance. Unknown accounts are an error,
// not a zero balance; a zero would read as a silent full drawdown.
func (b *PaperBalance) Available(_ context.Context, account string) (float64, error) {
	b.mu.RLock()
	bal, ok := b.balances[account]
	b.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("paper balance: unknown account %q", account)
	}
	return bal, nil
}
