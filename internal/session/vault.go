package session

import (
	"sync"
	"time"

	"scalp-engine/internal/domain"
)

// Vault segregates realized profit away from trading capital. The loop only
// ever credits it; nothing in the engine can move vaulted funds back into
// position sizing.
type Vault struct {
	mu      sync.RWMutex
	total   float64
	entries []domain.VaultEntry
}

// NewVault creates an empty Vault.
func NewVault() *Vault {
	return &Vault{}
}

// Credit adds a trade's net profit to the vault.
func (v *Vault) Credit(at time.Time, amount float64, tradeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.total += amount
	v.entries = append(v.entries, domain.VaultEntry{At: at, Amount: amount, TradeID: tradeID})
}

// Total returns the vaulted sum.
func (v *Vault) Total() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}

// Entries returns a copy of the credit log, oldest first.
func (v *Vault) Entries() []domain.VaultEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]domain.VaultEntry, len(v.entries))
	copy(out, v.entries)
	return out
}
