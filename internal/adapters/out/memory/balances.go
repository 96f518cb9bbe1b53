// internal/adapters/out/memory/balances.go
package memory

import (
	"context"
	"fmt"
	"sync"

	balancedom "weaponledger/internal/domain/balance"
)

// Balances is an in-process GOLD ledger implementing balance.Port.
type Balances struct {
	mu       sync.Mutex
	balances map[string]uint64

	DebitErr    error
	CreditErr   error
	TransferErr error
}

var _ balancedom.Port = (*Balances)(nil)

func NewBalances() *Balances {
	return &Balances{balances: map[string]uint64{}}
}

// Set は残高を直接書き換えます（seed / テスト用）。
func (b *Balances) Set(owner string, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[owner] = amount
}

func (b *Balances) BalanceOf(_ context.Context, owner string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[owner], nil
}

func (b *Balances) Debit(_ context.Context, owner string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.DebitErr != nil {
		return b.DebitErr
	}
	if b.balances[owner] < amount {
		return fmt.Errorf("%w: owner=%s balance=%d amount=%d", balancedom.ErrInsufficientBalance, owner, b.balances[owner], amount)
	}
	b.balances[owner] -= amount
	return nil
}

func (b *Balances) Credit(_ context.Context, owner string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.CreditErr != nil {
		return b.CreditErr
	}
	if b.balances[owner] > ^uint64(0)-amount {
		return fmt.Errorf("balance: credit overflow owner=%s", owner)
	}
	b.balances[owner] += amount
	return nil
}

func (b *Balances) Transfer(_ context.Context, from, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.TransferErr != nil {
		return b.TransferErr
	}
	if b.balances[from] < amount {
		return fmt.Errorf("%w: owner=%s balance=%d amount=%d", balancedom.ErrInsufficientBalance, from, b.balances[from], amount)
	}
	if from == to {
		return nil
	}
	if b.balances[to] > ^uint64(0)-amount {
		return fmt.Errorf("balance: credit overflow owner=%s", to)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}
