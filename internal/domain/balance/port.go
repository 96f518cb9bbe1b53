// internal/domain/balance/port.go
package balance

import (
	"context"
	"errors"
)

var (
	ErrInsufficientBalance = errors.New("balance: insufficient balance")
	ErrInvalidAccount      = errors.New("balance: invalid account")
)

// Port is the fungible resource (GOLD) used for mint fees and upgrade costs.
// Debit burns, Credit mints.
type Port interface {
	BalanceOf(ctx context.Context, owner string) (uint64, error)
	Debit(ctx context.Context, owner string, amount uint64) error
	Credit(ctx context.Context, owner string, amount uint64) error
	Transfer(ctx context.Context, from, to string, amount uint64) error
}
