// internal/application/gold/usecase.go
package gold

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	balancedom "weaponledger/internal/domain/balance"
	"weaponledger/internal/domain/ledger"
	"weaponledger/internal/platform/logging"
)

const (
	TokenName   = "Upgrade Weapon Gold"
	TokenSymbol = "GOLD"
	Decimals    = 0
)

var (
	ErrUnauthorized  = errors.New("gold: caller is not the mint authority")
	ErrInvalidAmount = errors.New("gold: amount must be greater than zero")
)

// Info は GOLD トークンの基本情報です。
type Info struct {
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	Authority string `json:"authority"`
}

// Usecase は GOLD の mint / transfer / burn / balance を balance.Port 経由で扱います。
// mint と burn は authority のみ実行できます。
type Usecase struct {
	balances  balancedom.Port
	authority string
}

func NewUsecase(balances balancedom.Port, authority string) *Usecase {
	return &Usecase{balances: balances, authority: strings.TrimSpace(authority)}
}

func (u *Usecase) Info() Info {
	return Info{Name: TokenName, Symbol: TokenSymbol, Decimals: Decimals, Authority: u.authority}
}

func (u *Usecase) Mint(ctx context.Context, caller, to string, amount uint64) error {
	if err := u.authorize(caller); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return balancedom.ErrInvalidAccount
	}
	if err := u.balances.Credit(ctx, to, amount); err != nil {
		return ledger.Collaborator("gold mint", err)
	}
	zap.S().Infof("[gold] minted to=%s amount=%d", logging.MaskShort(to), amount)
	return nil
}

func (u *Usecase) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return balancedom.ErrInvalidAccount
	}
	if err := u.balances.Transfer(ctx, from, to, amount); err != nil {
		return wrap("gold transfer", err)
	}
	zap.S().Infof("[gold] transferred from=%s to=%s amount=%d", logging.MaskShort(from), logging.MaskShort(to), amount)
	return nil
}

func (u *Usecase) Burn(ctx context.Context, caller, owner string, amount uint64) error {
	if err := u.authorize(caller); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return balancedom.ErrInvalidAccount
	}
	if err := u.balances.Debit(ctx, owner, amount); err != nil {
		return wrap("gold burn", err)
	}
	zap.S().Infof("[gold] burned owner=%s amount=%d", logging.MaskShort(owner), amount)
	return nil
}

func (u *Usecase) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return 0, balancedom.ErrInvalidAccount
	}
	bal, err := u.balances.BalanceOf(ctx, owner)
	if err != nil {
		return 0, ledger.Collaborator("gold balance", err)
	}
	return bal, nil
}

func (u *Usecase) authorize(caller string) error {
	caller = strings.TrimSpace(caller)
	if u.authority == "" || caller != u.authority {
		return fmt.Errorf("%w: caller=%s", ErrUnauthorized, logging.MaskShort(caller))
	}
	return nil
}

// wrap は残高不足だけはそのまま返し、それ以外を collaborator 扱いにします。
func wrap(op string, err error) error {
	if errors.Is(err, balancedom.ErrInsufficientBalance) {
		return err
	}
	return ledger.Collaborator(op, err)
}
