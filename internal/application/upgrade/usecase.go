// internal/application/upgrade/usecase.go
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	balancedom "weaponledger/internal/domain/balance"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
	"weaponledger/internal/platform/logging"
)

// Result is what Upgrade returns to the caller.
type Result struct {
	Weapon weapondom.Weapon `json:"weapon"`
	Cost   uint64           `json:"cost"`
}

// Usecase は GOLD を消費してステータスを書き換えます。
// 所有者チェックは行いません（コストを払った呼び出し元がそのまま書き換えられる）。
type Usecase struct {
	store    ledger.Store
	balances balancedom.Port
	now      func() time.Time
}

func NewUsecase(store ledger.Store, balances balancedom.Port) *Usecase {
	return &Usecase{store: store, balances: balances, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	if now != nil {
		u.now = now
	}
	return u
}

// Upgrade: read record → cost → balance check → debit → overwrite.
func (u *Usecase) Upgrade(ctx context.Context, itemID uint64, caller string, target weapondom.Stats) (Result, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return Result{}, balancedom.ErrInvalidAccount
	}

	var (
		out     Result
		debited uint64
	)
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		debited = 0

		w, err := loadWeapon(ctx, tx, itemID)
		if err != nil {
			return err
		}

		cost := weapondom.UpgradeCost(w.Stats, target)

		bal, err := u.balances.BalanceOf(ctx, caller)
		if err != nil {
			return ledger.Collaborator("balance of", err)
		}
		if bal < cost {
			return fmt.Errorf("%w: balance=%d cost=%d", balancedom.ErrInsufficientBalance, bal, cost)
		}

		if cost > 0 {
			if err := u.balances.Debit(ctx, caller, cost); err != nil {
				return ledger.Collaborator("debit", err)
			}
			debited = cost
		}

		w.Replace(target, u.now())
		if err := tx.PutWeapon(ctx, w); err != nil {
			return err
		}
		out = Result{Weapon: w, Cost: cost}
		return nil
	})
	if err != nil {
		if debited > 0 {
			u.refund(caller, debited, err)
		}
		return Result{}, err
	}

	zap.S().Infof("[upgrade] item=%d caller=%s cost=%d stats=%v", itemID, logging.MaskShort(caller), out.Cost, target.Slice())
	return out, nil
}

// refund は debit 後に commit できなかった分を戻します（best effort）。
func (u *Usecase) refund(caller string, amount uint64, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	zap.S().Warnf("[upgrade] refund caller=%s amount=%d cause=%v", logging.MaskShort(caller), amount, cause)
	if err := u.balances.Credit(ctx, caller, amount); err != nil {
		zap.S().Errorf("[upgrade] refund failed caller=%s amount=%d err=%v", logging.MaskShort(caller), amount, err)
	}
}

// Quote returns the cost Upgrade would charge right now.
func (u *Usecase) Quote(ctx context.Context, itemID uint64, target weapondom.Stats) (uint64, error) {
	w, err := u.GetWeapon(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return weapondom.UpgradeCost(w.Stats, target), nil
}

func (u *Usecase) GetWeapon(ctx context.Context, itemID uint64) (weapondom.Weapon, error) {
	var out weapondom.Weapon
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := loadWeapon(ctx, tx, itemID)
		if err != nil {
			return err
		}
		out = w
		return nil
	})
	return out, err
}

func loadWeapon(ctx context.Context, tx ledger.Tx, itemID uint64) (weapondom.Weapon, error) {
	w, err := tx.Weapon(ctx, itemID)
	if errors.Is(err, ledger.ErrNotFound) {
		return weapondom.Weapon{}, fmt.Errorf("%w: item=%d", mintdom.ErrUnknownItem, itemID)
	}
	return w, err
}
