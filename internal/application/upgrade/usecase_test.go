package upgrade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaponledger/internal/adapters/out/memory"
	catalogapp "weaponledger/internal/application/catalog"
	mintapp "weaponledger/internal/application/mint"
	balancedom "weaponledger/internal/domain/balance"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

// seeded mints item 0 for alice and returns the upgrade usecase over the same store.
func seeded(t *testing.T) (*Usecase, *memory.Balances) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	assets := memory.NewAssets()
	balances := memory.NewBalances()

	cat := catalogapp.NewUsecase(store)
	_, err := cat.InitCatalog(ctx, "Upgrade Weapon", "UW")
	require.NoError(t, err)
	_, err = cat.AddCategory(ctx, "https://meta.example/base", "Base")
	require.NoError(t, err)

	m := mintapp.NewUsecase(store, assets, assets, balances, mintdom.DefaultPolicy())
	_, err = m.Mint(ctx, "alice", 0)
	require.NoError(t, err)

	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return NewUsecase(store, balances).WithClock(func() time.Time { return later }), balances
}

var target = weapondom.Stats{Level: 1, HP: 100, Damage: 50}

func TestUpgradeExactBalance(t *testing.T) {
	uc, balances := seeded(t)
	ctx := context.Background()
	balances.Set("alice", 1700)

	res, err := uc.Upgrade(ctx, 0, "alice", target)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700), res.Cost)
	assert.Equal(t, target, res.Weapon.Stats)

	bal, _ := balances.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(0), bal)

	w, err := uc.GetWeapon(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, target, w.Stats)
}

func TestUpgradeInsufficientBalance(t *testing.T) {
	uc, balances := seeded(t)
	ctx := context.Background()
	balances.Set("alice", 1699)

	_, err := uc.Upgrade(ctx, 0, "alice", target)
	assert.ErrorIs(t, err, balancedom.ErrInsufficientBalance)

	w, err := uc.GetWeapon(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, weapondom.Stats{}, w.Stats)
	bal, _ := balances.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(1699), bal)
}

func TestUpgradeSameStatsIsFree(t *testing.T) {
	uc, balances := seeded(t)
	ctx := context.Background()
	balances.Set("alice", 1700)
	_, err := uc.Upgrade(ctx, 0, "alice", target)
	require.NoError(t, err)

	// zero balance, zero cost
	res, err := uc.Upgrade(ctx, 0, "alice", target)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Cost)

	// lowering succeeds and is free
	lower := weapondom.Stats{Level: 7, HP: 1}
	res, err = uc.Upgrade(ctx, 0, "alice", lower)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Cost)
	assert.Equal(t, lower, res.Weapon.Stats)
}

func TestUpgradeAnyCallerMayPay(t *testing.T) {
	uc, balances := seeded(t)
	balances.Set("bob", 110)

	res, err := uc.Upgrade(context.Background(), 0, "bob", weapondom.Stats{Mana: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(110), res.Cost)
}

func TestUpgradeUnknownItem(t *testing.T) {
	uc, _ := seeded(t)
	_, err := uc.Upgrade(context.Background(), 9, "alice", target)
	assert.ErrorIs(t, err, mintdom.ErrUnknownItem)

	_, err = uc.Quote(context.Background(), 9, target)
	assert.ErrorIs(t, err, mintdom.ErrUnknownItem)
}

func TestUpgradeDebitFailure(t *testing.T) {
	uc, balances := seeded(t)
	ctx := context.Background()
	balances.Set("alice", 5000)
	balances.DebitErr = errors.New("burn rejected")

	_, err := uc.Upgrade(ctx, 0, "alice", target)
	assert.ErrorIs(t, err, ledger.ErrCollaborator)

	w, err := uc.GetWeapon(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, weapondom.Stats{}, w.Stats)
}

type failingPutStore struct {
	ledger.Store
}

type failingPutTx struct {
	ledger.Tx
}

func (s failingPutStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return fn(ctx, failingPutTx{tx})
	})
}

func (failingPutTx) PutWeapon(context.Context, weapondom.Weapon) error {
	return errors.New("write conflict")
}

func TestUpgradeRefundsWhenCommitFails(t *testing.T) {
	uc, balances := seeded(t)
	ctx := context.Background()
	balances.Set("alice", 2000)

	broken := NewUsecase(failingPutStore{uc.store}, balances)
	_, err := broken.Upgrade(ctx, 0, "alice", target)
	require.Error(t, err)

	bal, _ := balances.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(2000), bal)
}

func TestQuote(t *testing.T) {
	uc, _ := seeded(t)
	cost, err := uc.Quote(context.Background(), 0, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700), cost)
}
