package mint

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaponledger/internal/adapters/out/memory"
	catalogapp "weaponledger/internal/application/catalog"
	balancedom "weaponledger/internal/domain/balance"
	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	assets   *memory.Assets
	balances *memory.Balances
	catalog  *catalogapp.Usecase
	mint     *Usecase
}

func newFixture(t *testing.T, policy mintdom.Policy) fixture {
	t.Helper()
	store := memory.NewStore()
	assets := memory.NewAssets()
	balances := memory.NewBalances()

	cat := catalogapp.NewUsecase(store).WithClock(func() time.Time { return fixedNow })
	_, err := cat.InitCatalog(context.Background(), "Upgrade Weapon", "UW")
	require.NoError(t, err)
	_, err = cat.AddCategories(context.Background(),
		[]string{"https://meta.example/base", "https://meta.example/sword/", "https://meta.example/axe", "https://meta.example/bow", "https://meta.example/special", "https://meta.example/extra"},
		[]string{"Base", "Sword", "Axe", "Bow", "Special", "Extra"},
	)
	require.NoError(t, err)

	uc := NewUsecase(store, assets, assets, balances, policy).WithClock(func() time.Time { return fixedNow })
	uc.SetCreator("authority")
	return fixture{store: store, assets: assets, balances: balances, catalog: cat, mint: uc}
}

func TestMintHappyPath(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	rec, err := f.mint.Mint(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rec.ItemID)
	assert.Equal(t, uint64(1), rec.CategoryID)
	assert.Equal(t, "alice", rec.Owner)
	assert.Equal(t, "https://meta.example/sword/0", rec.MetadataURI)
	assert.Equal(t, fixedNow, rec.MintedAt)

	md, ok := f.assets.Metadata(rec.AssetAddress)
	require.True(t, ok)
	assert.Equal(t, "Sword", md.Name)
	assert.Equal(t, "UW", md.Symbol)
	assert.Equal(t, rec.MetadataURI, md.URI)
	assert.Equal(t, SellerFeeBasisPoints, md.SellerFeeBasisPoints)
	assert.False(t, md.IsMutable)
	require.Len(t, md.Creators, 1)
	assert.Equal(t, uint8(100), md.Creators[0].Share)

	got, err := f.mint.GetRecord(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	var weaponFound bool
	require.NoError(t, f.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.Weapon(ctx, 0)
		weaponFound = err == nil && w.Stats.Level == 0 && w.Stats.HP == 0
		return nil
	}))
	assert.True(t, weaponFound)

	rec2, err := f.mint.Mint(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec2.ItemID)
}

func TestMintDuplicateLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	_, err := f.mint.Mint(ctx, "alice", 1)
	require.NoError(t, err)

	_, err = f.mint.Mint(ctx, "alice", 1)
	assert.ErrorIs(t, err, mintdom.ErrDuplicateMint)

	info, err := f.mint.SupplyOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.Minted)
	assert.Equal(t, 1, f.assets.Live())

	// another owner still gets the next id
	rec, err := f.mint.Mint(ctx, "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ItemID)
}

func TestMintInvalidCategory(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	_, err := f.mint.Mint(ctx, "alice", 99)
	assert.ErrorIs(t, err, catalogdom.ErrInvalidCategory)

	// category 5 exists but has no guard slot
	_, err = f.mint.Mint(ctx, "alice", 5)
	assert.ErrorIs(t, err, catalogdom.ErrInvalidCategory)
	assert.ErrorIs(t, err, mintdom.ErrNoGuardSlot)
	assert.Equal(t, 0, f.assets.Live())
}

func TestMintEmptyOwner(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	_, err := f.mint.Mint(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, mintdom.ErrInvalidOwner)
}

func TestMintSupplyCap(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		_, err := f.mint.Mint(ctx, fmt.Sprintf("owner-%d", i), 1)
		require.NoError(t, err, "mint %d", i)
	}

	_, err := f.mint.Mint(ctx, "owner-200", 1)
	assert.ErrorIs(t, err, mintdom.ErrSupplyExhausted)

	info, err := f.mint.SupplyOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), info.Minted)
	assert.True(t, info.Capped)

	// 201st owner succeeds on an exempt category
	rec, err := f.mint.Mint(ctx, "owner-200", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), rec.ItemID)
}

func TestMintExemptCategoryIsUncapped(t *testing.T) {
	f := newFixture(t, mintdom.NewPolicy(1, mintdom.DefaultExemptCategories, 0, ""))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.mint.Mint(ctx, fmt.Sprintf("owner-%d", i), 0)
		require.NoError(t, err)
	}
	_, err := f.mint.Mint(ctx, "owner-0", 2)
	require.NoError(t, err)
	_, err = f.mint.Mint(ctx, "owner-1", 2)
	assert.ErrorIs(t, err, mintdom.ErrSupplyExhausted)
}

func TestMintCollaboratorFailureRollsBack(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	boom := errors.New("rpc down")
	f.assets.MetadataErr = boom

	_, err := f.mint.Mint(ctx, "alice", 1)
	assert.ErrorIs(t, err, ledger.ErrCollaborator)
	assert.ErrorIs(t, err, boom)

	// the created asset was burned and nothing was committed
	assert.Equal(t, 0, f.assets.Live())
	_, err = f.mint.GetRecord(ctx, 0)
	assert.ErrorIs(t, err, mintdom.ErrUnknownItem)
	info, err := f.mint.SupplyOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.Minted)

	f.assets.MetadataErr = nil
	rec, err := f.mint.Mint(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rec.ItemID)
}

func TestMintCreateAssetFailure(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	f.assets.CreateErr = errors.New("no sol")

	_, err := f.mint.Mint(context.Background(), "alice", 1)
	assert.ErrorIs(t, err, ledger.ErrCollaborator)
	assert.Equal(t, 0, f.assets.Live())
}

func TestMintFee(t *testing.T) {
	f := newFixture(t, mintdom.NewPolicy(0, mintdom.DefaultExemptCategories, 50, "treasury"))
	ctx := context.Background()

	_, err := f.mint.Mint(ctx, "alice", 1)
	assert.ErrorIs(t, err, balancedom.ErrInsufficientBalance)
	assert.Equal(t, 0, f.assets.Live())

	f.balances.Set("alice", 80)
	_, err = f.mint.Mint(ctx, "alice", 1)
	require.NoError(t, err)

	bal, _ := f.balances.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(30), bal)
	bal, _ = f.balances.BalanceOf(ctx, "treasury")
	assert.Equal(t, uint64(50), bal)

	// exempt categories are free
	_, err = f.mint.Mint(ctx, "alice", 0)
	require.NoError(t, err)
	bal, _ = f.balances.BalanceOf(ctx, "alice")
	assert.Equal(t, uint64(30), bal)
}

func TestMintFeeTransferFailureCompensates(t *testing.T) {
	f := newFixture(t, mintdom.NewPolicy(0, mintdom.DefaultExemptCategories, 10, "treasury"))
	ctx := context.Background()
	f.balances.Set("alice", 10)
	f.balances.TransferErr = errors.New("blockhash expired")

	_, err := f.mint.Mint(ctx, "alice", 2)
	assert.ErrorIs(t, err, ledger.ErrCollaborator)
	assert.Equal(t, 0, f.assets.Live())

	_, err = f.mint.GetRecord(ctx, 0)
	assert.ErrorIs(t, err, mintdom.ErrUnknownItem)
}

func TestMintBeforeInit(t *testing.T) {
	store := memory.NewStore()
	assets := memory.NewAssets()
	uc := NewUsecase(store, assets, assets, memory.NewBalances(), mintdom.DefaultPolicy())

	_, err := uc.Mint(context.Background(), "alice", 0)
	assert.ErrorIs(t, err, catalogdom.ErrNotInitialized)
}

func TestTransferAndBurn(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	ctx := context.Background()

	rec, err := f.mint.Mint(ctx, "alice", 1)
	require.NoError(t, err)

	err = f.mint.Transfer(ctx, rec.ItemID, "mallory", "bob")
	assert.ErrorIs(t, err, mintdom.ErrNotOwner)

	require.NoError(t, f.mint.Transfer(ctx, rec.ItemID, "alice", "bob"))
	owner, err := f.assets.OwnerOf(ctx, rec.AssetAddress)
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)

	assert.ErrorIs(t, f.mint.Burn(ctx, rec.ItemID, "alice"), mintdom.ErrNotOwner)
	require.NoError(t, f.mint.Burn(ctx, rec.ItemID, "bob"))
	assert.True(t, f.assets.Burned(rec.AssetAddress))

	// the guard stays set after burn
	_, err = f.mint.Mint(ctx, "alice", 1)
	assert.ErrorIs(t, err, mintdom.ErrDuplicateMint)

	assert.ErrorIs(t, f.mint.Transfer(ctx, 42, "alice", "bob"), mintdom.ErrUnknownItem)
}

func TestSupplyOfUnknownCategory(t *testing.T) {
	f := newFixture(t, mintdom.DefaultPolicy())
	_, err := f.mint.SupplyOf(context.Background(), 77)
	assert.ErrorIs(t, err, catalogdom.ErrInvalidCategory)

	info, err := f.mint.SupplyOf(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, info.Capped)
	assert.Equal(t, uint64(200), info.Cap)
}
