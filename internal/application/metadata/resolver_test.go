package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaponledger/internal/adapters/out/memory"
	catalogapp "weaponledger/internal/application/catalog"
	mintapp "weaponledger/internal/application/mint"
	mintdom "weaponledger/internal/domain/mint"
)

func TestResolveURI(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	assets := memory.NewAssets()

	cat := catalogapp.NewUsecase(store)
	_, err := cat.InitCatalog(ctx, "Upgrade Weapon", "UW")
	require.NoError(t, err)
	_, err = cat.AddCategories(ctx, []string{"ipfs://base", "ipfs://sword"}, []string{"Base", "Sword"})
	require.NoError(t, err)

	m := mintapp.NewUsecase(store, assets, assets, memory.NewBalances(), mintdom.DefaultPolicy())
	_, err = m.Mint(ctx, "alice", 0)
	require.NoError(t, err)
	_, err = m.Mint(ctx, "alice", 1)
	require.NoError(t, err)

	r := NewResolver(store, assets)

	uri, err := r.ResolveURI(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://sword/1", uri)

	_, err = r.ResolveURI(ctx, 1, "bob")
	assert.ErrorIs(t, err, mintdom.ErrNotOwner)

	_, err = r.ResolveURI(ctx, 5, "alice")
	assert.ErrorIs(t, err, mintdom.ErrUnknownItem)

	// the template is read at resolve time
	require.NoError(t, cat.SetCategoryURI(ctx, 1, "https://cdn.example/sword/"))
	uri, err = r.ResolveURI(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/sword/1", uri)

	// ownership follows the asset
	require.NoError(t, m.Transfer(ctx, 1, "alice", "bob"))
	_, err = r.ResolveURI(ctx, 1, "alice")
	assert.ErrorIs(t, err, mintdom.ErrNotOwner)
	uri, err = r.ResolveURI(ctx, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/sword/1", uri)
}
