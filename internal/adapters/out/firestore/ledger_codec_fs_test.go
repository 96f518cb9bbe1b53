package firestore

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdom "weaponledger/internal/domain/catalog"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

func TestCatalogCodec(t *testing.T) {
	c := catalogdom.New("Upgrade Weapon", "UW", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c.AddCategory(" ipfs://base/ ", "Base")
	c.AddCategory("ipfs://sword", "Sword")

	raw, err := encodeCatalog(c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), raw["nextCategoryId"])

	got, err := decodeCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodeCatalogRejectsMismatch(t *testing.T) {
	_, err := decodeCatalog(map[string]any{"nextCategoryId": int64(2), "categories": []any{}})
	assert.ErrorIs(t, err, catalogdom.ErrCorrupted)

	_, err = decodeCatalog(map[string]any{"nextCategoryId": int64(-1)})
	assert.ErrorIs(t, err, ErrLedgerDecode)
}

func TestSupplyAndGuardCodec(t *testing.T) {
	s := mintdom.NewSupply()
	s.Allocate()
	s.Increment(3)
	raw, err := encodeSupply(s)
	require.NoError(t, err)
	got, err := decodeSupply(raw)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	g := mintdom.NewGuard("alice")
	require.NoError(t, g.Set(2))
	assert.Equal(t, g, decodeGuard("alice", encodeGuard(g)))
}

func TestWeaponCodecKeepsFullUint64(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	w := weapondom.New(9, at)
	w.Replace(weapondom.Stats{Level: 1, HP: math.MaxUint64, AtkSpeed: 7}, at)

	raw, err := encodeWeapon(w)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", raw["hp"])

	got, err := decodeWeapon(raw)
	require.NoError(t, err)
	assert.Equal(t, w, got)
}

func TestRecordCodec(t *testing.T) {
	r := mintdom.Record{ItemID: 4, CategoryID: 1, Owner: "alice", AssetAddress: "mint", MetadataURI: "ipfs://sword/4", MintedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	raw, err := encodeRecord(r)
	require.NoError(t, err)
	got, err := decodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = encodeRecord(mintdom.Record{})
	assert.ErrorIs(t, err, mintdom.ErrInvalidOwner)
}

func TestToInt64Overflow(t *testing.T) {
	_, err := toInt64(math.MaxUint64)
	assert.Error(t, err)
}
