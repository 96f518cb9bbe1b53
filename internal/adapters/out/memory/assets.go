// internal/adapters/out/memory/assets.go
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	assetdom "weaponledger/internal/domain/asset"
)

// Assets は asset.IdentityPort と asset.MetadataStorePort のインメモリ実装です。
// *Err フィールドに値を入れると該当操作が失敗します（テスト用）。
type Assets struct {
	mu sync.Mutex

	seq      uint64
	owners   map[string]string
	burned   map[string]bool
	metadata map[string]assetdom.Metadata

	CreateErr   error
	MetadataErr error
	TransferErr error
	BurnErr     error
}

var (
	_ assetdom.IdentityPort      = (*Assets)(nil)
	_ assetdom.MetadataStorePort = (*Assets)(nil)
)

func NewAssets() *Assets {
	return &Assets{
		owners:   map[string]string{},
		burned:   map[string]bool{},
		metadata: map[string]assetdom.Metadata{},
	}
}

func (a *Assets) CreateAsset(_ context.Context, in assetdom.CreateAssetInput) (assetdom.Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.CreateErr != nil {
		return assetdom.Asset{}, a.CreateErr
	}
	a.seq++
	addr := fmt.Sprintf("asset-%d-item-%d", a.seq, in.ItemID)
	a.owners[addr] = strings.TrimSpace(in.Owner)
	return assetdom.Asset{Address: addr, Owner: a.owners[addr]}, nil
}

func (a *Assets) OwnerOf(_ context.Context, addr string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	owner, ok := a.owners[addr]
	if !ok || a.burned[addr] {
		return "", fmt.Errorf("%w: %s", assetdom.ErrAssetNotFound, addr)
	}
	return owner, nil
}

func (a *Assets) Transfer(_ context.Context, addr, from, to string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.TransferErr != nil {
		return a.TransferErr
	}
	owner, ok := a.owners[addr]
	if !ok || a.burned[addr] {
		return fmt.Errorf("%w: %s", assetdom.ErrAssetNotFound, addr)
	}
	if owner != from {
		return assetdom.ErrNotAssetOwner
	}
	a.owners[addr] = to
	return nil
}

func (a *Assets) Burn(_ context.Context, addr, owner string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.BurnErr != nil {
		return a.BurnErr
	}
	cur, ok := a.owners[addr]
	if !ok || a.burned[addr] {
		return fmt.Errorf("%w: %s", assetdom.ErrAssetNotFound, addr)
	}
	if cur != owner {
		return assetdom.ErrNotAssetOwner
	}
	a.burned[addr] = true
	return nil
}

func (a *Assets) StoreMetadata(_ context.Context, m assetdom.Metadata) (assetdom.MetadataRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.MetadataErr != nil {
		return assetdom.MetadataRef{}, a.MetadataErr
	}
	a.metadata[m.AssetAddress] = m
	return assetdom.MetadataRef{Location: "memory://" + m.AssetAddress}, nil
}

// Metadata returns what StoreMetadata recorded for addr.
func (a *Assets) Metadata(addr string) (assetdom.Metadata, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.metadata[addr]
	return m, ok
}

// Burned reports whether addr was burned.
func (a *Assets) Burned(addr string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.burned[addr]
}

// Live は burn されていない asset の数です。
func (a *Assets) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for addr := range a.owners {
		if !a.burned[addr] {
			n++
		}
	}
	return n
}
