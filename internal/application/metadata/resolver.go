// internal/application/metadata/resolver.go
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	catalogapp "weaponledger/internal/application/catalog"
	assetdom "weaponledger/internal/domain/asset"
	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	"weaponledger/internal/platform/logging"
)

// Resolver は item id から現在の metadata URI を組み立てます。
// category の template を毎回読むため、SetCategoryURI 後は新しい URI になります。
type Resolver struct {
	store  ledger.Store
	assets assetdom.IdentityPort
}

func NewResolver(store ledger.Store, assets assetdom.IdentityPort) *Resolver {
	return &Resolver{store: store, assets: assets}
}

// ResolveURI is read-only. Only the current owner of the asset may resolve it.
func (r *Resolver) ResolveURI(ctx context.Context, itemID uint64, requestingOwner string) (string, error) {
	var (
		rec mintdom.Record
		cat catalogdom.Catalog
	)
	err := r.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		rec, err = tx.Record(ctx, itemID)
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: item=%d", mintdom.ErrUnknownItem, itemID)
		}
		if err != nil {
			return err
		}
		cat, err = catalogapp.Load(ctx, tx)
		return err
	})
	if err != nil {
		return "", err
	}

	owner, err := r.assets.OwnerOf(ctx, rec.AssetAddress)
	if err != nil {
		return "", ledger.Collaborator("owner of", err)
	}
	if strings.TrimSpace(requestingOwner) == "" || owner != strings.TrimSpace(requestingOwner) {
		return "", fmt.Errorf("%w: item=%d", mintdom.ErrNotOwner, itemID)
	}

	category, err := cat.Get(rec.CategoryID)
	if err != nil {
		return "", err
	}
	uri := category.ItemURI(itemID)
	zap.S().Infof("[metadata] token uri resolved item=%d owner=%s uri=%s", itemID, logging.MaskShort(owner), uri)
	return uri, nil
}
