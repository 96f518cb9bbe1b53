// internal/application/mint/usecase.go
package mint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	catalogapp "weaponledger/internal/application/catalog"
	assetdom "weaponledger/internal/domain/asset"
	balancedom "weaponledger/internal/domain/balance"
	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
	"weaponledger/internal/platform/logging"
)

// SellerFeeBasisPoints はミント時メタデータに固定で付与されます。
const SellerFeeBasisPoints uint16 = 1

// SupplyInfo is the read model behind GET /categories/{id}/supply.
type SupplyInfo struct {
	CategoryID uint64 `json:"categoryId"`
	Minted     uint64 `json:"minted"`
	Cap        uint64 `json:"cap"`
	Capped     bool   `json:"capped"`
	Fee        uint64 `json:"fee"`
}

// ============================================================
// MintUsecase 本体
// ============================================================

type Usecase struct {
	store    ledger.Store
	assets   assetdom.IdentityPort
	metadata assetdom.MetadataStorePort
	balances balancedom.Port
	policy   mintdom.Policy

	// creator はメタデータの creators[0]（空なら creators なし）
	creator string
	now     func() time.Time
}

func NewUsecase(
	store ledger.Store,
	assets assetdom.IdentityPort,
	metadata assetdom.MetadataStorePort,
	balances balancedom.Port,
	policy mintdom.Policy,
) *Usecase {
	return &Usecase{
		store:    store,
		assets:   assets,
		metadata: metadata,
		balances: balances,
		policy:   policy,
		now:      time.Now,
	}
}

// SetCreator は DI 側で mint authority の address を後から注入するためのものです。
func (u *Usecase) SetCreator(addr string) {
	if u == nil {
		return
	}
	u.creator = strings.TrimSpace(addr)
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	if now != nil {
		u.now = now
	}
	return u
}

func (u *Usecase) Policy() mintdom.Policy { return u.policy }

// Mint は 1 トランザクションで guard / counter / asset / metadata / weapon / fee を処理します。
// どこかで失敗した場合は staged な書き込みを全て破棄します。
func (u *Usecase) Mint(ctx context.Context, owner string, categoryID uint64) (mintdom.Record, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return mintdom.Record{}, mintdom.ErrInvalidOwner
	}

	var (
		out     mintdom.Record
		created *assetdom.Asset
		feePaid uint64
	)

	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		// 失敗後に同じ tx が再実行されても二重に補償しないようリセット
		created, feePaid = nil, 0

		cat, err := catalogapp.Load(ctx, tx)
		if err != nil {
			return err
		}
		category, err := cat.Get(categoryID)
		if err != nil {
			return err
		}

		guard, err := tx.Guard(ctx, owner)
		if err != nil {
			return err
		}
		supply, err := tx.Supply(ctx)
		if err != nil {
			return err
		}

		if err := u.policy.Admit(guard, supply, categoryID); err != nil {
			if errors.Is(err, mintdom.ErrNoGuardSlot) {
				return fmt.Errorf("%w: %w", catalogdom.ErrInvalidCategory, err)
			}
			return err
		}

		// 手数料の残高チェックは外部呼び出しより前に行う
		fee := u.policy.FeeFor(categoryID)
		if fee > 0 {
			bal, err := u.balances.BalanceOf(ctx, owner)
			if err != nil {
				return ledger.Collaborator("balance of", err)
			}
			if bal < fee {
				return fmt.Errorf("%w: balance=%d fee=%d", balancedom.ErrInsufficientBalance, bal, fee)
			}
		}

		itemID, err := mintdom.Apply(&guard, &supply, categoryID)
		if err != nil {
			return err
		}
		uri := category.ItemURI(itemID)

		a, err := u.assets.CreateAsset(ctx, assetdom.CreateAssetInput{
			ItemID:     itemID,
			CategoryID: categoryID,
			Owner:      owner,
		})
		if err != nil {
			return ledger.Collaborator("create asset", err)
		}
		created = &a

		ref, err := u.metadata.StoreMetadata(ctx, u.metadataFor(itemID, a.Address, category, cat.Symbol, uri))
		if err != nil {
			return ledger.Collaborator("store metadata", err)
		}

		now := u.now().UTC()
		rec := mintdom.Record{
			ItemID:       itemID,
			CategoryID:   categoryID,
			Owner:        owner,
			AssetAddress: a.Address,
			MetadataURI:  uri,
			MintedAt:     now,
		}
		if err := rec.Validate(); err != nil {
			return err
		}

		if err := tx.PutRecord(ctx, rec); err != nil {
			return err
		}
		if err := tx.PutGuard(ctx, guard); err != nil {
			return err
		}
		if err := tx.PutSupply(ctx, supply); err != nil {
			return err
		}
		if err := tx.PutWeapon(ctx, weapondom.New(itemID, now)); err != nil {
			return err
		}

		if fee > 0 {
			if err := u.balances.Transfer(ctx, owner, u.policy.FeeRecipient, fee); err != nil {
				return ledger.Collaborator("fee transfer", err)
			}
			feePaid = fee
		}

		zap.S().Debugf("[mint] staged item=%d category=%d metadata=%s", itemID, categoryID, ref.Location)
		out = rec
		return nil
	})
	if err != nil {
		u.compensate(owner, created, feePaid, err)
		return mintdom.Record{}, err
	}

	zap.S().Infof("[mint] minted item=%d category=%d owner=%s asset=%s",
		out.ItemID, out.CategoryID, logging.MaskShort(out.Owner), logging.MaskShort(out.AssetAddress))
	return out, nil
}

func (u *Usecase) metadataFor(itemID uint64, assetAddr string, c catalogdom.Category, symbol, uri string) assetdom.Metadata {
	m := assetdom.Metadata{
		ItemID:               itemID,
		AssetAddress:         assetAddr,
		Name:                 c.Name,
		Symbol:               symbol,
		URI:                  uri,
		SellerFeeBasisPoints: SellerFeeBasisPoints,
		IsMutable:            false,
	}
	if u.creator != "" {
		m.Creators = []assetdom.Creator{{Address: u.creator, Verified: true, Share: 100}}
	}
	return m
}

// compensate は tx が失敗したときに外部に残ったものを片付けます（best effort）。
func (u *Usecase) compensate(owner string, created *assetdom.Asset, feePaid uint64, cause error) {
	if created == nil {
		return
	}
	// 呼び出し元の ctx がキャンセル済みでも補償は走らせる
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	zap.S().Warnf("[mint] rollback asset=%s cause=%v", logging.MaskShort(created.Address), cause)
	if err := u.assets.Burn(ctx, created.Address, owner); err != nil {
		zap.S().Errorf("[mint] compensation burn failed asset=%s err=%v", logging.MaskShort(created.Address), err)
	}
	if feePaid > 0 {
		// fee recipient の署名が必要なため自動返金はしない
		zap.S().Errorf("[mint] fee already transferred owner=%s amount=%d; manual refund required",
			logging.MaskShort(owner), feePaid)
	}
}

// Transfer は asset service に委譲します。ledger の状態は変わりません。
func (u *Usecase) Transfer(ctx context.Context, itemID uint64, from, to string) error {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if to == "" {
		return mintdom.ErrInvalidOwner
	}
	rec, err := u.ownedRecord(ctx, itemID, from)
	if err != nil {
		return err
	}
	if err := u.assets.Transfer(ctx, rec.AssetAddress, from, to); err != nil {
		return ledger.Collaborator("transfer asset", err)
	}
	zap.S().Infof("[mint] transferred item=%d from=%s to=%s", itemID, logging.MaskShort(from), logging.MaskShort(to))
	return nil
}

// Burn destroys the external asset. The guard and the counters stay as they are.
func (u *Usecase) Burn(ctx context.Context, itemID uint64, owner string) error {
	owner = strings.TrimSpace(owner)
	rec, err := u.ownedRecord(ctx, itemID, owner)
	if err != nil {
		return err
	}
	if err := u.assets.Burn(ctx, rec.AssetAddress, owner); err != nil {
		return ledger.Collaborator("burn asset", err)
	}
	zap.S().Infof("[mint] burned item=%d owner=%s", itemID, logging.MaskShort(owner))
	return nil
}

func (u *Usecase) GetRecord(ctx context.Context, itemID uint64) (mintdom.Record, error) {
	var out mintdom.Record
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		r, err := tx.Record(ctx, itemID)
		if errors.Is(err, ledger.ErrNotFound) {
			return fmt.Errorf("%w: item=%d", mintdom.ErrUnknownItem, itemID)
		}
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (u *Usecase) SupplyOf(ctx context.Context, categoryID uint64) (SupplyInfo, error) {
	var out SupplyInfo
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		cat, err := catalogapp.Load(ctx, tx)
		if err != nil {
			return err
		}
		if !cat.Has(categoryID) {
			return fmt.Errorf("%w: id=%d", catalogdom.ErrInvalidCategory, categoryID)
		}
		s, err := tx.Supply(ctx)
		if err != nil {
			return err
		}
		out = SupplyInfo{
			CategoryID: categoryID,
			Minted:     s.Count(categoryID),
			Cap:        u.policy.Cap,
			Capped:     !u.policy.IsExempt(categoryID),
			Fee:        u.policy.FeeFor(categoryID),
		}
		return nil
	})
	return out, err
}

func (u *Usecase) ownedRecord(ctx context.Context, itemID uint64, owner string) (mintdom.Record, error) {
	rec, err := u.GetRecord(ctx, itemID)
	if err != nil {
		return mintdom.Record{}, err
	}
	current, err := u.assets.OwnerOf(ctx, rec.AssetAddress)
	if err != nil {
		return mintdom.Record{}, ledger.Collaborator("owner of", err)
	}
	if owner == "" || current != owner {
		return mintdom.Record{}, fmt.Errorf("%w: item=%d", mintdom.ErrNotOwner, itemID)
	}
	return rec, nil
}
