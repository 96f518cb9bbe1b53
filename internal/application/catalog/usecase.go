// internal/application/catalog/usecase.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
)

// Usecase は CategoryRegistry の操作をまとめたものです。
// 全ての読み書きは ledger.Store のトランザクション内で行います。
type Usecase struct {
	store ledger.Store
	now   func() time.Time
}

func NewUsecase(store ledger.Store) *Usecase {
	return &Usecase{store: store, now: time.Now}
}

// WithClock replaces the time source (tests).
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	if now != nil {
		u.now = now
	}
	return u
}

// InitCatalog creates the empty registry. It can run only once.
func (u *Usecase) InitCatalog(ctx context.Context, name, symbol string) (catalogdom.Catalog, error) {
	var out catalogdom.Catalog
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.Catalog(ctx)
		if err == nil {
			return catalogdom.ErrAlreadyInitialized
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}
		out = catalogdom.New(name, symbol, u.now())
		return tx.PutCatalog(ctx, out)
	})
	if err != nil {
		return catalogdom.Catalog{}, err
	}
	zap.S().Infof("[catalog] initialized name=%q symbol=%q", out.Name, out.Symbol)
	return out, nil
}

// Catalog returns the registry header and every category.
func (u *Usecase) Catalog(ctx context.Context) (catalogdom.Catalog, error) {
	var out catalogdom.Catalog
	err := u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		c, err := Load(ctx, tx)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (u *Usecase) AddCategory(ctx context.Context, uriTemplate, name string) (uint64, error) {
	var id uint64
	err := u.mutate(ctx, func(c *catalogdom.Catalog) error {
		id = c.AddCategory(uriTemplate, name)
		return nil
	})
	if err != nil {
		return 0, err
	}
	zap.S().Infof("[catalog] category added id=%d name=%q", id, name)
	return id, nil
}

// AddCategories は全件成功か 0 件のどちらかです。
func (u *Usecase) AddCategories(ctx context.Context, uriTemplates, names []string) ([]uint64, error) {
	var ids []uint64
	err := u.mutate(ctx, func(c *catalogdom.Catalog) error {
		var err error
		ids, err = c.AddCategories(uriTemplates, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	zap.S().Infof("[catalog] categories added count=%d", len(ids))
	return ids, nil
}

func (u *Usecase) SetCategoryURI(ctx context.Context, id uint64, uriTemplate string) error {
	err := u.mutate(ctx, func(c *catalogdom.Catalog) error {
		return c.SetCategoryURI(id, uriTemplate)
	})
	if err != nil {
		return err
	}
	zap.S().Infof("[catalog] category uri updated id=%d", id)
	return nil
}

func (u *Usecase) GetCategory(ctx context.Context, id uint64) (catalogdom.Category, error) {
	c, err := u.Catalog(ctx)
	if err != nil {
		return catalogdom.Category{}, err
	}
	return c.Get(id)
}

func (u *Usecase) ListCategories(ctx context.Context) ([]catalogdom.Category, error) {
	c, err := u.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Clone().Categories, nil
}

func (u *Usecase) mutate(ctx context.Context, fn func(c *catalogdom.Catalog) error) error {
	return u.store.RunInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		c, err := Load(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		return tx.PutCatalog(ctx, c)
	})
}

// Load は未初期化を ErrNotInitialized に変換します。
// mint / metadata の usecase からも同じ tx 内で使います。
func Load(ctx context.Context, tx ledger.Tx) (catalogdom.Catalog, error) {
	c, err := tx.Catalog(ctx)
	if errors.Is(err, ledger.ErrNotFound) {
		return catalogdom.Catalog{}, catalogdom.ErrNotInitialized
	}
	if err != nil {
		return catalogdom.Catalog{}, fmt.Errorf("catalog: load: %w", err)
	}
	return c, nil
}
