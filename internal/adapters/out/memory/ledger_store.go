// internal/adapters/out/memory/ledger_store.go
package memory

import (
	"context"
	"sync"

	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

// Store はプロセス内の ledger.Store 実装（dev / テスト用）です。
// トランザクションは mutex で直列化し、書き込みは overlay に溜めて
// fn が nil を返したときだけ committed state に反映します。
type Store struct {
	mu sync.Mutex

	catalog *catalogdom.Catalog
	supply  mintdom.Supply
	guards  map[string]mintdom.Guard
	records map[uint64]mintdom.Record
	weapons map[uint64]weapondom.Weapon
}

var _ ledger.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		supply:  mintdom.NewSupply(),
		guards:  map[string]mintdom.Guard{},
		records: map[uint64]mintdom.Record{},
		weapons: map[uint64]weapondom.Weapon{},
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		base:    s,
		guards:  map[string]mintdom.Guard{},
		records: map[uint64]mintdom.Record{},
		weapons: map[uint64]weapondom.Weapon{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memTx is the staging overlay of one transaction.
type memTx struct {
	base *Store

	catalog *catalogdom.Catalog
	supply  *mintdom.Supply
	guards  map[string]mintdom.Guard
	records map[uint64]mintdom.Record
	weapons map[uint64]weapondom.Weapon
}

func (t *memTx) Catalog(_ context.Context) (catalogdom.Catalog, error) {
	if t.catalog != nil {
		return t.catalog.Clone(), nil
	}
	if t.base.catalog == nil {
		return catalogdom.Catalog{}, ledger.ErrNotFound
	}
	return t.base.catalog.Clone(), nil
}

func (t *memTx) PutCatalog(_ context.Context, c catalogdom.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	cc := c.Clone()
	t.catalog = &cc
	return nil
}

func (t *memTx) Supply(_ context.Context) (mintdom.Supply, error) {
	if t.supply != nil {
		return t.supply.Clone(), nil
	}
	return t.base.supply.Clone(), nil
}

func (t *memTx) PutSupply(_ context.Context, s mintdom.Supply) error {
	sc := s.Clone()
	t.supply = &sc
	return nil
}

func (t *memTx) Guard(_ context.Context, owner string) (mintdom.Guard, error) {
	if g, ok := t.guards[owner]; ok {
		return g, nil
	}
	if g, ok := t.base.guards[owner]; ok {
		return g, nil
	}
	return mintdom.NewGuard(owner), nil
}

func (t *memTx) PutGuard(_ context.Context, g mintdom.Guard) error {
	t.guards[g.Owner] = g
	return nil
}

func (t *memTx) Record(_ context.Context, itemID uint64) (mintdom.Record, error) {
	if r, ok := t.records[itemID]; ok {
		return r, nil
	}
	if r, ok := t.base.records[itemID]; ok {
		return r, nil
	}
	return mintdom.Record{}, ledger.ErrNotFound
}

func (t *memTx) PutRecord(_ context.Context, r mintdom.Record) error {
	if _, ok := t.base.records[r.ItemID]; ok {
		return mintdom.ErrDuplicateMint
	}
	t.records[r.ItemID] = r
	return nil
}

func (t *memTx) Weapon(_ context.Context, itemID uint64) (weapondom.Weapon, error) {
	if w, ok := t.weapons[itemID]; ok {
		return w, nil
	}
	if w, ok := t.base.weapons[itemID]; ok {
		return w, nil
	}
	return weapondom.Weapon{}, ledger.ErrNotFound
}

func (t *memTx) PutWeapon(_ context.Context, w weapondom.Weapon) error {
	t.weapons[w.ItemID] = w
	return nil
}

func (t *memTx) commit() {
	s := t.base
	if t.catalog != nil {
		s.catalog = t.catalog
	}
	if t.supply != nil {
		s.supply = *t.supply
	}
	for k, v := range t.guards {
		s.guards[k] = v
	}
	for k, v := range t.records {
		s.records[k] = v
	}
	for k, v := range t.weapons {
		s.weapons[k] = v
	}
}
