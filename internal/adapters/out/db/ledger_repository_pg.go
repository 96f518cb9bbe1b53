// internal/adapters/out/db/ledger_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	dbcommon "weaponledger/internal/adapters/out/db/common"
	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

// ledgerLockKey は pg_advisory_xact_lock 用の固定キーです。
// ledger のトランザクションは全てこのロックで直列化されます。
const ledgerLockKey int64 = 0x5745_4150_4f4e // "WEAPON"

// LedgerStorePG implements ledger.Store with PostgreSQL.
type LedgerStorePG struct {
	DB *sql.DB
}

var _ ledger.Store = (*LedgerStorePG)(nil)

func NewLedgerStorePG(db *sql.DB) *LedgerStorePG {
	return &LedgerStorePG{DB: db}
}

func (s *LedgerStorePG) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) (err error) {
	if s == nil || s.DB == nil {
		return errors.New("ledger_store_pg: not configured")
	}

	sqlTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger_store_pg: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				zap.S().Warnf("[ledger_pg] rollback failed: %v", rbErr)
			}
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return fmt.Errorf("ledger_store_pg: lock: %w", err)
	}

	if err = fn(ctx, &pgTx{run: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		if dbcommon.IsSerializationFailure(err) {
			zap.S().Warnf("[ledger_pg] commit serialization failure: %v", err)
		}
		return fmt.Errorf("ledger_store_pg: commit: %w", err)
	}
	return nil
}

// pgTx は sql.Tx 上で直接読み書きします。commit されるまで他からは見えません。
type pgTx struct {
	run dbcommon.Runner
}

// ------------------------------------------------------------
// catalog
// ------------------------------------------------------------

func (t *pgTx) Catalog(ctx context.Context) (catalogdom.Catalog, error) {
	const q = `SELECT name, symbol, next_category_id::text, created_at FROM catalog WHERE id = 1`
	var (
		c    catalogdom.Catalog
		next string
	)
	if err := t.run.QueryRowContext(ctx, q).Scan(&c.Name, &c.Symbol, &next, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalogdom.Catalog{}, ledger.ErrNotFound
		}
		return catalogdom.Catalog{}, err
	}
	n, err := dbcommon.ParseNumeric(next)
	if err != nil {
		return catalogdom.Catalog{}, err
	}
	c.NextCategoryID = n
	c.CreatedAt = c.CreatedAt.UTC()

	rows, err := t.run.QueryContext(ctx, `SELECT id::text, name, uri_template FROM categories ORDER BY id`)
	if err != nil {
		return catalogdom.Catalog{}, err
	}
	defer rows.Close()

	c.Categories = []catalogdom.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return catalogdom.Catalog{}, err
		}
		c.Categories = append(c.Categories, cat)
	}
	if err := rows.Err(); err != nil {
		return catalogdom.Catalog{}, err
	}
	if err := c.Validate(); err != nil {
		return catalogdom.Catalog{}, err
	}
	return c, nil
}

func scanCategory(s dbcommon.RowScanner) (catalogdom.Category, error) {
	var (
		cat catalogdom.Category
		id  string
	)
	if err := s.Scan(&id, &cat.Name, &cat.URITemplate); err != nil {
		return catalogdom.Category{}, err
	}
	n, err := dbcommon.ParseNumeric(id)
	if err != nil {
		return catalogdom.Category{}, err
	}
	cat.ID = n
	return cat, nil
}

func (t *pgTx) PutCatalog(ctx context.Context, c catalogdom.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	const qHeader = `
INSERT INTO catalog (id, name, symbol, next_category_id, created_at)
VALUES (1, $1, $2, $3::numeric, $4)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  symbol = EXCLUDED.symbol,
  next_category_id = EXCLUDED.next_category_id`
	if _, err := t.run.ExecContext(ctx, qHeader, c.Name, c.Symbol, dbcommon.Numeric(c.NextCategoryID), c.CreatedAt.UTC()); err != nil {
		return err
	}

	// categories は削除されないので upsert のみ
	const qCat = `
INSERT INTO categories (id, name, uri_template)
VALUES ($1::numeric, $2, $3)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  uri_template = EXCLUDED.uri_template`
	for _, cat := range c.Categories {
		if _, err := t.run.ExecContext(ctx, qCat, dbcommon.Numeric(cat.ID), cat.Name, cat.URITemplate); err != nil {
			return err
		}
	}
	return nil
}

// ------------------------------------------------------------
// supply / guards
// ------------------------------------------------------------

func (t *pgTx) Supply(ctx context.Context) (mintdom.Supply, error) {
	s := mintdom.NewSupply()

	var next string
	err := t.run.QueryRowContext(ctx, `SELECT next_item_id::text FROM supply WHERE id = 1`).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s, nil
	case err != nil:
		return mintdom.Supply{}, err
	}
	if s.NextItemID, err = dbcommon.ParseNumeric(next); err != nil {
		return mintdom.Supply{}, err
	}

	rows, err := t.run.QueryContext(ctx, `SELECT category_id::text, minted::text FROM category_supply`)
	if err != nil {
		return mintdom.Supply{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cat, minted string
		if err := rows.Scan(&cat, &minted); err != nil {
			return mintdom.Supply{}, err
		}
		c, err := dbcommon.ParseNumeric(cat)
		if err != nil {
			return mintdom.Supply{}, err
		}
		m, err := dbcommon.ParseNumeric(minted)
		if err != nil {
			return mintdom.Supply{}, err
		}
		s.Minted[c] = m
	}
	return s, rows.Err()
}

func (t *pgTx) PutSupply(ctx context.Context, s mintdom.Supply) error {
	const q = `
INSERT INTO supply (id, next_item_id) VALUES (1, $1::numeric)
ON CONFLICT (id) DO UPDATE SET next_item_id = EXCLUDED.next_item_id`
	if _, err := t.run.ExecContext(ctx, q, dbcommon.Numeric(s.NextItemID)); err != nil {
		return err
	}
	const qCat = `
INSERT INTO category_supply (category_id, minted) VALUES ($1::numeric, $2::numeric)
ON CONFLICT (category_id) DO UPDATE SET minted = EXCLUDED.minted`
	for cat, n := range s.Minted {
		if _, err := t.run.ExecContext(ctx, qCat, dbcommon.Numeric(cat), dbcommon.Numeric(n)); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) Guard(ctx context.Context, owner string) (mintdom.Guard, error) {
	g := mintdom.NewGuard(owner)
	if g.Owner == "" {
		return mintdom.Guard{}, mintdom.ErrInvalidOwner
	}
	rows, err := t.run.QueryContext(ctx, `SELECT category_id FROM mint_guards WHERE owner = $1`, g.Owner)
	if err != nil {
		return mintdom.Guard{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return mintdom.Guard{}, err
		}
		if slot >= 0 && slot < mintdom.GuardSlots {
			g.Slots[slot] = true
		}
	}
	return g, rows.Err()
}

// PutGuard inserts one row per set slot. Slots are never cleared.
func (t *pgTx) PutGuard(ctx context.Context, g mintdom.Guard) error {
	owner := strings.TrimSpace(g.Owner)
	if owner == "" {
		return mintdom.ErrInvalidOwner
	}
	const q = `INSERT INTO mint_guards (owner, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for slot, set := range g.Slots {
		if !set {
			continue
		}
		if _, err := t.run.ExecContext(ctx, q, owner, slot); err != nil {
			return err
		}
	}
	return nil
}

// ------------------------------------------------------------
// records / weapons
// ------------------------------------------------------------

func (t *pgTx) Record(ctx context.Context, itemID uint64) (mintdom.Record, error) {
	const q = `
SELECT item_id::text, category_id::text, owner, asset_address, metadata_uri, minted_at
FROM mint_records
WHERE item_id = $1::numeric`
	var (
		r         mintdom.Record
		item, cat string
		mintedAt  time.Time
	)
	err := t.run.QueryRowContext(ctx, q, dbcommon.Numeric(itemID)).
		Scan(&item, &cat, &r.Owner, &r.AssetAddress, &r.MetadataURI, &mintedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mintdom.Record{}, ledger.ErrNotFound
		}
		return mintdom.Record{}, err
	}
	if r.ItemID, err = dbcommon.ParseNumeric(item); err != nil {
		return mintdom.Record{}, err
	}
	if r.CategoryID, err = dbcommon.ParseNumeric(cat); err != nil {
		return mintdom.Record{}, err
	}
	r.MintedAt = mintedAt.UTC()
	return r, nil
}

func (t *pgTx) PutRecord(ctx context.Context, r mintdom.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	const q = `
INSERT INTO mint_records (item_id, category_id, owner, asset_address, metadata_uri, minted_at)
VALUES ($1::numeric, $2::numeric, $3, $4, $5, $6)`
	_, err := t.run.ExecContext(ctx, q,
		dbcommon.Numeric(r.ItemID), dbcommon.Numeric(r.CategoryID),
		r.Owner, r.AssetAddress, r.MetadataURI, r.MintedAt.UTC(),
	)
	if dbcommon.IsUniqueViolation(err) {
		return fmt.Errorf("%w: item=%d", mintdom.ErrDuplicateMint, r.ItemID)
	}
	return err
}

func (t *pgTx) Weapon(ctx context.Context, itemID uint64) (weapondom.Weapon, error) {
	const q = `
SELECT level::text, hp::text, damage::text, mana::text, mp_regen::text, atk_speed::text, created_at, updated_at
FROM weapons
WHERE item_id = $1::numeric`
	var (
		raw       [weapondom.StatCount]string
		createdAt time.Time
		updatedAt time.Time
	)
	err := t.run.QueryRowContext(ctx, q, dbcommon.Numeric(itemID)).
		Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weapondom.Weapon{}, ledger.ErrNotFound
		}
		return weapondom.Weapon{}, err
	}
	vals := make([]uint64, weapondom.StatCount)
	for i, s := range raw {
		if vals[i], err = dbcommon.ParseNumeric(s); err != nil {
			return weapondom.Weapon{}, err
		}
	}
	stats, err := weapondom.StatsFromSlice(vals)
	if err != nil {
		return weapondom.Weapon{}, err
	}
	return weapondom.Weapon{
		ItemID:    itemID,
		Stats:     stats,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func (t *pgTx) PutWeapon(ctx context.Context, w weapondom.Weapon) error {
	const q = `
INSERT INTO weapons (item_id, level, hp, damage, mana, mp_regen, atk_speed, created_at, updated_at)
VALUES ($1::numeric, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9)
ON CONFLICT (item_id) DO UPDATE SET
  level = EXCLUDED.level,
  hp = EXCLUDED.hp,
  damage = EXCLUDED.damage,
  mana = EXCLUDED.mana,
  mp_regen = EXCLUDED.mp_regen,
  atk_speed = EXCLUDED.atk_speed,
  updated_at = EXCLUDED.updated_at`
	v := w.Stats.Slice()
	_, err := t.run.ExecContext(ctx, q,
		dbcommon.Numeric(w.ItemID),
		dbcommon.Numeric(v[0]), dbcommon.Numeric(v[1]), dbcommon.Numeric(v[2]),
		dbcommon.Numeric(v[3]), dbcommon.Numeric(v[4]), dbcommon.Numeric(v[5]),
		w.CreatedAt.UTC(), w.UpdatedAt.UTC(),
	)
	return err
}
