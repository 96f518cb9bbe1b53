// internal/adapters/out/db/schema.go
package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema は ledger 用の DDL です（冪等）。
// uint64 の値は全て NUMERIC(20,0) で保持します。
const Schema = `
CREATE TABLE IF NOT EXISTS catalog (
  id               SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  name             TEXT NOT NULL,
  symbol           TEXT NOT NULL,
  next_category_id NUMERIC(20,0) NOT NULL,
  created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
  id           NUMERIC(20,0) PRIMARY KEY,
  name         TEXT NOT NULL,
  uri_template TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS supply (
  id           SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  next_item_id NUMERIC(20,0) NOT NULL
);

CREATE TABLE IF NOT EXISTS category_supply (
  category_id NUMERIC(20,0) PRIMARY KEY,
  minted      NUMERIC(20,0) NOT NULL
);

CREATE TABLE IF NOT EXISTS mint_guards (
  owner       TEXT NOT NULL,
  category_id SMALLINT NOT NULL,
  PRIMARY KEY (owner, category_id)
);

CREATE TABLE IF NOT EXISTS mint_records (
  item_id       NUMERIC(20,0) PRIMARY KEY,
  category_id   NUMERIC(20,0) NOT NULL,
  owner         TEXT NOT NULL,
  asset_address TEXT NOT NULL,
  metadata_uri  TEXT NOT NULL,
  minted_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS weapons (
  item_id    NUMERIC(20,0) PRIMARY KEY,
  level      NUMERIC(20,0) NOT NULL DEFAULT 0,
  hp         NUMERIC(20,0) NOT NULL DEFAULT 0,
  damage     NUMERIC(20,0) NOT NULL DEFAULT 0,
  mana       NUMERIC(20,0) NOT NULL DEFAULT 0,
  mp_regen   NUMERIC(20,0) NOT NULL DEFAULT 0,
  atk_speed  NUMERIC(20,0) NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ledger_store_pg: migrate: %w", err)
	}
	return nil
}
