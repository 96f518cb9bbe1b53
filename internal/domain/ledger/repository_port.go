// internal/domain/ledger/repository_port.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	catalogdom "weaponledger/internal/domain/catalog"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

// ------------------------------------------------------
// Repository Port for the ledger state
// ------------------------------------------------------
//
// Hexagonal Architecture における「出力ポート」。
// memory / Firestore / Postgres の具体実装は adapters/out 側に置き、
// usecase からはこのインターフェースのみを参照します。

var (
	// ErrNotFound is returned by Tx reads when the document/row does not exist.
	ErrNotFound = errors.New("ledger: not found")

	// ErrCollaborator wraps any failure coming from asset / metadata / balance services.
	ErrCollaborator = errors.New("ledger: collaborator failure")
)

// Tx は 1 トランザクション内の読み書きです。
// 書き込みは staged され、RunInTx の fn が nil を返したときだけ commit されます。
type Tx interface {
	// Catalog returns ErrNotFound until InitCatalog has run.
	Catalog(ctx context.Context) (catalogdom.Catalog, error)
	PutCatalog(ctx context.Context, c catalogdom.Catalog) error

	// Supply returns mintdom.NewSupply() when nothing was minted yet.
	Supply(ctx context.Context) (mintdom.Supply, error)
	PutSupply(ctx context.Context, s mintdom.Supply) error

	// Guard returns an empty guard for an owner that never minted.
	Guard(ctx context.Context, owner string) (mintdom.Guard, error)
	PutGuard(ctx context.Context, g mintdom.Guard) error

	Record(ctx context.Context, itemID uint64) (mintdom.Record, error)
	PutRecord(ctx context.Context, r mintdom.Record) error

	Weapon(ctx context.Context, itemID uint64) (weapondom.Weapon, error)
	PutWeapon(ctx context.Context, w weapondom.Weapon) error
}

// Store は ledger 全体の唯一の入口です。
// 競合する操作は実装側で直列化されます。
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Collaborator wraps err from an external service so that callers can match
// both ErrCollaborator and the original error with errors.Is.
func Collaborator(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrCollaborator, op, err)
}
