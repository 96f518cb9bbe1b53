// internal/adapters/out/firestore/ledger_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
	"weaponledger/internal/platform/logging"
)

// ============================================================
// LedgerStoreFS (Firestore)
// - implements ledger.Store
//
// collections (prefix は Collections で変更可):
//   ledger/catalog          : registry header + categories
//   ledger/supply           : nextItemId + minted per category
//   mint_guards/{owner}     : guard slots
//   mint_records/{itemId}   : mint record
//   weapons/{itemId}        : stats
//
// Firestore の transaction は「全ての read の後に write」が必要なため、
// Put* は buffer に溜めて fn 成功後にまとめて書き込みます。
// MaxAttempts(1): 外部サービス呼び出しを retry で二重実行しない。
// ============================================================

var ErrLedgerStoreNotConfigured = errors.New("ledger_store_fs: not configured")

type Collections struct {
	Ledger  string
	Guards  string
	Records string
	Weapons string
}

func DefaultCollections() Collections {
	return Collections{
		Ledger:  "ledger",
		Guards:  "mint_guards",
		Records: "mint_records",
		Weapons: "weapons",
	}
}

type LedgerStoreFS struct {
	Client *firestore.Client
	Cols   Collections
}

var _ ledger.Store = (*LedgerStoreFS)(nil)

func NewLedgerStoreFS(client *firestore.Client) *LedgerStoreFS {
	return &LedgerStoreFS{Client: client, Cols: DefaultCollections()}
}

func (s *LedgerStoreFS) catalogDoc() *firestore.DocumentRef {
	return s.Client.Collection(s.Cols.Ledger).Doc("catalog")
}

func (s *LedgerStoreFS) supplyDoc() *firestore.DocumentRef {
	return s.Client.Collection(s.Cols.Ledger).Doc("supply")
}

func (s *LedgerStoreFS) guardDoc(owner string) *firestore.DocumentRef {
	return s.Client.Collection(s.Cols.Guards).Doc(strings.TrimSpace(owner))
}

func (s *LedgerStoreFS) recordDoc(itemID uint64) *firestore.DocumentRef {
	return s.Client.Collection(s.Cols.Records).Doc(strconv.FormatUint(itemID, 10))
}

func (s *LedgerStoreFS) weaponDoc(itemID uint64) *firestore.DocumentRef {
	return s.Client.Collection(s.Cols.Weapons).Doc(strconv.FormatUint(itemID, 10))
}

func (s *LedgerStoreFS) RunInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if s == nil || s.Client == nil {
		return ErrLedgerStoreNotConfigured
	}

	err := s.Client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		tx := &fsTx{store: s, ftx: ftx, pending: map[string]pendingWrite{}}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.flush()
	}, firestore.MaxAttempts(1))
	switch status.Code(err) {
	case codes.Aborted:
		zap.S().Warnf("[ledger_fs] transaction aborted (contention): %v", err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", mintdom.ErrDuplicateMint, err)
	}
	return err
}

// ------------------------------------------------------------
// fsTx
// ------------------------------------------------------------

type pendingWrite struct {
	ref    *firestore.DocumentRef
	data   map[string]any
	create bool
	value  any // decoded value for read-your-writes
}

type fsTx struct {
	store   *LedgerStoreFS
	ftx     *firestore.Transaction
	pending map[string]pendingWrite
	order   []string
}

func (t *fsTx) stage(ref *firestore.DocumentRef, data map[string]any, create bool, value any) {
	key := ref.Path
	if _, ok := t.pending[key]; !ok {
		t.order = append(t.order, key)
	}
	t.pending[key] = pendingWrite{ref: ref, data: data, create: create, value: value}
}

func (t *fsTx) staged(ref *firestore.DocumentRef) (any, bool) {
	w, ok := t.pending[ref.Path]
	if !ok {
		return nil, false
	}
	return w.value, true
}

func (t *fsTx) flush() error {
	for _, key := range t.order {
		w := t.pending[key]
		var err error
		if w.create {
			err = t.ftx.Create(w.ref, w.data)
		} else {
			err = t.ftx.Set(w.ref, w.data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// get returns (nil, nil) when the document does not exist.
func (t *fsTx) get(ref *firestore.DocumentRef) (map[string]any, error) {
	snap, err := t.ftx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	if snap == nil || !snap.Exists() {
		return nil, nil
	}
	return snap.Data(), nil
}

func (t *fsTx) Catalog(_ context.Context) (catalogdom.Catalog, error) {
	ref := t.store.catalogDoc()
	if v, ok := t.staged(ref); ok {
		return v.(catalogdom.Catalog).Clone(), nil
	}
	raw, err := t.get(ref)
	if err != nil {
		return catalogdom.Catalog{}, err
	}
	if raw == nil {
		return catalogdom.Catalog{}, ledger.ErrNotFound
	}
	return decodeCatalog(raw)
}

func (t *fsTx) PutCatalog(_ context.Context, c catalogdom.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := encodeCatalog(c)
	if err != nil {
		return err
	}
	t.stage(t.store.catalogDoc(), data, false, c.Clone())
	return nil
}

func (t *fsTx) Supply(_ context.Context) (mintdom.Supply, error) {
	ref := t.store.supplyDoc()
	if v, ok := t.staged(ref); ok {
		return v.(mintdom.Supply).Clone(), nil
	}
	raw, err := t.get(ref)
	if err != nil {
		return mintdom.Supply{}, err
	}
	if raw == nil {
		return mintdom.NewSupply(), nil
	}
	return decodeSupply(raw)
}

func (t *fsTx) PutSupply(_ context.Context, s mintdom.Supply) error {
	data, err := encodeSupply(s)
	if err != nil {
		return err
	}
	t.stage(t.store.supplyDoc(), data, false, s.Clone())
	return nil
}

func (t *fsTx) Guard(_ context.Context, owner string) (mintdom.Guard, error) {
	if strings.TrimSpace(owner) == "" {
		return mintdom.Guard{}, mintdom.ErrInvalidOwner
	}
	ref := t.store.guardDoc(owner)
	if v, ok := t.staged(ref); ok {
		return v.(mintdom.Guard), nil
	}
	raw, err := t.get(ref)
	if err != nil {
		return mintdom.Guard{}, err
	}
	if raw == nil {
		return mintdom.NewGuard(owner), nil
	}
	return decodeGuard(owner, raw), nil
}

func (t *fsTx) PutGuard(_ context.Context, g mintdom.Guard) error {
	if strings.TrimSpace(g.Owner) == "" {
		return mintdom.ErrInvalidOwner
	}
	t.stage(t.store.guardDoc(g.Owner), encodeGuard(g), false, g)
	return nil
}

func (t *fsTx) Record(_ context.Context, itemID uint64) (mintdom.Record, error) {
	ref := t.store.recordDoc(itemID)
	if v, ok := t.staged(ref); ok {
		return v.(mintdom.Record), nil
	}
	raw, err := t.get(ref)
	if err != nil {
		return mintdom.Record{}, err
	}
	if raw == nil {
		return mintdom.Record{}, ledger.ErrNotFound
	}
	return decodeRecord(raw)
}

// PutRecord uses Create so an existing record makes the commit fail.
func (t *fsTx) PutRecord(_ context.Context, r mintdom.Record) error {
	data, err := encodeRecord(r)
	if err != nil {
		return err
	}
	zap.S().Debugf("[ledger_fs] stage record item=%d owner=%s", r.ItemID, logging.MaskShort(r.Owner))
	t.stage(t.store.recordDoc(r.ItemID), data, true, r)
	return nil
}

func (t *fsTx) Weapon(_ context.Context, itemID uint64) (weapondom.Weapon, error) {
	ref := t.store.weaponDoc(itemID)
	if v, ok := t.staged(ref); ok {
		return v.(weapondom.Weapon), nil
	}
	raw, err := t.get(ref)
	if err != nil {
		return weapondom.Weapon{}, err
	}
	if raw == nil {
		return weapondom.Weapon{}, ledger.ErrNotFound
	}
	return decodeWeapon(raw)
}

func (t *fsTx) PutWeapon(_ context.Context, w weapondom.Weapon) error {
	data, err := encodeWeapon(w)
	if err != nil {
		return err
	}
	t.stage(t.store.weaponDoc(w.ItemID), data, false, w)
	return nil
}
