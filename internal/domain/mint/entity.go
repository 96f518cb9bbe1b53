// internal/domain/mint/entity.go
package mint

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// GuardSlots はオーナーごとに重複ミントを管理するカテゴリスロット数です。
const GuardSlots = 5

// DefaultSupplyCap は上限対象カテゴリ 1 つあたりの最大ミント数です。
const DefaultSupplyCap uint64 = 200

// ------------------------------------------------------
// Entity: Record (ミント 1 件)
// ------------------------------------------------------
//
// - itemId       : uint64   // グローバルカウンタから採番
// - categoryId   : uint64
// - owner        : string   // ミントした wallet
// - assetAddress : string   // 外部 asset identity（Solana mint address など）
// - metadataUri  : string   // ミント時に登録した URI
// - mintedAt     : time.Time
//
// 作成後は変更・削除されません。
type Record struct {
	ItemID       uint64    `json:"itemId"`
	CategoryID   uint64    `json:"categoryId"`
	Owner        string    `json:"owner"`
	AssetAddress string    `json:"assetAddress"`
	MetadataURI  string    `json:"metadataUri"`
	MintedAt     time.Time `json:"mintedAt"`
}

// Guard は owner がどのカテゴリをミント済みかを保持します。
// 一度立てたスロットは戻しません（un-mint は存在しない）。
type Guard struct {
	Owner string           `json:"owner"`
	Slots [GuardSlots]bool `json:"slots"`
}

// Supply holds the global item counter and the per-category minted counts.
type Supply struct {
	NextItemID uint64            `json:"nextItemId"`
	Minted     map[uint64]uint64 `json:"minted"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrDuplicateMint   = errors.New("mint: owner already minted this category")
	ErrSupplyExhausted = errors.New("mint: category supply exhausted")
	ErrUnknownItem     = errors.New("mint: unknown item")
	ErrNotOwner        = errors.New("mint: requester is not the item owner")
	ErrInvalidOwner    = errors.New("mint: invalid owner")
	ErrNoGuardSlot     = errors.New("mint: category has no guard slot")
)

// ------------------------------------------------------
// Constructors
// ------------------------------------------------------

func NewGuard(owner string) Guard {
	return Guard{Owner: strings.TrimSpace(owner)}
}

func NewSupply() Supply {
	return Supply{NextItemID: 0, Minted: map[uint64]uint64{}}
}

// ------------------------------------------------------
// Guard behavior
// ------------------------------------------------------

// Has reports whether the owner already minted categoryID.
func (g Guard) Has(categoryID uint64) bool {
	if categoryID >= GuardSlots {
		return false
	}
	return g.Slots[categoryID]
}

// Set marks categoryID as minted.
func (g *Guard) Set(categoryID uint64) error {
	if categoryID >= GuardSlots {
		return fmt.Errorf("%w: category=%d slots=%d", ErrNoGuardSlot, categoryID, GuardSlots)
	}
	if g.Slots[categoryID] {
		return fmt.Errorf("%w: owner=%s category=%d", ErrDuplicateMint, g.Owner, categoryID)
	}
	g.Slots[categoryID] = true
	return nil
}

// ------------------------------------------------------
// Supply behavior
// ------------------------------------------------------

// Count returns the number of items minted in categoryID.
func (s Supply) Count(categoryID uint64) uint64 {
	if s.Minted == nil {
		return 0
	}
	return s.Minted[categoryID]
}

// Allocate は現在の NextItemID を返してからインクリメントします（post-increment）。
func (s *Supply) Allocate() uint64 {
	id := s.NextItemID
	s.NextItemID++
	return id
}

// Increment bumps the per-category counter. It is never decremented.
func (s *Supply) Increment(categoryID uint64) {
	if s.Minted == nil {
		s.Minted = map[uint64]uint64{}
	}
	s.Minted[categoryID]++
}

// Clone returns a deep copy of s.
func (s Supply) Clone() Supply {
	out := Supply{NextItemID: s.NextItemID, Minted: make(map[uint64]uint64, len(s.Minted))}
	for k, v := range s.Minted {
		out.Minted[k] = v
	}
	return out
}

// Validate は Record の必須項目をチェックします。
func (r Record) Validate() error {
	if strings.TrimSpace(r.Owner) == "" {
		return ErrInvalidOwner
	}
	if r.MintedAt.IsZero() {
		return fmt.Errorf("mint: record %d has zero mintedAt", r.ItemID)
	}
	return nil
}
