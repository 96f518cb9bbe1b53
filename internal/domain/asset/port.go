// internal/domain/asset/port.go
package asset

import (
	"context"
	"errors"
)

// ========================================
// 入出力（契約のみ）
// ========================================

type CreateAssetInput struct {
	ItemID     uint64 `json:"itemId"`
	CategoryID uint64 `json:"categoryId"`
	Owner      string `json:"owner"` // wallet address (base58)
}

// Asset is a uniquely addressable, ownable identity created off-ledger.
type Asset struct {
	Address   string `json:"address"`   // Solana mint (base58)
	Owner     string `json:"owner"`     // wallet address
	Signature string `json:"signature"` // tx signature（memory 実装では空）
}

type Creator struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Share    uint8  `json:"share"`
}

// Metadata は name / uri / creator share を 1 組にしたものです。
type Metadata struct {
	ItemID               uint64    `json:"itemId"`
	AssetAddress         string    `json:"assetAddress"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	SellerFeeBasisPoints uint16    `json:"sellerFeeBasisPoints"`
	Creators             []Creator `json:"creators"`
	IsMutable            bool      `json:"isMutable"`
}

type MetadataRef struct {
	Location  string `json:"location"`
	Signature string `json:"signature,omitempty"`
}

var (
	ErrAssetNotFound = errors.New("asset: not found")
	ErrNotAssetOwner = errors.New("asset: signer does not own the asset")
)

// ========================================
// Ports
// ========================================

// IdentityPort creates assets and answers ownership questions about them.
type IdentityPort interface {
	CreateAsset(ctx context.Context, in CreateAssetInput) (Asset, error)
	OwnerOf(ctx context.Context, assetAddress string) (string, error)
	Transfer(ctx context.Context, assetAddress, from, to string) error
	Burn(ctx context.Context, assetAddress, owner string) error
}

// MetadataStorePort は 1 ミントにつき 1 回だけ呼ばれます。
type MetadataStorePort interface {
	StoreMetadata(ctx context.Context, m Metadata) (MetadataRef, error)
}
