// internal/domain/asset/metadata_json.go
package asset

import (
	"encoding/json"
	"strconv"
)

// OffchainMetadata は Metaplex の token metadata standard に沿った JSON です。
// Arweave / GCS に置く場合はこの形でアップロードします。
type OffchainMetadata struct {
	Name                 string             `json:"name"`
	Symbol               string             `json:"symbol"`
	ExternalURL          string             `json:"external_url"`
	SellerFeeBasisPoints uint16             `json:"seller_fee_basis_points"`
	Attributes           []OffchainTrait    `json:"attributes"`
	Properties           OffchainProperties `json:"properties"`
}

type OffchainTrait struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type OffchainProperties struct {
	Category string          `json:"category"`
	Creators []OffchainShare `json:"creators"`
}

type OffchainShare struct {
	Address string `json:"address"`
	Share   uint8  `json:"share"`
}

// Offchain converts m to the uploaded JSON form.
func (m Metadata) Offchain() OffchainMetadata {
	creators := make([]OffchainShare, 0, len(m.Creators))
	for _, c := range m.Creators {
		creators = append(creators, OffchainShare{Address: c.Address, Share: c.Share})
	}
	return OffchainMetadata{
		Name:                 m.Name,
		Symbol:               m.Symbol,
		ExternalURL:          m.URI,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		Attributes: []OffchainTrait{
			{TraitType: "item_id", Value: strconv.FormatUint(m.ItemID, 10)},
			{TraitType: "asset", Value: m.AssetAddress},
		},
		Properties: OffchainProperties{Category: "weapon", Creators: creators},
	}
}

// OffchainJSON は Offchain() を JSON にエンコードします。
func (m Metadata) OffchainJSON() ([]byte, error) {
	return json.Marshal(m.Offchain())
}
