// internal/infra/solana/metaplex_metadata_store.go
package solana

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	assetdom "weaponledger/internal/domain/asset"
	"weaponledger/internal/platform/logging"
)

// Metaplex の DataV2 の上限（bytes）
const (
	maxNameLen   = 32
	maxSymbolLen = 10
	maxURILen    = 200
)

// MetaplexMetadataStore は asset.MetadataStorePort の Solana 実装です。
// Metadata アカウント(V3) と MasterEdition(V3) を 1 tx で作成します。
type MetaplexMetadataStore struct {
	Chain *Chain
}

var _ assetdom.MetadataStorePort = (*MetaplexMetadataStore)(nil)

func NewMetaplexMetadataStore(chain *Chain) *MetaplexMetadataStore {
	return &MetaplexMetadataStore{Chain: chain}
}

func validateDataV2(m assetdom.Metadata) error {
	switch {
	case len(m.Name) > maxNameLen:
		return fmt.Errorf("metaplex: name longer than %d bytes: %q", maxNameLen, m.Name)
	case len(m.Symbol) > maxSymbolLen:
		return fmt.Errorf("metaplex: symbol longer than %d bytes: %q", maxSymbolLen, m.Symbol)
	case len(m.URI) > maxURILen:
		return fmt.Errorf("metaplex: uri longer than %d bytes", maxURILen)
	}
	return nil
}

// metadataInstructions:
// 1) Metaplex Metadata アカウント作成
// 2) MasterEdition v3 作成（MaxSupply=0: print 不可の 1 枚もの）
func metadataInstructions(authority, mint common.PublicKey, m assetdom.Metadata) ([]types.Instruction, common.PublicKey, error) {
	if err := validateDataV2(m); err != nil {
		return nil, common.PublicKey{}, err
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return nil, common.PublicKey{}, fmt.Errorf("GetTokenMetaPubkey: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint)
	if err != nil {
		return nil, common.PublicKey{}, fmt.Errorf("GetMasterEdition: %w", err)
	}

	var creators *[]token_metadata.Creator
	if len(m.Creators) > 0 {
		cs := make([]token_metadata.Creator, 0, len(m.Creators))
		for _, c := range m.Creators {
			addr, err := parsePublicKey(c.Address)
			if err != nil {
				return nil, common.PublicKey{}, err
			}
			// verified は署名者（authority）のみ
			cs = append(cs, token_metadata.Creator{
				Address:  addr,
				Verified: addr == authority,
				Share:    c.Share,
			})
		}
		creators = &cs
	}

	maxSupply := uint64(0)
	return []types.Instruction{
		token_metadata.CreateMetadataAccountV3(
			token_metadata.CreateMetadataAccountV3Param{
				Metadata:                metadataPubkey,
				Mint:                    mint,
				MintAuthority:           authority,
				UpdateAuthority:         authority,
				Payer:                   authority,
				UpdateAuthorityIsSigner: true,
				IsMutable:               m.IsMutable,
				Data: token_metadata.DataV2{
					Name:                 m.Name,
					Symbol:               m.Symbol,
					Uri:                  m.URI,
					SellerFeeBasisPoints: m.SellerFeeBasisPoints,
					Creators:             creators,
				},
				CollectionDetails: nil,
			},
		),
		token_metadata.CreateMasterEditionV3(
			token_metadata.CreateMasterEditionParam{
				Edition:         masterEditionPubkey,
				Mint:            mint,
				UpdateAuthority: authority,
				MintAuthority:   authority,
				Metadata:        metadataPubkey,
				Payer:           authority,
				MaxSupply:       &maxSupply,
			},
		),
	}, metadataPubkey, nil
}

// StoreMetadata の Location は metadata PDA（base58）です。
func (s *MetaplexMetadataStore) StoreMetadata(ctx context.Context, m assetdom.Metadata) (assetdom.MetadataRef, error) {
	mint, err := parsePublicKey(m.AssetAddress)
	if err != nil {
		return assetdom.MetadataRef{}, err
	}
	ins, metadataPubkey, err := metadataInstructions(s.Chain.Authority.PublicKey, mint, m)
	if err != nil {
		return assetdom.MetadataRef{}, err
	}

	sig, err := s.Chain.send(ctx, nil, ins)
	if err != nil {
		return assetdom.MetadataRef{}, err
	}

	zap.S().Infof("[metaplex] metadata item=%d mint=%s metadata=%s tx=%s",
		m.ItemID,
		logging.MaskShort(m.AssetAddress),
		logging.MaskShort(metadataPubkey.ToBase58()),
		logging.MaskShort(sig),
	)
	return assetdom.MetadataRef{Location: metadataPubkey.ToBase58(), Signature: sig}, nil
}
