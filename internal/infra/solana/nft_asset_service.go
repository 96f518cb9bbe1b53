// internal/infra/solana/nft_asset_service.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	assetdom "weaponledger/internal/domain/asset"
	"weaponledger/internal/platform/logging"
)

// NFTAssetService は asset.IdentityPort の Solana 実装です。
// 1 item = 1 mint（decimals 0, supply 1）。
type NFTAssetService struct {
	Chain *Chain
}

var _ assetdom.IdentityPort = (*NFTAssetService)(nil)

func NewNFTAssetService(chain *Chain) *NFTAssetService {
	return &NFTAssetService{Chain: chain}
}

// createAssetInstructions:
// 1) Mint アカウント作成
// 2) Mint 初期化 (decimals = 0)
// 3) Owner の ATA 作成
// 4) NFT を 1 枚ミント
func createAssetInstructions(authority, owner, mint common.PublicKey, rent uint64) ([]types.Instruction, common.PublicKey, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, common.PublicKey{}, fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     authority,
			New:      mint,
			Owner:    common.TokenProgramID,
			Lamports: rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   0,
			Mint:       mint,
			MintAuth:   authority,
			FreezeAuth: &authority,
		}),
		createATAInstruction(authority, owner, mint, ata),
		token.MintTo(token.MintToParam{
			Mint:   mint,
			To:     ata,
			Auth:   authority,
			Amount: 1,
		}),
	}, ata, nil
}

func (s *NFTAssetService) CreateAsset(ctx context.Context, in assetdom.CreateAssetInput) (assetdom.Asset, error) {
	owner, err := parsePublicKey(in.Owner)
	if err != nil {
		return assetdom.Asset{}, err
	}
	c := s.Chain
	mint := types.NewAccount()

	rent, err := c.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return assetdom.Asset{}, fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err)
	}

	ins, ata, err := createAssetInstructions(c.Authority.PublicKey, owner, mint.PublicKey, rent)
	if err != nil {
		return assetdom.Asset{}, err
	}

	sig, err := c.send(ctx, []types.Account{mint}, ins)
	if err != nil {
		return assetdom.Asset{}, err
	}

	zap.S().Infof(
		"[nft_asset] minted item=%d category=%d mint=%s ata=%s owner=%s tx=%s",
		in.ItemID, in.CategoryID,
		logging.MaskShort(mint.PublicKey.ToBase58()),
		logging.MaskShort(ata.ToBase58()),
		logging.MaskShort(in.Owner),
		logging.MaskShort(sig),
	)
	return assetdom.Asset{Address: mint.PublicKey.ToBase58(), Owner: owner.ToBase58(), Signature: sig}, nil
}

// holder は amount=1 の token account を探します。
func (s *NFTAssetService) holder(ctx context.Context, assetAddress string) (TokenAccount, error) {
	largest, err := s.Chain.Reader.GetTokenLargestAccounts(ctx, assetAddress)
	if errors.Is(err, ErrAccountNotFound) {
		return TokenAccount{}, fmt.Errorf("%w: %s", assetdom.ErrAssetNotFound, assetAddress)
	}
	if err != nil {
		return TokenAccount{}, err
	}
	for _, la := range largest {
		if la.Amount != 1 {
			continue
		}
		acct, err := s.Chain.Reader.GetTokenAccount(ctx, la.Address)
		if err != nil {
			return TokenAccount{}, err
		}
		return acct, nil
	}
	// burned: supply 0
	return TokenAccount{}, fmt.Errorf("%w: %s", assetdom.ErrAssetNotFound, assetAddress)
}

func (s *NFTAssetService) OwnerOf(ctx context.Context, assetAddress string) (string, error) {
	acct, err := s.holder(ctx, assetAddress)
	if err != nil {
		return "", err
	}
	return acct.Owner, nil
}

func (s *NFTAssetService) ownedBy(ctx context.Context, assetAddress, owner string) (TokenAccount, types.Account, error) {
	acct, err := s.holder(ctx, assetAddress)
	if err != nil {
		return TokenAccount{}, types.Account{}, err
	}
	if acct.Owner != owner {
		return TokenAccount{}, types.Account{}, assetdom.ErrNotAssetOwner
	}
	signer, err := s.Chain.signer(ctx, owner)
	if err != nil {
		return TokenAccount{}, types.Account{}, err
	}
	return acct, signer, nil
}

// Transfer moves the single token to to's ATA, creating it when missing.
func (s *NFTAssetService) Transfer(ctx context.Context, assetAddress, from, to string) error {
	mint, err := parsePublicKey(assetAddress)
	if err != nil {
		return err
	}
	toOwner, err := parsePublicKey(to)
	if err != nil {
		return err
	}
	acct, signer, err := s.ownedBy(ctx, assetAddress, from)
	if err != nil {
		return err
	}

	toATA, ins, err := s.Chain.ensureATA(ctx, toOwner, mint)
	if err != nil {
		return err
	}
	ins = append(ins, token.Transfer(token.TransferParam{
		From:   common.PublicKeyFromString(acct.Address),
		To:     toATA,
		Auth:   signer.PublicKey,
		Amount: 1,
	}))

	sig, err := s.Chain.send(ctx, []types.Account{signer}, ins)
	if err != nil {
		return err
	}
	zap.S().Infof("[nft_asset] transfer mint=%s from=%s to=%s tx=%s",
		logging.MaskShort(assetAddress), logging.MaskShort(from), logging.MaskShort(to), logging.MaskShort(sig))
	return nil
}

func (s *NFTAssetService) Burn(ctx context.Context, assetAddress, owner string) error {
	mint, err := parsePublicKey(assetAddress)
	if err != nil {
		return err
	}
	acct, signer, err := s.ownedBy(ctx, assetAddress, owner)
	if err != nil {
		return err
	}

	sig, err := s.Chain.send(ctx, []types.Account{signer}, []types.Instruction{
		token.Burn(token.BurnParam{
			Account: common.PublicKeyFromString(acct.Address),
			Mint:    mint,
			Auth:    signer.PublicKey,
			Amount:  1,
		}),
	})
	if err != nil {
		return err
	}
	zap.S().Infof("[nft_asset] burn mint=%s owner=%s tx=%s",
		logging.MaskShort(assetAddress), logging.MaskShort(owner), logging.MaskShort(sig))
	return nil
}
