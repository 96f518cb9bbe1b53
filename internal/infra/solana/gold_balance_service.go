// internal/infra/solana/gold_balance_service.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	balancedom "weaponledger/internal/domain/balance"
	"weaponledger/internal/platform/logging"
)

// GoldBalanceService は balance.Port の SPL token 実装です。
// GOLD mint の mint authority は Chain.Authority。
//   - Debit   : owner の ATA から burn（owner 署名）
//   - Credit  : owner の ATA へ mint_to（ATA が無ければ作成）
//   - Transfer: from の ATA → to の ATA（to の ATA が無ければ作成）
type GoldBalanceService struct {
	Chain *Chain
	Mint  common.PublicKey
}

var _ balancedom.Port = (*GoldBalanceService)(nil)

func NewGoldBalanceService(chain *Chain, mintAddress string) (*GoldBalanceService, error) {
	mint, err := parsePublicKey(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("GOLD_MINT_ADDRESS: %w", err)
	}
	return &GoldBalanceService{Chain: chain, Mint: mint}, nil
}

func (g *GoldBalanceService) ata(owner string) (common.PublicKey, common.PublicKey, error) {
	pk, err := parsePublicKey(owner)
	if err != nil {
		return common.PublicKey{}, common.PublicKey{}, err
	}
	ata, _, err := common.FindAssociatedTokenAddress(pk, g.Mint)
	if err != nil {
		return common.PublicKey{}, common.PublicKey{}, fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	return pk, ata, nil
}

// BalanceOf は ATA が無ければ 0 を返します。
func (g *GoldBalanceService) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	_, ata, err := g.ata(owner)
	if err != nil {
		return 0, err
	}
	n, err := g.Chain.Reader.GetTokenAccountBalance(ctx, ata.ToBase58())
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	return n, err
}

func (g *GoldBalanceService) requireBalance(ctx context.Context, owner string, amount uint64) error {
	have, err := g.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if have < amount {
		return fmt.Errorf("%w: owner=%s balance=%d amount=%d",
			balancedom.ErrInsufficientBalance, logging.MaskShort(owner), have, amount)
	}
	return nil
}

func (g *GoldBalanceService) Debit(ctx context.Context, owner string, amount uint64) error {
	_, ata, err := g.ata(owner)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if err := g.requireBalance(ctx, owner, amount); err != nil {
		return err
	}
	signer, err := g.Chain.signer(ctx, owner)
	if err != nil {
		return err
	}

	sig, err := g.Chain.send(ctx, []types.Account{signer}, []types.Instruction{
		token.Burn(token.BurnParam{
			Account: ata,
			Mint:    g.Mint,
			Auth:    signer.PublicKey,
			Amount:  amount,
		}),
	})
	if err != nil {
		return err
	}
	zap.S().Infof("[gold] burn owner=%s amount=%d tx=%s", logging.MaskShort(owner), amount, logging.MaskShort(sig))
	return nil
}

func (g *GoldBalanceService) Credit(ctx context.Context, owner string, amount uint64) error {
	pk, err := parsePublicKey(owner)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	ata, ins, err := g.Chain.ensureATA(ctx, pk, g.Mint)
	if err != nil {
		return err
	}
	ins = append(ins, token.MintTo(token.MintToParam{
		Mint:   g.Mint,
		To:     ata,
		Auth:   g.Chain.Authority.PublicKey,
		Amount: amount,
	}))

	sig, err := g.Chain.send(ctx, nil, ins)
	if err != nil {
		return err
	}
	zap.S().Infof("[gold] mint_to owner=%s amount=%d createdATA=%t tx=%s",
		logging.MaskShort(owner), amount, len(ins) > 1, logging.MaskShort(sig))
	return nil
}

func (g *GoldBalanceService) Transfer(ctx context.Context, from, to string, amount uint64) error {
	_, fromATA, err := g.ata(from)
	if err != nil {
		return err
	}
	toOwner, err := parsePublicKey(to)
	if err != nil {
		return err
	}
	if err := g.requireBalance(ctx, from, amount); err != nil {
		return err
	}
	if from == to || amount == 0 {
		return nil
	}
	signer, err := g.Chain.signer(ctx, from)
	if err != nil {
		return err
	}

	toATA, ins, err := g.Chain.ensureATA(ctx, toOwner, g.Mint)
	if err != nil {
		return err
	}
	ins = append(ins, token.Transfer(token.TransferParam{
		From:   fromATA,
		To:     toATA,
		Auth:   signer.PublicKey,
		Amount: amount,
	}))

	sig, err := g.Chain.send(ctx, []types.Account{signer}, ins)
	if err != nil {
		return err
	}
	zap.S().Infof("[gold] transfer from=%s to=%s amount=%d tx=%s",
		logging.MaskShort(from), logging.MaskShort(to), amount, logging.MaskShort(sig))
	return nil
}
