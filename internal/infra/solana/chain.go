// internal/infra/solana/chain.go
package solana

import (
	"context"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/types"

	balancedom "weaponledger/internal/domain/balance"
)

// SignerProvider は wallet address から署名鍵を返します。
type SignerProvider interface {
	Signer(ctx context.Context, walletAddress string) (types.Account, error)
}

var _ SignerProvider = (*WalletSecretProvider)(nil)

// Chain は NFT / Metaplex / GOLD の各サービスが共有する送信系です。
// Authority が fee payer を兼ねます。
type Chain struct {
	RPC       *client.Client
	Reader    *JSONRPCClient
	Authority types.Account
	Signers   SignerProvider
}

func NewChain(rpcURL string, authority types.Account, signers SignerProvider) *Chain {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &Chain{
		RPC:       client.NewClient(u),
		Reader:    NewJSONRPCClient(u),
		Authority: authority,
		Signers:   signers,
	}
}

// AuthorityAddress は fee payer / mint authority の base58 です。
func (c *Chain) AuthorityAddress() string {
	return c.Authority.PublicKey.ToBase58()
}

// parsePublicKey rejects anything that does not round-trip through base58.
func parsePublicKey(s string) (common.PublicKey, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return common.PublicKey{}, fmt.Errorf("%w: empty address", balancedom.ErrInvalidAccount)
	}
	pk := common.PublicKeyFromString(t)
	if pk.ToBase58() != t {
		return common.PublicKey{}, fmt.Errorf("%w: %q is not a base58 public key", balancedom.ErrInvalidAccount, t)
	}
	return pk, nil
}

// signer は owner の鍵を返します。authority 自身なら Secret を引きません。
func (c *Chain) signer(ctx context.Context, owner string) (types.Account, error) {
	if owner == c.AuthorityAddress() {
		return c.Authority, nil
	}
	if c.Signers == nil {
		return types.Account{}, ErrWalletSecretNotConfigured
	}
	return c.Signers.Signer(ctx, owner)
}

// ensureATA returns owner's associated token account for mint plus a create
// instruction when the account does not exist yet (funded by the authority).
func (c *Chain) ensureATA(ctx context.Context, owner, mint common.PublicKey) (common.PublicKey, []types.Instruction, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, nil, fmt.Errorf("FindAssociatedTokenAddress: %w", err)
	}
	exists, err := c.Reader.AccountExists(ctx, ata.ToBase58())
	if err != nil {
		return common.PublicKey{}, nil, fmt.Errorf("check ATA: %w", err)
	}
	if exists {
		return ata, nil, nil
	}
	return ata, []types.Instruction{createATAInstruction(c.Authority.PublicKey, owner, mint, ata)}, nil
}

func createATAInstruction(funder, owner, mint, ata common.PublicKey) types.Instruction {
	return associated_token_account.CreateAssociatedTokenAccount(
		associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 funder,
			Owner:                  owner,
			Mint:                   mint,
			AssociatedTokenAccount: ata,
		},
	)
}

// send signs with the authority plus extra and submits the transaction.
func (c *Chain) send(ctx context.Context, extra []types.Account, ins []types.Instruction) (string, error) {
	if c == nil || c.RPC == nil {
		return "", fmt.Errorf("solana: chain not configured")
	}

	signers := []types.Account{c.Authority}
	for _, a := range extra {
		if a.PublicKey == c.Authority.PublicKey {
			continue
		}
		signers = append(signers, a)
	}

	recent, err := c.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        c.Authority.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    ins,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := c.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("SendTransaction: %w", err)
	}
	return sig, nil
}
