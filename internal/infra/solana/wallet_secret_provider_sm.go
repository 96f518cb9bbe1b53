// internal/infra/solana/wallet_secret_provider_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"

	"weaponledger/internal/platform/logging"
)

var (
	ErrWalletSecretNotConfigured = errors.New("wallet_secret_provider: not configured")
	ErrWalletSecretEmptyWallet   = errors.New("wallet_secret_provider: walletAddress is empty")
	ErrWalletSecretMismatch      = errors.New("wallet_secret_provider: key does not match wallet")
)

// WalletSecretProvider は wallet の署名鍵を Secret Manager から取り出します。
// secretId = prefix + walletAddress
type WalletSecretProvider struct {
	Source         SecretSource
	ProjectID      string
	SecretIDPrefix string
}

func NewWalletSecretProvider(src SecretSource, projectID, prefix string) (*WalletSecretProvider, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" || src == nil {
		return nil, fmt.Errorf("%w: projectID is empty", ErrWalletSecretNotConfigured)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "wallet-"
	}
	return &WalletSecretProvider{Source: src, ProjectID: pid, SecretIDPrefix: prefix}, nil
}

func (p *WalletSecretProvider) secretName(wallet string) string {
	return fmt.Sprintf("projects/%s/secrets/%s%s/versions/latest", p.ProjectID, p.SecretIDPrefix, wallet)
}

// Signer returns the keypair for walletAddress; the key must derive to that address.
func (p *WalletSecretProvider) Signer(ctx context.Context, walletAddress string) (types.Account, error) {
	if p == nil || p.Source == nil {
		return types.Account{}, ErrWalletSecretNotConfigured
	}
	w := strings.TrimSpace(walletAddress)
	if w == "" {
		return types.Account{}, ErrWalletSecretEmptyWallet
	}

	data, err := p.Source.Secret(ctx, p.secretName(w))
	if err != nil {
		return types.Account{}, err
	}
	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("AccountFromBytes: %w", err)
	}
	if acc.PublicKey.ToBase58() != w {
		return types.Account{}, fmt.Errorf("%w: wallet=%s key=%s", ErrWalletSecretMismatch, logging.MaskShort(w), logging.MaskShort(acc.PublicKey.ToBase58()))
	}
	return acc, nil
}
