// internal/infra/solana/mint_authority.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrSecretNotFound = errors.New("solana: secret not found")

// SecretSource は Secret Version のフルパスから payload を返します。
type SecretSource interface {
	Secret(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerSource は GCP Secret Manager 実装です。
type SecretManagerSource struct {
	Client *secretmanager.Client
}

var _ SecretSource = (*SecretManagerSource)(nil)

func NewSecretManagerSource(ctx context.Context) (*SecretManagerSource, error) {
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &SecretManagerSource{Client: c}, nil
}

func (s *SecretManagerSource) Secret(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return nil, fmt.Errorf("AccessSecretVersion: %w", err)
	}
	if resp == nil || resp.Payload == nil || len(resp.Payload.Data) == 0 {
		return nil, fmt.Errorf("%w: %s (empty payload)", ErrSecretNotFound, name)
	}
	return resp.Payload.Data, nil
}

func (s *SecretManagerSource) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// LoadMintAuthority は secretName（"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"）
// から solana-keygen の keypair(JSON配列 [u8;64]) を復元します。
// この鍵が fee payer / NFT mint authority / GOLD mint authority を兼ねます。
func LoadMintAuthority(ctx context.Context, src SecretSource, secretName string) (types.Account, error) {
	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return types.Account{}, fmt.Errorf("SOLANA_MINT_KEY_SECRET not set")
	}

	data, err := src.Secret(ctx, secretName)
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

	// ★ マスターウォレット（ミント権限）との接続確認ログ
	zap.S().Infof(
		"[solana-mint] loaded mint authority from Secret Manager: secret=%s pubkey=%s",
		secretName,
		acc.PublicKey.ToBase58(),
	)
	return acc, nil
}

// ProjectFromSecretName は "projects/<p>/secrets/..." から <p> を取り出します。
func ProjectFromSecretName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), "/")
	if len(parts) >= 2 && parts[0] == "projects" {
		return parts[1]
	}
	return ""
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil && len(keyBytes) == ed25519.PrivateKeySize {
		return keyBytes, nil
	}

	// フォールバック: [int,int,...] の形式
	var ints []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}
