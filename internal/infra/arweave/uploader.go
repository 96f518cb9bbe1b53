// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	assetdom "weaponledger/internal/domain/asset"
)

// Irys Uploader (Cloud Run) などの HTTP API を叩く実装
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://irys-uploader-xxxx.asia-northeast1.run.app"
	apiKey  string // 認証が必要な場合に使用
}

var _ assetdom.MetadataStorePort = (*HTTPUploader)(nil)

// NewHTTPUploader は Arweave/Irys 用の HTTP uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// WithHTTPClient replaces the underlying client (tests).
func (u *HTTPUploader) WithHTTPClient(c *http.Client) *HTTPUploader {
	if c != nil {
		u.client = c
	}
	return u
}

// StoreMetadata は asset.MetadataStorePort 実装です。
// Metaplex 形式の JSON をアップロードし、返ってきた URI を Location にします。
func (u *HTTPUploader) StoreMetadata(ctx context.Context, m assetdom.Metadata) (assetdom.MetadataRef, error) {
	body, err := m.OffchainJSON()
	if err != nil {
		return assetdom.MetadataRef{}, fmt.Errorf("encode metadata: %w", err)
	}
	uri, err := u.UploadJSON(ctx, body)
	if err != nil {
		return assetdom.MetadataRef{}, err
	}
	return assetdom.MetadataRef{Location: uri}, nil
}

// UploadJSON は metadataJSON を Irys Uploader 経由で Arweave にアップロードし、その URL を返します。
func (u *HTTPUploader) UploadJSON(ctx context.Context, metadataJSON []byte) (string, error) {
	if len(metadataJSON) == 0 {
		return "", fmt.Errorf("metadataJSON is empty")
	}
	if u.baseURL == "" {
		return "", fmt.Errorf("baseURL is empty; arweave endpoint not configured")
	}

	zap.S().Debugf("[arweave] UploadJSON start baseURL=%s len=%d", u.baseURL, len(metadataJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload/json", bytes.NewReader(metadataJSON))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		zap.S().Warnf("[arweave] http request FAILED err=%v", err)
		return "", fmt.Errorf("upload metadata to arweave: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.S().Warnf("[arweave] upload metadata FAILED status=%d body=%s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("upload metadata failed: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if strings.TrimSpace(res.URI) == "" {
		return "", fmt.Errorf("upload response has empty uri")
	}

	zap.S().Infof("[arweave] UploadJSON OK uri=%s", res.URI)
	return res.URI, nil
}
