// internal/adapters/out/gcs/metadata_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	assetdom "weaponledger/internal/domain/asset"
)

// MetadataRepositoryGCS は item のメタデータ JSON を GCS に 1 object ずつ置きます。
// - object name: <Prefix>/<itemId>.json
// - custom metadata に itemId / asset を載せる
// - 既存 object は上書きしない（DoesNotExist 条件付き書き込み）
type MetadataRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

var _ assetdom.MetadataStorePort = (*MetadataRepositoryGCS)(nil)

const defaultMetadataPrefix = "metadata"

func NewMetadataRepositoryGCS(client *storage.Client, bucket string) *MetadataRepositoryGCS {
	return &MetadataRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Prefix: defaultMetadataPrefix,
	}
}

func (r *MetadataRepositoryGCS) objectName(itemID uint64) string {
	p := strings.Trim(strings.TrimSpace(r.Prefix), "/")
	name := strconv.FormatUint(itemID, 10) + ".json"
	if p == "" {
		return name
	}
	return p + "/" + name
}

// PublicURL builds https://storage.googleapis.com/<bucket>/<object>.
func PublicURL(bucket, objectPath string) string {
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", strings.TrimSpace(bucket), obj)
}

func (r *MetadataRepositoryGCS) StoreMetadata(ctx context.Context, m assetdom.Metadata) (assetdom.MetadataRef, error) {
	if r == nil || r.Client == nil {
		return assetdom.MetadataRef{}, errors.New("MetadataRepositoryGCS: nil storage client")
	}
	if r.Bucket == "" {
		return assetdom.MetadataRef{}, errors.New("MetadataRepositoryGCS: bucket is empty")
	}

	body, err := m.OffchainJSON()
	if err != nil {
		return assetdom.MetadataRef{}, fmt.Errorf("encode metadata: %w", err)
	}

	name := r.objectName(m.ItemID)
	obj := r.Client.Bucket(r.Bucket).Object(name).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=300"
	w.Metadata = map[string]string{
		"itemId": strconv.FormatUint(m.ItemID, 10),
		"asset":  m.AssetAddress,
	}

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return assetdom.MetadataRef{}, fmt.Errorf("write gs://%s/%s: %w", r.Bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return assetdom.MetadataRef{}, fmt.Errorf("close gs://%s/%s: %w", r.Bucket, name, err)
	}

	url := PublicURL(r.Bucket, name)
	zap.S().Infof("[gcs] metadata stored item=%d url=%s", m.ItemID, url)
	return assetdom.MetadataRef{Location: url}, nil
}
