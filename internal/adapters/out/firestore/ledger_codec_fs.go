// internal/adapters/out/firestore/ledger_codec_fs.go
package firestore

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	catalogdom "weaponledger/internal/domain/catalog"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

// Firestore の整数は int64 のみ。
// - id / counter は int64 で保存（MaxInt64 超過はエラー）
// - stats は uint64 全域を使うため 10 進文字列で保存

var ErrLedgerDecode = errors.New("ledger_store_fs: malformed document")

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("ledger_store_fs: value %d exceeds int64", v)
	}
	return int64(v), nil
}

func asUint64(raw map[string]any, key string) (uint64, error) {
	switch v := raw[key].(type) {
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrLedgerDecode, key)
		}
		return uint64(v), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q", ErrLedgerDecode, key, v)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrLedgerDecode, key, v)
	}
}

func asString(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func asTime(raw map[string]any, key string) time.Time {
	if v, ok := raw[key].(time.Time); ok {
		return v.UTC()
	}
	return time.Time{}
}

// ------------------------------------------------------------
// catalog
// ------------------------------------------------------------

func encodeCatalog(c catalogdom.Catalog) (map[string]any, error) {
	next, err := toInt64(c.NextCategoryID)
	if err != nil {
		return nil, err
	}
	cats := make([]any, 0, len(c.Categories))
	for _, cat := range c.Categories {
		id, err := toInt64(cat.ID)
		if err != nil {
			return nil, err
		}
		cats = append(cats, map[string]any{
			"id":          id,
			"name":        cat.Name,
			"uriTemplate": cat.URITemplate,
		})
	}
	return map[string]any{
		"name":           c.Name,
		"symbol":         c.Symbol,
		"nextCategoryId": next,
		"categories":     cats,
		"createdAt":      c.CreatedAt,
	}, nil
}

func decodeCatalog(raw map[string]any) (catalogdom.Catalog, error) {
	next, err := asUint64(raw, "nextCategoryId")
	if err != nil {
		return catalogdom.Catalog{}, err
	}
	c := catalogdom.Catalog{
		Name:           asString(raw, "name"),
		Symbol:         asString(raw, "symbol"),
		NextCategoryID: next,
		Categories:     []catalogdom.Category{},
		CreatedAt:      asTime(raw, "createdAt"),
	}
	items, _ := raw["categories"].([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return catalogdom.Catalog{}, fmt.Errorf("%w: category entry has type %T", ErrLedgerDecode, it)
		}
		id, err := asUint64(m, "id")
		if err != nil {
			return catalogdom.Catalog{}, err
		}
		// uriTemplate は trim しない（保存された値をそのまま返す）
		tmpl, _ := m["uriTemplate"].(string)
		name, _ := m["name"].(string)
		c.Categories = append(c.Categories, catalogdom.Category{ID: id, Name: name, URITemplate: tmpl})
	}
	if err := c.Validate(); err != nil {
		return catalogdom.Catalog{}, err
	}
	return c, nil
}

// ------------------------------------------------------------
// supply / guard
// ------------------------------------------------------------

func encodeSupply(s mintdom.Supply) (map[string]any, error) {
	next, err := toInt64(s.NextItemID)
	if err != nil {
		return nil, err
	}
	minted := make(map[string]any, len(s.Minted))
	for cat, n := range s.Minted {
		v, err := toInt64(n)
		if err != nil {
			return nil, err
		}
		minted[strconv.FormatUint(cat, 10)] = v
	}
	return map[string]any{"nextItemId": next, "minted": minted}, nil
}

func decodeSupply(raw map[string]any) (mintdom.Supply, error) {
	next, err := asUint64(raw, "nextItemId")
	if err != nil {
		return mintdom.Supply{}, err
	}
	s := mintdom.Supply{NextItemID: next, Minted: map[uint64]uint64{}}
	minted, _ := raw["minted"].(map[string]any)
	for k := range minted {
		cat, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return mintdom.Supply{}, fmt.Errorf("%w: minted key %q", ErrLedgerDecode, k)
		}
		n, err := asUint64(minted, k)
		if err != nil {
			return mintdom.Supply{}, err
		}
		s.Minted[cat] = n
	}
	return s, nil
}

func encodeGuard(g mintdom.Guard) map[string]any {
	slots := make([]any, 0, mintdom.GuardSlots)
	for _, b := range g.Slots {
		slots = append(slots, b)
	}
	return map[string]any{"owner": g.Owner, "slots": slots}
}

func decodeGuard(owner string, raw map[string]any) mintdom.Guard {
	g := mintdom.NewGuard(owner)
	slots, _ := raw["slots"].([]any)
	for i, v := range slots {
		if i >= mintdom.GuardSlots {
			break
		}
		if b, ok := v.(bool); ok {
			g.Slots[i] = b
		}
	}
	return g
}

// ------------------------------------------------------------
// record / weapon
// ------------------------------------------------------------

func encodeRecord(r mintdom.Record) (map[string]any, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	item, err := toInt64(r.ItemID)
	if err != nil {
		return nil, err
	}
	cat, err := toInt64(r.CategoryID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"itemId":       item,
		"categoryId":   cat,
		"owner":        r.Owner,
		"assetAddress": r.AssetAddress,
		"metadataUri":  r.MetadataURI,
		"mintedAt":     r.MintedAt.UTC(),
	}, nil
}

func decodeRecord(raw map[string]any) (mintdom.Record, error) {
	item, err := asUint64(raw, "itemId")
	if err != nil {
		return mintdom.Record{}, err
	}
	cat, err := asUint64(raw, "categoryId")
	if err != nil {
		return mintdom.Record{}, err
	}
	return mintdom.Record{
		ItemID:       item,
		CategoryID:   cat,
		Owner:        asString(raw, "owner"),
		AssetAddress: asString(raw, "assetAddress"),
		MetadataURI:  asString(raw, "metadataUri"),
		MintedAt:     asTime(raw, "mintedAt"),
	}, nil
}

var statKeys = [weapondom.StatCount]string{"level", "hp", "damage", "mana", "mpRegen", "atkSpeed"}

func encodeWeapon(w weapondom.Weapon) (map[string]any, error) {
	item, err := toInt64(w.ItemID)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"itemId":    item,
		"createdAt": w.CreatedAt.UTC(),
		"updatedAt": w.UpdatedAt.UTC(),
	}
	for i, v := range w.Stats.Slice() {
		out[statKeys[i]] = strconv.FormatUint(v, 10)
	}
	return out, nil
}

func decodeWeapon(raw map[string]any) (weapondom.Weapon, error) {
	item, err := asUint64(raw, "itemId")
	if err != nil {
		return weapondom.Weapon{}, err
	}
	vals := make([]uint64, weapondom.StatCount)
	for i, k := range statKeys {
		v, err := asUint64(raw, k)
		if err != nil {
			return weapondom.Weapon{}, err
		}
		vals[i] = v
	}
	stats, err := weapondom.StatsFromSlice(vals)
	if err != nil {
		return weapondom.Weapon{}, err
	}
	return weapondom.Weapon{
		ItemID:    item,
		Stats:     stats,
		CreatedAt: asTime(raw, "createdAt"),
		UpdatedAt: asTime(raw, "updatedAt"),
	}, nil
}
