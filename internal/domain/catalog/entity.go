// internal/domain/catalog/entity.go
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ------------------------------------------------------
// Entity: Category (カテゴリ 1 件)
// ------------------------------------------------------
//
// - id          : uint64  // 0 から連番。再利用・削除なし
// - name        : string
// - uriTemplate : string  // メタデータ URI のベース
type Category struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	URITemplate string `json:"uriTemplate"`
}

// ItemURI は category の template に item id の suffix を付けた URI を返します。
// template は常に現在の値を使うため、SetCategoryURI 後の解決結果も変わります。
func (c Category) ItemURI(itemID uint64) string {
	return strings.TrimRight(c.URITemplate, "/") + "/" + strconv.FormatUint(itemID, 10)
}

// ------------------------------------------------------
// Aggregate: Catalog（カテゴリレジストリ）
// ------------------------------------------------------
//
// NextCategoryID は単調増加し、常に len(Categories) と一致します。
type Catalog struct {
	Name           string     `json:"name"`
	Symbol         string     `json:"symbol"`
	NextCategoryID uint64     `json:"nextCategoryId"`
	Categories     []Category `json:"categories"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidCategory    = errors.New("catalog: invalid category")
	ErrArityMismatch      = errors.New("catalog: uris and names length mismatch")
	ErrNotInitialized     = errors.New("catalog: not initialized")
	ErrAlreadyInitialized = errors.New("catalog: already initialized")
	ErrCorrupted          = errors.New("catalog: registry is inconsistent")
)

// New は空のレジストリを作成します。name / symbol は検証せずそのまま保持します。
func New(name, symbol string, createdAt time.Time) Catalog {
	return Catalog{
		Name:           strings.TrimSpace(name),
		Symbol:         strings.TrimSpace(symbol),
		NextCategoryID: 0,
		Categories:     []Category{},
		CreatedAt:      createdAt.UTC(),
	}
}

// ------------------------------------------------------
// Behavior
// ------------------------------------------------------

// AddCategory appends a category with id = NextCategoryID and returns that id.
func (c *Catalog) AddCategory(uriTemplate, name string) uint64 {
	id := c.NextCategoryID
	c.Categories = append(c.Categories, Category{
		ID:          id,
		Name:        name,
		URITemplate: uriTemplate,
	})
	c.NextCategoryID++
	return id
}

// AddCategories は uris[i] / names[i] のペアを順番に追加します。
// 長さが異なる場合は 1 件も追加せず ErrArityMismatch を返します。
func (c *Catalog) AddCategories(uriTemplates, names []string) ([]uint64, error) {
	if len(uriTemplates) != len(names) {
		return nil, fmt.Errorf("%w: uris=%d names=%d", ErrArityMismatch, len(uriTemplates), len(names))
	}
	ids := make([]uint64, 0, len(names))
	for i := range uriTemplates {
		ids = append(ids, c.AddCategory(uriTemplates[i], names[i]))
	}
	return ids, nil
}

// SetCategoryURI replaces the template in place.
func (c *Catalog) SetCategoryURI(id uint64, uriTemplate string) error {
	idx, err := c.index(id)
	if err != nil {
		return err
	}
	c.Categories[idx].URITemplate = uriTemplate
	return nil
}

// Get は id のカテゴリを返します。範囲外は ErrInvalidCategory。
func (c Catalog) Get(id uint64) (Category, error) {
	idx, err := c.index(id)
	if err != nil {
		return Category{}, err
	}
	return c.Categories[idx], nil
}

// Has reports whether id refers to a registered category.
func (c Catalog) Has(id uint64) bool {
	_, err := c.index(id)
	return err == nil
}

// Clone returns a deep copy so staged changes never alias committed state.
func (c Catalog) Clone() Catalog {
	out := c
	out.Categories = make([]Category, len(c.Categories))
	copy(out.Categories, c.Categories)
	return out
}

// Validate はエンティティの一貫性チェックを公開します。
func (c Catalog) Validate() error {
	if uint64(len(c.Categories)) != c.NextCategoryID {
		return fmt.Errorf("%w: nextCategoryId=%d entries=%d", ErrCorrupted, c.NextCategoryID, len(c.Categories))
	}
	for i, cat := range c.Categories {
		if cat.ID != uint64(i) {
			return fmt.Errorf("%w: entry %d has id %d", ErrCorrupted, i, cat.ID)
		}
	}
	return nil
}

func (c Catalog) index(id uint64) (int, error) {
	if id >= c.NextCategoryID || id >= uint64(len(c.Categories)) {
		return 0, fmt.Errorf("%w: id=%d next=%d", ErrInvalidCategory, id, c.NextCategoryID)
	}
	// ids equal insertion order; the search is a guard against a corrupted store
	if c.Categories[id].ID == id {
		return int(id), nil
	}
	for i, cat := range c.Categories {
		if cat.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: id=%d", ErrInvalidCategory, id)
}
