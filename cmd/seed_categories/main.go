// cmd/seed_categories/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/infra/config"
	"weaponledger/internal/platform/di"
	"weaponledger/internal/platform/logging"
)

// seedFile は categories.yaml の形です。
//
//	name: Upgrade Weapon
//	symbol: UW
//	categories:
//	  - name: sword
//	    uri: https://example.com/sword
type seedFile struct {
	Name       string         `yaml:"name"`
	Symbol     string         `yaml:"symbol"`
	Categories []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	Name string `yaml:"name"`
	URI  string `yaml:"uri"`
}

func main() {
	path := flag.String("file", "categories.yaml", "seed yaml path")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "[seed_categories] %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flush, err := logging.Init(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer flush()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	seed, err := parseSeed(raw)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cont, err := di.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer cont.Close()

	// 既に初期化済みなら catalog はそのまま使う
	if _, err := cont.CatalogUC.InitCatalog(ctx, seed.Name, seed.Symbol); err != nil {
		if !errors.Is(err, catalogdom.ErrAlreadyInitialized) {
			return err
		}
		zap.S().Infof("[seed_categories] catalog already initialized; appending categories")
	}

	uris, names := seed.columns()
	ids, err := cont.CatalogUC.AddCategories(ctx, uris, names)
	if err != nil {
		return err
	}
	zap.S().Infof("[seed_categories] added %d categories: ids=%v", len(ids), ids)
	return nil
}

func parseSeed(raw []byte) (seedFile, error) {
	var s seedFile
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return seedFile{}, fmt.Errorf("parse seed yaml: %w", err)
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Symbol = strings.TrimSpace(s.Symbol)
	if s.Name == "" || s.Symbol == "" {
		return seedFile{}, errors.New("seed yaml: name and symbol are required")
	}
	if len(s.Categories) == 0 {
		return seedFile{}, errors.New("seed yaml: no categories")
	}
	return s, nil
}

func (s seedFile) columns() (uris, names []string) {
	for _, c := range s.Categories {
		uris = append(uris, strings.TrimSpace(c.URI))
		names = append(names, strings.TrimSpace(c.Name))
	}
	return uris, names
}
