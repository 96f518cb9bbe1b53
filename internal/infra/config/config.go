// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// backend 名
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSolana    = "solana"
	BackendMetaplex  = "metaplex"
	BackendArweave   = "arweave"
	BackendGCS       = "gcs"

	AuthHeader   = "header"
	AuthFirebase = "firebase"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// ledger store: memory | firestore | postgres
	StoreBackend             string `env:"STORE_BACKEND" envDefault:"memory"`
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`
	DatabaseURL              string `env:"DATABASE_URL"`

	// asset / balance: memory | solana
	CollaboratorBackend string `env:"COLLABORATOR_BACKEND" envDefault:"memory"`
	SolanaRPCURL        string `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`
	// Secret Manager の resource name（projects/*/secrets/*/versions/*）
	SolanaMintKeySecret string `env:"SOLANA_MINT_KEY_SECRET"`
	// 各 wallet の署名鍵 secret の prefix（secretId = <prefix><walletAddress>）
	WalletSecretPrefix string `env:"SOLANA_WALLET_SECRET_PREFIX" envDefault:"wallet-"`
	GoldMintAddress    string `env:"GOLD_MINT_ADDRESS"`

	// metadata store: metaplex | arweave | gcs | memory
	MetadataBackend string `env:"METADATA_BACKEND" envDefault:"memory"`
	ArweaveBaseURL  string `env:"ARWEAVE_BASE_URL"`
	ArweaveAPIKey   string `env:"ARWEAVE_API_KEY"`
	MetadataBucket  string `env:"METADATA_BUCKET"`

	// mint policy
	SupplyCap        uint64   `env:"SUPPLY_CAP" envDefault:"200"`
	ExemptCategories []uint64 `env:"EXEMPT_CATEGORIES" envSeparator:"," envDefault:"0,4"`
	MintFee          uint64   `env:"MINT_FEE" envDefault:"0"`
	FeeRecipient     string   `env:"FEE_RECIPIENT"`

	// GOLD の mint / burn 権限を持つ wallet、metadata の creator
	MintAuthority string `env:"MINT_AUTHORITY"`

	// identity: header | firebase
	AuthMode          string `env:"AUTH_MODE" envDefault:"header"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
}

// Load は環境変数を読み込み、Validate 済みの Config を返します。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.CollaboratorBackend = strings.ToLower(strings.TrimSpace(c.CollaboratorBackend))
	c.MetadataBackend = strings.ToLower(strings.TrimSpace(c.MetadataBackend))
	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))
	c.FeeRecipient = strings.TrimSpace(c.FeeRecipient)
	c.MintAuthority = strings.TrimSpace(c.MintAuthority)
	if c.FirebaseProjectID == "" {
		c.FirebaseProjectID = c.FirestoreProjectID
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			add("STORE_BACKEND=firestore requires FIRESTORE_PROJECT_ID")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			add("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		add("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.CollaboratorBackend {
	case BackendMemory:
	case BackendSolana:
		if c.SolanaMintKeySecret == "" {
			add("COLLABORATOR_BACKEND=solana requires SOLANA_MINT_KEY_SECRET")
		}
		if c.GoldMintAddress == "" {
			add("COLLABORATOR_BACKEND=solana requires GOLD_MINT_ADDRESS")
		}
	default:
		add("unknown COLLABORATOR_BACKEND %q", c.CollaboratorBackend)
	}

	switch c.MetadataBackend {
	case BackendMemory:
	case BackendMetaplex:
		if c.CollaboratorBackend != BackendSolana {
			add("METADATA_BACKEND=metaplex requires COLLABORATOR_BACKEND=solana")
		}
	case BackendArweave:
		if c.ArweaveBaseURL == "" {
			add("METADATA_BACKEND=arweave requires ARWEAVE_BASE_URL")
		}
	case BackendGCS:
		if c.MetadataBucket == "" {
			add("METADATA_BACKEND=gcs requires METADATA_BUCKET")
		}
	default:
		add("unknown METADATA_BACKEND %q", c.MetadataBackend)
	}

	switch c.AuthMode {
	case AuthHeader:
	case AuthFirebase:
		if c.FirebaseProjectID == "" {
			add("AUTH_MODE=firebase requires FIREBASE_PROJECT_ID")
		}
	default:
		add("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.MintFee > 0 && c.FeeRecipient == "" {
		add("MINT_FEE=%d requires FEE_RECIPIENT", c.MintFee)
	}
	if c.SupplyCap == 0 {
		add("SUPPLY_CAP must be greater than zero")
	}

	return errors.Join(errs...)
}

// NeedsGCP reports whether any configured backend talks to Google Cloud.
func (c *Config) NeedsGCP() bool {
	return c.StoreBackend == BackendFirestore ||
		c.MetadataBackend == BackendGCS ||
		c.CollaboratorBackend == BackendSolana ||
		c.AuthMode == AuthFirebase
}
