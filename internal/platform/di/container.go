// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	httpin "weaponledger/internal/adapters/in/http"
	"weaponledger/internal/adapters/in/http/middleware"
	"weaponledger/internal/adapters/out/db"
	fsadapter "weaponledger/internal/adapters/out/firestore"
	"weaponledger/internal/adapters/out/gcs"
	"weaponledger/internal/adapters/out/memory"
	catalogapp "weaponledger/internal/application/catalog"
	goldapp "weaponledger/internal/application/gold"
	metadataapp "weaponledger/internal/application/metadata"
	mintapp "weaponledger/internal/application/mint"
	upgradeapp "weaponledger/internal/application/upgrade"
	assetdom "weaponledger/internal/domain/asset"
	balancedom "weaponledger/internal/domain/balance"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	"weaponledger/internal/infra/arweave"
	"weaponledger/internal/infra/config"
	"weaponledger/internal/infra/database"
	firestoreinfra "weaponledger/internal/infra/firestore"
	solanainfra "weaponledger/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束です。
type Container struct {
	Router http.Handler

	CatalogUC *catalogapp.Usecase
	MintUC    *mintapp.Usecase
	UpgradeUC *upgradeapp.Usecase
	GoldUC    *goldapp.Usecase
	Resolver  *metadataapp.Resolver

	cleanupFn []func()
}

// collaborators は ledger の外側（asset / balance / metadata）です。
type collaborators struct {
	assets    assetdom.IdentityPort
	balances  balancedom.Port
	metadata  assetdom.MetadataStorePort
	chain     *solanainfra.Chain
	authority string
}

// Close は逆順にリソースを閉じます。
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.cleanupFn) - 1; i >= 0; i-- {
		c.cleanupFn[i]()
	}
	c.cleanupFn = nil
}

func (c *Container) onClose(name string, fn func() error) {
	c.cleanupFn = append(c.cleanupFn, func() {
		if err := fn(); err != nil {
			zap.S().Warnf("[di] close %s: %v", name, err)
		}
	})
}

// Build は cfg に従って store / collaborator / usecase / router を組み立てます。
// 途中で失敗した場合は、それまでに開いたリソースを閉じてから error を返します。
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("di: config is nil")
	}
	c := &Container{}

	// ------------------------------------------------------------
	// 1. ledger store (memory / firestore / postgres)
	// ------------------------------------------------------------
	store, err := c.buildStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	// ------------------------------------------------------------
	// 2. asset / balance / metadata
	// ------------------------------------------------------------
	collab, err := c.buildCollaborators(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	// ------------------------------------------------------------
	// 3. Usecase
	// ------------------------------------------------------------
	policy := mintdom.NewPolicy(cfg.SupplyCap, cfg.ExemptCategories, cfg.MintFee, cfg.FeeRecipient)

	c.CatalogUC = catalogapp.NewUsecase(store)
	c.MintUC = mintapp.NewUsecase(store, collab.assets, collab.metadata, collab.balances, policy)
	c.MintUC.SetCreator(collab.authority)
	c.UpgradeUC = upgradeapp.NewUsecase(store, collab.balances)
	c.GoldUC = goldapp.NewUsecase(collab.balances, collab.authority)
	c.Resolver = metadataapp.NewResolver(store, collab.assets)

	// ------------------------------------------------------------
	// 4. Inbound HTTP
	// ------------------------------------------------------------
	deps := httpin.RouterDeps{
		CatalogUC:      c.CatalogUC,
		MintUC:         c.MintUC,
		UpgradeUC:      c.UpgradeUC,
		GoldUC:         c.GoldUC,
		Resolver:       c.Resolver,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.AuthMode == config.AuthFirebase {
		verifier, err := c.buildVerifier(ctx, cfg)
		if err != nil {
			c.Close()
			return nil, err
		}
		// typed nil を interface に入れない
		deps.Verifier = verifier
	}
	c.Router = httpin.NewRouter(deps)

	zap.S().Infof(
		"[di] built store=%s collaborators=%s metadata=%s auth=%s authority=%s",
		cfg.StoreBackend, cfg.CollaboratorBackend, cfg.MetadataBackend, cfg.AuthMode, collab.authority,
	)
	return c, nil
}

func (c *Container) buildStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		c.onClose("firestore", fs.Close)
		return fsadapter.NewLedgerStoreFS(fs.Client), nil

	case config.BackendPostgres:
		conn, err := database.NewConnection(ctx, cfg.DatabaseURL, database.PoolConfig{})
		if err != nil {
			return nil, err
		}
		c.onClose("postgres", conn.Close)
		if err := db.Migrate(ctx, conn.Client); err != nil {
			return nil, fmt.Errorf("di: migrate: %w", err)
		}
		return db.NewLedgerStorePG(conn.Client), nil

	default:
		zap.S().Warnf("[di] STORE_BACKEND=memory: ledger state is lost on restart")
		return memory.NewStore(), nil
	}
}

func (c *Container) buildCollaborators(ctx context.Context, cfg *config.Config) (collaborators, error) {
	var out collaborators

	switch cfg.CollaboratorBackend {
	case config.BackendSolana:
		src, err := solanainfra.NewSecretManagerSource(ctx)
		if err != nil {
			return out, err
		}
		c.onClose("secretmanager", src.Close)

		authority, err := solanainfra.LoadMintAuthority(ctx, src, cfg.SolanaMintKeySecret)
		if err != nil {
			return out, err
		}
		signers, err := solanainfra.NewWalletSecretProvider(
			src,
			solanainfra.ProjectFromSecretName(cfg.SolanaMintKeySecret),
			cfg.WalletSecretPrefix,
		)
		if err != nil {
			return out, err
		}

		chain := solanainfra.NewChain(cfg.SolanaRPCURL, authority, signers)
		gold, err := solanainfra.NewGoldBalanceService(chain, cfg.GoldMintAddress)
		if err != nil {
			return out, err
		}
		out.chain = chain
		out.assets = solanainfra.NewNFTAssetService(chain)
		out.balances = gold
		out.authority = chain.AuthorityAddress()

	default:
		assets := memory.NewAssets()
		out.assets = assets
		out.balances = memory.NewBalances()
		// memory の metadata は asset と同じ台帳に置く
		out.metadata = assets
	}

	if a := strings.TrimSpace(cfg.MintAuthority); a != "" {
		out.authority = a
	}
	if out.authority == "" {
		zap.S().Warnf("[di] MINT_AUTHORITY is empty: GOLD mint/burn will be rejected")
	}

	switch cfg.MetadataBackend {
	case config.BackendMetaplex:
		if out.chain == nil {
			return out, fmt.Errorf("di: METADATA_BACKEND=metaplex requires COLLABORATOR_BACKEND=solana")
		}
		out.metadata = solanainfra.NewMetaplexMetadataStore(out.chain)

	case config.BackendArweave:
		out.metadata = arweave.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey)

	case config.BackendGCS:
		sc, err := storage.NewClient(ctx, clientOptions(cfg)...)
		if err != nil {
			return out, fmt.Errorf("di: storage.NewClient: %w", err)
		}
		c.onClose("storage", sc.Close)
		out.metadata = gcs.NewMetadataRepositoryGCS(sc, cfg.MetadataBucket)

	default:
		if out.metadata == nil {
			out.metadata = memory.NewAssets()
		}
	}

	return out, nil
}

func (c *Container) buildVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("di: firebase.NewApp: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("di: firebase app.Auth: %w", err)
	}
	zap.S().Infof("[di] firebase auth enabled (project: %s)", cfg.FirebaseProjectID)
	return client, nil
}

// clientOptions は GCP client 共通の option です（credentials file が無ければ ADC）。
func clientOptions(cfg *config.Config) []option.ClientOption {
	if f := strings.TrimSpace(cfg.FirestoreCredentialsFile); f != "" {
		return []option.ClientOption{option.WithCredentialsFile(f)}
	}
	return nil
}
