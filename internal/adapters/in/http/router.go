// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"weaponledger/internal/adapters/in/http/handlers"
	"weaponledger/internal/adapters/in/http/middleware"
	catalogapp "weaponledger/internal/application/catalog"
	goldapp "weaponledger/internal/application/gold"
	metadataapp "weaponledger/internal/application/metadata"
	mintapp "weaponledger/internal/application/mint"
	upgradeapp "weaponledger/internal/application/upgrade"
)

// RouterDeps collects the usecases injected from the DI container.
type RouterDeps struct {
	CatalogUC *catalogapp.Usecase
	MintUC    *mintapp.Usecase
	UpgradeUC *upgradeapp.Usecase
	GoldUC    *goldapp.Usecase
	Resolver  *metadataapp.Resolver

	// nil なら X-Wallet-Address ヘッダ（dev mode）
	Verifier       middleware.TokenVerifier
	AllowedOrigins []string
}

// NewRouter sets up HTTP routing for all endpoints.
//
// チェーン順: RequestID → AccessLog → CORS → Recover → Identity → handler
// （panic 時の 500 にも CORS ヘッダが付くよう Recover は CORS の内側）
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.Recover)

	// Health check (always on, no identity)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	identity := &middleware.Identity{Verifier: deps.Verifier}
	r.Group(func(r chi.Router) {
		r.Use(identity.Handler)

		// 以降、Usecase が存在するものだけマウントする
		if deps.CatalogUC != nil {
			handlers.NewCatalogHandler(deps.CatalogUC).Register(r)
		}
		if deps.MintUC != nil {
			handlers.NewItemHandler(deps.MintUC, deps.UpgradeUC, deps.Resolver).Register(r)
		}
		if deps.GoldUC != nil {
			handlers.NewGoldHandler(deps.GoldUC).Register(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"route not found"}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"method_not_allowed","message":"method not allowed"}`))
	})

	return r
}
