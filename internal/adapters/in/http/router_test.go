package httpin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaponledger/internal/adapters/in/http/middleware"
	"weaponledger/internal/adapters/out/memory"
	catalogapp "weaponledger/internal/application/catalog"
	goldapp "weaponledger/internal/application/gold"
	metadataapp "weaponledger/internal/application/metadata"
	mintapp "weaponledger/internal/application/mint"
	upgradeapp "weaponledger/internal/application/upgrade"
	mintdom "weaponledger/internal/domain/mint"
)

const authority = "authority"

type env struct {
	t        *testing.T
	handler  http.Handler
	balances *memory.Balances
}

func newEnv(t *testing.T, verifier middleware.TokenVerifier) *env {
	t.Helper()
	store := memory.NewStore()
	assets := memory.NewAssets()
	balances := memory.NewBalances()

	mintUC := mintapp.NewUsecase(store, assets, assets, balances, mintdom.DefaultPolicy())
	mintUC.SetCreator(authority)

	h := NewRouter(RouterDeps{
		CatalogUC: catalogapp.NewUsecase(store),
		MintUC:    mintUC,
		UpgradeUC: upgradeapp.NewUsecase(store, balances),
		GoldUC:    goldapp.NewUsecase(balances, authority),
		Resolver:  metadataapp.NewResolver(store, assets),
		Verifier:  verifier,
	})
	return &env{t: t, handler: h, balances: balances}
}

// do sends body as JSON; wallet != "" sets the dev identity header.
func (e *env) do(method, path, wallet, body string) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if wallet != "" {
		req.Header.Set(middleware.HeaderWallet, wallet)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func (e *env) seed() {
	e.t.Helper()
	rec, _ := e.do(http.MethodPost, "/catalog", "", `{"name":"Upgrade Weapon","symbol":"UW"}`)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, body := e.do(http.MethodPost, "/categories/batch", "",
		`{"uris":["https://meta.example/base","https://meta.example/sword/"],"names":["Base","Sword"]}`)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(e.t, []any{float64(0), float64(1)}, body["ids"])
}

func TestHealthzAndRequestID(t *testing.T) {
	e := newEnv(t, nil)
	rec, _ := e.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", rr.Header().Get(middleware.HeaderRequestID))
}

func TestCatalogRoutes(t *testing.T) {
	e := newEnv(t, nil)

	rec, body := e.do(http.MethodGet, "/catalog", "", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "not_initialized", body["error"])

	e.seed()

	rec, _ = e.do(http.MethodPost, "/catalog", "", `{"name":"again","symbol":"X"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = e.do(http.MethodGet, "/catalog", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["categoryCount"])

	rec, body = e.do(http.MethodPost, "/categories", "", `{"uri":"https://meta.example/axe","name":"Axe"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(2), body["id"])

	rec, body = e.do(http.MethodPost, "/categories/batch", "", `{"uris":["a"],"names":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["error"])

	rec, body = e.do(http.MethodPut, "/categories/1/uri", "", `{"uri":"https://cdn.example/sword"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.example/sword", body["uriTemplate"])

	rec, _ = e.do(http.MethodPut, "/categories/9/uri", "", `{"uri":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = e.do(http.MethodGet, "/categories/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(http.MethodGet, "/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["categories"], 3)
}

func TestMintResolveTransfer(t *testing.T) {
	e := newEnv(t, nil)
	e.seed()

	rec, _ := e.do(http.MethodPost, "/items", "", `{"categoryId":1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(http.MethodPost, "/items", "alice", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := e.do(http.MethodPost, "/items", "alice", `{"categoryId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(0), body["itemId"])
	assert.Equal(t, "https://meta.example/sword/0", body["metadataUri"])

	rec, body = e.do(http.MethodPost, "/items", "alice", `{"categoryId":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", body["error"])

	rec, _ = e.do(http.MethodPost, "/items", "alice", `{"categoryId":7}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = e.do(http.MethodGet, "/items/0/uri", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://meta.example/sword/0", body["uri"])

	rec, _ = e.do(http.MethodGet, "/items/0/uri", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(http.MethodGet, "/items/42/uri", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = e.do(http.MethodGet, "/categories/1/supply", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["minted"])
	assert.Equal(t, true, body["capped"])

	rec, _ = e.do(http.MethodPost, "/items/0/transfer", "alice", `{"to":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = e.do(http.MethodGet, "/items/0/uri", "bob", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(http.MethodPost, "/items/0/burn", "alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(http.MethodPost, "/items/0/burn", "bob", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpgradeAndGold(t *testing.T) {
	e := newEnv(t, nil)
	e.seed()
	rec, _ := e.do(http.MethodPost, "/items", "alice", `{"categoryId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	stats := `{"stats":[1,100,50,0,0,0]}`

	rec, body := e.do(http.MethodPost, "/items/0/upgrade/quote", "", stats)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1700), body["cost"])

	rec, body = e.do(http.MethodPost, "/items/0/upgrade", "alice", stats)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_balance", body["error"])

	rec, _ = e.do(http.MethodPost, "/gold/mint", "alice", `{"to":"alice","amount":1700}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = e.do(http.MethodPost, "/gold/mint", authority, `{"to":"alice","amount":1700}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1700), body["balance"])

	rec, _ = e.do(http.MethodPost, "/gold/mint", authority, `{"to":"alice","amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(http.MethodPost, "/items/0/upgrade", "alice", stats)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1700), body["cost"])

	rec, body = e.do(http.MethodGet, "/items/0/weapon", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(100), body["stats"].(map[string]any)["hp"])

	rec, body = e.do(http.MethodGet, "/gold/balance", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["balance"])

	rec, _ = e.do(http.MethodPost, "/items/0/upgrade", "alice", `{"stats":[1,2,3]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(http.MethodPost, "/items/9/upgrade/quote", "", stats)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = e.do(http.MethodGet, "/gold", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GOLD", body["symbol"])

	e.balances.Set("bob", 5)
	rec, _ = e.do(http.MethodPost, "/gold/transfer", "bob", `{"to":"alice","amount":6}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	rec, _ = e.do(http.MethodPost, "/gold/burn", authority, `{"owner":"bob","amount":5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBadJSONAndUnknownRoute(t *testing.T) {
	e := newEnv(t, nil)
	rec, body := e.do(http.MethodPost, "/catalog", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["error"])

	rec, _ = e.do(http.MethodPost, "/catalog", "", `{"name":"a","symbol":"b","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

type fakeVerifier map[string]*fbauth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	tok, ok := f[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return tok, nil
}

func TestFirebaseIdentity(t *testing.T) {
	e := newEnv(t, fakeVerifier{
		"tok-claim": {UID: "uid-1", Claims: map[string]interface{}{"wallet": "alice"}},
		"tok-uid":   {UID: "bob"},
	})
	e.seed()

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"categoryId":1}`))
		req.Header.Set("Authorization", "Bearer "+token)
		// header identity is ignored when a verifier is configured
		req.Header.Set(middleware.HeaderWallet, "mallory")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send("tok-claim")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"owner":"alice"`)

	rec = send("tok-uid")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"owner":"bob"`)

	rec = send("forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// header だけでは caller にならない
	rec2, _ := e.do(http.MethodPost, "/items", "mallory", `{"categoryId":0}`)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}
