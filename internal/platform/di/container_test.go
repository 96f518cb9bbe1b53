package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaponledger/internal/infra/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreBackend:        config.BackendMemory,
		CollaboratorBackend: config.BackendMemory,
		MetadataBackend:     config.BackendMemory,
		AuthMode:            config.AuthHeader,
		SupplyCap:           200,
		ExemptCategories:    []uint64{0, 4},
		MintAuthority:       "authority",
		AllowedOrigins:      []string{"*"},
	}
}

func TestBuildMemory(t *testing.T) {
	c, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Router)
	assert.Equal(t, "authority", c.GoldUC.Info().Authority)

	rec := httptest.NewRecorder()
	c.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/catalog", strings.NewReader(`{"name":"Upgrade Weapon","symbol":"UW"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestBuildNilConfig(t *testing.T) {
	_, err := Build(context.Background(), nil)
	assert.Error(t, err)
}

func TestBuildMetaplexWithoutChain(t *testing.T) {
	cfg := memoryConfig()
	cfg.MetadataBackend = config.BackendMetaplex
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "metaplex")
}

func TestCloseRunsInReverse(t *testing.T) {
	var order []string
	c := &Container{}
	c.onClose("a", func() error { order = append(order, "a"); return nil })
	c.onClose("b", func() error { order = append(order, "b"); return nil })
	c.Close()
	c.Close()
	assert.Equal(t, []string{"b", "a"}, order)
}
