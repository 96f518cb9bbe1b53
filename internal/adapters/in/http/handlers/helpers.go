// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"weaponledger/internal/adapters/in/http/middleware"
	goldapp "weaponledger/internal/application/gold"
	assetdom "weaponledger/internal/domain/asset"
	balancedom "weaponledger/internal/domain/balance"
	catalogdom "weaponledger/internal/domain/catalog"
	"weaponledger/internal/domain/ledger"
	mintdom "weaponledger/internal/domain/mint"
	weapondom "weaponledger/internal/domain/weapon"
)

const maxBodyBytes = 1 << 20

// errorBody is {"error": "<code>", "message": "..."}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errBadRequest は JSON / path パラメータの不正です。
var errBadRequest = errors.New("bad request")

var errUnauthenticated = errors.New("caller identity required")

// statusOf maps the error taxonomy onto HTTP. 順序に意味あり:
// Collaborator は下位の原因（ErrAssetNotFound など）より優先します。
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, catalogdom.ErrArityMismatch),
		errors.Is(err, goldapp.ErrInvalidAmount),
		errors.Is(err, weapondom.ErrInvalidStats),
		errors.Is(err, mintdom.ErrInvalidOwner),
		errors.Is(err, balancedom.ErrInvalidAccount):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, balancedom.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, ledger.ErrCollaborator):
		return http.StatusBadGateway, "collaborator"
	case errors.Is(err, mintdom.ErrNotOwner),
		errors.Is(err, goldapp.ErrUnauthorized),
		errors.Is(err, assetdom.ErrNotAssetOwner):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, catalogdom.ErrInvalidCategory),
		errors.Is(err, mintdom.ErrUnknownItem):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, mintdom.ErrDuplicateMint),
		errors.Is(err, catalogdom.ErrAlreadyInitialized):
		return http.StatusConflict, "conflict"
	case errors.Is(err, mintdom.ErrSupplyExhausted):
		return http.StatusGone, "supply_exhausted"
	case errors.Is(err, catalogdom.ErrNotInitialized):
		return http.StatusPreconditionFailed, "not_initialized"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := statusOf(err)
	msg := err.Error()
	if code >= 500 {
		zap.S().Errorf("[http] %s %s failed reqId=%s: %v", r.Method, r.URL.Path, middleware.RequestIDFrom(r.Context()), err)
		if code == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	writeJSON(w, code, errorBody{Error: kind, Message: msg})
}

// decodeJSON は未知フィールドを拒否します。
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an unsigned integer, got %q", errBadRequest, name, raw)
	}
	return n, nil
}

func caller(r *http.Request) (string, error) {
	w, ok := middleware.CurrentWallet(r)
	if !ok {
		return "", errUnauthenticated
	}
	return w, nil
}

// requireField は空文字の必須フィールドを拒否します。
func requireField(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", errBadRequest, name)
	}
	return nil
}
