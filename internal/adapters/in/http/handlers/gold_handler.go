// internal/adapters/in/http/handlers/gold_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	goldapp "weaponledger/internal/application/gold"
)

type GoldHandler struct {
	uc *goldapp.Usecase
}

func NewGoldHandler(uc *goldapp.Usecase) *GoldHandler {
	return &GoldHandler{uc: uc}
}

func (h *GoldHandler) Register(r chi.Router) {
	r.Route("/gold", func(r chi.Router) {
		r.Get("/", h.info)
		r.Get("/balance", h.balance)
		r.Post("/mint", h.mint)
		r.Post("/transfer", h.transfer)
		r.Post("/burn", h.burn)
	})
}

type goldAmountRequest struct {
	To     string `json:"to,omitempty"`
	Owner  string `json:"owner,omitempty"`
	Amount uint64 `json:"amount"`
}

type balanceResponse struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

// GET /gold
func (h *GoldHandler) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.uc.Info())
}

// GET /gold/balance?owner=...（省略時は caller）
func (h *GoldHandler) balance(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		c, err := caller(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		owner = c
	}
	n, err := h.uc.BalanceOf(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Owner: owner, Balance: n})
}

// POST /gold/mint（authority のみ）
func (h *GoldHandler) mint(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goldAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField("to", req.To); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.uc.Mint(r.Context(), who, req.To, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, req.To)
}

// POST /gold/transfer（from = caller）
func (h *GoldHandler) transfer(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goldAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField("to", req.To); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.uc.Transfer(r.Context(), from, req.To, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, from)
}

// POST /gold/burn（authority のみ）
func (h *GoldHandler) burn(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goldAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField("owner", req.Owner); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.uc.Burn(r.Context(), who, req.Owner, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBalance(w, r, req.Owner)
}

func (h *GoldHandler) writeBalance(w http.ResponseWriter, r *http.Request, owner string) {
	n, err := h.uc.BalanceOf(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Owner: owner, Balance: n})
}
