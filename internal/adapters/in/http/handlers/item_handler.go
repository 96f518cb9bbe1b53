// internal/adapters/in/http/handlers/item_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	metadataapp "weaponledger/internal/application/metadata"
	mintapp "weaponledger/internal/application/mint"
	upgradeapp "weaponledger/internal/application/upgrade"
	weapondom "weaponledger/internal/domain/weapon"
)

// ItemHandler は /items と /categories/{id}/supply を扱います。
// upgrade / resolver が nil の場合、そのルートは登録しません。
type ItemHandler struct {
	mintUC    *mintapp.Usecase
	upgradeUC *upgradeapp.Usecase
	resolver  *metadataapp.Resolver
}

func NewItemHandler(mintUC *mintapp.Usecase, upgradeUC *upgradeapp.Usecase, resolver *metadataapp.Resolver) *ItemHandler {
	return &ItemHandler{mintUC: mintUC, upgradeUC: upgradeUC, resolver: resolver}
}

func (h *ItemHandler) Register(r chi.Router) {
	r.Get("/categories/{id}/supply", h.supply)

	r.Post("/items", h.mint)
	r.Get("/items/{id}", h.getRecord)
	r.Post("/items/{id}/transfer", h.transfer)
	r.Post("/items/{id}/burn", h.burn)

	if h.resolver != nil {
		r.Get("/items/{id}/uri", h.resolveURI)
	}
	if h.upgradeUC != nil {
		r.Get("/items/{id}/weapon", h.getWeapon)
		r.Post("/items/{id}/upgrade", h.upgrade)
		r.Post("/items/{id}/upgrade/quote", h.quote)
	}
}

type mintRequest struct {
	CategoryID *uint64 `json:"categoryId"`
}

type transferRequest struct {
	To string `json:"to"`
}

// statsRequest は [level, hp, damage, mana, mp_regen, atk_speed] の 6 要素です。
type statsRequest struct {
	Stats []uint64 `json:"stats"`
}

func (s statsRequest) target() (weapondom.Stats, error) {
	return weapondom.StatsFromSlice(s.Stats)
}

// GET /categories/{id}/supply
func (h *ItemHandler) supply(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.mintUC.SupplyOf(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// POST /items（owner = caller）
func (h *ItemHandler) mint(w http.ResponseWriter, r *http.Request) {
	owner, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req mintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.CategoryID == nil {
		writeError(w, r, requireField("categoryId", ""))
		return
	}
	rec, err := h.mintUC.Mint(r.Context(), owner, *req.CategoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GET /items/{id}
func (h *ItemHandler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.mintUC.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /items/{id}/uri（owner = caller）
func (h *ItemHandler) resolveURI(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uri, err := h.resolver.ResolveURI(r.Context(), id, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": id, "uri": uri})
}

// POST /items/{id}/transfer（from = caller）
func (h *ItemHandler) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := requireField("to", req.To); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.mintUC.Transfer(r.Context(), id, from, req.To); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": id, "from": from, "to": req.To})
}

// POST /items/{id}/burn（owner = caller）
func (h *ItemHandler) burn(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.mintUC.Burn(r.Context(), id, owner); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": id, "burned": true})
}

// GET /items/{id}/weapon
func (h *ItemHandler) getWeapon(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	wp, err := h.upgradeUC.GetWeapon(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

// POST /items/{id}/upgrade（GOLD は caller が支払う）
func (h *ItemHandler) upgrade(w http.ResponseWriter, r *http.Request) {
	id, target, ok := h.upgradeInput(w, r)
	if !ok {
		return
	}
	payer, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.upgradeUC.Upgrade(r.Context(), id, payer, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /items/{id}/upgrade/quote
func (h *ItemHandler) quote(w http.ResponseWriter, r *http.Request) {
	id, target, ok := h.upgradeInput(w, r)
	if !ok {
		return
	}
	cost, err := h.upgradeUC.Quote(r.Context(), id, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itemId": id, "cost": cost})
}

func (h *ItemHandler) upgradeInput(w http.ResponseWriter, r *http.Request) (uint64, weapondom.Stats, bool) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return 0, weapondom.Stats{}, false
	}
	var req statsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return 0, weapondom.Stats{}, false
	}
	target, err := req.target()
	if err != nil {
		writeError(w, r, err)
		return 0, weapondom.Stats{}, false
	}
	return id, target, true
}
