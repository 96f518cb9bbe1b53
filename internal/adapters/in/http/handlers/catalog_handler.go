// internal/adapters/in/http/handlers/catalog_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogapp "weaponledger/internal/application/catalog"
	catalogdom "weaponledger/internal/domain/catalog"
)

// CatalogHandler は /catalog と /categories を扱います。
type CatalogHandler struct {
	uc *catalogapp.Usecase
}

func NewCatalogHandler(uc *catalogapp.Usecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Post("/catalog", h.initCatalog)
	r.Get("/catalog", h.getCatalog)

	r.Post("/categories", h.addCategory)
	r.Post("/categories/batch", h.addCategories)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{id}", h.getCategory)
	r.Put("/categories/{id}/uri", h.setCategoryURI)
}

type initCatalogRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type catalogResponse struct {
	catalogdom.Catalog
	CategoryCount uint64 `json:"categoryCount"`
}

type addCategoryRequest struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type addCategoriesRequest struct {
	URIs  []string `json:"uris"`
	Names []string `json:"names"`
}

type setURIRequest struct {
	URI string `json:"uri"`
}

// POST /catalog
func (h *CatalogHandler) initCatalog(w http.ResponseWriter, r *http.Request) {
	var req initCatalogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.uc.InitCatalog(r.Context(), req.Name, req.Symbol)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, catalogResponse{Catalog: c, CategoryCount: c.NextCategoryID})
}

// GET /catalog
func (h *CatalogHandler) getCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := h.uc.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Catalog: c, CategoryCount: c.NextCategoryID})
}

// POST /categories
func (h *CatalogHandler) addCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.uc.AddCategory(r.Context(), req.URI, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

// POST /categories/batch
func (h *CatalogHandler) addCategories(w http.ResponseWriter, r *http.Request) {
	var req addCategoriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := h.uc.AddCategories(r.Context(), req.URIs, req.Names)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string][]uint64{"ids": ids})
}

// GET /categories
func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.uc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// GET /categories/{id}
func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.uc.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PUT /categories/{id}/uri
func (h *CatalogHandler) setCategoryURI(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req setURIRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.uc.SetCategoryURI(r.Context(), id, req.URI); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.uc.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
