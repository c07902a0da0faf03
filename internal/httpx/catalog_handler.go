package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/database"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/safar/marketplace-orders/internal/store"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves the shop, user and product administration endpoints
// that feed the order engine.
type CatalogHandler struct {
	DB  *sqlx.DB
	Log zerolog.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(ResolveActor)
		r.Post("/shops", h.createShop)
		r.Post("/users", h.createUser)
		r.Get("/users", h.listUsers)
		r.Post("/shops/{shopID}/products", h.createProduct)
		r.Get("/shops/{shopID}/products", h.listProducts)
		r.Get("/products/{productID}", h.getProduct)
		r.Put("/products/{productID}/stock", h.setStock)
		r.Put("/products/{productID}/active", h.setActive)
	})
}

func (h *CatalogHandler) createShop(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "only admins can create shops")
		return
	}

	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	shop, err := store.CreateShop(r.Context(), h.DB, req.ID, req.Name)
	if err != nil {
		h.internal(w, err, "create shop")
		return
	}

	respondJSON(w, http.StatusCreated, shop)
}

func (h *CatalogHandler) createUser(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "only admins can create users")
		return
	}

	var req struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.ID, req.Email, req.Name)
	if err != nil {
		h.internal(w, err, "create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *CatalogHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	if actorFrom(r.Context()).Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "only admins can list users")
		return
	}

	page, err := store.ListUsers(r.Context(), h.DB, queryInt(r, "page", 1, 0), queryInt(r, "page_size", 20, 100))
	if err != nil {
		h.internal(w, err, "list users")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	shopID := chi.URLParam(r, "shopID")
	if !canManageShop(actorFrom(r.Context()), shopID) {
		respondError(w, http.StatusForbidden, "not allowed to manage this shop")
		return
	}

	var req struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock int             `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Price.IsNegative() || req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "name is required and price and stock must not be negative")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, store.NewProduct{
		ID:     req.ID,
		ShopID: shopID,
		Name:   req.Name,
		Price:  req.Price,
		Stock:  req.Stock,
	})
	if err != nil {
		h.internal(w, err, "create product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := store.ListProductsByShop(r.Context(), h.DB, chi.URLParam(r, "shopID"),
		queryInt(r, "page", 1, 0), queryInt(r, "page_size", 20, 100))
	if err != nil {
		h.internal(w, err, "list products")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := store.GetProduct(r.Context(), h.DB, chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.internal(w, err, "get product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) setStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stock   int `json:"stock"`
		Version int `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Stock < 0 || req.Version < 1 {
		respondError(w, http.StatusBadRequest, "stock must not be negative and version is required")
		return
	}

	product, ok := h.managedProduct(w, r)
	if !ok {
		return
	}

	updated, err := store.SetStockOptimistic(r.Context(), h.DB, product.ID, req.Stock, req.Version)
	if err != nil {
		if errors.Is(err, store.ErrOptimisticLockFailed) {
			respondError(w, http.StatusConflict, "product changed since it was read, reload and retry")
			return
		}
		h.internal(w, err, "set stock")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *CatalogHandler) setActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, ok := h.managedProduct(w, r)
	if !ok {
		return
	}

	if err := store.SetProductActive(r.Context(), h.DB, product.ID, req.Active); err != nil {
		h.internal(w, err, "set product active")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// managedProduct loads the product in the URL and checks that the actor may
// change it. It writes the error response itself.
func (h *CatalogHandler) managedProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	product, err := store.GetProduct(r.Context(), h.DB, chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		h.internal(w, err, "get product")
		return nil, false
	}

	if !canManageShop(actorFrom(r.Context()), product.ShopID) {
		respondError(w, http.StatusForbidden, "not allowed to manage this shop")
		return nil, false
	}

	return product, true
}

func (h *CatalogHandler) internal(w http.ResponseWriter, err error, op string) {
	if database.IsCheckViolation(err) {
		respondError(w, http.StatusBadRequest, "value violates a catalog constraint")
		return
	}
	h.Log.Error().Err(err).Str("op", op).Msg("catalog request failed")
	respondError(w, http.StatusInternalServerError, "internal error")
}
