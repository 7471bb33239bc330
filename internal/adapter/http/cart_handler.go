package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// CartHandler exposes the cart aggregator. The cart key is an opaque
// client-generated identifier; carts survive sessions through the durable
// cart store.
type CartHandler struct {
	carts    interfaces.CartService
	shipping decimal.Decimal
	logger   logger.Logger
}

func NewCartHandler(carts interfaces.CartService, shipping decimal.Decimal, logger logger.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		shipping: shipping,
		logger:   logger,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart, h.shipping))
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProductID == "" {
		respondError(w, "Product id is required", http.StatusBadRequest)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), r.PathValue("key"), req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.shipping))
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), r.PathValue("key"), r.PathValue("productId"), req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.shipping))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveItem(r.Context(), r.PathValue("key"), r.PathValue("productId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(cart, h.shipping))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), r.PathValue("key")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
