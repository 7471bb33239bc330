package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/order"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/ratelimit"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// OrderHandler serves the storefront side: checkout, own-order reads,
// customer self-cancel, and the per-order live stream.
type OrderHandler struct {
	orders interfaces.OrderService
	carts  interfaces.CartService
	hub    *order.Hub
	logger logger.Logger
}

func NewOrderHandler(orders interfaces.OrderService, carts interfaces.CartService, hub *order.Hub, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		carts:  carts,
		hub:    hub,
		logger: logger,
	}
}

type CheckoutRequest struct {
	CartKey  string          `json:"cartKey"`
	Customer CustomerPayload `json:"customer"`
	IsDemo   bool            `json:"isDemo"`
}

type CustomerPayload struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Comment    string `json:"comment"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Checkout turns the caller's persisted cart into an order. Anonymous
// callers are identified by a hash of their IP for the daily quota; the raw
// address is never stored.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	actor := ActorFrom(r.Context())

	cart, err := h.carts.Get(r.Context(), req.CartKey)
	if err != nil || len(cart.Items) == 0 {
		respondError(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	var ipHash string
	if actor.UserID == "" {
		ipHash = ratelimit.HashIdentity(ratelimit.ClientIP(r))
	}

	cmd := interfaces.CreateOrderCommand{
		Customer: domain.Customer{
			Name:       req.Customer.Name,
			Email:      req.Customer.Email,
			Phone:      req.Customer.Phone,
			Address:    req.Customer.Address,
			City:       req.Customer.City,
			PostalCode: req.Customer.PostalCode,
			Comment:    req.Customer.Comment,
		},
		Items:          cart.OrderItems(),
		CustomerNumber: actor.CustomerNumber,
		IsDemo:         req.IsDemo,
		IPHash:         ipHash,
	}

	created, err := h.orders.Create(r.Context(), actor, cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		respondServiceError(w, err)
		return
	}

	// Checkout success destroys the cart; a failure here is not fatal.
	if err := h.carts.Clear(r.Context(), req.CartKey); err != nil {
		h.logger.Error("cart_clear_failed", "Failed to clear cart after checkout", created.ID, nil, err)
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	found, err := h.orders.GetByID(r.Context(), ActorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(found))
}

func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForCustomer(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(orders, func(o *domain.Order, _ int) OrderResponse {
		return toOrderResponse(o)
	}))
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cancelled, err := h.orders.CancelByCustomer(r.Context(), ActorFrom(r.Context()), r.PathValue("id"), req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

// StreamOrder pushes live snapshots of one order as server-sent events.
func (h *OrderHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// The initial read doubles as the access check.
	current, err := h.orders.GetByID(r.Context(), ActorFrom(r.Context()), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	events, cancel := h.hub.SubscribeOrder(id)
	defer cancel()

	streamEvents(w, r, h.logger, current, events)
}

// streamEvents writes SSE frames until the client disconnects.
func streamEvents(w http.ResponseWriter, r *http.Request, lgr logger.Logger, first *domain.Order, events <-chan order.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeFrame := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			lgr.Error("sse_marshal_failed", "Failed to marshal event", "", nil, err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	if first != nil {
		writeFrame(string(order.EventUpdated), toOrderResponse(first))
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == order.EventDeleted {
				writeFrame(string(order.EventDeleted), map[string]string{"id": ev.OrderID})
				continue
			}
			writeFrame(string(order.EventUpdated), toOrderResponse(ev.Order))
		}
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProductNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrRateLimited):
		respondError(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidStatusTransition):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "Something went wrong, please try again", http.StatusInternalServerError)
	}
}
