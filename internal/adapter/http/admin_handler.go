package http

import (
	"encoding/json"
	"net/http"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/app/order"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// AdminHandler serves the admin panel: order listing, every field-level
// mutation of the order store, and the collection-wide live stream. The
// service layer enforces the IsAdmin capability; handlers only decode.
type AdminHandler struct {
	orders interfaces.OrderService
	hub    *order.Hub
	logger logger.Logger
}

func NewAdminHandler(orders interfaces.OrderService, hub *order.Hub, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		hub:    hub,
		logger: logger,
	}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter interfaces.OrderFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.Status(raw)
		if !domain.ValidStatus(status) {
			respondError(w, "Unknown status", http.StatusBadRequest)
			return
		}
		filter.Status = &status
	}

	orders, err := h.orders.List(r.Context(), ActorFrom(r.Context()), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lo.Map(orders, func(o *domain.Order, _ int) OrderResponse {
		return toOrderResponse(o)
	}))
}

func (h *AdminHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	found, err := h.orders.GetByID(r.Context(), ActorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lo.Map(found.History, func(entry domain.HistoryEntry, _ int) HistoryView {
		return HistoryView{
			Field:     entry.Field,
			OldValue:  entry.OldValue,
			NewValue:  entry.NewValue,
			Timestamp: entry.Timestamp,
		}
	}))
}

type UpdateStatusRequest struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason"`
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := domain.Status(req.Status)
	if !domain.ValidStatus(status) {
		respondError(w, "Unknown status", http.StatusBadRequest)
		return
	}

	updated, err := h.orders.UpdateStatus(r.Context(), ActorFrom(r.Context()), r.PathValue("id"),
		interfaces.UpdateStatusCommand{
			NewStatus:          status,
			CancellationReason: req.CancellationReason,
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

type UpdatePaymentRequest struct {
	IsPaid     bool    `json:"isPaid"`
	Method     *string `json:"paymentMethod"`
	IsRefunded bool    `json:"isRefunded"`
}

func (h *AdminHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var method *domain.PaymentMethod
	if req.Method != nil {
		m := domain.PaymentMethod(*req.Method)
		method = &m
	}

	updated, err := h.orders.UpdatePayment(r.Context(), ActorFrom(r.Context()), r.PathValue("id"),
		interfaces.UpdatePaymentCommand{
			IsPaid:     req.IsPaid,
			Method:     method,
			IsRefunded: req.IsRefunded,
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *AdminHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.orders.UpdateNotes(r.Context(), ActorFrom(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *AdminHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.orders.UpdateCustomerInfo(r.Context(), ActorFrom(r.Context()), r.PathValue("id"),
		domain.Customer{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Comment:    req.Comment,
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

type UpdateShippingRequest struct {
	Shipping decimal.Decimal `json:"shipping"`
}

func (h *AdminHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var req UpdateShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.orders.UpdateShipping(r.Context(), ActorFrom(r.Context()), r.PathValue("id"),
		interfaces.UpdateShippingCommand{Shipping: req.Shipping})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

type UpdateTrackingRequest struct {
	TrackingCode     string `json:"trackingCode"`
	ShippingProvider string `json:"shippingProvider"`
}

func (h *AdminHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	var req UpdateTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TrackingCode == "" {
		respondError(w, "Tracking code is required", http.StatusBadRequest)
		return
	}

	updated, err := h.orders.UpdateTrackingCode(r.Context(), ActorFrom(r.Context()), r.PathValue("id"),
		interfaces.UpdateTrackingCommand{
			TrackingCode:     req.TrackingCode,
			ShippingProvider: req.ShippingProvider,
		})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

type UpdateItemsRequest struct {
	Items []OrderItemView `json:"items"`
}

func (h *AdminHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	items := lo.Map(req.Items, func(item OrderItemView, _ int) domain.OrderItem {
		return domain.OrderItem{
			ProductID:     item.ProductID,
			Title:         item.Title,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			IsOnSale:      item.IsOnSale,
			ThumbnailID:   item.ThumbnailID,
			Quantity:      item.Quantity,
		}
	})

	updated, err := h.orders.UpdateItems(r.Context(), ActorFrom(r.Context()), r.PathValue("id"), items)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *AdminHandler) AcknowledgeCancellation(w http.ResponseWriter, r *http.Request) {
	updated, err := h.orders.AcknowledgeCancellation(r.Context(), ActorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), ActorFrom(r.Context()), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StreamOrders pushes every order change in the collection as server-sent
// events; multiple admin tabs each hold their own subscription.
func (h *AdminHandler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	if !ActorFrom(r.Context()).IsAdmin {
		respondError(w, domain.ErrForbidden.Error(), http.StatusForbidden)
		return
	}

	events, cancel := h.hub.SubscribeAll()
	defer cancel()

	streamEvents(w, r, h.logger, nil, events)
}
