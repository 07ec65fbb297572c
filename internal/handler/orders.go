package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mmeshcher/campus-trade/internal/model"
)

type orderResponse struct {
	ID           int64  `json:"id"`
	ListingID    int64  `json:"listingId"`
	ListingTitle string `json:"listingTitle"`
	BuyerID      int64  `json:"buyerId"`
	BuyerName    string `json:"buyerName"`
	SellerID     int64  `json:"sellerId"`
	SellerName   string `json:"sellerName"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		ListingID:    o.ListingID,
		ListingTitle: o.ListingTitle,
		BuyerID:      o.BuyerID,
		BuyerName:    o.BuyerName,
		SellerID:     o.SellerID,
		SellerName:   o.SellerName,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    o.UpdatedAt.Format(time.RFC3339),
	}
}

// MarkInterest создаёт заказ по интересу текущего пользователя к объявлению.
func (h *Handler) MarkInterest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	listingID, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid listing id"})
		return
	}

	o, err := h.service.MarkInterest(r.Context(), p.StudentID, listingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "interest marked", toOrderResponse(o))
}

// GetOrders возвращает страницу заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, size := pagination(r)

	orders, total, err := h.service.ListOrders(r.Context(), p.StudentID, q.Get("type"), q.Get("status"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}

	h.writeSuccess(w, http.StatusOK, "ok", pageResponse{Items: items, Total: total, Page: page, Size: size})
}

// GetOrder возвращает заказ текущего пользователя.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid order id"})
		return
	}

	o, err := h.service.GetOrder(r.Context(), p.StudentID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toOrderResponse(o))
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus переводит заказ в новый статус от имени текущего пользователя.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid order id"})
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	o, err := h.service.UpdateOrderStatus(r.Context(), p.StudentID, id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "order updated", toOrderResponse(o))
}
