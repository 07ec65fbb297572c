package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/service"
)

type listingResponse struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	Description   string   `json:"description,omitempty"`
	TradeLocation string   `json:"tradeLocation,omitempty"`
	ImagePaths    []string `json:"imagePaths"`
	Status        string   `json:"status"`
	SellerID      int64    `json:"sellerId"`
	SellerName    string   `json:"sellerName"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

func toListingResponse(l *model.Listing) listingResponse {
	paths := l.ImagePaths
	if paths == nil {
		paths = []string{}
	}
	return listingResponse{
		ID:            l.ID,
		Title:         l.Title,
		Price:         l.Price,
		Description:   l.Description,
		TradeLocation: l.TradeLocation,
		ImagePaths:    paths,
		Status:        string(l.Status),
		SellerID:      l.SellerID,
		SellerName:    l.SellerName,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     l.UpdatedAt.Format(time.RFC3339),
	}
}

func toListingPage(listings []model.Listing, total int64, page, size int) pageResponse {
	items := make([]listingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, toListingResponse(&listings[i]))
	}
	return pageResponse{Items: items, Total: total, Page: page, Size: size}
}

type listingRequest struct {
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	Description   string   `json:"description"`
	TradeLocation string   `json:"tradeLocation"`
	ImagePaths    []string `json:"imagePaths"`
}

func (req listingRequest) toInput() service.ListingInput {
	return service.ListingInput{
		Title:         req.Title,
		Price:         req.Price,
		Description:   req.Description,
		TradeLocation: req.TradeLocation,
		ImagePaths:    req.ImagePaths,
	}
}

// GetListings возвращает страницу публичного каталога объявлений.
func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size := pagination(r)

	listings, total, err := h.service.ListListings(r.Context(), q.Get("keyword"), q.Get("status"), q.Get("sort"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toListingPage(listings, total, page, size))
}

// GetListing возвращает объявление по идентификатору.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid listing id"})
		return
	}

	l, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toListingResponse(l))
}

// CreateListing публикует новое объявление текущего пользователя.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	l, err := h.service.CreateListing(r.Context(), p.StudentID, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "listing created", toListingResponse(l))
}

// UpdateListing обновляет объявление текущего пользователя.
func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid listing id"})
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	l, err := h.service.UpdateListing(r.Context(), p.StudentID, id, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "listing updated", toListingResponse(l))
}

// DeleteListing удаляет объявление текущего пользователя.
func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid listing id"})
		return
	}

	if err := h.service.DeleteListing(r.Context(), p.StudentID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "listing deleted", nil)
}

// GetMyListings возвращает страницу объявлений текущего пользователя.
func (h *Handler) GetMyListings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, size := pagination(r)
	listings, total, err := h.service.ListMyListings(r.Context(), p.StudentID, r.URL.Query().Get("status"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toListingPage(listings, total, page, size))
}
