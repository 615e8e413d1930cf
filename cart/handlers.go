package cart

import (
	"context"
	"net/http"
	"time"

	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type itemRequest struct {
	Product   string `json:"product"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// productRef accepts either field name; the update route historically sent
// productId.
func (r itemRequest) productRef() string {
	if r.Product != "" {
		return r.Product
	}
	return r.ProductID
}

// GetCart returns the caller's cart with products expanded.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cart, err := h.svc.Get(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Cart fetched successfully", cart)
}

func (h *Handler) GetCartTotal(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	total, err := h.svc.Total(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Cart total fetched successfully", total)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req itemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	cart, err := h.svc.AddItem(ctx, utils.GetUserIDFromRequest(r), req.productRef(), req.Quantity)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Cart updated successfully", cart)
}

func (h *Handler) UpdateCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req itemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	cart, err := h.svc.UpdateItem(ctx, utils.GetUserIDFromRequest(r), req.productRef(), req.Quantity)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Cart updated successfully", cart)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req itemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	cart, err := h.svc.RemoveItem(ctx, utils.GetUserIDFromRequest(r), req.productRef())
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Item removed from cart", cart)
}
