package orders

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"freshcart/errs"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
)

var errOrderIDRequired = errs.E(errs.ValidationError, "orderId is required")

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrder places an order for the caller.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	order, err := h.svc.Create(ctx, utils.GetUserIDFromRequest(r), in)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Order created successfully", order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.svc.Get(ctx, utils.GetAccountFromRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Order fetched successfully", order)
}

// ListOrders is the admin listing; ?userId= narrows it to one customer.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	orders, err := h.svc.List(ctx, utils.GetAccountFromRequest(r), opts.UserID)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Orders fetched successfully", orders)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.svc.Mine(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Orders fetched successfully", orders)
}

type statusRequest struct {
	OrderID        string `json:"orderId"`
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req statusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	order, err := h.svc.UpdateStatus(ctx, utils.GetAccountFromRequest(r), ps.ByName("id"), req.Status, req.TrackingNumber)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Order status updated successfully", order)
}

// UpdateStatusByUser is the self-service cancel; the order is named in the
// body.
func (h *Handler) UpdateStatusByUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req statusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if req.OrderID == "" {
		utils.RespondWithError(w, errOrderIDRequired)
		return
	}
	order, err := h.svc.CancelByUser(ctx, utils.GetAccountFromRequest(r), req.OrderID, req.Status)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Order status updated successfully", order)
}

// Invoice streams the order invoice as a PDF attachment.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view, err := h.svc.Get(ctx, utils.GetAccountFromRequest(r), ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	pdf, err := RenderInvoice(view)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+view.OrderID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
