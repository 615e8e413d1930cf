// Package accounts serves the signed-in account and the back-office
// enable/disable switch.
package accounts

import (
	"context"
	"net/http"
	"strings"
	"time"

	"freshcart/errs"
	"freshcart/middleware"
	"freshcart/models"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
)

type Store interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	AddAddress(ctx context.Context, id string, addr models.Address) (*models.Account, error)
	SetName(ctx context.Context, id, name string) (*models.Account, error)
	SetDisabled(ctx context.Context, id string, disabled bool) (*models.Account, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Me returns the account resolved from the caller's token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	acc := utils.GetAccountFromRequest(r)
	if acc == nil {
		utils.RespondWithError(w, errs.E(errs.Unauthenticated, "Unauthorized"))
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Account fetched successfully", acc)
}

type profileRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req profileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	acc, err := h.store.SetName(ctx, utils.GetUserIDFromRequest(r), strings.TrimSpace(req.Name))
	h.respond(w, acc, err, "Profile updated successfully")
}

func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var addr models.Address
	if err := utils.DecodeJSON(r, &addr); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if !addr.Deliverable() {
		utils.RespondWithError(w, errs.E(errs.ValidationError, "street or city is required"))
		return
	}
	acc, err := h.store.AddAddress(ctx, utils.GetUserIDFromRequest(r), addr)
	h.respond(w, acc, err, "Address added successfully")
}

func (h *Handler) Disable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.toggle(w, r, ps.ByName("id"), true)
}

func (h *Handler) Enable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.toggle(w, r, ps.ByName("id"), false)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, id string, disabled bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	actor := utils.GetAccountFromRequest(r)
	if actor != nil && actor.ID == id {
		utils.RespondWithError(w, errs.E(errs.Forbidden, "You cannot change your own account status"))
		return
	}
	target, err := h.store.FindByID(ctx, id)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if target == nil {
		utils.RespondWithError(w, errs.E(errs.AccountNotFound, "account not found"))
		return
	}
	if !middleware.CanToggle(actor, target) {
		utils.RespondWithError(w, errs.E(errs.Forbidden, "You are not allowed to change this account"))
		return
	}

	acc, err := h.store.SetDisabled(ctx, id, disabled)
	msg := "Account enabled successfully"
	if disabled {
		msg = "Account disabled successfully"
	}
	h.respond(w, acc, err, msg)
}

func (h *Handler) respond(w http.ResponseWriter, acc *models.Account, err error, msg string) {
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if acc == nil {
		utils.RespondWithError(w, errs.E(errs.AccountNotFound, "account not found"))
		return
	}
	utils.RespondSuccess(w, http.StatusOK, msg, acc)
}
