package auth

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

type sendRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
}

type verifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req sendRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if err := h.svc.SendOTP(ctx, req.Phone); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "OTP sent successfully", nil)
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req verifyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	token, acc, err := h.svc.VerifyOTP(ctx, req.Phone, req.OTP)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "OTP verified successfully", utils.M{
		"token": token,
		"user":  acc,
	})
}
