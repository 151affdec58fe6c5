package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/validation"
)

type AuthHandler struct {
	sellers *services.SellerService
}

func NewAuthHandler(sellers *services.SellerService) *AuthHandler {
	return &AuthHandler{sellers: sellers}
}

type loginRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("pin", in.PIN, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	seller, err := h.sellers.Authenticate(r.Context(), in.Name, in.PIN)
	if errors.Is(err, services.ErrInvalidCredentials) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	auth.CreateSession(w, seller.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": seller.ID, "name": seller.Name})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
