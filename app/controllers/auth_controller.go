// Package controllers holds the HTTP handlers for the admin API. The bot
// is the customer surface; everything here sits behind JWT auth except
// login and the health probe.
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/pkg/auth"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/middleware"
	"github.com/shashiranjanraj/dulceria/pkg/response"
	"github.com/shashiranjanraj/dulceria/pkg/validate"
)

type AuthController struct {
	admins *repositories.AdminRepository
}

func NewAuthController(admins *repositories.AdminRepository) *AuthController {
	return &AuthController{admins: admins}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required|email"`
	Password string `json:"password" validate:"required|min:8"`
}

// Login exchanges admin credentials for an access and refresh token pair.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	admin, err := c.admins.GetByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(admin.Password, req.Password) {
		// Same answer for unknown email and wrong password.
		response.Unauthorized(w)
		return
	}

	token, err := auth.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		logger.WithCtx(r.Context()).Error("auth: token generation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := auth.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		logger.WithCtx(r.Context()).Error("auth: refresh token generation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	response.Success(w, map[string]interface{}{
		"token":         token,
		"refresh_token": refresh,
		"admin": map[string]interface{}{
			"id":    admin.ID,
			"name":  admin.Name,
			"email": admin.Email,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a valid refresh token for a new access token.
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	claims, err := auth.ValidateToken(req.RefreshToken)
	if err != nil {
		response.Unauthorized(w)
		return
	}

	token, err := auth.GenerateToken(claims.AdminID, claims.Email)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	response.Success(w, map[string]string{"token": token})
}

// Me returns the authenticated admin's profile.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())
	if claims == nil {
		response.Unauthorized(w)
		return
	}

	admin, err := c.admins.GetByID(r.Context(), claims.AdminID)
	if err != nil {
		response.NotFound(w)
		return
	}
	response.Success(w, admin)
}
