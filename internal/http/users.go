package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
)

// UsersController handles password management for logins.
type UsersController struct {
	authService *auth.Service
}

func NewUsersController(authService *auth.Service) *UsersController {
	return &UsersController{authService: authService}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required" label:"Current password"`
	NewPassword     string `json:"newPassword" binding:"required" label:"New password"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required" label:"New password"`
}

// ChangePassword handles POST /api/users/change-password
func (uc *UsersController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := uc.authService.ChangePassword(c.Request.Context(), auth.GetPrincipal(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	respondSuccess(c, "Password changed successfully")
}

// ResetPassword handles POST /api/users/:userId/reset-password
func (uc *UsersController) ResetPassword(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := uc.authService.ResetPassword(c.Request.Context(), auth.GetPrincipal(c), userID, req.NewPassword); err != nil {
		respondError(c, err, http.StatusConflict)
		return
	}
	respondSuccess(c, "Password reset successfully")
}
