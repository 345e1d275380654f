// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/plugin-marketplace/internal/i18n"
	"github.com/javajoker/plugin-marketplace/internal/services"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

type UserHandler struct {
	userService        *services.UserService
	entitlementService *services.EntitlementService
}

func NewUserHandler(userService *services.UserService, entitlementService *services.EntitlementService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		entitlementService: entitlementService,
	}
}

// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateUserProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// GET /api/users/purchases
func (h *UserHandler) GetPurchases(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	purchases, err := h.entitlementService.GetPurchases(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, purchases)
}
