package handlers

import (
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetMe handles GET /me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetAllUsers handles GET /admin/users?q=
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.userService.SearchUsers(c.Request.Context(), c.Query("q")))
}

// GetUserByID handles GET /admin/users/:id
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// BanUser handles POST /admin/users/:id/ban
func (h *UserHandler) BanUser(c *gin.Context) {
	h.setBanned(c, true)
}

// UnbanUser handles POST /admin/users/:id/unban
func (h *UserHandler) UnbanUser(c *gin.Context) {
	h.setBanned(c, false)
}

// ToggleBan handles POST /admin/users/:id/toggle
func (h *UserHandler) ToggleBan(c *gin.Context) {
	user, err := h.userService.ToggleBan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) setBanned(c *gin.Context, banned bool) {
	user, err := h.userService.SetBanned(c.Request.Context(), c.Param("id"), banned)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetStats handles GET /admin/stats
func (h *UserHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.userService.Stats(c.Request.Context()))
}
