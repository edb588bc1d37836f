package handlers

import (
	"net/http"

	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	identity *services.IdentityService
}

func NewUserHandler(identity *services.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

type profileRequest struct {
	Nickname string `json:"nickname"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.identity.UpdateNickname(c.Request.Context(), currentUser(c).ID, req.Nickname)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "资料已更新。",
		"nickname": user.Nickname,
	})
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.identity.UpdatePassword(c.Request.Context(), currentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "密码已修改。"})
}
