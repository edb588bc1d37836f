package handlers

import (
	"net/http"

	"jejuboard/internal/middleware"
	"jejuboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identity *services.IdentityService
	issuer   *services.SessionIssuer
}

func NewAuthHandler(identity *services.IdentityService, issuer *services.SessionIssuer) *AuthHandler {
	return &AuthHandler{identity: identity, issuer: issuer}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Nickname        string `json:"nickname"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.identity.Register(c.Request.Context(), req.Email, req.Password, req.PasswordConfirm, req.Nickname)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功。",
		"user":    briefOf(user),
	})
}

// Login 返回 bearer 令牌，同时写入 cookie session
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RenderError(c, err)
		return
	}
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		RenderError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionTokenKey, token.AccessToken)
	session.Save()

	c.JSON(http.StatusOK, gin.H{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.ExpiresAt,
		"user":         briefOf(user),
	})
}

// Logout 只清除 cookie session；令牌本身无状态，到期前仍然有效
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录。"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": briefOf(currentUser(c))})
}
