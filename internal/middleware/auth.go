package middleware

import (
	"strings"

	"jejuboard/internal/apperr"
	"jejuboard/internal/models"
	"jejuboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey = "user"
	authErrKey   = "auth_error"
	// SessionTokenKey 登录后令牌也写进 cookie session，浏览器可以不带 Authorization 头
	SessionTokenKey = "token"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// LoadUser 解析令牌并把当前用户放进 context；失败原因留给 AuthRequired 处理，公开接口不受影响
func LoadUser(issuer *services.SessionIssuer, identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if v, ok := sessions.Default(c).Get(SessionTokenKey).(string); ok {
				token = v
			}
		}
		if token == "" {
			c.Next()
			return
		}

		userID, err := issuer.Verify(token)
		if err != nil {
			c.Set(authErrKey, err)
			c.Next()
			return
		}

		user, err := identity.UserByID(c.Request.Context(), userID)
		if err != nil {
			c.Set(authErrKey, err)
			c.Next()
			return
		}
		c.Set(CheckUserKey, user)
		c.Next()
	}
}

// AuthRequired 必须放在 LoadUser 之后
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		var err error = apperr.Auth("请先登录。")
		if v, ok := c.Get(authErrKey); ok {
			err = v.(error)
		}
		c.AbortWithStatusJSON(apperr.StatusCode(err), gin.H{"error": apperr.Message(err)})
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
