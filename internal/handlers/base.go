package handlers

import (
	"log"
	"net/http"

	"jejuboard/internal/apperr"
	"jejuboard/internal/middleware"
	"jejuboard/internal/models"
	"jejuboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// RenderError 按错误类型输出状态码与 {"error": msg}
func RenderError(c *gin.Context, err error) {
	code := apperr.StatusCode(err)
	if code == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": apperr.Message(err)})
}

// bindJSON 请求体不是合法 JSON 时直接返回 400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RenderError(c, apperr.Validation("请求格式不正确。"))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		RenderError(c, apperr.NotFound("资源不存在。"))
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

type userBrief struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func briefOf(u *models.User) userBrief {
	return userBrief{ID: u.ID, Email: u.Email, Nickname: u.Nickname}
}
