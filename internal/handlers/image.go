package handlers

import (
	"net/http"

	"jejuboard/internal/apperr"
	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
)

// ImageHandler 单独上传图片，返回的地址可以直接写进帖子正文
type ImageHandler struct {
	images *services.ImageStore
}

func NewImageHandler(images *services.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload 处理图片上传请求 (POST /uploads)，需要登录
func (h *ImageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		RenderError(c, apperr.Validation("请选择要上传的图片。"))
		return
	}

	url, err := h.images.Save(header)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
