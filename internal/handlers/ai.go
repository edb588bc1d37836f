package handlers

import (
	"net/http"

	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	synth services.CommentSynthesizer
}

func NewAIHandler(synth services.CommentSynthesizer) *AIHandler {
	return &AIHandler{synth: synth}
}

type generateCommentRequest struct {
	PostTitle   string `json:"post_title"`
	PostContent string `json:"post_content"`
}

// GenerateComment 直接调用评论生成服务，不落库
func (h *AIHandler) GenerateComment(c *gin.Context) {
	var req generateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.synth.GenerateComment(c.Request.Context(), req.PostTitle, req.PostContent)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}
