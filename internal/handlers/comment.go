package handlers

import (
	"net/http"

	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	content *services.ContentService
}

func NewCommentHandler(content *services.ContentService) *CommentHandler {
	return &CommentHandler{content: content}
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.content.ListComments(c.Request.Context(), postID)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), postID, services.NewComment{
		Author:  currentUser(c),
		Content: req.Content,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "评论成功。",
		"comment": comment,
	})
}

func (h *CommentHandler) Update(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.content.UpdateComment(c.Request.Context(), postID, commentID, currentUser(c), req.Content)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "评论已修改。",
		"comment": comment,
	})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}
	if err := h.content.DeleteComment(c.Request.Context(), postID, commentID, currentUser(c)); err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "评论已删除。"})
}
