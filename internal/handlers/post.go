package handlers

import (
	"errors"
	"net/http"

	"jejuboard/internal/apperr"
	"jejuboard/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	content *services.ContentService
	likes   *services.LikeTracker
	images  *services.ImageStore
}

func NewPostHandler(content *services.ContentService, likes *services.LikeTracker, images *services.ImageStore) *PostHandler {
	return &PostHandler{content: content, likes: likes, images: images}
}

// saveUpload 处理可选的 file 字段，没有上传时返回 nil
func (h *PostHandler) saveUpload(c *gin.Context) (*string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Validation("上传文件读取失败。")
	}
	url, err := h.images.Save(header)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(posts),
		"posts": posts,
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.content.GetPost(c.Request.Context(), id)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Create multipart 表单: title, content, 可选 file
func (h *PostHandler) Create(c *gin.Context) {
	image, err := h.saveUpload(c)
	if err != nil {
		RenderError(c, err)
		return
	}

	res, err := h.content.CreatePost(c.Request.Context(), currentUser(c), services.PostInput{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Image:   image,
	})
	if err != nil {
		if image != nil {
			h.images.Remove(*image)
		}
		RenderError(c, err)
		return
	}

	resp := gin.H{
		"message":    "发布成功。",
		"post":       res.Post,
		"ai_comment": nil,
	}
	if res.AIComment != nil {
		resp["ai_comment"] = res.AIComment.Content
	}
	if res.AIError != nil {
		resp["ai_error"] = apperr.Message(res.AIError)
	}
	c.JSON(http.StatusCreated, resp)
}

// Update 未提交或为空的字段保持原值
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var upd services.PostUpdate
	if v, ok := c.GetPostForm("title"); ok {
		upd.Title = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		upd.Content = &v
	}

	image, err := h.saveUpload(c)
	if err != nil {
		RenderError(c, err)
		return
	}
	upd.Image = image

	post, err := h.content.UpdatePost(c.Request.Context(), id, currentUser(c), upd)
	if err != nil {
		if image != nil {
			h.images.Remove(*image)
		}
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "修改成功。",
		"post":    post,
	})
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), id, currentUser(c)); err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "帖子已删除。"})
}

// Like 点赞状态是全站共享的，不区分访问者
func (h *PostHandler) Like(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	likes, liked, err := h.likes.Toggle(c.Request.Context(), id)
	if err != nil {
		RenderError(c, err)
		return
	}

	message := "已取消点赞"
	if liked {
		message = "已点赞"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"likes":    likes,
		"is_liked": liked,
	})
}
