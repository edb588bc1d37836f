package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"jejuboard/internal/apperr"
	"jejuboard/internal/models"
	"jejuboard/internal/store"
	"jejuboard/internal/utils"
)

const (
	MaxTitleLen      = 26
	AnonymousAuthor  = "匿名"
	htmlCacheTTL     = 5 * time.Minute
	htmlCacheEntries = 500
)

// CommentSynthesizer 根据帖子生成一句评论
type CommentSynthesizer interface {
	GenerateComment(ctx context.Context, title, content string) (string, error)
}

type ContentService struct {
	store    store.Store
	likes    *LikeTracker
	synth    CommentSynthesizer // 可为空，为空时不生成自动评论
	images   *ImageStore        // 可为空
	aiAuthor string
	cache    *utils.Cache[string]
	notify   Notifier
	now      func() time.Time
}

func NewContentService(s store.Store, likes *LikeTracker, synth CommentSynthesizer, images *ImageStore, aiAuthor string) *ContentService {
	if aiAuthor == "" {
		aiAuthor = "AI Bot"
	}
	return &ContentService{
		store:    s,
		likes:    likes,
		synth:    synth,
		images:   images,
		aiAuthor: aiAuthor,
		cache:    utils.NewCache[string](htmlCacheEntries, htmlCacheTTL),
		notify:   nopNotifier{},
		now:      time.Now,
	}
}

func (s *ContentService) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notify = n
}

// PostView 帖子及其展示字段
type PostView struct {
	models.Post
	ViewsDisplay string `json:"views_display"`
	LikesDisplay string `json:"likes_display"`
	IsLiked      bool   `json:"is_liked"`
	ContentHTML  string `json:"content_html,omitempty"`
}

type PostInput struct {
	Title   string
	Content string
	Image   *string
}

// PostUpdate 为 nil 或去空格后为空的字段保持原值
type PostUpdate struct {
	Title   *string
	Content *string
	Image   *string
}

type NewComment struct {
	Author  *models.User // 为空时使用 Label 署名
	Label   string
	Content string
}

// CreatePostResult 帖子已经落库；AIError 非空表示自动评论没有生成
type CreatePostResult struct {
	Post      *models.Post
	AIComment *models.Comment
	AIError   error
}

func htmlCacheKey(postID uint) string {
	return fmt.Sprintf("post:html:%d", postID)
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return apperr.Validation("标题最多 26 个字符。")
	}
	return nil
}

func mapPostErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("帖子不存在。")
	}
	return apperr.Internal("查询帖子失败", err)
}

func (s *ContentService) view(p models.Post) PostView {
	p.Author = p.DisplayAuthor()
	return PostView{
		Post:         p,
		ViewsDisplay: utils.FormatCount(p.Views),
		LikesDisplay: utils.FormatCount(p.Likes),
		IsLiked:      s.likes.IsLiked(p.ID),
	}
}

func (s *ContentService) renderHTML(p *models.Post) string {
	key := htmlCacheKey(p.ID)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}
	html := utils.RenderMarkdown(p.Content)
	s.cache.Set(key, html)
	return html
}

// CreatePost 先提交帖子，再同步生成 AI 评论；生成失败不影响帖子本身
func (s *ContentService) CreatePost(ctx context.Context, author *models.User, in PostInput) (*CreatePostResult, error) {
	if author == nil {
		return nil, apperr.Auth("请先登录。")
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, apperr.Validation("请输入标题和内容。")
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:  author.ID,
		Author:  author.Nickname,
		Title:   title,
		Content: content,
		Image:   in.Image,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrReferenced) {
			return nil, apperr.NotFound("用户不存在。")
		}
		return nil, apperr.Internal("发布失败", err)
	}
	post.User = *author
	s.notify.Publish(newEvent(EventPostCreated, post.ID, 0))

	result := &CreatePostResult{Post: post}
	if s.synth == nil {
		return result, nil
	}

	text, err := s.synth.GenerateComment(ctx, post.Title, post.Content)
	if err != nil {
		log.Printf("[AI] 自动评论生成失败 (postID=%d): %v", post.ID, err)
		result.AIError = err
		return result, nil
	}
	comment, err := s.AddComment(ctx, post.ID, NewComment{Label: s.aiAuthor, Content: text})
	if err != nil {
		log.Printf("[AI] 自动评论保存失败 (postID=%d): %v", post.ID, err)
		result.AIError = err
		return result, nil
	}
	result.AIComment = comment
	return result, nil
}

// GetPost 每次读取都会让浏览量 +1
func (s *ContentService) GetPost(ctx context.Context, id uint) (*PostView, error) {
	if err := s.store.IncrementViews(ctx, id); err != nil {
		return nil, mapPostErr(err)
	}
	post, err := s.store.PostByID(ctx, id)
	if err != nil {
		return nil, mapPostErr(err)
	}

	v := s.view(*post)
	v.ContentHTML = s.renderHTML(post)
	return &v, nil
}

// ListPosts 按 ID 倒序
func (s *ContentService) ListPosts(ctx context.Context) ([]PostView, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, apperr.Internal("查询帖子失败", err)
	}
	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = s.view(p)
	}
	return views, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, id uint, requester *models.User, upd PostUpdate) (*models.Post, error) {
	post, err := s.store.PostByID(ctx, id)
	if err != nil {
		return nil, mapPostErr(err)
	}
	if err := authorize(requester, &post.UserID, "只能修改自己发布的帖子。"); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if t := strings.TrimSpace(*upd.Title); t != "" {
			post.Title = t
		}
	}
	if err := validateTitle(post.Title); err != nil {
		return nil, err
	}
	if upd.Content != nil {
		if c := strings.TrimSpace(*upd.Content); c != "" {
			post.Content = c
		}
	}

	var oldImage *string
	if upd.Image != nil {
		oldImage = post.Image
		post.Image = upd.Image
	}

	now := s.now()
	post.UpdatedAt = &now
	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, mapPostErr(err)
	}

	s.cache.Delete(htmlCacheKey(post.ID))
	s.notify.Publish(newEvent(EventPostUpdated, post.ID, 0))
	if oldImage != nil && s.images != nil && *oldImage != *post.Image {
		s.images.Remove(*oldImage)
	}

	post.Author = post.DisplayAuthor()
	return post, nil
}

// DeletePost 先删评论再删帖子，由 store 在同一事务中完成
func (s *ContentService) DeletePost(ctx context.Context, id uint, requester *models.User) error {
	post, err := s.store.PostByID(ctx, id)
	if err != nil {
		return mapPostErr(err)
	}
	if err := authorize(requester, &post.UserID, "只能删除自己发布的帖子。"); err != nil {
		return err
	}

	if err := s.store.DeletePost(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrReferenced):
			return apperr.Conflict("帖子下仍有评论，无法删除。")
		case errors.Is(err, store.ErrNotFound):
			return apperr.NotFound("帖子不存在。")
		}
		return apperr.Internal("删除帖子失败", err)
	}

	s.likes.Forget(id)
	s.cache.Delete(htmlCacheKey(id))
	s.notify.Publish(newEvent(EventPostDeleted, id, 0))
	if post.Image != nil && s.images != nil {
		s.images.Remove(*post.Image)
	}
	return nil
}

// ListComments 按发布顺序
func (s *ContentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		return nil, mapPostErr(err)
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, apperr.Internal("查询评论失败", err)
	}
	for i := range comments {
		comments[i].Author = comments[i].DisplayAuthor()
	}
	return comments, nil
}

// AddComment 没有登录用户时按 Label 署名，这是自动评论使用的通道
func (s *ContentService) AddComment(ctx context.Context, postID uint, in NewComment) (*models.Comment, error) {
	if _, err := s.store.PostByID(ctx, postID); err != nil {
		return nil, mapPostErr(err)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("请输入评论内容。")
	}

	comment := &models.Comment{
		PostID:  postID,
		Content: content,
	}
	if in.Author != nil {
		id := in.Author.ID
		comment.UserID = &id
		comment.Author = in.Author.Nickname
	} else {
		comment.Author = in.Label
		if comment.Author == "" {
			comment.Author = AnonymousAuthor
		}
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, store.ErrReferenced) {
			return nil, apperr.NotFound("帖子不存在。")
		}
		return nil, apperr.Internal("发表评论失败", err)
	}
	comment.User = in.Author
	s.notify.Publish(newEvent(EventCommentCreated, postID, comment.ID))
	return comment, nil
}

func (s *ContentService) commentFor(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.store.CommentByID(ctx, postID, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("评论不存在。")
		}
		return nil, apperr.Internal("查询评论失败", err)
	}
	return comment, nil
}

func (s *ContentService) UpdateComment(ctx context.Context, postID, commentID uint, requester *models.User, content string) (*models.Comment, error) {
	comment, err := s.commentFor(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(requester, comment.UserID, "只能修改自己发表的评论。"); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("请输入评论内容。")
	}

	now := s.now()
	comment.Content = content
	comment.UpdatedAt = &now
	if err := s.store.SaveComment(ctx, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("评论不存在。")
		}
		return nil, apperr.Internal("修改评论失败", err)
	}
	comment.Author = comment.DisplayAuthor()
	s.notify.Publish(newEvent(EventCommentUpdated, postID, comment.ID))
	return comment, nil
}

func (s *ContentService) DeleteComment(ctx context.Context, postID, commentID uint, requester *models.User) error {
	comment, err := s.commentFor(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if err := authorize(requester, comment.UserID, "只能删除自己发表的评论。"); err != nil {
		return err
	}

	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("评论不存在。")
		}
		return apperr.Internal("删除评论失败", err)
	}
	s.notify.Publish(newEvent(EventCommentDeleted, postID, comment.ID))
	return nil
}
