// Package store 是用户、帖子、评论的持久化层
package store

import (
	"context"
	"errors"

	"jejuboard/internal/models"
)

var (
	ErrNotFound   = errors.New("store: record not found")
	ErrDuplicate  = errors.New("store: duplicate key")
	ErrReferenced = errors.New("store: record still referenced")
)

type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// EmailTaken/NicknameTaken 检查唯一性，excludeID 为 0 时不排除任何用户
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	NicknameTaken(ctx context.Context, nickname string, excludeID uint) (bool, error)
	UpdateNickname(ctx context.Context, id uint, nickname string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error

	CreatePost(ctx context.Context, post *models.Post) error
	// PostByID 同时加载作者
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	// ListPosts 按 ID 倒序
	ListPosts(ctx context.Context) ([]models.Post, error)
	SavePost(ctx context.Context, post *models.Post) error
	// DeletePost 在同一事务中先删评论再删帖子
	DeletePost(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	// AdjustLikes 原子地调整点赞数（不低于 0），返回调整后的值
	AdjustLikes(ctx context.Context, id uint, delta int) (int, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	// CommentByID 只返回属于 postID 的评论
	CommentByID(ctx context.Context, postID, commentID uint) (*models.Comment, error)
	// ListComments 按 ID 正序
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	SaveComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}
