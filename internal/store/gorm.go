package store

import (
	"context"
	"errors"

	"jejuboard/internal/models"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

// NewGormStore 需要开启了 TranslateError 的连接
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) exists(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return s.exists(ctx, "email", email, excludeID)
}

func (s *GormStore) NicknameTaken(ctx context.Context, nickname string, excludeID uint) (bool, error) {
	return s.exists(ctx, "nickname", nickname, excludeID)
}

func (s *GormStore) updateUserColumn(ctx context.Context, id uint, column string, value string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UpdateNickname(ctx context.Context, id uint, nickname string) error {
	return s.updateUserColumn(ctx, id, "nickname", nickname)
}

func (s *GormStore) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updateUserColumn(ctx, id, "password", hash)
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Omit("User").Create(post).Error)
}

func (s *GormStore) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *GormStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("User").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *GormStore) SavePost(ctx context.Context, post *models.Post) error {
	result := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":      post.Title,
		"content":    post.Content,
		"image":      post.Image,
		"updated_at": post.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 先删除评论
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		// 2. 再删除帖子
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (s *GormStore) IncrementViews(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AdjustLikes(ctx context.Context, id uint, delta int) (int, error) {
	var likes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("CASE WHEN likes + ? < 0 THEN 0 ELSE likes + ? END", delta, delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var post models.Post
		if err := tx.Select("id", "likes").First(&post, id).Error; err != nil {
			return err
		}
		likes = post.Likes
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return likes, nil
}

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Omit("Post", "User").Create(comment).Error)
}

func (s *GormStore) CommentByID(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *GormStore) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *GormStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	result := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
		"content":    comment.Content,
		"updated_at": comment.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
