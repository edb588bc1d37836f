package models

import (
	"time"
)

type Comment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	PostID uint `gorm:"not null;index" json:"post_id"`
	// 不设 OnDelete，帖子下仍有评论时数据库拒绝删除
	Post Post `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	// UserID 为空表示机器人等非真人作者，任何人都无权修改
	UserID    *uint      `gorm:"index" json:"user_id"`
	User      *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Author    string     `gorm:"size:50;not null" json:"author"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (c *Comment) DisplayAuthor() string {
	if c.User != nil && c.User.Nickname != "" {
		return c.User.Nickname
	}
	return c.Author
}

// IsSynthetic 是否为机器人生成的评论
func (c *Comment) IsSynthetic() bool {
	return c.UserID == nil
}
