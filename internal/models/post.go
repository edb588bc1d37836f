package models

import (
	"time"
)

type Post struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"` // 作者，发帖时确定，权限校验只认它
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// Author 发帖时的昵称快照，展示时优先使用 User.Nickname
	Author    string     `gorm:"size:10;not null" json:"author"`
	Title     string     `gorm:"size:100;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Image     *string    `json:"image"`
	Views     int        `gorm:"default:0;not null" json:"views"`
	Likes     int        `gorm:"default:0;not null" json:"likes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// DisplayAuthor 返回当前应展示的作者名
func (p *Post) DisplayAuthor() string {
	if p.User.ID != 0 && p.User.Nickname != "" {
		return p.User.Nickname
	}
	return p.Author
}
