package services

import "time"

const (
	EventPostCreated    = "post_created"
	EventPostUpdated    = "post_updated"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
	EventCommentUpdated = "comment_updated"
	EventCommentDeleted = "comment_deleted"
	EventLikeToggled    = "like_toggled"
)

// Event 内容变化通知，推送给在线客户端
type Event struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	Likes     *int      `json:"likes,omitempty"`
	IsLiked   *bool     `json:"is_liked,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier 不得阻塞调用方
type Notifier interface {
	Publish(Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

func newEvent(kind string, postID, commentID uint) Event {
	return Event{Type: kind, PostID: postID, CommentID: commentID, At: time.Now()}
}
