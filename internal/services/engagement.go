package services

import (
	"context"
	"errors"
	"sync"

	"jejuboard/internal/apperr"
	"jejuboard/internal/store"
)

// LikeTracker 维护"已点赞"帖子集合。
// 集合只存在于当前进程内，所有访问者共用一份，重启后清空；多实例部署时各实例互不相通。
// 点赞数本身持久化在 posts.likes。
type LikeTracker struct {
	store  store.Store
	notify Notifier
	mu     sync.Mutex
	liked  map[uint]struct{}
}

func NewLikeTracker(s store.Store) *LikeTracker {
	return &LikeTracker{
		store:  s,
		notify: nopNotifier{},
		liked:  make(map[uint]struct{}),
	}
}

func (t *LikeTracker) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	t.notify = n
}

// Toggle 切换点赞状态，返回最新点赞数与是否已点赞
func (t *LikeTracker) Toggle(ctx context.Context, postID uint) (int, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, wasLiked := t.liked[postID]
	delta := 1
	if wasLiked {
		delta = -1
	}

	likes, err := t.store.AdjustLikes(ctx, postID, delta)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, false, apperr.NotFound("帖子不存在。")
		}
		return 0, false, apperr.Internal("更新点赞失败", err)
	}

	if wasLiked {
		delete(t.liked, postID)
	} else {
		t.liked[postID] = struct{}{}
	}

	liked := !wasLiked
	e := newEvent(EventLikeToggled, postID, 0)
	e.Likes, e.IsLiked = &likes, &liked
	t.notify.Publish(e)
	return likes, liked, nil
}

func (t *LikeTracker) IsLiked(postID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.liked[postID]
	return ok
}

// Forget 帖子删除后移除残留状态
func (t *LikeTracker) Forget(postID uint) {
	t.mu.Lock()
	delete(t.liked, postID)
	t.mu.Unlock()
}
