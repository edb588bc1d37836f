package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"jejuboard/internal/models"
)

// MemoryStore 内存实现，用于测试和本地调试
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uint]models.User
	posts    map[uint]models.Post
	comments map[uint]models.Comment
	nextUser uint
	nextPost uint
	nextCmt  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]models.User),
		posts:    make(map[uint]models.Post),
		comments: make(map[uint]models.Comment),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Nickname == user.Nickname {
			return ErrDuplicate
		}
	}
	s.nextUser++
	now := time.Now()
	user.ID = s.nextUser
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) EmailTaken(_ context.Context, email string, excludeID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) NicknameTaken(_ context.Context, nickname string, excludeID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Nickname == nickname && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateNickname(_ context.Context, id uint, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, other := range s.users {
		if other.ID != id && other.Nickname == nickname {
			return ErrDuplicate
		}
	}
	u.Nickname = nickname
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.UserID]; !ok {
		return ErrReferenced
	}
	s.nextPost++
	post.ID = s.nextPost
	post.CreatedAt = time.Now()
	stored := *post
	stored.User = models.User{}
	s.posts[post.ID] = stored
	return nil
}

// withAuthor 模拟 Preload("User")
func (s *MemoryStore) withAuthor(p models.Post) models.Post {
	p.User = s.users[p.UserID]
	return p
}

func (s *MemoryStore) PostByID(_ context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = s.withAuthor(p)
	return &p, nil
}

func (s *MemoryStore) ListPosts(_ context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, s.withAuthor(p))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (s *MemoryStore) SavePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	p.Title = post.Title
	p.Content = post.Content
	p.Image = post.Image
	p.UpdatedAt = post.UpdatedAt
	s.posts[post.ID] = p
	return nil
}

func (s *MemoryStore) DeletePost(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) IncrementViews(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Views++
	s.posts[id] = p
	return nil
}

func (s *MemoryStore) AdjustLikes(_ context.Context, id uint, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.Likes += delta
	if p.Likes < 0 {
		p.Likes = 0
	}
	s.posts[id] = p
	return p.Likes, nil
}

func (s *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return ErrReferenced
	}
	s.nextCmt++
	comment.ID = s.nextCmt
	comment.CreatedAt = time.Now()
	stored := *comment
	stored.User = nil
	stored.Post = models.Post{}
	s.comments[comment.ID] = stored
	return nil
}

func (s *MemoryStore) withCommentAuthor(c models.Comment) models.Comment {
	if c.UserID != nil {
		if u, ok := s.users[*c.UserID]; ok {
			c.User = &u
		}
	}
	return c
}

func (s *MemoryStore) CommentByID(_ context.Context, postID, commentID uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, ErrNotFound
	}
	c = s.withCommentAuthor(c)
	return &c, nil
}

func (s *MemoryStore) ListComments(_ context.Context, postID uint) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, s.withCommentAuthor(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (s *MemoryStore) SaveComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	c.Content = comment.Content
	c.UpdatedAt = comment.UpdatedAt
	s.comments[comment.ID] = c
	return nil
}

func (s *MemoryStore) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}
