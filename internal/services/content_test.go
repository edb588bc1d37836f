package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"jejuboard/internal/apperr"
	"jejuboard/internal/models"
	"jejuboard/internal/store"
)

type fakeSynth struct {
	reply string
	err   error
	calls int
}

func (f *fakeSynth) GenerateComment(_ context.Context, title, content string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// referencedStore 模拟数据库拒绝删除仍有评论的帖子
type referencedStore struct {
	store.Store
}

func (referencedStore) DeletePost(context.Context, uint) error {
	return store.ErrReferenced
}

type board struct {
	store    *store.MemoryStore
	identity *IdentityService
	content  *ContentService
	likes    *LikeTracker
	synth    *fakeSynth
}

func newBoard(t *testing.T) *board {
	t.Helper()
	s := store.NewMemoryStore()
	likes := NewLikeTracker(s)
	synth := &fakeSynth{reply: "写得不错！"}
	return &board{
		store:    s,
		identity: NewIdentityService(s),
		content:  NewContentService(s, likes, synth, nil, "AI Bot"),
		likes:    likes,
		synth:    synth,
	}
}

func (b *board) user(t *testing.T, nickname string) *models.User {
	t.Helper()
	u, err := b.identity.Register(context.Background(), nickname+"@example.com", "Abcd1234!", "Abcd1234!", nickname)
	if err != nil {
		t.Fatalf("register %s: %v", nickname, err)
	}
	return u
}

func (b *board) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	res, err := b.content.CreatePost(context.Background(), author, PostInput{Title: title, Content: "内容"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return res.Post
}

func strPtr(s string) *string { return &s }

func TestCreatePostWithAIComment(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")

	res, err := b.content.CreatePost(ctx, alice, PostInput{Title: "  hi  ", Content: "hello"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if res.Post.Title != "hi" || res.Post.Author != "alice" || res.Post.UserID != alice.ID {
		t.Errorf("unexpected post: %+v", res.Post)
	}
	if res.Post.Views != 0 || res.Post.Likes != 0 {
		t.Errorf("counters should start at 0, got views=%d likes=%d", res.Post.Views, res.Post.Likes)
	}
	if res.AIError != nil || res.AIComment == nil {
		t.Fatalf("expected AI comment, got err=%v", res.AIError)
	}
	if !res.AIComment.IsSynthetic() || res.AIComment.Author != "AI Bot" || res.AIComment.Content != "写得不错！" {
		t.Errorf("unexpected AI comment: %+v", res.AIComment)
	}

	comments, err := b.content.ListComments(ctx, res.Post.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
}

func TestCreatePostSurvivesAIFailure(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	b.synth.err = apperr.Generation("AI 服务请求失败", errors.New("boom"))
	alice := b.user(t, "alice")

	res, err := b.content.CreatePost(ctx, alice, PostInput{Title: "hi", Content: "hello"})
	if err != nil {
		t.Fatalf("CreatePost should not fail: %v", err)
	}
	if !apperr.Is(res.AIError, apperr.KindGeneration) || res.AIComment != nil {
		t.Errorf("expected generation error and no comment, got %v", res.AIError)
	}
	if _, err := b.store.PostByID(ctx, res.Post.ID); err != nil {
		t.Errorf("post should be committed: %v", err)
	}
	comments, _ := b.content.ListComments(ctx, res.Post.ID)
	if len(comments) != 0 {
		t.Errorf("expected no comments, got %d", len(comments))
	}
}

func TestCreatePostValidation(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")

	cases := []struct {
		name    string
		title   string
		content string
		wantErr bool
	}{
		{"empty title", "   ", "内容", true},
		{"empty content", "标题", "\n", true},
		{"26 chars", strings.Repeat("가", 26), "내용", false},
		{"27 chars", strings.Repeat("가", 27), "내용", true},
	}
	for _, tc := range cases {
		_, err := b.content.CreatePost(ctx, alice, PostInput{Title: tc.title, Content: tc.content})
		if tc.wantErr && !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}

	if _, err := b.content.CreatePost(ctx, nil, PostInput{Title: "a", Content: "b"}); !apperr.Is(err, apperr.KindAuth) {
		t.Errorf("anonymous create should be auth error, got %v", err)
	}
}

func TestGetPostCountsViews(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	p := b.post(t, b.user(t, "alice"), "标题")

	for i := 1; i <= 3; i++ {
		v, err := b.content.GetPost(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPost: %v", err)
		}
		if v.Views != i {
			t.Errorf("read %d: views = %d", i, v.Views)
		}
		if v.ContentHTML == "" {
			t.Errorf("content_html should be rendered")
		}
	}

	if _, err := b.content.GetPost(ctx, 999); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPostViewDisplayCounts(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	p := b.post(t, b.user(t, "alice"), "标题")
	for i := 0; i < 1499; i++ {
		if err := b.store.IncrementViews(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	v, err := b.content.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Views != 1500 || v.ViewsDisplay != "1k" {
		t.Errorf("views=%d display=%q", v.Views, v.ViewsDisplay)
	}
	if v.LikesDisplay != "0" {
		t.Errorf("likes display = %q", v.LikesDisplay)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")
	first := b.post(t, alice, "first")
	second := b.post(t, alice, "second")

	posts, err := b.content.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 || posts[0].ID != second.ID || posts[1].ID != first.ID {
		t.Errorf("unexpected order: %+v", posts)
	}
	if posts[0].ContentHTML != "" {
		t.Errorf("list should not render content")
	}
}

func TestUpdatePost(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")
	bob := b.user(t, "bob")
	p := b.post(t, alice, "旧标题")

	if _, err := b.content.UpdatePost(ctx, p.ID, bob, PostUpdate{Title: strPtr("x")}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("bob should be forbidden, got %v", err)
	}
	if _, err := b.content.UpdatePost(ctx, 999, alice, PostUpdate{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := b.content.UpdatePost(ctx, p.ID, alice, PostUpdate{Title: strPtr(strings.Repeat("a", 27))}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	updated, err := b.content.UpdatePost(ctx, p.ID, alice, PostUpdate{Title: strPtr("新标题"), Content: strPtr("  ")})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if updated.Title != "新标题" || updated.Content != "内容" {
		t.Errorf("blank content should keep old value: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Errorf("updated_at should be set")
	}

	v, err := b.content.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Title != "新标题" {
		t.Errorf("title not persisted: %q", v.Title)
	}
}

func TestUpdatePostInvalidatesRenderedContent(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")
	p := b.post(t, alice, "标题")

	before, _ := b.content.GetPost(ctx, p.ID)
	if _, err := b.content.UpdatePost(ctx, p.ID, alice, PostUpdate{Content: strPtr("**粗体**")}); err != nil {
		t.Fatal(err)
	}
	after, _ := b.content.GetPost(ctx, p.ID)
	if before.ContentHTML == after.ContentHTML || !strings.Contains(after.ContentHTML, "<strong>") {
		t.Errorf("stale html after update: %q", after.ContentHTML)
	}
}

func TestOwnershipSurvivesNicknameChange(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")
	p := b.post(t, alice, "标题")

	renamed, err := b.identity.UpdateNickname(ctx, alice.ID, "alice2")
	if err != nil {
		t.Fatalf("UpdateNickname: %v", err)
	}
	// 另一个人拿走旧昵称，也不能因此获得权限
	mallory, err := b.identity.Register(ctx, "mallory@example.com", "Abcd1234!", "Abcd1234!", "alice")
	if err != nil {
		t.Fatalf("register mallory: %v", err)
	}

	if _, err := b.content.UpdatePost(ctx, p.ID, mallory, PostUpdate{Title: strPtr("x")}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("old nickname holder should be forbidden, got %v", err)
	}
	if _, err := b.content.UpdatePost(ctx, p.ID, renamed, PostUpdate{Title: strPtr("改名后")}); err != nil {
		t.Errorf("renamed author should keep ownership: %v", err)
	}

	v, _ := b.content.GetPost(ctx, p.ID)
	if v.Author != "alice2" {
		t.Errorf("author should follow live nickname, got %q", v.Author)
	}
}

func TestDeletePostRemovesComments(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		b := newBoard(t)
		b.content.synth = nil
		ctx := context.Background()
		alice := b.user(t, "alice")
		p := b.post(t, alice, "标题")
		for i := 0; i < n; i++ {
			if _, err := b.content.AddComment(ctx, p.ID, NewComment{Author: alice, Content: "评论"}); err != nil {
				t.Fatal(err)
			}
		}
		if _, _, err := b.likes.Toggle(ctx, p.ID); err != nil {
			t.Fatal(err)
		}

		if err := b.content.DeletePost(ctx, p.ID, alice); err != nil {
			t.Fatalf("n=%d: DeletePost: %v", n, err)
		}
		if _, err := b.store.PostByID(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("n=%d: post should be gone", n)
		}
		left, _ := b.store.ListComments(ctx, p.ID)
		if len(left) != 0 {
			t.Errorf("n=%d: %d comments left", n, len(left))
		}
		if b.likes.IsLiked(p.ID) {
			t.Errorf("n=%d: like state should be forgotten", n)
		}
	}
}

func TestDeletePostErrors(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	alice := b.user(t, "alice")
	bob := b.user(t, "bob")
	p := b.post(t, alice, "标题")

	if err := b.content.DeletePost(ctx, p.ID, bob); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := b.content.DeletePost(ctx, 999, alice); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	svc := NewContentService(referencedStore{b.store}, b.likes, nil, nil, "")
	if err := svc.DeletePost(ctx, p.ID, alice); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestComments(t *testing.T) {
	b := newBoard(t)
	b.content.synth = nil
	ctx := context.Background()
	alice := b.user(t, "alice")
	bob := b.user(t, "bob")
	p := b.post(t, alice, "标题")

	if _, err := b.content.AddComment(ctx, p.ID, NewComment{Author: bob, Content: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation, got %v", err)
	}
	if _, err := b.content.AddComment(ctx, 999, NewComment{Author: bob, Content: "x"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	c, err := b.content.AddComment(ctx, p.ID, NewComment{Author: bob, Content: "沙发"})
	if err != nil {
		t.Fatal(err)
	}
	anon, err := b.content.AddComment(ctx, p.ID, NewComment{Content: "路过"})
	if err != nil {
		t.Fatal(err)
	}
	if anon.Author != AnonymousAuthor || !anon.IsSynthetic() {
		t.Errorf("unexpected anonymous comment: %+v", anon)
	}

	if _, err := b.content.UpdateComment(ctx, p.ID, c.ID, alice, "改"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("post author cannot edit others' comments, got %v", err)
	}
	if _, err := b.content.UpdateComment(ctx, p.ID, anon.ID, bob, "改"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("synthetic comment must be immutable, got %v", err)
	}
	if _, err := b.content.UpdateComment(ctx, p.ID, c.ID, bob, " "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation, got %v", err)
	}
	if _, err := b.content.UpdateComment(ctx, p.ID+1, c.ID, bob, "改"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("comment scoped to another post should be not found, got %v", err)
	}

	edited, err := b.content.UpdateComment(ctx, p.ID, c.ID, bob, "板凳")
	if err != nil {
		t.Fatal(err)
	}
	if edited.Content != "板凳" || edited.UpdatedAt == nil {
		t.Errorf("unexpected edit: %+v", edited)
	}

	if err := b.content.DeleteComment(ctx, p.ID, anon.ID, alice); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("synthetic comment must not be deletable, got %v", err)
	}
	if err := b.content.DeleteComment(ctx, p.ID, c.ID, bob); err != nil {
		t.Fatal(err)
	}
	if err := b.content.DeleteComment(ctx, p.ID, c.ID, bob); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second delete should be not found, got %v", err)
	}

	comments, err := b.content.ListComments(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].ID != anon.ID {
		t.Errorf("unexpected comments: %+v", comments)
	}
	if _, err := b.content.ListComments(ctx, 999); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBoardWalkthrough(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()

	aloha, err := b.identity.Register(ctx, "a@b.co", "Abcd1234!", "Abcd1234!", "aloha")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := b.identity.Authenticate(ctx, "a@b.co", "wrong"); !apperr.Is(err, apperr.KindAuth) {
		t.Errorf("wrong password should be auth error, got %v", err)
	}
	if _, err := b.identity.Authenticate(ctx, "a@b.co", "Abcd1234!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	res, err := b.content.CreatePost(ctx, aloha, PostInput{Title: "hi", Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	comments, _ := b.content.ListComments(ctx, res.Post.ID)
	if len(comments) != 1 || comments[0].Author != "AI Bot" {
		t.Errorf("expected one AI comment, got %+v", comments)
	}

	bob := b.user(t, "bob")
	if _, err := b.content.UpdatePost(ctx, res.Post.ID, bob, PostUpdate{Title: strPtr("x")}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("bob update should be forbidden, got %v", err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestContentEvents(t *testing.T) {
	b := newBoard(t)
	ctx := context.Background()
	rec := &recorder{}
	b.content.SetNotifier(rec)
	b.likes.SetNotifier(rec)
	alice := b.user(t, "alice")

	p := b.post(t, alice, "标题")
	if _, _, err := b.likes.Toggle(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := b.content.DeletePost(ctx, p.ID, alice); err != nil {
		t.Fatal(err)
	}

	want := []string{EventPostCreated, EventCommentCreated, EventLikeToggled, EventPostDeleted}
	got := rec.types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
	if like := rec.events[2]; like.Likes == nil || *like.Likes != 1 || like.IsLiked == nil || !*like.IsLiked {
		t.Errorf("unexpected like event %+v", like)
	}
}
