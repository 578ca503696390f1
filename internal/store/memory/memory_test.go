package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/model"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store"
)

func TestFollowIdempotent(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := model.User{Name: "Target", Email: "target@example.com", Password: "x"}
	id, err := st.CreateUser(ctx, &user)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := st.AddFollower(ctx, id, "fan@example.com")
	if err != nil {
		t.Fatalf("add follower: %v", err)
	}
	second, err := st.AddFollower(ctx, id, "fan@example.com")
	if err != nil {
		t.Fatalf("add follower again: %v", err)
	}
	if len(first.Followers) != 1 || len(second.Followers) != 1 {
		t.Fatalf("expected follower set of 1 after both calls, got %d then %d",
			len(first.Followers), len(second.Followers))
	}
}

func TestUnfollowAbsentIsNoop(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := model.User{Name: "Target", Email: "target@example.com", Password: "x"}
	id, _ := st.CreateUser(ctx, &user)

	updated, err := st.RemoveFollower(ctx, id, "stranger@example.com")
	if err != nil {
		t.Fatalf("remove absent follower: %v", err)
	}
	if len(updated.Followers) != 0 {
		t.Fatalf("expected empty follower set, got %d", len(updated.Followers))
	}
}

func TestFollowUnknownUser(t *testing.T) {
	st := New()
	if _, err := st.AddFollower(context.Background(), primitive.NewObjectID(), "fan@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLikeTwiceFails(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := model.Post{Title: "T", Description: "D", Author: "a@example.com", CreatedAt: time.Now()}
	id, _ := st.CreatePost(ctx, &post)

	liked, err := st.LikePost(ctx, id, "b@example.com")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if len(liked.Likes) != 1 {
		t.Fatalf("expected 1 like, got %d", len(liked.Likes))
	}

	if _, err := st.LikePost(ctx, id, "b@example.com"); !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	got, _ := st.GetPost(ctx, id)
	if len(got.Likes) != 1 {
		t.Fatalf("like count changed on failed like: %d", len(got.Likes))
	}
}

func TestUnlikeNotLiked(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := model.Post{Title: "T", Description: "D", Author: "a@example.com", CreatedAt: time.Now()}
	id, _ := st.CreatePost(ctx, &post)

	if _, err := st.UnlikePost(ctx, id, "b@example.com"); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
}

func TestListPostsByAuthorNewestFirst(t *testing.T) {
	st := New()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		post := model.Post{
			Title:     "T",
			Author:    "a@example.com",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if _, err := st.CreatePost(ctx, &post); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}
	other := model.Post{Title: "X", Author: "b@example.com", CreatedAt: base}
	_, _ = st.CreatePost(ctx, &other)

	posts, err := st.ListPostsByAuthor(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Fatalf("posts not sorted newest first")
		}
	}
}

func TestListPostsAttachesComments(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := model.Post{Title: "T", Author: "a@example.com", CreatedAt: time.Now()}
	id, _ := st.CreatePost(ctx, &post)

	comment := model.Comment{PostID: id, Text: "hi", Author: "b@example.com", CreatedAt: time.Now()}
	if _, err := st.CreateComment(ctx, &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	posts, err := st.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 || len(posts[0].Comments) != 1 {
		t.Fatalf("expected 1 post with 1 comment attached, got %+v", posts)
	}
	if posts[0].Comments[0].Text != "hi" {
		t.Fatalf("unexpected comment text %q", posts[0].Comments[0].Text)
	}

	count, err := st.CountCommentsByPost(ctx, id)
	if err != nil || count != 1 {
		t.Fatalf("expected comment count 1, got %d (%v)", count, err)
	}
}

func TestDeletePost(t *testing.T) {
	st := New()
	ctx := context.Background()

	post := model.Post{Title: "T", Author: "a@example.com", CreatedAt: time.Now()}
	id, _ := st.CreatePost(ctx, &post)

	if err := st.DeletePost(ctx, id); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetPost(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeletePost(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestDuplicateEmail(t *testing.T) {
	st := New()
	ctx := context.Background()

	u1 := model.User{Name: "A", Email: "dup@example.com", Password: "x"}
	if _, err := st.CreateUser(ctx, &u1); err != nil {
		t.Fatalf("create user: %v", err)
	}
	u2 := model.User{Name: "B", Email: "dup@example.com", Password: "y"}
	if _, err := st.CreateUser(ctx, &u2); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
