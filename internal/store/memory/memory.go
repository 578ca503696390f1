// Package memory is an in-memory Store used by tests and the -memory dev
// mode. It mirrors the mongo store's semantics, including the conditional
// like/unlike updates, under a single mutex.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/model"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store"
)

type Store struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*model.User
	posts    map[primitive.ObjectID]*model.Post
	comments map[primitive.ObjectID]*model.Comment
}

func New() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]*model.User),
		posts:    make(map[primitive.ObjectID]*model.Post),
		comments: make(map[primitive.ObjectID]*model.Comment),
	}
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, store.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Followers == nil {
		user.Followers = []string{}
	}
	if user.Following == nil {
		user.Following = []string{}
	}
	stored := copyUser(user)
	s.users[user.ID] = &stored
	return user.ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) AddFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	if !contains(u.Followers, followerEmail) {
		u.Followers = append(u.Followers, followerEmail)
	}
	return copyUser(u), nil
}

func (s *Store) RemoveFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	u.Followers = remove(u.Followers, followerEmail)
	return copyUser(u), nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	stored := copyPost(post)
	stored.Comments = nil
	s.posts[post.ID] = &stored
	return post.ID, nil
}

func (s *Store) GetPost(ctx context.Context, id primitive.ObjectID) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, store.ErrNotFound
	}
	return copyPost(p), nil
}

func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) LikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, store.ErrNotFound
	}
	if contains(p.Likes, email) {
		return model.Post{}, store.ErrAlreadyLiked
	}
	p.Likes = append(p.Likes, email)
	return copyPost(p), nil
}

func (s *Store) UnlikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return model.Post{}, store.ErrNotFound
	}
	if !contains(p.Likes, email) {
		return model.Post{}, store.ErrNotLiked
	}
	p.Likes = remove(p.Likes, email)
	return copyPost(p), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		post := copyPost(p)
		post.Comments = s.commentsForLocked(p.ID)
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, email string) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var posts []model.Post
	for _, p := range s.posts {
		if p.Author == email {
			posts = append(posts, copyPost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	stored := *comment
	s.comments[comment.ID] = &stored
	return comment.ID, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentsForLocked(postID), nil
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.commentsForLocked(postID))), nil
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SiteStats{
		Users:    int64(len(s.users)),
		Posts:    int64(len(s.posts)),
		Comments: int64(len(s.comments)),
	}, nil
}

func (s *Store) commentsForLocked(postID primitive.ObjectID) []model.Comment {
	var comments []model.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments
}

func copyUser(u *model.User) model.User {
	out := *u
	out.Followers = append([]string(nil), u.Followers...)
	out.Following = append([]string(nil), u.Following...)
	if out.Followers == nil {
		out.Followers = []string{}
	}
	if out.Following == nil {
		out.Following = []string{}
	}
	return out
}

func copyPost(p *model.Post) model.Post {
	out := *p
	out.Likes = append([]string(nil), p.Likes...)
	if out.Likes == nil {
		out.Likes = []string{}
	}
	return out
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

func remove(set []string, value string) []string {
	out := set[:0]
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
