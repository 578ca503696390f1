package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyLiked   = errors.New("already liked")
	ErrNotLiked       = errors.New("not liked")
	ErrDuplicateEmail = errors.New("duplicate email")
)

type Store interface {
	UserStore
	PostStore
	CommentStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) (primitive.ObjectID, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	// AddFollower inserts followerEmail into the target's follower set and
	// returns the updated record. Inserting an existing member is a no-op.
	AddFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error)
	RemoveFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) (primitive.ObjectID, error)
	GetPost(ctx context.Context, id primitive.ObjectID) (model.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	// LikePost adds email to the post's like set as a single conditional
	// update. Returns ErrAlreadyLiked when email is already a member.
	LikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error)
	// UnlikePost removes email from the like set. Returns ErrNotLiked when
	// email is not a member.
	UnlikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	// ListPostsByAuthor returns the author's posts, newest first.
	ListPostsByAuthor(ctx context.Context, email string) ([]model.Post, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) (primitive.ObjectID, error)
	ListCommentsByPost(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error)
	CountCommentsByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}
