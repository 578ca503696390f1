package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Faiz-Ahmad-Khan/social-media/internal/model"
	"github.com/Faiz-Ahmad-Khan/social-media/internal/store"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(dbName)
	s := &Store{
		client:   client,
		users:    db.Collection("users"),
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (primitive.ObjectID, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Followers == nil {
		user.Followers = []string{}
	}
	if user.Following == nil {
		user.Following = []string{}
	}
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, store.ErrDuplicateEmail
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) AddFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error) {
	return s.updateFollowers(ctx, userID, bson.M{"$addToSet": bson.M{"followers": followerEmail}})
}

func (s *Store) RemoveFollower(ctx context.Context, userID primitive.ObjectID, followerEmail string) (model.User, error) {
	return s.updateFollowers(ctx, userID, bson.M{"$pull": bson.M{"followers": followerEmail}})
}

func (s *Store) updateFollowers(ctx context.Context, userID primitive.ObjectID, update bson.M) (model.User, error) {
	var user model.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) (primitive.ObjectID, error) {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return primitive.NilObjectID, err
	}
	return post.ID, nil
}

func (s *Store) GetPost(ctx context.Context, id primitive.ObjectID) (model.Post, error) {
	var post model.Post
	err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, store.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// LikePost matches the post only when email is not yet in the like set, so
// the membership check and the insert are one document update. A miss is
// disambiguated afterwards into ErrNotFound vs ErrAlreadyLiked.
func (s *Store) LikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error) {
	var post model.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "likes": bson.M{"$ne": email}},
		bson.M{"$addToSet": bson.M{"likes": email}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, err
	}
	count, cerr := s.posts.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return model.Post{}, cerr
	}
	if count == 0 {
		return model.Post{}, store.ErrNotFound
	}
	return model.Post{}, store.ErrAlreadyLiked
}

func (s *Store) UnlikePost(ctx context.Context, id primitive.ObjectID, email string) (model.Post, error) {
	var post model.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "likes": email},
		bson.M{"$pull": bson.M{"likes": email}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, err
	}
	count, cerr := s.posts.CountDocuments(ctx, bson.M{"_id": id})
	if cerr != nil {
		return model.Post{}, cerr
	}
	if count == 0 {
		return model.Post{}, store.ErrNotFound
	}
	return model.Post{}, store.ErrNotLiked
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	cur, err := s.posts.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]primitive.ObjectID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	ccur, err := s.comments.Find(ctx, bson.M{"post": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var comments []model.Comment
	if err := ccur.All(ctx, &comments); err != nil {
		return nil, err
	}
	byPost := make(map[primitive.ObjectID][]model.Comment)
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}
	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
	}
	return posts, nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, email string) ([]model.Post, error) {
	cur, err := s.posts.Find(ctx,
		bson.M{"author": email},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var posts []model.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (primitive.ObjectID, error) {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, err := s.comments.InsertOne(ctx, comment); err != nil {
		return primitive.NilObjectID, err
	}
	return comment.ID, nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error) {
	cur, err := s.comments.Find(ctx, bson.M{"post": postID})
	if err != nil {
		return nil, err
	}
	var comments []model.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return s.comments.CountDocuments(ctx, bson.M{"post": postID})
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	users, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return model.SiteStats{}, err
	}
	posts, err := s.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return model.SiteStats{}, err
	}
	comments, err := s.comments.CountDocuments(ctx, bson.M{})
	if err != nil {
		return model.SiteStats{}, err
	}
	return model.SiteStats{Users: users, Posts: posts, Comments: comments}, nil
}
