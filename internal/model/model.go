package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Followers []string           `bson:"followers" json:"followers"`
	Following []string           `bson:"following" json:"following"`
}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Author      string             `bson:"author" json:"author"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Likes       []string           `bson:"likes" json:"likes"`
	// Comments are resolved from the comments collection at read time,
	// never stored on the post document.
	Comments []Comment `bson:"-" json:"comments,omitempty"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PostID    primitive.ObjectID `bson:"post" json:"post"`
	Text      string             `bson:"text" json:"text"`
	Author    string             `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	// AuthorName is filled in when comments are expanded for a response.
	AuthorName string `bson:"-" json:"authorName,omitempty"`
}

type SiteStats struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}
