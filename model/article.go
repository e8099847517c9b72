package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article is a blog post. Content is stored as sanitized HTML.
// Collection: articles
type Article struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title" validate:"required,max=200"`
	Slug          string             `bson:"slug" json:"slug" validate:"required,max=200,slug"`
	Excerpt       string             `bson:"excerpt" json:"excerpt" validate:"required,max=1000"`
	Content       string             `bson:"content,omitempty" json:"content,omitempty" validate:"required"`
	Tags          []string           `bson:"tags" json:"tags" validate:"dive,max=50"`
	Status        Status             `bson:"status" json:"status" validate:"required,oneof=draft published"`
	FeaturedImage string             `bson:"featuredImage,omitempty" json:"featuredImage,omitempty" validate:"omitempty,url"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ArticleRequest is the create/update payload sent by the admin editor.
type ArticleRequest struct {
	Title         string   `json:"title" binding:"required"`
	Slug          string   `json:"slug" binding:"required"`
	Excerpt       string   `json:"excerpt" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featuredImage"`
	Published     bool     `json:"published"`
}

// Article converts the payload into a document ready for validation.
func (r ArticleRequest) Article() *Article {
	return &Article{
		Title:         strings.TrimSpace(r.Title),
		Slug:          strings.TrimSpace(r.Slug),
		Excerpt:       strings.TrimSpace(r.Excerpt),
		Content:       r.Content,
		Tags:          CleanList(r.Tags),
		Status:        StatusFromFlag(r.Published),
		FeaturedImage: strings.TrimSpace(r.FeaturedImage),
	}
}

// ArticleNavigation points at the neighbours of a published article:
// Prev is the next newer one, Next the next older one.
type ArticleNavigation struct {
	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`
}

type ArticleDetail struct {
	Article    *Article          `json:"article"`
	Navigation ArticleNavigation `json:"navigation"`
}
