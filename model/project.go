package model

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SourceURLs struct {
	GitHub string `bson:"github,omitempty" json:"github,omitempty" validate:"omitempty,url"`
	GitLab string `bson:"gitlab,omitempty" json:"gitlab,omitempty" validate:"omitempty,url"`
	Other  string `bson:"other,omitempty" json:"other,omitempty" validate:"omitempty,url"`
}

type Technologies struct {
	Languages  []string `bson:"languages" json:"languages"`
	Frameworks []string `bson:"frameworks" json:"frameworks"`
	Databases  []string `bson:"databases" json:"databases"`
	Tools      []string `bson:"tools" json:"tools"`
}

// Project is a showcase entry.
// Collection: projects
type Project struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title" validate:"required,max=200"`
	Slug            string             `bson:"slug" json:"slug" validate:"required,max=200,slug"`
	Description     string             `bson:"description" json:"description" validate:"required,max=1000"`
	LongDescription string             `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	Thumbnail       string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty" validate:"omitempty,url"`
	DemoURL         string             `bson:"demoUrl,omitempty" json:"demoUrl,omitempty" validate:"omitempty,url"`
	SourceURLs      SourceURLs         `bson:"sourceUrls" json:"sourceUrls"`
	Technologies    Technologies       `bson:"technologies" json:"technologies"`
	Features        []string           `bson:"features" json:"features"`
	Status          Status             `bson:"status" json:"status" validate:"required,oneof=draft published"`
	Featured        bool               `bson:"featured" json:"featured"`
	StartDate       time.Time          `bson:"startDate" json:"startDate" validate:"required"`
	EndDate         *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty" validate:"omitempty,gtefield=StartDate"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProjectRequest is the create/update payload sent by the admin project form.
type ProjectRequest struct {
	Title           string       `json:"title" binding:"required"`
	Slug            string       `json:"slug" binding:"required"`
	Description     string       `json:"description" binding:"required"`
	LongDescription string       `json:"longDescription"`
	Thumbnail       string       `json:"thumbnail"`
	DemoURL         string       `json:"demoUrl"`
	SourceURLs      SourceURLs   `json:"sourceUrls"`
	Technologies    Technologies `json:"technologies"`
	Features        []string     `json:"features"`
	Published       bool         `json:"published"`
	Featured        bool         `json:"featured"`
	StartDate       string       `json:"startDate" binding:"required"`
	EndDate         string       `json:"endDate"`
}

// Project converts the payload into a document ready for validation.
func (r ProjectRequest) Project() (*Project, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid startDate %q: expected YYYY-MM-DD or RFC 3339", r.StartDate)
	}

	var end *time.Time
	if strings.TrimSpace(r.EndDate) != "" {
		parsed, err := ParseDate(r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate %q: expected YYYY-MM-DD or RFC 3339", r.EndDate)
		}
		end = &parsed
	}

	return &Project{
		Title:           strings.TrimSpace(r.Title),
		Slug:            strings.TrimSpace(r.Slug),
		Description:     strings.TrimSpace(r.Description),
		LongDescription: strings.TrimSpace(r.LongDescription),
		Thumbnail:       strings.TrimSpace(r.Thumbnail),
		DemoURL:         strings.TrimSpace(r.DemoURL),
		SourceURLs: SourceURLs{
			GitHub: strings.TrimSpace(r.SourceURLs.GitHub),
			GitLab: strings.TrimSpace(r.SourceURLs.GitLab),
			Other:  strings.TrimSpace(r.SourceURLs.Other),
		},
		Technologies: Technologies{
			Languages:  CleanList(r.Technologies.Languages),
			Frameworks: CleanList(r.Technologies.Frameworks),
			Databases:  CleanList(r.Technologies.Databases),
			Tools:      CleanList(r.Technologies.Tools),
		},
		Features:  CleanList(r.Features),
		Status:    StatusFromFlag(r.Published),
		Featured:  r.Featured,
		StartDate: start,
		EndDate:   end,
	}, nil
}
