// Package query turns listing request parameters into MongoDB filters and
// assembles the paginated response envelopes.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-service/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	fieldStatus    = "status"
	fieldTags      = "tags"
	fieldTitle     = "title"
	fieldExcerpt   = "excerpt"
	fieldContent   = "content"
	fieldFeatured  = "featured"
	fieldCreatedAt = "createdAt"
)

// Getter reads one query-string value; gin's c.Query and url.Values.Get fit.
type Getter func(key string) string

type ArticleQuery struct {
	Page       int
	Limit      int
	Tag        string
	Search     string
	Status     model.Status
	IncludeAll bool
}

func ParseArticleQuery(get Getter) ArticleQuery {
	return ArticleQuery{
		Page:       parsePositive(get("page"), DefaultPage, 0),
		Limit:      parsePositive(get("limit"), DefaultLimit, MaxLimit),
		Tag:        strings.TrimSpace(get("tag")),
		Search:     strings.TrimSpace(get("q")),
		Status:     parseStatus(get("status")),
		IncludeAll: get("includeAll") == "true",
	}
}

// VisibleStatus returns the status the listing is restricted to, or false
// when every status is visible. Drafts are only reachable through includeAll.
func (q ArticleQuery) VisibleStatus() (model.Status, bool) {
	return visibleStatus(q.Status, q.IncludeAll)
}

func (q ArticleQuery) Filter() bson.M {
	filter := bson.M{}

	if status, ok := q.VisibleStatus(); ok {
		filter[fieldStatus] = status
	}

	if q.Tag != "" {
		filter[fieldTags] = q.Tag
	}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{fieldTitle: pattern},
			bson.M{fieldExcerpt: pattern},
			bson.M{fieldContent: pattern},
		}
	}

	return filter
}

func (q ArticleQuery) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

// FindOptions sorts newest first and leaves the article body out of listings.
func (q ArticleQuery) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(newestFirst()).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit)).
		SetProjection(bson.M{fieldContent: 0})
}

// TagVocabularyFilter selects the documents whose tags feed the filter UI.
func TagVocabularyFilter() bson.M {
	return bson.M{fieldStatus: model.StatusPublished}
}

type ProjectQuery struct {
	Status     model.Status
	Featured   *bool
	IncludeAll bool
}

func ParseProjectQuery(get Getter) ProjectQuery {
	q := ProjectQuery{
		Status:     parseStatus(get("status")),
		IncludeAll: get("includeAll") == "true",
	}

	switch get("featured") {
	case "true":
		featured := true
		q.Featured = &featured
	case "false":
		featured := false
		q.Featured = &featured
	}

	return q
}

func (q ProjectQuery) VisibleStatus() (model.Status, bool) {
	return visibleStatus(q.Status, q.IncludeAll)
}

func (q ProjectQuery) Filter() bson.M {
	filter := bson.M{}
	if status, ok := q.VisibleStatus(); ok {
		filter[fieldStatus] = status
	}
	if q.Featured != nil {
		filter[fieldFeatured] = *q.Featured
	}
	return filter
}

func (q ProjectQuery) FindOptions() *options.FindOptions {
	return options.Find().SetSort(newestFirst())
}

func newestFirst() bson.D {
	return bson.D{
		{Key: fieldCreatedAt, Value: -1},
		{Key: "_id", Value: -1},
	}
}

func visibleStatus(requested model.Status, includeAll bool) (model.Status, bool) {
	switch {
	case requested == model.StatusPublished:
		return model.StatusPublished, true
	case includeAll && requested == model.StatusDraft:
		return model.StatusDraft, true
	case includeAll:
		return "", false
	default:
		return model.StatusPublished, true
	}
}

func parseStatus(raw string) model.Status {
	status := model.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return ""
	}
	return status
}

// parsePositive parses s, falling back to def for anything that is not a
// positive integer. max <= 0 means unbounded.
func parsePositive(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
