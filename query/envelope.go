package query

import (
	"sort"

	"portfolio-service/model"
)

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func NewPagination(total int64, page, limit int) Pagination {
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// ArticleResult is what a store returns for one listing query.
type ArticleResult struct {
	Items []model.Article
	Total int64
	Tags  []string
}

type ArticleList struct {
	Articles   []model.Article `json:"articles"`
	Pagination Pagination      `json:"pagination"`
	Tags       []string        `json:"tags"`
}

func NewArticleList(q ArticleQuery, res ArticleResult) ArticleList {
	articles := res.Items
	if articles == nil {
		articles = []model.Article{}
	}
	return ArticleList{
		Articles:   articles,
		Pagination: NewPagination(res.Total, q.Page, q.Limit),
		Tags:       SortTags(res.Tags),
	}
}

type ProjectList struct {
	Projects []model.Project `json:"projects"`
}

func NewProjectList(projects []model.Project) ProjectList {
	if projects == nil {
		projects = []model.Project{}
	}
	return ProjectList{Projects: projects}
}

// SortTags returns a sorted copy of the vocabulary without blanks.
func SortTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
