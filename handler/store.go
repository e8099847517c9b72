package handler

import (
	"context"

	"portfolio-service/model"
	"portfolio-service/query"
)

// ArticleStore is satisfied by *repository.ArticleRepository and the
// in-memory store in repository/repotest.
type ArticleStore interface {
	Create(ctx context.Context, a *model.Article) error
	GetByID(ctx context.Context, id string) (*model.Article, error)
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Article, error)
	Update(ctx context.Context, id string, a *model.Article) (*model.Article, error)
	Delete(ctx context.Context, id string) (*model.Article, error)
	List(ctx context.Context, q query.ArticleQuery) (query.ArticleResult, error)
	Neighbors(ctx context.Context, a *model.Article) (model.ArticleNavigation, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Project, error)
	Update(ctx context.Context, id string, p *model.Project) (*model.Project, error)
	Delete(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, q query.ProjectQuery) ([]model.Project, error)
}
