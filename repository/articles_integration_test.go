package repository

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-service/model"
	"portfolio-service/query"
)

func newArticle(slug string, status model.Status, tags ...string) *model.Article {
	return &model.Article{
		Title:   "Title " + slug,
		Slug:    slug,
		Excerpt: "excerpt " + slug,
		Content: "<p>content " + slug + "</p>",
		Tags:    tags,
		Status:  status,
	}
}

// clock returns a now func that advances by a minute per call so createdAt
// ordering is deterministic.
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func articleQuery(raw string) query.ArticleQuery {
	values, _ := url.ParseQuery(raw)
	return query.ParseArticleQuery(values.Get)
}

func TestArticleCreateAndGet(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	a := newArticle("hello", model.StatusPublished, "go")
	require.NoError(t, testArticles.Create(ctx, a))
	assert.False(t, a.ID.IsZero())
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	byID, err := testArticles.GetByID(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, a.Slug, byID.Slug)
	assert.Equal(t, a.Content, byID.Content)

	bySlug, err := testArticles.GetBySlug(ctx, "hello", true)
	require.NoError(t, err)
	assert.Equal(t, a.ID, bySlug.ID)
}

func TestArticleCreate_DuplicateSlug(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	require.NoError(t, testArticles.Create(ctx, newArticle("dup", model.StatusDraft)))

	err := testArticles.Create(ctx, newArticle("dup", model.StatusPublished))
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestArticleGetBySlug_DraftHiddenWhenPublishedOnly(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	require.NoError(t, testArticles.Create(ctx, newArticle("secret", model.StatusDraft)))

	_, err := testArticles.GetBySlug(ctx, "secret", true)
	assert.ErrorIs(t, err, ErrNotFound)

	draft, err := testArticles.GetBySlug(ctx, "secret", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)
}

func TestArticleGetByID_Unknown(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	_, err := testArticles.GetByID(ctx, "65a1b2c3d4e5f60718293a4b")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = testArticles.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArticleUpdate_PreservesCreatedAt(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	a := newArticle("before", model.StatusDraft)
	a.FeaturedImage = "https://example.com/a.png"
	require.NoError(t, testArticles.Create(ctx, a))

	changes := newArticle("after", model.StatusPublished, "mongo")
	updated, err := testArticles.Update(ctx, a.ID.Hex(), changes)
	require.NoError(t, err)

	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "after", updated.Slug)
	assert.Equal(t, model.StatusPublished, updated.Status)
	assert.Equal(t, []string{"mongo"}, updated.Tags)
	assert.Empty(t, updated.FeaturedImage)
	assert.True(t, a.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
}

func TestArticleUpdate_Errors(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	first := newArticle("first", model.StatusPublished)
	second := newArticle("second", model.StatusPublished)
	require.NoError(t, testArticles.Create(ctx, first))
	require.NoError(t, testArticles.Create(ctx, second))

	_, err := testArticles.Update(ctx, second.ID.Hex(), newArticle("first", model.StatusPublished))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	_, err = testArticles.Update(ctx, "65a1b2c3d4e5f60718293a4b", newArticle("ghost", model.StatusDraft))
	assert.ErrorIs(t, err, ErrNotFound)

	var verr *ValidationError
	_, err = testArticles.Update(ctx, first.ID.Hex(), newArticle("Bad Slug", model.StatusDraft))
	assert.ErrorAs(t, err, &verr)
}

func TestArticleDelete(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	a := newArticle("gone", model.StatusPublished)
	require.NoError(t, testArticles.Create(ctx, a))

	deleted, err := testArticles.Delete(ctx, a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "gone", deleted.Slug)

	_, err = testArticles.Delete(ctx, a.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArticleList(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	repo := NewArticleRepository(testGateway)
	repo.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Create(ctx, newArticle("a", model.StatusPublished, "go")))
	require.NoError(t, repo.Create(ctx, newArticle("b", model.StatusDraft, "secret")))
	require.NoError(t, repo.Create(ctx, newArticle("c", model.StatusPublished, "mongo", "go")))

	res, err := repo.List(ctx, articleQuery(""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "c", res.Items[0].Slug)
	assert.Equal(t, "a", res.Items[1].Slug)
	assert.Empty(t, res.Items[0].Content)
	assert.ElementsMatch(t, []string{"go", "mongo"}, res.Tags)

	res, err = repo.List(ctx, articleQuery("includeAll=true"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.ElementsMatch(t, []string{"go", "mongo"}, res.Tags)

	res, err = repo.List(ctx, articleQuery("tag=mongo"))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "c", res.Items[0].Slug)

	res, err = repo.List(ctx, articleQuery("page=2&limit=1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "a", res.Items[0].Slug)
}

func TestArticleList_SearchIsLiteral(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	plus := newArticle("cpp", model.StatusPublished)
	plus.Title = "Learning C++ Today"
	require.NoError(t, testArticles.Create(ctx, plus))
	require.NoError(t, testArticles.Create(ctx, newArticle("other", model.StatusPublished)))

	res, err := testArticles.List(ctx, articleQuery("q="+url.QueryEscape("c++")))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "cpp", res.Items[0].Slug)

	res, err = testArticles.List(ctx, articleQuery("q="+url.QueryEscape(".*")))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestArticleNeighbors(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	repo := NewArticleRepository(testGateway)
	repo.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	oldest := newArticle("oldest", model.StatusPublished)
	middle := newArticle("middle", model.StatusPublished)
	draft := newArticle("draft", model.StatusDraft)
	newest := newArticle("newest", model.StatusPublished)
	for _, a := range []*model.Article{oldest, middle, draft, newest} {
		require.NoError(t, repo.Create(ctx, a))
	}

	nav, err := repo.Neighbors(ctx, middle)
	require.NoError(t, err)
	require.NotNil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	assert.Equal(t, "newest", nav.Prev.Slug)
	assert.Equal(t, "oldest", nav.Next.Slug)

	nav, err = repo.Neighbors(ctx, newest)
	require.NoError(t, err)
	assert.Nil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	assert.Equal(t, "middle", nav.Next.Slug)
}

func TestArticleNeighbors_SameTimestamp(t *testing.T) {
	requireMongo(t)
	cleanup(t)
	ctx := context.Background()

	repo := NewArticleRepository(testGateway)
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return stamp }

	for _, slug := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, newArticle(slug, model.StatusPublished)))
	}

	res, err := repo.List(ctx, articleQuery(""))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	nav, err := repo.Neighbors(ctx, &res.Items[1])
	require.NoError(t, err)
	require.NotNil(t, nav.Prev)
	require.NotNil(t, nav.Next)
	assert.Equal(t, res.Items[0].Slug, nav.Prev.Slug)
	assert.Equal(t, res.Items[2].Slug, nav.Next.Slug)

	nav, err = repo.Neighbors(ctx, &res.Items[2])
	require.NoError(t, err)
	require.NotNil(t, nav.Prev)
	assert.Equal(t, res.Items[1].Slug, nav.Prev.Slug)
	assert.Nil(t, nav.Next)
}
