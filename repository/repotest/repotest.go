// Package repotest provides in-memory article and project stores with the
// same validation, visibility and ordering rules as the Mongo repositories.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"portfolio-service/model"
	"portfolio-service/query"
	"portfolio-service/repository"
)

// Clock hands out strictly increasing timestamps starting after start.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{current: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrInvalidID
	}
	return oid, nil
}

// newestFirst orders by createdAt then id, both descending.
func newestFirst(aCreated, bCreated time.Time, aID, bID primitive.ObjectID) bool {
	if !aCreated.Equal(bCreated) {
		return aCreated.After(bCreated)
	}
	return aID.Hex() > bID.Hex()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type ArticleStore struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]model.Article
	clock *Clock

	// Err, when set, is returned by every call.
	Err error
}

func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		items: make(map[primitive.ObjectID]model.Article),
		clock: NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (s *ArticleStore) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, a := range s.items {
		if a.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (s *ArticleStore) Create(_ context.Context, a *model.Article) error {
	if s.Err != nil {
		return s.Err
	}
	if err := repository.PrepareArticle(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(a.Slug, primitive.NilObjectID) {
		return repository.ErrDuplicateSlug
	}

	now := s.clock.Now()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.items[a.ID] = cloneArticle(*a)
	return nil
}

func (s *ArticleStore) GetByID(_ context.Context, id string) (*model.Article, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneArticle(a)
	return &out, nil
}

func (s *ArticleStore) GetBySlug(_ context.Context, slug string, publishedOnly bool) (*model.Article, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.items {
		if a.Slug != slug {
			continue
		}
		if publishedOnly && a.Status != model.StatusPublished {
			return nil, repository.ErrNotFound
		}
		out := cloneArticle(a)
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (s *ArticleStore) Update(_ context.Context, id string, a *model.Article) (*model.Article, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := repository.PrepareArticle(a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.slugTaken(a.Slug, oid) {
		return nil, repository.ErrDuplicateSlug
	}

	updated := cloneArticle(*a)
	updated.ID = oid
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock.Now()
	s.items[oid] = updated

	out := cloneArticle(updated)
	return &out, nil
}

func (s *ArticleStore) Delete(_ context.Context, id string) (*model.Article, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.items, oid)
	return &a, nil
}

func (s *ArticleStore) List(_ context.Context, q query.ArticleQuery) (query.ArticleResult, error) {
	var res query.ArticleResult
	if s.Err != nil {
		return res, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	status, restricted := q.VisibleStatus()
	matched := make([]model.Article, 0, len(s.items))
	vocabulary := make(map[string]struct{})

	for _, a := range s.items {
		if a.Status == model.StatusPublished {
			for _, tag := range a.Tags {
				vocabulary[tag] = struct{}{}
			}
		}
		if restricted && a.Status != status {
			continue
		}
		if q.Tag != "" && !hasTag(a.Tags, q.Tag) {
			continue
		}
		if q.Search != "" && !containsFold(a.Title, q.Search) &&
			!containsFold(a.Excerpt, q.Search) && !containsFold(a.Content, q.Search) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return newestFirst(matched[i].CreatedAt, matched[j].CreatedAt, matched[i].ID, matched[j].ID)
	})

	res.Total = int64(len(matched))
	res.Items = []model.Article{}
	for i := int(q.Skip()); i < len(matched) && len(res.Items) < q.Limit; i++ {
		item := cloneArticle(matched[i])
		item.Content = ""
		res.Items = append(res.Items, item)
	}

	res.Tags = make([]string, 0, len(vocabulary))
	for tag := range vocabulary {
		res.Tags = append(res.Tags, tag)
	}

	return res, nil
}

func (s *ArticleStore) Neighbors(_ context.Context, a *model.Article) (model.ArticleNavigation, error) {
	var nav model.ArticleNavigation
	if s.Err != nil {
		return nav, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var prev, next *model.Article
	for _, candidate := range s.items {
		if candidate.Status != model.StatusPublished {
			continue
		}
		c := candidate
		switch {
		case c.ID == a.ID:
		case newestFirst(c.CreatedAt, a.CreatedAt, c.ID, a.ID):
			if prev == nil || newestFirst(prev.CreatedAt, c.CreatedAt, prev.ID, c.ID) {
				prev = &c
			}
		case newestFirst(a.CreatedAt, c.CreatedAt, a.ID, c.ID):
			if next == nil || newestFirst(c.CreatedAt, next.CreatedAt, c.ID, next.ID) {
				next = &c
			}
		}
	}

	if prev != nil {
		nav.Prev = &model.Link{Title: prev.Title, Slug: prev.Slug}
	}
	if next != nil {
		nav.Next = &model.Link{Title: next.Title, Slug: next.Slug}
	}
	return nav, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func cloneArticle(a model.Article) model.Article {
	a.Tags = append([]string{}, a.Tags...)
	return a
}

type ProjectStore struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]model.Project
	clock *Clock

	Err error
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		items: make(map[primitive.ObjectID]model.Project),
		clock: NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (s *ProjectStore) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, p := range s.items {
		if p.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (s *ProjectStore) Create(_ context.Context, p *model.Project) error {
	if s.Err != nil {
		return s.Err
	}
	if err := repository.PrepareProject(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(p.Slug, primitive.NilObjectID) {
		return repository.ErrDuplicateSlug
	}

	now := s.clock.Now()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.items[p.ID] = *p
	return nil
}

func (s *ProjectStore) GetByID(_ context.Context, id string) (*model.Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *ProjectStore) GetBySlug(_ context.Context, slug string, publishedOnly bool) (*model.Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.items {
		if p.Slug != slug {
			continue
		}
		if publishedOnly && p.Status != model.StatusPublished {
			return nil, repository.ErrNotFound
		}
		return &p, nil
	}
	return nil, repository.ErrNotFound
}

func (s *ProjectStore) Update(_ context.Context, id string, p *model.Project) (*model.Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := repository.PrepareProject(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.slugTaken(p.Slug, oid) {
		return nil, repository.ErrDuplicateSlug
	}

	updated := *p
	updated.ID = oid
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock.Now()
	s.items[oid] = updated
	return &updated, nil
}

func (s *ProjectStore) Delete(_ context.Context, id string) (*model.Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.items, oid)
	return &p, nil
}

func (s *ProjectStore) List(_ context.Context, q query.ProjectQuery) ([]model.Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	status, restricted := q.VisibleStatus()
	projects := []model.Project{}
	for _, p := range s.items {
		if restricted && p.Status != status {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool {
		return newestFirst(projects[i].CreatedAt, projects[j].CreatedAt, projects[i].ID, projects[j].ID)
	})

	return projects, nil
}
