package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio-service/metrics"
	"portfolio-service/model"
	"portfolio-service/query"
	"portfolio-service/store"
)

type ArticleRepository struct {
	gw  *store.Gateway
	now func() time.Time
}

func NewArticleRepository(gw *store.Gateway) *ArticleRepository {
	return &ArticleRepository{
		gw:  gw,
		now: time.Now,
	}
}

func (r *ArticleRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.gw.Collection(ctx, ArticlesCollection)
}

// EnsureIndexes creates the unique slug index and the listing indexes. It is
// registered as a gateway connect hook.
func (r *ArticleRepository) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	start := time.Now()
	_, err := db.Collection(ArticlesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("tags"),
		},
	})
	metrics.ObserveMongo("create_indexes", ArticlesCollection, start, err)
	if err != nil {
		return fmt.Errorf("failed to create article indexes: %w", err)
	}
	return nil
}

// Create validates a, assigns its id and timestamps, and inserts it.
func (r *ArticleRepository) Create(ctx context.Context, a *model.Article) error {
	if err := PrepareArticle(a); err != nil {
		return err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	now := timestamp(r.now)
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now

	start := time.Now()
	_, err = coll.InsertOne(ctx, a)
	metrics.ObserveMongo("insert", ArticlesCollection, start, err)
	if err != nil {
		a.ID = primitive.NilObjectID
		return fmt.Errorf("failed to insert article %q: %w", a.Slug, translateWriteError(err))
	}

	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*model.Article, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetBySlug looks an article up by slug; publishedOnly hides drafts.
func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Article, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["status"] = model.StatusPublished
	}
	return r.findOne(ctx, filter)
}

func (r *ArticleRepository) findOne(ctx context.Context, filter bson.M) (*model.Article, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	var article model.Article
	start := time.Now()
	err = coll.FindOne(ctx, filter).Decode(&article)
	metrics.ObserveMongo("find_one", ArticlesCollection, start, err)
	if err != nil {
		return nil, translateReadError(err)
	}
	return &article, nil
}

// Update replaces every editable field of the article with the values in a
// and returns the stored result. createdAt is left untouched.
func (r *ArticleRepository) Update(ctx context.Context, id string, a *model.Article) (*model.Article, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := PrepareArticle(a); err != nil {
		return nil, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":     a.Title,
		"slug":      a.Slug,
		"excerpt":   a.Excerpt,
		"content":   a.Content,
		"tags":      a.Tags,
		"status":    a.Status,
		"updatedAt": timestamp(r.now),
	}
	unset := bson.M{}
	setOrUnset(set, unset, "featuredImage", a.FeaturedImage)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Article
	start := time.Now()
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDoc(set, unset), opts).Decode(&updated)
	metrics.ObserveMongo("update", ArticlesCollection, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update article %s: %w", id, translateWriteError(translateReadError(err)))
	}

	return &updated, nil
}

// Delete removes the article and returns what was stored.
func (r *ArticleRepository) Delete(ctx context.Context, id string) (*model.Article, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	var deleted model.Article
	start := time.Now()
	err = coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&deleted)
	metrics.ObserveMongo("delete", ArticlesCollection, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete article %s: %w", id, translateReadError(err))
	}

	return &deleted, nil
}

// List runs one listing query: the requested page, the total number of
// matches, and the tag vocabulary of all published articles.
func (r *ArticleRepository) List(ctx context.Context, q query.ArticleQuery) (query.ArticleResult, error) {
	var res query.ArticleResult

	coll, err := r.collection(ctx)
	if err != nil {
		return res, err
	}

	filter := q.Filter()

	start := time.Now()
	cursor, err := coll.Find(ctx, filter, q.FindOptions())
	metrics.ObserveMongo("find", ArticlesCollection, start, err)
	if err != nil {
		return res, fmt.Errorf("failed to query articles: %w", err)
	}
	defer cursor.Close(ctx)

	res.Items = []model.Article{}
	if err := cursor.All(ctx, &res.Items); err != nil {
		return res, fmt.Errorf("failed to decode articles: %w", err)
	}

	start = time.Now()
	res.Total, err = coll.CountDocuments(ctx, filter)
	metrics.ObserveMongo("count", ArticlesCollection, start, err)
	if err != nil {
		return res, fmt.Errorf("failed to count articles: %w", err)
	}

	start = time.Now()
	raw, err := coll.Distinct(ctx, "tags", query.TagVocabularyFilter())
	metrics.ObserveMongo("distinct", ArticlesCollection, start, err)
	if err != nil {
		return res, fmt.Errorf("failed to collect article tags: %w", err)
	}

	res.Tags = make([]string, 0, len(raw))
	for _, v := range raw {
		if tag, ok := v.(string); ok {
			res.Tags = append(res.Tags, tag)
		}
	}

	return res, nil
}

// Neighbors finds the published articles immediately newer (Prev) and older
// (Next) than a, in the (createdAt, _id) order List uses.
func (r *ArticleRepository) Neighbors(ctx context.Context, a *model.Article) (model.ArticleNavigation, error) {
	var nav model.ArticleNavigation

	prev, err := r.neighbor(ctx, "$gt", 1, a)
	if err != nil {
		return nav, err
	}
	next, err := r.neighbor(ctx, "$lt", -1, a)
	if err != nil {
		return nav, err
	}

	nav.Prev = prev
	nav.Next = next
	return nav, nil
}

func (r *ArticleRepository) neighbor(ctx context.Context, op string, direction int, a *model.Article) (*model.Link, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"status": model.StatusPublished,
		"$or": bson.A{
			bson.M{"createdAt": bson.M{op: a.CreatedAt}},
			bson.M{"createdAt": a.CreatedAt, "_id": bson.M{op: a.ID}},
		},
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "createdAt", Value: direction}, {Key: "_id", Value: direction}}).
		SetProjection(bson.M{"title": 1, "slug": 1})

	var link model.Link
	start := time.Now()
	err = coll.FindOne(ctx, filter, opts).Decode(&link)
	metrics.ObserveMongo("find_one", ArticlesCollection, start, err)
	if err != nil {
		if translateReadError(err) == ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load neighbouring article: %w", err)
	}
	return &link, nil
}
