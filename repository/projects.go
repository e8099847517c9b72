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

type ProjectRepository struct {
	gw  *store.Gateway
	now func() time.Time
}

func NewProjectRepository(gw *store.Gateway) *ProjectRepository {
	return &ProjectRepository{
		gw:  gw,
		now: time.Now,
	}
}

func (r *ProjectRepository) collection(ctx context.Context) (*mongo.Collection, error) {
	return r.gw.Collection(ctx, ProjectsCollection)
}

func (r *ProjectRepository) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	start := time.Now()
	_, err := db.Collection(ProjectsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "featured", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("status_featured_createdAt"),
		},
	})
	metrics.ObserveMongo("create_indexes", ProjectsCollection, start, err)
	if err != nil {
		return fmt.Errorf("failed to create project indexes: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if err := PrepareProject(p); err != nil {
		return err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	now := timestamp(r.now)
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now

	start := time.Now()
	_, err = coll.InsertOne(ctx, p)
	metrics.ObserveMongo("insert", ProjectsCollection, start, err)
	if err != nil {
		p.ID = primitive.NilObjectID
		return fmt.Errorf("failed to insert project %q: %w", p.Slug, translateWriteError(err))
	}

	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Project, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["status"] = model.StatusPublished
	}
	return r.findOne(ctx, filter)
}

func (r *ProjectRepository) findOne(ctx context.Context, filter bson.M) (*model.Project, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	var project model.Project
	start := time.Now()
	err = coll.FindOne(ctx, filter).Decode(&project)
	metrics.ObserveMongo("find_one", ProjectsCollection, start, err)
	if err != nil {
		return nil, translateReadError(err)
	}
	return &project, nil
}

// Update replaces the editable fields and returns the stored project.
func (r *ProjectRepository) Update(ctx context.Context, id string, p *model.Project) (*model.Project, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := PrepareProject(p); err != nil {
		return nil, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":        p.Title,
		"slug":         p.Slug,
		"description":  p.Description,
		"sourceUrls":   p.SourceURLs,
		"technologies": p.Technologies,
		"features":     p.Features,
		"status":       p.Status,
		"featured":     p.Featured,
		"startDate":    p.StartDate,
		"updatedAt":    timestamp(r.now),
	}
	unset := bson.M{}
	setOrUnset(set, unset, "longDescription", p.LongDescription)
	setOrUnset(set, unset, "thumbnail", p.Thumbnail)
	setOrUnset(set, unset, "demoUrl", p.DemoURL)
	if p.EndDate != nil {
		set["endDate"] = *p.EndDate
	} else {
		unset["endDate"] = ""
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Project
	start := time.Now()
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDoc(set, unset), opts).Decode(&updated)
	metrics.ObserveMongo("update", ProjectsCollection, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", id, translateWriteError(translateReadError(err)))
	}

	return &updated, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) (*model.Project, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	var deleted model.Project
	start := time.Now()
	err = coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&deleted)
	metrics.ObserveMongo("delete", ProjectsCollection, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete project %s: %w", id, translateReadError(err))
	}

	return &deleted, nil
}

// List returns every project matching q, newest first. Projects are few
// enough that the listing is not paginated.
func (r *ProjectRepository) List(ctx context.Context, q query.ProjectQuery) ([]model.Project, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cursor, err := coll.Find(ctx, q.Filter(), q.FindOptions())
	metrics.ObserveMongo("find", ProjectsCollection, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []model.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}

	return projects, nil
}
