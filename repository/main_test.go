package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"portfolio-service/store"
)

var (
	testGateway  *store.Gateway
	testArticles *ArticleRepository
	testProjects *ProjectRepository
)

// TestMain wires the integration tests against MONGODB_TEST_URI. Without it
// only the unit tests in this package run.
func TestMain(m *testing.M) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		os.Exit(m.Run())
	}

	dbName := "portfolio_test_" + uuid.NewString()[:8]
	testGateway = store.New(uri, dbName, store.WithConnectTimeout(5*time.Second))
	testArticles = NewArticleRepository(testGateway)
	testProjects = NewProjectRepository(testGateway)
	testGateway.OnConnect(testArticles.EnsureIndexes)
	testGateway.OnConnect(testProjects.EnsureIndexes)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := testGateway.Client(ctx); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "Failed to connect to mongo at %s: %v\n", uri, err)
		fmt.Fprintf(os.Stderr, "Make sure mongo is running:\n")
		fmt.Fprintf(os.Stderr, "  docker run -d -p 27017:27017 mongo:7\n")
		os.Exit(1)
	}
	cancel()

	code := m.Run()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if db, err := testGateway.Database(ctx); err == nil {
		_ = db.Drop(ctx)
	}
	_ = testGateway.Close(ctx)
	cancel()

	os.Exit(code)
}

func requireMongo(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if testGateway == nil {
		t.Skip("MONGODB_TEST_URI not set")
	}
}

func cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{ArticlesCollection, ProjectsCollection} {
		coll, err := testGateway.Collection(ctx, name)
		if err != nil {
			t.Fatalf("collection %s: %v", name, err)
		}
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("cleanup %s: %v", name, err)
		}
	}
}
