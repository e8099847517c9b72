package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/singleflight"

	"portfolio-service/logger"
)

const (
	defaultConnectTimeout = 10 * time.Second
	connectKey            = "connect"
)

var ErrClosed = errors.New("store gateway closed")

// Dialer opens and verifies a client. The returned client must be usable.
type Dialer func(ctx context.Context) (*mongo.Client, error)

// ConnectHook runs once per successful connection, before the client is
// handed out to any caller.
type ConnectHook func(ctx context.Context, db *mongo.Database) error

// Gateway owns the process-wide MongoDB client. The client is created on
// first use; callers racing on a cold gateway share one dial.
type Gateway struct {
	dbName         string
	connectTimeout time.Duration
	dial           Dialer
	disconnect     func(ctx context.Context, client *mongo.Client) error
	log            logger.Logger

	mu     sync.RWMutex
	client *mongo.Client
	hooks  []ConnectHook
	closed bool

	group singleflight.Group
}

type Option func(*Gateway)

func WithConnectTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.connectTimeout = d
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(g *Gateway) {
		g.log = log
	}
}

func WithDialer(dial Dialer) Option {
	return func(g *Gateway) {
		g.dial = dial
	}
}

func New(uri, dbName string, opts ...Option) *Gateway {
	g := &Gateway{
		dbName:         dbName,
		connectTimeout: defaultConnectTimeout,
		log:            logger.NewNop(),
		disconnect: func(ctx context.Context, client *mongo.Client) error {
			return client.Disconnect(ctx)
		},
	}
	g.dial = func(ctx context.Context) (*mongo.Client, error) {
		return dialMongo(ctx, uri)
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func dialMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// OnConnect registers a hook for the next connection. Hooks registered after
// the gateway is connected do not run.
func (g *Gateway) OnConnect(hook ConnectHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hooks = append(g.hooks, hook)
}

func (g *Gateway) current() (*mongo.Client, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return nil, ErrClosed
	}
	return g.client, nil
}

// Client returns the shared client, connecting on first use. A failed attempt
// is not remembered; the next call dials again.
func (g *Gateway) Client(ctx context.Context) (*mongo.Client, error) {
	client, err := g.current()
	if err != nil {
		return nil, err
	}
	if client != nil {
		return client, nil
	}

	ch := g.group.DoChan(connectKey, func() (any, error) {
		return g.connect(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*mongo.Client), nil
	}
}

func (g *Gateway) connect(ctx context.Context) (*mongo.Client, error) {
	// A caller may have lost the race with a connect that already finished.
	if client, err := g.current(); err != nil || client != nil {
		return client, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.connectTimeout)
	defer cancel()

	start := time.Now()
	client, err := g.dial(ctx)
	if err != nil {
		g.log.Warn("mongo connection attempt failed: %v", err)
		return nil, err
	}

	g.mu.RLock()
	hooks := append([]ConnectHook(nil), g.hooks...)
	g.mu.RUnlock()

	if len(hooks) > 0 {
		db := client.Database(g.dbName)
		for _, hook := range hooks {
			if err := hook(ctx, db); err != nil {
				_ = g.disconnect(context.Background(), client)
				g.log.Warn("mongo connect hook failed: %v", err)
				return nil, fmt.Errorf("connect hook failed: %w", err)
			}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		_ = g.disconnect(context.Background(), client)
		return nil, ErrClosed
	}
	g.client = client

	g.log.Info("connected to MongoDB database %q in %v", g.dbName, time.Since(start))
	return client, nil
}

func (g *Gateway) Database(ctx context.Context) (*mongo.Database, error) {
	client, err := g.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(g.dbName), nil
}

func (g *Gateway) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := g.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Connected reports whether a client has been established. It never dials.
func (g *Gateway) Connected() bool {
	client, err := g.current()
	return err == nil && client != nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	client, err := g.Client(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Warm keeps dialing with exponential backoff until the first connection
// succeeds, ctx ends, or maxElapsed passes.
func (g *Gateway) Warm(ctx context.Context, maxElapsed time.Duration) error {
	operation := func() (*mongo.Client, error) {
		client, err := g.Client(ctx)
		if errors.Is(err, ErrClosed) {
			return nil, backoff.Permanent(err)
		}
		return client, err
	}

	_, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			g.log.Warn("mongo not ready, retrying in %v: %v", next, err)
		}),
	)
	return err
}

func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	client := g.client
	g.client = nil
	g.closed = true
	g.mu.Unlock()

	if client == nil {
		return nil
	}

	if err := g.disconnect(ctx, client); err != nil {
		return fmt.Errorf("failed to disconnect mongo: %w", err)
	}
	g.log.Info("MongoDB connection closed")
	return nil
}
