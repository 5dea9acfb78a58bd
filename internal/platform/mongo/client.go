package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mngkeeper/internal/platform/config"
)

// baselineCollections are created in every tenant database during
// provisioning so consumers find a predictable layout.
var baselineCollections = []string{"users", "groups", "assets", "auditLogs"}

// Client wraps the mongo driver client with health checking and per-tenant
// database management.
type Client struct {
	client  *mongo.Client
	primary string
	timeout time.Duration
}

// New creates a new Mongo client from the provided configuration.
// Returns nil if the URI is empty (Mongo not configured).
func New(cfg config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx) //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return &Client{client: client, primary: cfg.Database, timeout: cfg.Timeout}, nil
}

// Database returns the primary (control-plane) database handle.
func (c *Client) Database() *mongo.Database {
	return c.client.Database(c.primary)
}

// Health checks if the Mongo connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateTenantDatabase creates the tenant database along with its baseline
// collections. Mongo creates databases lazily, so the explicit collection
// creation is what actually materializes the database.
func (c *Client) CreateTenantDatabase(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("tenant database name is required")
	}
	db := c.client.Database(name)
	for _, coll := range baselineCollections {
		if err := db.CreateCollection(ctx, coll); err != nil {
			if mongo.IsDuplicateKeyError(err) || isNamespaceExists(err) {
				continue
			}
			return fmt.Errorf("create collection %s in %s: %w", coll, name, err)
		}
	}
	return nil
}

// DropTenantDatabase removes a tenant database. Used by provisioning
// compensation and domain deletion.
func (c *Client) DropTenantDatabase(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("tenant database name is required")
	}
	if err := c.client.Database(name).Drop(ctx); err != nil {
		return fmt.Errorf("drop tenant database %s: %w", name, err)
	}
	return nil
}

// isNamespaceExists reports whether err is the server's NamespaceExists (48)
// command error, returned when the collection was already created.
func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48
	}
	return false
}
