// Package infrastructure provides the document store connection.
package infrastructure

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"clanhub.gg/clanhub/internal/config"
	"clanhub.gg/clanhub/internal/pkg/logger"
)

// Collection names. All aggregates live in their own collection and
// reference each other by id only.
const (
	CollectionUsers                  = "users"
	CollectionClans                  = "clans"
	CollectionFederationApplications = "clan_applications"
	CollectionMembershipApplications = "clan_member_applications"
)

// Database wraps the Mongo client and database handle.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDatabase connects to the document store and verifies the connection.
func NewDatabase(ctx context.Context, cfg config.MongoConfig) (*Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("Connected to document store",
		zap.String("database", cfg.Database),
	)

	return &Database{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Collection returns a handle to the named collection.
func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Ping checks store reachability, for health endpoints.
func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
