// Package database establishes the MongoDB connection and creates the
// secondary indexes the store adapters rely on: connection setup plus a
// fail-fast health check, the same shape as any other connection-pool
// bootstrap.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ilix/server/src/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB wraps the Mongo client and the specific collections/bucket the store
// adapters operate on.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database

	Pools     *mongo.Collection
	Transfers *mongo.Collection

	cfg *config.Config
}

// Connect dials Mongo using cfg.MongoURI and pings it before returning -
// startup fails immediately if the database is unreachable.
func Connect(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.DBName)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo unreachable: %w", err)
	}

	db := client.Database(cfg.DBName)
	d := &DB{
		Client:    client,
		Database:  db,
		Pools:     db.Collection(cfg.PoolCollection),
		Transfers: db.Collection(cfg.TransferCollection),
		cfg:       cfg,
	}

	logger.WithFields(logrus.Fields{
		"db":                  cfg.DBName,
		"pool_collection":     cfg.PoolCollection,
		"transfer_collection": cfg.TransferCollection,
	}).Info("connected to mongo")

	return d, nil
}

// EnsureIndexes creates the unique hashed_key_phrase index on the pool
// collection and the non-unique equivalent on the transfer collection.
// Both calls are idempotent; Mongo no-ops if the index already exists
// with the same keys/options.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	uniqueTrue := true

	_, err := d.Pools.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hashed_key_phrase", Value: 1}},
		Options: options.Index().SetUnique(uniqueTrue),
	})
	if err != nil {
		return fmt.Errorf("pool index creation failed: %w", err)
	}

	_, err = d.Transfers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pool_hashed_key_phrase", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("transfer index creation failed: %w", err)
	}

	return nil
}

// Ping checks Mongo reachability; used by the /health handler.
func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

// Close disconnects the Mongo client.
func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
