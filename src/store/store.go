package store

import (
	"context"

	"github.com/ilix/server/src/config"
	"github.com/ilix/server/src/database"
	"github.com/ilix/server/src/models"
)

// Stores bundles the three store adapters the HTTP handlers depend on.
type Stores struct {
	Pools     PoolStore
	Transfers TransferStore
	Blobs     BlobStore
}

// New wires the pool, transfer and blob stores together. PoolStore and
// TransferStore each need a view of the other (transfer creation checks
// pool membership; pool deletion cascades into transfers), so the
// transfer store's pool lookup closes over a pointer that is filled in
// once the pool store exists.
func New(cfg *config.Config, db *database.DB) (*Stores, error) {
	blobs, err := NewBlobStore(db.Database, cfg.BucketName)
	if err != nil {
		return nil, err
	}

	var pools PoolStore
	poolLookup := func(ctx context.Context, kp string) (models.Pool, error) {
		return pools.GetPool(ctx, kp)
	}

	transfers := NewTransferStore(cfg, db.Transfers, poolLookup)
	pools = NewPoolStore(cfg, db.Pools, transfers, blobs)

	return &Stores{Pools: pools, Transfers: transfers, Blobs: blobs}, nil
}
