package store

import (
	"context"

	"github.com/ilix/server/src/config"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// PoolLookup fetches a pool by plaintext key phrase; it is the one seam
// TransferStore needs into the pool store (create_transfer validates
// membership), kept as a function value so the transfer store can be
// built before the pool store that in turn depends on it.
type PoolLookup func(ctx context.Context, kp string) (models.Pool, error)

// TransferStore is the atomic CRUD surface over the transfer collection.
type TransferStore interface {
	FindTransfers(ctx context.Context, kp, deviceID string) ([]models.TransferExt, error)
	CreateTransfer(ctx context.Context, kp, from, to string, fileIDs []string) (models.TransferExt, error)
	AddFilesToTransfer(ctx context.Context, transferID, kp string, fileIDs []string) (models.TransferExt, error)
	RemoveTransferFile(ctx context.Context, fileID, kp string) error
	DeleteTransfer(ctx context.Context, kp, toDeviceID, transferID string) ([]string, error)
	// DeleteTransfersTo deletes every transfer in the pool identified by
	// hashedKP addressed to deviceID, and their blobs, concurrently. Used
	// by leave_pool/delete_pool cascades (it takes an already-hashed key
	// phrase since callers have usually already computed it).
	DeleteTransfersTo(ctx context.Context, hashedKP, deviceID string, blobs BlobStore) error
}

type mongoTransferStore struct {
	cfg        *config.Config
	transfers  *mongo.Collection
	poolLookup PoolLookup
}

// NewTransferStore constructs the transfer store. poolLookup is supplied
// by the caller wiring package (it will be PoolStore.GetPool) to break
// the pool<->transfer dependency cycle.
func NewTransferStore(cfg *config.Config, transfers *mongo.Collection, poolLookup PoolLookup) TransferStore {
	return &mongoTransferStore{cfg: cfg, transfers: transfers, poolLookup: poolLookup}
}

func (s *mongoTransferStore) hash(kp string) (string, error) {
	parsed, err := keyphrase.Parse(kp)
	if err != nil {
		return "", err
	}
	return parsed.Hash(s.cfg.Salt, s.cfg.HashRound)
}

func (s *mongoTransferStore) FindTransfers(ctx context.Context, kp, deviceID string) ([]models.TransferExt, error) {
	hashed, err := s.hash(kp)
	if err != nil {
		return nil, err
	}

	cursor, err := s.transfers.Find(ctx, bson.M{"pool_hashed_key_phrase": hashed, "to": deviceID})
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	defer cursor.Close(ctx)

	out := []models.TransferExt{}
	for cursor.Next(ctx) {
		var t models.Transfer
		if err := cursor.Decode(&t); err != nil {
			return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
		}
		out = append(out, t.Ext())
	}
	if err := cursor.Err(); err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	return out, nil
}

func (s *mongoTransferStore) CreateTransfer(ctx context.Context, kp, from, to string, fileIDs []string) (models.TransferExt, error) {
	if len(fileIDs) == 0 {
		return models.TransferExt{}, ilixerrors.EmptyArgs()
	}

	pool, err := s.poolLookup(ctx, kp)
	if err != nil {
		return models.TransferExt{}, err
	}
	if !pool.HasDevice(from) || !pool.HasDevice(to) {
		return models.TransferExt{}, ilixerrors.New(ilixerrors.NotInPool)
	}

	hashed, err := s.hash(kp)
	if err != nil {
		return models.TransferExt{}, err
	}

	transfer := models.Transfer{
		ID:                  primitive.NewObjectID(),
		PoolHashedKeyPhrase: hashed,
		From:                from,
		To:                  to,
		FilesID:             fileIDs,
	}

	if _, err := s.transfers.InsertOne(ctx, transfer); err != nil {
		return models.TransferExt{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	return transfer.Ext(), nil
}

func (s *mongoTransferStore) AddFilesToTransfer(ctx context.Context, transferID, kp string, fileIDs []string) (models.TransferExt, error) {
	oid, err := primitive.ObjectIDFromHex(transferID)
	if err != nil {
		return models.TransferExt{}, ilixerrors.New(ilixerrors.InvalidObjectID)
	}
	hashed, err := s.hash(kp)
	if err != nil {
		return models.TransferExt{}, err
	}

	update := bson.M{"$addToSet": bson.M{"files_id": bson.M{"$each": fileIDs}}}

	var postImage models.Transfer
	err = s.transfers.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "pool_hashed_key_phrase": hashed}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&postImage)
	if err == mongo.ErrNoDocuments {
		return models.TransferExt{}, ilixerrors.New(ilixerrors.TransferNotFound)
	}
	if err != nil {
		return models.TransferExt{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	for _, id := range fileIDs {
		if !postImage.HasFile(id) {
			return models.TransferExt{}, ilixerrors.New(ilixerrors.MongoError)
		}
	}

	return postImage.Ext(), nil
}

func (s *mongoTransferStore) RemoveTransferFile(ctx context.Context, fileID, kp string) error {
	hashed, err := s.hash(kp)
	if err != nil {
		return err
	}

	update := bson.M{"$pull": bson.M{"files_id": fileID}}

	var postImage models.Transfer
	err = s.transfers.FindOneAndUpdate(ctx,
		bson.M{"pool_hashed_key_phrase": hashed, "files_id": fileID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&postImage)
	if err == mongo.ErrNoDocuments {
		return ilixerrors.New(ilixerrors.NotInTransfer)
	}
	if err != nil {
		return ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	if postImage.HasFile(fileID) {
		return ilixerrors.New(ilixerrors.NotInTransfer)
	}

	if len(postImage.FilesID) == 0 {
		if _, err := s.transfers.DeleteOne(ctx, bson.M{"_id": postImage.ID}); err != nil {
			return ilixerrors.Wrap(ilixerrors.MongoError, err)
		}
	}

	return nil
}

func (s *mongoTransferStore) DeleteTransfer(ctx context.Context, kp, toDeviceID, transferID string) ([]string, error) {
	oid, err := primitive.ObjectIDFromHex(transferID)
	if err != nil {
		return nil, ilixerrors.New(ilixerrors.InvalidObjectID)
	}
	hashed, err := s.hash(kp)
	if err != nil {
		return nil, err
	}

	var deleted models.Transfer
	err = s.transfers.FindOneAndDelete(ctx, bson.M{
		"_id":                    oid,
		"pool_hashed_key_phrase": hashed,
		"to":                     toDeviceID,
	}).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return nil, ilixerrors.New(ilixerrors.TransferNotFound)
	}
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	return deleted.FilesID, nil
}

func (s *mongoTransferStore) DeleteTransfersTo(ctx context.Context, hashedKP, deviceID string, blobs BlobStore) error {
	cursor, err := s.transfers.Find(ctx, bson.M{"pool_hashed_key_phrase": hashedKP, "to": deviceID})
	if err != nil {
		return ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	var targets []models.Transfer
	for cursor.Next(ctx) {
		var t models.Transfer
		if err := cursor.Decode(&t); err != nil {
			cursor.Close(ctx)
			return ilixerrors.Wrap(ilixerrors.MongoError, err)
		}
		targets = append(targets, t)
	}
	cerr := cursor.Err()
	cursor.Close(ctx)
	if cerr != nil {
		return ilixerrors.Wrap(ilixerrors.MongoError, cerr)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if _, err := s.transfers.DeleteOne(gctx, bson.M{"_id": t.ID}); err != nil {
				return ilixerrors.Wrap(ilixerrors.MongoError, err)
			}
			if len(t.FilesID) > 0 {
				if err := blobs.DeleteFiles(gctx, t.FilesID); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
