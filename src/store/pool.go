package store

import (
	"context"

	"github.com/ilix/server/src/config"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewPoolArgs is the input to CreatePool.
type NewPoolArgs struct {
	Name       string
	DeviceID   string
	DeviceName string
}

// PoolStore is the atomic CRUD surface over the pool collection, also
// responsible for the leave/delete cascades into the transfer and blob
// stores.
type PoolStore interface {
	GetPool(ctx context.Context, kp string) (models.Pool, error)
	CreatePool(ctx context.Context, args NewPoolArgs) (plaintextKeyPhrase string, err error)
	JoinPool(ctx context.Context, kp, deviceID, deviceName string) (models.Pool, error)
	LeavePool(ctx context.Context, kp, deviceID string) (models.Pool, error)
	DeletePool(ctx context.Context, kp string) (models.Pool, error)
}

type mongoPoolStore struct {
	cfg       *config.Config
	pools     *mongo.Collection
	transfers TransferStore
	blobs     BlobStore
}

// NewPoolStore constructs the pool store. It depends on TransferStore and
// BlobStore directly because leave_pool/delete_pool cascade into both.
func NewPoolStore(cfg *config.Config, pools *mongo.Collection, transfers TransferStore, blobs BlobStore) PoolStore {
	return &mongoPoolStore{cfg: cfg, pools: pools, transfers: transfers, blobs: blobs}
}

func (s *mongoPoolStore) GetPool(ctx context.Context, kp string) (models.Pool, error) {
	hashed, err := s.hash(kp)
	if err != nil {
		return models.Pool{}, err
	}

	var pool models.Pool
	err = s.pools.FindOne(ctx, bson.M{"hashed_key_phrase": hashed}).Decode(&pool)
	if err == mongo.ErrNoDocuments {
		return models.Pool{}, ilixerrors.New(ilixerrors.PoolNotFound)
	}
	if err != nil {
		return models.Pool{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	return pool.Clean(), nil
}

func (s *mongoPoolStore) CreatePool(ctx context.Context, args NewPoolArgs) (string, error) {
	plaintext, err := keyphrase.Generate(s.cfg.DictionaryPath, keyphrase.Length)
	if err != nil {
		return "", err
	}

	hashed, err := plaintext.Hash(s.cfg.Salt, s.cfg.HashRound)
	if err != nil {
		return "", err
	}

	pool := models.Pool{
		PoolName:        args.Name,
		DevicesID:       []string{args.DeviceID},
		DevicesIDToName: map[string]string{args.DeviceID: args.DeviceName},
		HashedKeyPhrase: hashed,
	}

	if _, err := s.pools.InsertOne(ctx, pool); err != nil {
		return "", ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	return string(plaintext), nil
}

// JoinPool atomically adds deviceID to the pool's device set (if absent)
// and unconditionally sets its display name. The atomic update yields the
// pre-image; the returned pool is that pre-image with the new device and
// its name added. A device already present yields AlreadyInPool.
func (s *mongoPoolStore) JoinPool(ctx context.Context, kp, deviceID, deviceName string) (models.Pool, error) {
	hashed, err := s.hash(kp)
	if err != nil {
		return models.Pool{}, err
	}

	update := bson.M{
		"$addToSet": bson.M{"devices_id": deviceID},
		"$set":      bson.M{"devices_id_to_name." + deviceID: deviceName},
	}

	var preImage models.Pool
	err = s.pools.FindOneAndUpdate(ctx, bson.M{"hashed_key_phrase": hashed}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&preImage)
	if err == mongo.ErrNoDocuments {
		return models.Pool{}, ilixerrors.New(ilixerrors.PoolNotFound)
	}
	if err != nil {
		return models.Pool{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	if preImage.HasDevice(deviceID) {
		return models.Pool{}, ilixerrors.New(ilixerrors.AlreadyInPool)
	}

	postImage := preImage
	postImage.DevicesID = append(append([]string{}, preImage.DevicesID...), deviceID)
	postImage.DevicesIDToName = cloneNames(preImage.DevicesIDToName)
	postImage.DevicesIDToName[deviceID] = deviceName

	return postImage.Clean(), nil
}

// LeavePool implements the full leave sequence: delete the leaving
// device's inbound transfers (and their blobs), pull it from the pool,
// and if it was the last member, cascade-delete the pool too.
func (s *mongoPoolStore) LeavePool(ctx context.Context, kp, deviceID string) (models.Pool, error) {
	hashed, err := s.hash(kp)
	if err != nil {
		return models.Pool{}, err
	}

	if err := s.transfers.DeleteTransfersTo(ctx, hashed, deviceID, s.blobs); err != nil {
		return models.Pool{}, err
	}

	update := bson.M{
		"$pull": bson.M{"devices_id": deviceID},
		"$unset": bson.M{"devices_id_to_name." + deviceID: ""},
	}

	var preImage models.Pool
	err = s.pools.FindOneAndUpdate(ctx, bson.M{"hashed_key_phrase": hashed}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&preImage)
	if err == mongo.ErrNoDocuments {
		return models.Pool{}, ilixerrors.New(ilixerrors.PoolNotFound)
	}
	if err != nil {
		return models.Pool{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	if !preImage.HasDevice(deviceID) {
		return models.Pool{}, ilixerrors.New(ilixerrors.NotInPool)
	}

	postImage := preImage
	postImage.DevicesID = removeString(preImage.DevicesID, deviceID)
	postImage.DevicesIDToName = cloneNames(preImage.DevicesIDToName)
	delete(postImage.DevicesIDToName, deviceID)

	if len(preImage.DevicesID) == 1 {
		// This was the last member; the pool is now meaningless. Its
		// deletion failing is not reported - the membership mutation
		// above already committed and the pool has no members left to
		// observe an inconsistency.
		_, _ = s.DeletePool(ctx, kp)
	}

	return postImage.Clean(), nil
}

func (s *mongoPoolStore) DeletePool(ctx context.Context, kp string) (models.Pool, error) {
	pool, err := s.GetPool(ctx, kp)
	if err != nil {
		return models.Pool{}, err
	}

	hashed, err := s.hash(kp)
	if err != nil {
		return models.Pool{}, err
	}

	for _, deviceID := range pool.DevicesID {
		if err := s.transfers.DeleteTransfersTo(ctx, hashed, deviceID, s.blobs); err != nil {
			return models.Pool{}, err
		}
	}

	var deleted models.Pool
	err = s.pools.FindOneAndDelete(ctx, bson.M{"hashed_key_phrase": hashed}).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return models.Pool{}, ilixerrors.New(ilixerrors.PoolNotFound)
	}
	if err != nil {
		return models.Pool{}, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	return deleted.Clean(), nil
}

func (s *mongoPoolStore) hash(kp string) (string, error) {
	parsed, err := keyphrase.Parse(kp)
	if err != nil {
		return "", err
	}
	return parsed.Hash(s.cfg.Salt, s.cfg.HashRound)
}

func cloneNames(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func removeString(ss []string, target string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}
