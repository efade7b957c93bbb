// Package store implements the atomic CRUD store adapters over pools,
// transfers and blobs as Go interfaces over a *mongo.Database, mirroring
// a thin repository-per-collection layout.
package store

import (
	"bytes"
	"context"
	"io"

	"github.com/ilix/server/src/crypto"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/ilix/server/src/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// BlobStore is the chunked large-object store: encrypt-then-upload on
// write, download-then-decrypt on read.
type BlobStore interface {
	GetFilesInfo(ctx context.Context, ids []string) ([]models.FileInfo, error)
	GetFile(ctx context.Context, id string, keyPhrase string) (filename string, plaintext []byte, err error)
	AddFiles(ctx context.Context, files []UploadFile, keyPhrase string) ([]string, error)
	DeleteFiles(ctx context.Context, ids []string) error
}

// UploadFile is one part of a multipart upload: a filename and its raw
// plaintext bytes.
type UploadFile struct {
	Filename string
	Data     []byte
}

type gridFSBlobStore struct {
	bucket *gridfs.Bucket
}

// NewBlobStore opens a GridFS bucket with the configured name against db.
func NewBlobStore(db *mongo.Database, bucketName string) (BlobStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	return &gridFSBlobStore{bucket: bucket}, nil
}

func (s *gridFSBlobStore) GetFilesInfo(ctx context.Context, ids []string) ([]models.FileInfo, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, ilixerrors.New(ilixerrors.InvalidObjectID)
		}
		oids = append(oids, oid)
	}

	cursor, err := s.bucket.GetFilesCollection().Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	defer cursor.Close(ctx)

	found := make(map[string]models.FileInfo, len(ids))
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
		}
		info := decodeFileInfo(raw)
		found[info.ID] = info
	}
	if err := cursor.Err(); err != nil {
		return nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	out := make([]models.FileInfo, 0, len(ids))
	for _, id := range ids {
		info, ok := found[id]
		if !ok {
			return nil, ilixerrors.New(ilixerrors.FileNotFound)
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *gridFSBlobStore) GetFile(ctx context.Context, id string, keyPhrase string) (string, []byte, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", nil, ilixerrors.New(ilixerrors.InvalidObjectID)
	}

	var buf bytes.Buffer
	downloadStream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if err == gridfs.ErrFileNotFound {
			return "", nil, ilixerrors.New(ilixerrors.FileNotFound)
		}
		return "", nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	filename := downloadStream.GetFile().Name

	if _, err := io.Copy(&buf, downloadStream); err != nil {
		downloadStream.Close()
		return "", nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}
	if err := downloadStream.Close(); err != nil {
		return "", nil, ilixerrors.Wrap(ilixerrors.MongoError, err)
	}

	plaintext, err := crypto.Decrypt(keyPhrase, buf.Bytes())
	if err != nil {
		return "", nil, err
	}

	return filename, plaintext, nil
}

func (s *gridFSBlobStore) AddFiles(ctx context.Context, files []UploadFile, keyPhrase string) ([]string, error) {
	ciphertexts := make([][]byte, len(files))

	g, _ := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			ct, err := crypto.Encrypt(keyPhrase, f.Data)
			if err != nil {
				return err
			}
			ciphertexts[i] = ct
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(files))
	g2, _ := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g2.Go(func() error {
			uploadStream, err := s.bucket.OpenUploadStream(f.Filename)
			if err != nil {
				return ilixerrors.Wrap(ilixerrors.MongoError, err)
			}
			if _, err := uploadStream.Write(ciphertexts[i]); err != nil {
				uploadStream.Close()
				return ilixerrors.Wrap(ilixerrors.MongoError, err)
			}
			if err := uploadStream.Close(); err != nil {
				return ilixerrors.Wrap(ilixerrors.MongoError, err)
			}
			ids[i] = uploadStream.FileID.(primitive.ObjectID).Hex()
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (s *gridFSBlobStore) DeleteFiles(ctx context.Context, ids []string) error {
	g, _ := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			oid, err := primitive.ObjectIDFromHex(id)
			if err != nil {
				return ilixerrors.New(ilixerrors.InvalidObjectID)
			}
			if err := s.bucket.Delete(oid); err != nil {
				return ilixerrors.Wrap(ilixerrors.MongoError, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func decodeFileInfo(raw bson.M) models.FileInfo {
	info := models.FileInfo{}
	if id, ok := raw["_id"].(primitive.ObjectID); ok {
		info.ID = id.Hex()
	}
	if filename, ok := raw["filename"].(string); ok {
		info.Filename = filename
	}
	if length, ok := raw["length"].(int64); ok {
		info.Length = length
	}
	if chunkSize, ok := raw["chunkSize"].(int32); ok {
		info.ChunkSize = chunkSize
	}
	if uploadDate, ok := raw["uploadDate"].(primitive.DateTime); ok {
		info.UploadDate = int64(uploadDate)
	}
	return info
}
