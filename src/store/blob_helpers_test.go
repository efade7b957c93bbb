package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeFileInfoExtractsKnownFields(t *testing.T) {
	oid := primitive.NewObjectID()
	uploadedAt := primitive.NewDateTimeFromTime(time.Unix(1700000000, 0))

	raw := bson.M{
		"_id":        oid,
		"filename":   "cat.png",
		"length":     int64(42),
		"chunkSize":  int32(261120),
		"uploadDate": uploadedAt,
		"md5":        "ignored",
	}

	info := decodeFileInfo(raw)
	assert.Equal(t, oid.Hex(), info.ID)
	assert.Equal(t, "cat.png", info.Filename)
	assert.EqualValues(t, 42, info.Length)
	assert.EqualValues(t, 261120, info.ChunkSize)
	assert.EqualValues(t, uploadedAt, info.UploadDate)
}

func TestDecodeFileInfoIgnoresMissingOrMistypedFields(t *testing.T) {
	info := decodeFileInfo(bson.M{"filename": 123})
	assert.Empty(t, info.ID)
	assert.Empty(t, info.Filename)
	assert.Zero(t, info.Length)
}
