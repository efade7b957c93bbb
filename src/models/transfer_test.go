package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTransferExtClearsPoolKey(t *testing.T) {
	tr := Transfer{
		ID:                  primitive.NewObjectID(),
		PoolHashedKeyPhrase: "deadbeef",
		From:                "bliwox",
		To:                  "ilingu",
		FilesID:             []string{"a", "b"},
	}

	ext := tr.Ext()
	assert.Equal(t, tr.ID.Hex(), ext.ID)
	assert.Equal(t, []string{"a", "b"}, ext.FilesID)

	raw, err := json.Marshal(ext)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pool_hashed_key_phrase")
	assert.NotContains(t, string(raw), "deadbeef")
}

func TestTransferHasFile(t *testing.T) {
	tr := Transfer{FilesID: []string{"a", "b"}}
	assert.True(t, tr.HasFile("a"))
	assert.False(t, tr.HasFile("z"))
}
