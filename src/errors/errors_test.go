package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{InvalidObjectID, http.StatusBadRequest},
		{InvalidKeyPhrase, http.StatusUnauthorized},
		{PoolNotFound, http.StatusNotFound},
		{TransferNotFound, http.StatusNotFound},
		{FileNotFound, http.StatusNotFound},
		{AlreadyInPool, http.StatusConflict},
		{NotInPool, http.StatusConflict},
		{NotInTransfer, http.StatusConflict},
		{MongoError, http.StatusInternalServerError},
		{EncryptionError, http.StatusInternalServerError},
		{DecryptionError, http.StatusInternalServerError},
		{HashError, http.StatusInternalServerError},
		{SseFailedToSend, http.StatusInternalServerError},
		{DictionaryNotFound, http.StatusInternalServerError},
		{EnvVarNotFound, http.StatusInternalServerError},
		{ParseError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		err := New(tc.kind)
		assert.Equal(t, tc.want, err.StatusCode(), "kind=%s", tc.kind)
		assert.Equal(t, string(tc.kind), err.Reason())
	}
}

func TestEmptyArgsReason(t *testing.T) {
	err := EmptyArgs()
	assert.Equal(t, "Empty Args", err.Reason())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode())
}

func TestIsAndAs(t *testing.T) {
	err := New(PoolNotFound)
	assert.True(t, Is(err, PoolNotFound))
	assert.False(t, Is(err, TransferNotFound))

	se, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, PoolNotFound, se.Kind)
}
