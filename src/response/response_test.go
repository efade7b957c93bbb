package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestOKEmbedsDataAsJSONString(t *testing.T) {
	c, rec := newTestContext()
	OK(c, map[string]string{"hello": "world"})

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)
	require.NotNil(t, env.Data)
	assert.JSONEq(t, `{"hello":"world"}`, *env.Data)
}

func TestOKPassesRawStringThrough(t *testing.T) {
	c, rec := newTestContext()
	OK(c, "plaintext-payload")

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Data)
	assert.Equal(t, "plaintext-payload", *env.Data)
}

func TestFailMapsServerErrorToStatusAndReason(t *testing.T) {
	c, rec := newTestContext()
	Fail(c, ilixerrors.New(ilixerrors.PoolNotFound))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Reason)
	assert.Equal(t, "PoolNotFound", *env.Reason)
}

func TestFailWrapsUnknownErrorAsMongoError(t *testing.T) {
	c, rec := newTestContext()
	Fail(c, assertErr{"boom"})

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Reason)
	assert.Equal(t, "MongoError", *env.Reason)
}

func TestFailWithReasonUsesLiteralReason(t *testing.T) {
	c, rec := newTestContext()
	FailWithReason(c, http.StatusInternalServerError, "Transfer was deleted but some files were not deleted")

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Reason)
	assert.Equal(t, "Transfer was deleted but some files were not deleted", *env.Reason)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
