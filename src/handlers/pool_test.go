package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/ilix/server/src/models"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPoolStore struct {
	mock.Mock
}

func (m *mockPoolStore) GetPool(ctx context.Context, kp string) (models.Pool, error) {
	args := m.Called(ctx, kp)
	return args.Get(0).(models.Pool), args.Error(1)
}

func (m *mockPoolStore) CreatePool(ctx context.Context, a store.NewPoolArgs) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *mockPoolStore) JoinPool(ctx context.Context, kp, deviceID, deviceName string) (models.Pool, error) {
	args := m.Called(ctx, kp, deviceID, deviceName)
	return args.Get(0).(models.Pool), args.Error(1)
}

func (m *mockPoolStore) LeavePool(ctx context.Context, kp, deviceID string) (models.Pool, error) {
	args := m.Called(ctx, kp, deviceID)
	return args.Get(0).(models.Pool), args.Error(1)
}

func (m *mockPoolStore) DeletePool(ctx context.Context, kp string) (models.Pool, error) {
	args := m.Called(ctx, kp)
	return args.Get(0).(models.Pool), args.Error(1)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestCreatePoolHappyPath(t *testing.T) {
	pools := new(mockPoolStore)
	pools.On("CreatePool", mock.Anything, store.NewPoolArgs{Name: "ilovecat", DeviceID: "ilingu", DeviceName: "ilingu1"}).
		Return(strings.Repeat("word-", 19)+"word", nil)

	h := NewPoolHandler(pools, sse.New(testLogger()), "salt", 5, testLogger())

	router := gin.New()
	router.POST("/pool/new", h.CreatePool)

	req := httptest.NewRequest(http.MethodPost, "/pool/new", strings.NewReader(
		`{"name":"ilovecat","device_id":"ilingu","device_name":"ilingu1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	pools.AssertExpectations(t)
}

func TestCreatePoolRejectsEmptyArgs(t *testing.T) {
	pools := new(mockPoolStore)
	h := NewPoolHandler(pools, sse.New(testLogger()), "salt", 5, testLogger())

	router := gin.New()
	router.POST("/pool/new", h.CreatePool)

	req := httptest.NewRequest(http.MethodPost, "/pool/new", strings.NewReader(`{"name":"","device_id":"ilingu","device_name":"ilingu1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Empty Args")
	pools.AssertNotCalled(t, "CreatePool")
}

func TestJoinPoolAlreadyInPoolReturns409(t *testing.T) {
	pools := new(mockPoolStore)
	pools.On("JoinPool", mock.Anything, "kp", "bliwox", "bliwox1").
		Return(models.Pool{}, ilixerrors.New(ilixerrors.AlreadyInPool))

	h := NewPoolHandler(pools, sse.New(testLogger()), "salt", 5, testLogger())

	router := gin.New()
	router.PUT("/pool/join", func(c *gin.Context) {
		c.Set("key_phrase", "kp")
		h.JoinPool(c)
	})

	req := httptest.NewRequest(http.MethodPut, "/pool/join", strings.NewReader(`{"device_id":"bliwox","device_name":"bliwox1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "AlreadyInPool")
}

func TestGetPoolNotFoundReturns404(t *testing.T) {
	pools := new(mockPoolStore)
	pools.On("GetPool", mock.Anything, "kp").Return(models.Pool{}, ilixerrors.New(ilixerrors.PoolNotFound))

	h := NewPoolHandler(pools, sse.New(testLogger()), "salt", 5, testLogger())

	router := gin.New()
	router.GET("/pool", func(c *gin.Context) {
		c.Set("key_phrase", "kp")
		h.GetPool(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/pool", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "PoolNotFound")
}
