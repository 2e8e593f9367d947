package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdempotencyRepo is an in-memory IdempotencyRepository for middleware tests.
type fakeIdempotencyRepo struct {
	keys      map[string]*entity.IdempotencyKey
	createErr error
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
}

func (f *fakeIdempotencyRepo) GetByKey(_ context.Context, key string) (*entity.IdempotencyKey, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyRepo) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.keys[ikey.Key] = ikey
	return nil
}

func (f *fakeIdempotencyRepo) DeleteExpired(_ context.Context) error {
	return nil
}

func newIdempotencyTestRouter(repo *fakeIdempotencyRepo, handlerCalls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/receipts", IdempotencyRequired(IdempotencyConfig{Repo: repo}), func(c *gin.Context) {
		*handlerCalls++
		c.JSON(201, gin.H{"success": true, "calls": *handlerCalls})
	})
	return router
}

func postReceipt(router *gin.Engine, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/receipts", strings.NewReader("{}"))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyRequiredRejectsMissingKey(t *testing.T) {
	var calls int
	router := newIdempotencyTestRouter(newFakeIdempotencyRepo(), &calls)

	w := postReceipt(router, "")
	assert.Equal(t, 400, w.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyRequiredReplaysCachedResponse(t *testing.T) {
	var calls int
	repo := newFakeIdempotencyRepo()
	router := newIdempotencyTestRouter(repo, &calls)

	first := postReceipt(router, "key-1")
	assert.Equal(t, 201, first.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, first.Header().Get("X-Idempotency-Replayed"))

	second := postReceipt(router, "key-1")
	assert.Equal(t, 201, second.Code)
	assert.Equal(t, 1, calls, "retry must not re-run the handler")
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotencyRequiredExpiredKeyReprocesses(t *testing.T) {
	var calls int
	repo := newFakeIdempotencyRepo()
	repo.keys["stale"] = &entity.IdempotencyKey{
		Key:          "stale",
		ResponseCode: 201,
		ResponseBody: `{"success":true}`,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	router := newIdempotencyTestRouter(repo, &calls)

	w := postReceipt(router, "stale")
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRequiredRecordFailureStillResponds(t *testing.T) {
	var calls int
	repo := newFakeIdempotencyRepo()
	repo.createErr = errors.New("connection refused")
	router := newIdempotencyTestRouter(repo, &calls)

	// The client gets its receipt even when the key cannot be recorded.
	w := postReceipt(router, "key-2")
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, 1, calls)
	require.Empty(t, repo.keys)

	// With the key unrecorded the retry re-runs the handler.
	w = postReceipt(router, "key-2")
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
}
