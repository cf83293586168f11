package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reposphere/staleweb/internal/domain/models"
	domainservice "github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/internal/infrastructure/monitoring"
	"github.com/reposphere/staleweb/internal/interfaces/http/handlers"
	"github.com/reposphere/staleweb/pkg/logger"
)

type mockWebServerCache struct {
	mock.Mock
	*domainservice.RepositoryURLResolver
}

func (m *mockWebServerCache) InvalidateAndRenew(ctx context.Context, toUpdate, toRemove models.URLSet) {
	m.Called(ctx, toUpdate, toRemove)
}

func (m *mockWebServerCache) Shutdown() {
	m.Called()
}

func newPurgeServer(t *testing.T) (*gin.Engine, *mockWebServerCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cache := &mockWebServerCache{
		RepositoryURLResolver: domainservice.NewRepositoryURLResolver("http://localhost:4000"),
	}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	handler := handlers.NewCacheHandler(cache, metrics, logger.NewNoopLogger())

	engine := gin.New()
	engine.POST("/api/v1/cache/purge", handler.Purge)
	return engine, cache
}

func postPurge(t *testing.T, engine *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/purge", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestPurgeWithoutRenewRoutesURLsToRemove(t *testing.T) {
	engine, cache := newPurgeServer(t)
	cache.On("InvalidateAndRenew", mock.Anything,
		models.NewURLSet(),
		models.NewURLSet("http://localhost:4000/handle/123/45")).Once()

	rec := postPurge(t, engine, handlers.PurgeRequest{
		URLs: []string{"http://localhost:4000/handle/123/45"},
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	cache.AssertExpectations(t)
}

func TestPurgeWithRenewRoutesURLsToUpdate(t *testing.T) {
	engine, cache := newPurgeServer(t)
	cache.On("InvalidateAndRenew", mock.Anything,
		models.NewURLSet("http://localhost:4000/entities/publication/abc",
			"http://localhost:4000/entities/publication/def"),
		models.NewURLSet()).Once()

	rec := postPurge(t, engine, handlers.PurgeRequest{
		URLs: []string{
			"http://localhost:4000/entities/publication/abc",
			"http://localhost:4000/entities/publication/def",
		},
		Renew: true,
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	cache.AssertExpectations(t)
}

func TestPurgeRejectsEmptyURLList(t *testing.T) {
	engine, cache := newPurgeServer(t)

	rec := postPurge(t, engine, handlers.PurgeRequest{URLs: []string{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	cache.AssertNotCalled(t, "InvalidateAndRenew")
}

func TestPurgeRejectsMalformedBody(t *testing.T) {
	engine, cache := newPurgeServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/purge",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	cache.AssertNotCalled(t, "InvalidateAndRenew")
}
