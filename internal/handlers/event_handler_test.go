package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zevohq/zevo/internal/handlers"
)

func listEventsRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlerChain := append(mw, handlers.ListEvents)
	r.GET("/events", handlerChain...)
	return r
}

func getEvents(r *gin.Engine, query string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events"+query, nil))
	return w
}

func TestListEvents_RejectsBadPagination(t *testing.T) {
	// No db middleware: pagination must be rejected before any query runs.
	r := listEventsRouter()

	for name, query := range map[string]string{
		"zero limit":        "?limit=0",
		"negative limit":    "?limit=-5",
		"zero page":         "?page=0",
		"negative page":     "?page=-1",
		"non-numeric page":  "?page=abc",
		"non-numeric limit": "?limit=abc",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, getEvents(r, query).Code)
		})
	}
}

// brokenDB opens a gorm handle whose every query fails, so handlers can be
// exercised against storage errors without a live server.
func brokenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "host=127.0.0.1 port=1 user=zevo dbname=zevo sslmode=disable connect_timeout=1"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestListEvents_StorageFailureIsInternal(t *testing.T) {
	db := brokenDB(t)
	r := listEventsRouter(func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	})

	w := getEvents(r, "?page=1&limit=10")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
