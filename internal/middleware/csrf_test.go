package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/classwatch/classwatch-backend/internal/models"
)

func csrfRouter(store *CSRFStore, userID string) *gin.Engine {
    gin.SetMode(gin.TestMode)
    r := gin.New()
    r.Use(func(c *gin.Context) {
        c.Set("user", models.User{UserID: userID, Role: "teacher"})
    })
    r.Use(CSRFMiddleware(store))
    r.POST("/mutate", func(c *gin.Context) { c.Status(http.StatusNoContent) })
    r.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })
    return r
}

func TestCSRFValidTokenPasses(t *testing.T) {
    store := NewCSRFStore(time.Minute)
    token := store.Issue("u-1")
    r := csrfRouter(store, "u-1")

    req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
    req.Header.Set(CSRFHeader, token)
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)

    assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCSRFMissingTokenRejectedAndInvalidated(t *testing.T) {
    store := NewCSRFStore(time.Minute)
    token := store.Issue("u-1")
    r := csrfRouter(store, "u-1")

    req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)
    require.Equal(t, http.StatusForbidden, w.Code)

    // The stored token was dropped on failure, so the old copy no longer works.
    req = httptest.NewRequest(http.MethodPost, "/mutate", nil)
    req.Header.Set(CSRFHeader, token)
    w = httptest.NewRecorder()
    r.ServeHTTP(w, req)
    assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFWrongUserTokenRejected(t *testing.T) {
    store := NewCSRFStore(time.Minute)
    other := store.Issue("u-2")
    r := csrfRouter(store, "u-1")

    req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
    req.Header.Set(CSRFHeader, other)
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)

    assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFReadsPassWithoutToken(t *testing.T) {
    store := NewCSRFStore(time.Minute)
    r := csrfRouter(store, "u-1")

    req := httptest.NewRequest(http.MethodGet, "/read", nil)
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)

    assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFExpiredTokenRejected(t *testing.T) {
    store := NewCSRFStore(-time.Second)
    token := store.Issue("u-1")

    assert.False(t, store.valid("u-1", token))
}

func TestCSRFReissueReplacesToken(t *testing.T) {
    store := NewCSRFStore(time.Minute)
    first := store.Issue("u-1")
    second := store.Issue("u-1")

    assert.False(t, store.valid("u-1", first))
    assert.True(t, store.valid("u-1", second))
}
