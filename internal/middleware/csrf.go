package middleware

import (
    "crypto/subtle"
    "net/http"
    "sync"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/google/uuid"

    "github.com/classwatch/classwatch-backend/internal/models"
    "github.com/classwatch/classwatch-backend/internal/utils"
)

const CSRFHeader = "X-CSRF-Token"

type csrfEntry struct {
    tokenHash string
    expiresAt time.Time
}

// CSRFStore issues per-operator tokens and validates the replayed header on
// mutating requests. Tokens are stored hashed; a mismatch yields 403 so the
// dashboard drops its copy and re-fetches.
type CSRFStore struct {
    ttl time.Duration

    mu     sync.Mutex
    tokens map[string]csrfEntry // operator userID -> entry
}

func NewCSRFStore(ttl time.Duration) *CSRFStore {
    return &CSRFStore{
        ttl:    ttl,
        tokens: make(map[string]csrfEntry),
    }
}

// Issue mints a fresh token for the operator, replacing any previous one.
func (s *CSRFStore) Issue(userID string) string {
    token := uuid.NewString()
    s.mu.Lock()
    s.tokens[userID] = csrfEntry{
        tokenHash: utils.SHA256Hex(token),
        expiresAt: time.Now().Add(s.ttl),
    }
    s.mu.Unlock()
    return token
}

func (s *CSRFStore) valid(userID, token string) bool {
    if token == "" {
        return false
    }
    s.mu.Lock()
    entry, ok := s.tokens[userID]
    if ok && time.Now().After(entry.expiresAt) {
        delete(s.tokens, userID)
        ok = false
    }
    s.mu.Unlock()
    if !ok {
        return false
    }
    hashed := utils.SHA256Hex(token)
    return subtle.ConstantTimeCompare([]byte(hashed), []byte(entry.tokenHash)) == 1
}

// Invalidate drops the operator's token, forcing a re-fetch.
func (s *CSRFStore) Invalidate(userID string) {
    s.mu.Lock()
    delete(s.tokens, userID)
    s.mu.Unlock()
}

// CSRFMiddleware enforces the token on mutating methods. Reads pass through.
func CSRFMiddleware(store *CSRFStore) gin.HandlerFunc {
    return func(c *gin.Context) {
        switch c.Request.Method {
        case http.MethodGet, http.MethodHead, http.MethodOptions:
            c.Next()
            return
        }
        uVal, ok := c.Get("user")
        if !ok {
            c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
            return
        }
        user := uVal.(models.User)
        if !store.valid(user.UserID, c.GetHeader(CSRFHeader)) {
            store.Invalidate(user.UserID)
            c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid csrf token"})
            return
        }
        c.Next()
    }
}
