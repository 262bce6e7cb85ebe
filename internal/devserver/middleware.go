package devserver

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/auth"
	"github.com/repeticio/repeticio/internal/backend"
)

// Gin context keys.
const (
	ctxRequestID = "request_id"
	ctxIdentity  = "identity"
)

// anonymous is the identity of callers that do not name themselves.
const anonymous = "anonymous"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(backend.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(backend.HeaderRequestID, id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(ctxRequestID)).
			Str("identity", c.GetString(ctxIdentity)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// identify resolves the caller. With a secret, a valid bearer token is
// required and its subject is the identity; without one the identity
// header is trusted.
func identify(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			id := strings.TrimSpace(c.GetHeader(backend.HeaderIdentity))
			if id == "" {
				id = anonymous
			}
			c.Set(ctxIdentity, id)
			c.Next()
			return
		}

		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortFail(c, http.StatusUnauthorized, "authorization token required")
			return
		}
		claims, err := auth.Verify(secret, tok)
		if err != nil {
			abortFail(c, http.StatusUnauthorized, "invalid authorization token")
			return
		}
		c.Set(ctxIdentity, claims.Identity())
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || tok == "" {
		return "", false
	}
	return tok, true
}

// allowUsers rejects identities outside allowed. An empty list allows all.
func allowUsers(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(allowed) > 0 && !slices.Contains(allowed, c.GetString(ctxIdentity)) {
			abortFail(c, http.StatusForbidden, "user is not allowed")
			return
		}
		c.Next()
	}
}

// failBody is the error envelope the client decodes.
type failBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func abortFail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, failBody{Error: msg})
}
