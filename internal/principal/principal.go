// Package principal carries the caller identity asserted by the fronting gateway.
package principal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/trustcore/internal/errors"
	"github.com/allisson/trustcore/internal/httputil"
)

// Identity headers set by the gateway.
const (
	HeaderID    = "X-Principal-Id"
	HeaderName  = "X-Principal-Name"
	HeaderEmail = "X-Principal-Email"
)

// Principal identifies the caller of a request.
type Principal struct {
	ID    string
	Name  string
	Email string
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by HeaderMiddleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// HeaderMiddleware reads the identity headers into the request context. Requests without
// a principal id are rejected with 401.
func HeaderMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderID))
		if id == "" {
			logger.Debug("principal header missing", slog.String("path", c.Request.URL.Path))
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		p := &Principal{
			ID:    id,
			Name:  strings.TrimSpace(c.GetHeader(HeaderName)),
			Email: strings.TrimSpace(c.GetHeader(HeaderEmail)),
		}
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
