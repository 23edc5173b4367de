package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/leadhub/internal/auth"
	obscontext "github.com/smallbiznis/leadhub/internal/observability/context"
	"github.com/smallbiznis/leadhub/internal/ratelimit"
	"go.uber.org/zap"
)

// AuthRequired resolves the session token into a principal and stores it on
// the request context for the services below.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.userSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := auth.WithPrincipal(c.Request.Context(), principal)
		ctx = obscontext.WithActor(ctx, principal.Role.String(), principal.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorize checks the principal's role against the capability table.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), principal.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

type rateLimitKeyFunc func(c *gin.Context) string

func clientIPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// principalKey falls back to the client address for anonymous callers.
func principalKey(c *gin.Context) string {
	if principal, ok := auth.PrincipalFromContext(c.Request.Context()); ok {
		return "user:" + principal.UserID.String()
	}
	return clientIPKey(c)
}

func (s *Server) rateLimit(policy ratelimit.Policy, key rateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result := s.limiter.Allow(ctx, policy, key(c))
		if result.Allowed {
			c.Next()
			return
		}

		endpoint := strings.TrimSpace(c.FullPath())
		if endpoint == "" {
			endpoint = "unknown"
		}
		s.log.Warn("rate limit exceeded",
			zap.String("policy", policy.Name),
			zap.String("endpoint", endpoint),
		)
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, policy.Name)

		retryAfter := max(int(result.RetryAfter.Seconds()+0.999), 1)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		AbortWithError(c, ErrRateLimited)
	}
}
