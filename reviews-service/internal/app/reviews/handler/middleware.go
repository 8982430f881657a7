package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const adminClaimsKey = "admin_claims"

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*util.AdminClaims, error)
}

// AuthMiddleware пускает в админку только запросы с действующим токеном
type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate ждет заголовок "Authorization: Bearer <token>"
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" || strings.Contains(raw, " ") {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := m.validator.ValidateToken(c.Request.Context(), raw)
		switch {
		case errors.Is(err, util.ErrExpiredToken):
			unauthorized(c, "Token has expired")
			return
		case errors.Is(err, util.ErrInvalidToken):
			unauthorized(c, "Invalid token")
			return
		case err != nil:
			internalError(c, err, "Failed to validate token")
			c.Abort()
			return
		}

		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// AdminFromContext возвращает claims, положенные Authenticate
func AdminFromContext(c *gin.Context) (*util.AdminClaims, bool) {
	v, ok := c.Get(adminClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*util.AdminClaims)
	return claims, ok
}

func (m *AuthMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := AdminFromContext(c)
		if !ok {
			unauthorized(c, "Unauthorized")
			return
		}
		if !claims.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, entity.ErrorResponse{
				Error:   "Forbidden",
				Message: "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, entity.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}

// RateLimiter ограничивает частоту запросов с одного IP (token bucket на клиента)
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter: rps запросов в секунду с запасом burst; клиенты без запросов дольше idleTTL забываются
func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow сообщает, можно ли пропустить запрос клиента key
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, cl := range l.clients {
			if now.Sub(cl.lastSeen) > l.idleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// Middleware отвечает 429, если клиент превысил лимит
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "Rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
