package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/inventory/internal/infrastructure/auth"
	"github.com/marketplace/inventory/internal/infrastructure/logger"
	"github.com/marketplace/inventory/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Actor context keys and headers
const (
	ActorIDKey    = "actor_id"
	JWTClaimsKey  = "jwt_claims"
	ActorIDHeader = "X-User-ID"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

var errMissingToken = errors.New("missing bearer token")

// ActorConfig configures how the acting user of a request is resolved
type ActorConfig struct {
	// JWTService validates bearer tokens. Nil disables token parsing.
	JWTService *auth.JWTService
	// RequireAuth rejects requests without a valid bearer token
	RequireAuth bool
	// SkipPaths are served without resolving an actor
	SkipPaths []string
	Logger    *zap.Logger
}

// Actor resolves the acting user from the JWT user_id claim, falling back to
// X-User-ID when RequireAuth is off. A present but invalid token is always rejected.
func Actor(cfg ActorConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		switch {
		case header != "" && cfg.JWTService != nil:
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" {
				abortUnauthorized(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
				return
			}
			claims, err := cfg.JWTService.ValidateAccessToken(token)
			if err != nil {
				abortUnauthorized(c, log, err, "Token validation failed")
				return
			}
			c.Set(JWTClaimsKey, claims)
			setActor(c, claims.ActorID())
		case cfg.RequireAuth:
			abortUnauthorized(c, log, errMissingToken, "Missing authorization header")
			return
		default:
			if actor := strings.TrimSpace(c.GetHeader(ActorIDHeader)); actor != "" {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

func setActor(c *gin.Context, actorID string) {
	c.Set(ActorIDKey, actorID)
	ctx := c.Request.Context()
	ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), actorID)
	c.Request = c.Request.WithContext(ctx)
}

// GetActorID returns the actor resolved by Actor, or ""
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid), errors.Is(err, auth.ErrMissingUserID):
		code = dto.ErrCodeTokenInvalid
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
