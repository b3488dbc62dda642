package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/inventory/internal/domain/shared"
	"github.com/marketplace/inventory/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key of a retryable request
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeySize = 200

// Idempotency rejects a replayed request whose Idempotency-Key was already
// claimed by the same actor. The claim is released when the request fails so
// the client can retry it. Requests without the header pass through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeySize {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		scoped := GetActorID(c) + ":" + c.FullPath() + ":" + key
		claimed, err := store.Claim(ctx, scoped, ttl)
		if err != nil {
			// availability wins over replay protection
			log.Error("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed", GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			// released even when the client is gone, so its retry is not refused
			if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
				log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
