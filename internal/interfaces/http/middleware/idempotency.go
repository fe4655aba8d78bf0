package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rolegate.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// lockDuration bounds how long a key stays reserved while the first
	// request is still being processed.
	lockDuration = 30 * time.Second
	// retentionDuration is how long a successful response is replayed.
	retentionDuration = 24 * time.Hour

	processingMarker = "processing"
)

type bufferedWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key so a
// retried invoice creation does not mint a second payment request. Requests
// without the header pass through untouched.
func Idempotency() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		operator, _ := GetOperator(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s", operator, key)
		ctx := c.Request.Context()

		if val, err := redis.Get(ctx, storageKey); err == nil {
			if val == processingMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "Request already in progress",
				})
				return
			}
			c.Header("Content-Type", "application/json")
			c.Header("X-Idempotency-Hit", "true")
			c.String(http.StatusOK, val)
			c.Abort()
			return
		}

		acquired, err := redis.SetNX(ctx, storageKey, processingMarker, lockDuration)
		if err != nil {
			// Store unavailable: process without the guarantee rather than
			// refusing all traffic.
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
			})
			return
		}

		w := &bufferedWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			_ = redis.Set(ctx, storageKey, w.body.String(), retentionDuration)
		} else {
			// Failed attempts are retryable.
			_ = redis.Del(ctx, storageKey)
		}
	}
}
