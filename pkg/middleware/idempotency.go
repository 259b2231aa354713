package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/response"
)

const (
	// IdempotencyKeyHeader carries the client chosen key of a retried POST
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// IdempotencyKeyPrefix namespaces records in the store
	IdempotencyKeyPrefix = "idempotency:"

	// DefaultIdempotencyTTL keeps completed records long enough for client retries
	DefaultIdempotencyTTL = 10 * time.Minute
	// DefaultProcessingTTL bounds how long a crashed request blocks its key
	DefaultProcessingTTL = 30 * time.Second

	codeKeyReused        = "IDEMPOTENCY_KEY_REUSED"
	codeRequestInProgress = "REQUEST_IN_PROGRESS"
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

// idempotencyRecord is the stored state of one keyed request
type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code,omitempty"`
	ResponseBody []byte            `json:"response_body,omitempty"`
}

// IdempotencyStore is the subset of the Redis client the middleware needs.
// *redis.Client from pkg/redis satisfies it.
type IdempotencyStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// IdempotencyConfig configures Idempotency
type IdempotencyConfig struct {
	Store         IdempotencyStore
	TTL           time.Duration
	ProcessingTTL time.Duration
	Logger        *logger.Logger
}

// Idempotency replays the stored response of a request whose
// X-Idempotency-Key was already seen with the same method, path and body.
// Requests without the header pass through. Store failures fail open.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultIdempotencyTTL
	}
	if cfg.ProcessingTTL <= 0 {
		cfg.ProcessingTTL = DefaultProcessingTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		storeKey := IdempotencyKeyPrefix + key
		hash := requestHash(c.Request.Method, c.Request.URL.Path, body)

		processing, _ := json.Marshal(idempotencyRecord{Status: statusProcessing, RequestHash: hash})
		acquired, err := cfg.Store.SetNX(ctx, storeKey, processing, cfg.ProcessingTTL)
		if err != nil {
			cfg.Logger.Warn("idempotency store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			replay(c, cfg, storeKey, hash)
			return
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		// only successful responses are replayed; failures may be retried for real
		if status >= http.StatusBadRequest {
			if err := cfg.Store.Del(ctx, storeKey); err != nil {
				cfg.Logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
			return
		}
		done, _ := json.Marshal(idempotencyRecord{
			Status:       statusCompleted,
			RequestHash:  hash,
			ResponseCode: status,
			ResponseBody: rw.body.Bytes(),
		})
		if err := cfg.Store.Set(ctx, storeKey, done, cfg.TTL); err != nil {
			cfg.Logger.Warn("failed to save idempotency record", zap.String("key", key), zap.Error(err))
		}
	}
}

func replay(c *gin.Context, cfg IdempotencyConfig, storeKey, hash string) {
	data, ok, err := cfg.Store.GetBytes(c.Request.Context(), storeKey)
	if err != nil || !ok {
		// expired between SetNX and Get, or the store failed: process normally
		c.Next()
		return
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.Next()
		return
	}

	switch {
	case rec.RequestHash != hash:
		response.Error(c, http.StatusUnprocessableEntity, codeKeyReused,
			"Idempotency key already used with a different request")
	case rec.Status == statusProcessing:
		response.Error(c, http.StatusConflict, codeRequestInProgress,
			"A request with this idempotency key is already being processed")
	default:
		c.Data(rec.ResponseCode, "application/json; charset=utf-8", rec.ResponseBody)
		c.Abort()
	}
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// capturingWriter copies the response body while writing it through
type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
