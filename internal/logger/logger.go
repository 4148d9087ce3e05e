package logger

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorrelationIDHeader is the response header carrying the request correlation id.
const CorrelationIDHeader = "X-Correlation-ID"

const contextLoggerKey = "beemonLogger"
const contextCorrelationKey = "beemonCorrelationID"

// Init builds the process-wide zap logger. LOG_LEVEL selects the minimum
// level (debug, info, warn, error); production encoding otherwise.
func Init() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok {
		parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(lvl)))
		if err == nil {
			cfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	return cfg.Build()
}

// Middleware assigns each request a correlation id and logs request completion.
func Middleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(CorrelationIDHeader, id)
		c.Set(contextCorrelationKey, id)

		reqLogger := base.With(zap.String("correlation_id", id))
		c.Set(contextLoggerKey, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// CorrelationID returns the correlation id assigned to the request, if any.
func CorrelationID(c *gin.Context) string {
	if v, ok := c.Get(contextCorrelationKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// FromContext returns the request-scoped logger, falling back to a no-op logger.
func FromContext(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(contextLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
