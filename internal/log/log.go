package log

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger.
func New(service string, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}
	return cfg.Build()
}

// LoggerKey is the fiber Locals key holding the request's logger.
const LoggerKey = "logger"

// Middleware attaches l to every request so the helpers below can reach it.
func Middleware(l *zap.Logger) fiber.Handler {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		c.Locals(LoggerKey, l)
		return c.Next()
	}
}

// From returns the logger attached by Middleware, or a no-op logger.
func From(c *fiber.Ctx) *zap.Logger {
	if c != nil {
		if l, ok := c.Locals(LoggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.NewNop()
}

func write(level zapcore.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	zf := []zap.Field{zap.String("kind", kind), zap.String("action", action)}
	if c != nil {
		zf = append(zf,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			zf = append(zf, zap.String("req_id", rid))
		}
		if sub, ok := c.Locals(SubjectKey).(string); ok && sub != "" {
			zf = append(zf, zap.String("user_id", sub))
		}
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if len(fields) > 0 {
		zf = append(zf, zap.Any("fields", fields))
	}
	if ce := From(c).Check(level, action); ce != nil {
		ce.Write(zf...)
	}
}

// SubjectKey is the fiber Locals key holding the verified caller id.
const SubjectKey = "subject"

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "info", c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, "audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, "security", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, "error", c, action, err, fields)
}
