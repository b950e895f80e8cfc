package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Port            string
	DBDriver        string
	DBDSN           string
	LogDev          bool
	ShutdownTimeout time.Duration

	// Admission
	DailyOrderLimit int
	DailyLimitTZ    string

	// Identity verification (LINE Login)
	LineLoginChannelID string
	LineVerifyURL      string

	// Notifications
	LineChannelAccessToken string
	LinePushURL            string
	KafkaBrokers           []string
	KafkaTopicPrefix       string

	// Rate limiter storage; empty keeps the limiter in memory.
	RedisAddr string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func listenv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func Load() Config {
	return Config{
		Port:                   getenv("PORT", "8080"),
		DBDriver:               getenv("DB_DRIVER", "sqlite"),
		DBDSN:                  getenv("DB_DSN", "minishop.db"), // sqlite file in working dir
		LogDev:                 boolenv("LOG_DEV", false),
		ShutdownTimeout:        time.Duration(atoienv("SHUTDOWN_TIMEOUT", 10)) * time.Second,
		DailyOrderLimit:        atoienv("DAILY_ORDER_LIMIT", 10),
		DailyLimitTZ:           getenv("DAILY_LIMIT_TZ", "Local"),
		LineLoginChannelID:     os.Getenv("LINE_LOGIN_CHANNEL_ID"),
		LineVerifyURL:          getenv("LINE_VERIFY_URL", "https://api.line.me/oauth2/v2.1/verify"),
		LineChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LinePushURL:            getenv("LINE_PUSH_URL", "https://api.line.me/v2/bot/message/push"),
		KafkaBrokers:           listenv("KAFKA_BROKERS"),
		KafkaTopicPrefix:       getenv("KAFKA_TOPIC_PREFIX", "minishop"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
	}
}

// Location resolves DailyLimitTZ; unknown names fall back to the process local zone.
func (c Config) Location() *time.Location {
	if c.DailyLimitTZ == "" || c.DailyLimitTZ == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.DailyLimitTZ)
	if err != nil {
		return time.Local
	}
	return loc
}

// Log writes the effective configuration with secrets masked.
func (c Config) Log(l *zap.Logger) {
	l.Info("config",
		zap.String("port", c.Port),
		zap.String("db_driver", c.DBDriver),
		zap.String("db_dsn", mask(c.DBDSN, c.DBDriver == "postgres")),
		zap.Int("daily_order_limit", c.DailyOrderLimit),
		zap.String("daily_limit_tz", c.DailyLimitTZ),
		zap.String("line_login_channel_id", c.LineLoginChannelID),
		zap.String("line_channel_access_token", mask(c.LineChannelAccessToken, true)),
		zap.Strings("kafka_brokers", c.KafkaBrokers),
		zap.String("redis_addr", c.RedisAddr),
	)
}

func mask(s string, secret bool) string {
	if !secret || s == "" {
		return s
	}
	return "***"
}
