package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	HTTPPort    string
	LogLevel    string

	LedgerURL     string
	BoardURL      string
	LedgerTimeout time.Duration
	BoardTimeout  time.Duration
	NotifyTimeout time.Duration

	QRAsset     string
	DevPayments bool
	FlowLogPath string
	SessionTTL  time.Duration
}

func loadConfig() Config {
	return Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "pos-gateway"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		LedgerURL:     getEnv("LEDGER_URL", ""),
		BoardURL:      getEnv("BOARD_URL", ""),
		LedgerTimeout: getDuration("LEDGER_TIMEOUT", 15*time.Second),
		BoardTimeout:  getDuration("BOARD_TIMEOUT", 5*time.Second),
		NotifyTimeout: getDuration("NOTIFY_TIMEOUT", 5*time.Second),

		QRAsset:     getEnv("QR_ASSET", "/static/img/qr.png"),
		DevPayments: getBool("DEV_PAYMENTS", false),
		FlowLogPath: getEnv("FLOWLOG_PATH", ""),
		SessionTTL:  getDuration("SESSION_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid bool, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return b
}
