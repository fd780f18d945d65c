package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string
	DBPath      string
	RedisAddr   string
	CacheSize   int
	VoucherTTL  time.Duration
	DevPayments bool
}

func loadConfig() Config {
	return Config{
		ServiceName: getEnv("OTEL_SERVICE_NAME", "board-service"),
		Port:        getEnv("PORT", "5000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DBPath:      getEnv("BOARD_DB_PATH", "./data/board.db"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		CacheSize:   getInt("CACHE_SIZE", 10_000),
		VoucherTTL:  getDuration("VOUCHER_TTL", 24*time.Hour),
		DevPayments: getBool("DEV_PAYMENTS", false),
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

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid int, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}
