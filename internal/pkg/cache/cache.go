package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

func generateKey(serviceName, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", serviceName, operation, key)
}
