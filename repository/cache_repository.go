package repository

import (
	"context"
	"time"
)

// CacheRepository stores short-lived string values. A miss is reported as
// ok=false with a nil error; err is reserved for backend failures.
type CacheRepository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
