package weather

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nekihlep/water-norm/repository"
)

const temperatureCacheKey = "water-norm:temperature:current"

// CachedProvider keeps the last reading of next in cache for ttl. Cache
// failures are logged and bypassed; errors from next are returned unchanged
// and never cached.
type CachedProvider struct {
	next   TemperatureProvider
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProvider(
	next TemperatureProvider,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedProvider) Temperature(ctx context.Context) (float64, error) {
	raw, ok, err := c.cache.Get(ctx, temperatureCacheKey)
	switch {
	case err != nil:
		c.logger.Warn("temperature cache read failed", zap.Error(err))
	case ok:
		if v, perr := strconv.ParseFloat(raw, 64); perr == nil {
			return v, nil
		}
		c.logger.Warn("discarding malformed cached temperature", zap.String("value", raw))
	}

	temp, err := c.next.Temperature(ctx)
	if err != nil {
		return 0, err
	}

	value := strconv.FormatFloat(temp, 'f', -1, 64)
	if err := c.cache.Set(ctx, temperatureCacheKey, value, c.ttl); err != nil {
		c.logger.Warn("temperature cache write failed", zap.Error(err))
	}
	return temp, nil
}
