package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "salonhub"

type CacheService interface {
	// Report caching. Get returns false on a miss.
	GetReport(ctx context.Context, tenantID uuid.UUID, name string, dst interface{}) (bool, error)
	SetReport(ctx context.Context, tenantID uuid.UUID, name string, value interface{}, ttl time.Duration) error
	InvalidateReports(ctx context.Context, tenantID uuid.UUID) error

	// Refresh sessions, keyed by the hash of the opaque refresh token.
	SetRefreshSession(ctx context.Context, tokenHash string, session *models.RefreshSession, ttl time.Duration) error
	// ConsumeRefreshSession reads and deletes a session in one step so a
	// refresh token can be used once. Returns nil on a miss.
	ConsumeRefreshSession(ctx context.Context, tokenHash string) (*models.RefreshSession, error)
	DeleteRefreshSession(ctx context.Context, tokenHash string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int, logger zerolog.Logger) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn().Err(pingErr).Str("addr", parsedAddr).Msg("redis ping failed on initialization")
	} else {
		logger.Debug().Str("addr", parsedAddr).Msg("redis connection established")
	}

	return &redisCacheService{client: client}
}

func reportKey(tenantID uuid.UUID, name string) string {
	return fmt.Sprintf("%s:report:%s:%s", keyPrefix, tenantID.String(), name)
}

func reportPattern(tenantID uuid.UUID) string {
	return fmt.Sprintf("%s:report:%s:*", keyPrefix, tenantID.String())
}

func refreshKey(tokenHash string) string {
	return fmt.Sprintf("%s:refresh:%s", keyPrefix, tokenHash)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) GetReport(ctx context.Context, tenantID uuid.UUID, name string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, reportKey(tenantID, name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, errors.Annotate(err, "read report cache")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Annotate(err, "decode cached report")
	}
	return true, nil
}

func (r *redisCacheService) SetReport(ctx context.Context, tenantID uuid.UUID, name string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, reportKey(tenantID, name), data, ttl).Err()
}

func (r *redisCacheService) InvalidateReports(ctx context.Context, tenantID uuid.UUID) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, reportPattern(tenantID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Annotate(err, "scan report keys")
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) SetRefreshSession(ctx context.Context, tokenHash string, session *models.RefreshSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, refreshKey(tokenHash), data, ttl).Err()
}

func (r *redisCacheService) ConsumeRefreshSession(ctx context.Context, tokenHash string) (*models.RefreshSession, error) {
	data, err := r.client.GetDel(ctx, refreshKey(tokenHash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errors.Annotate(err, "read refresh session")
	}
	var session models.RefreshSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Annotate(err, "decode refresh session")
	}
	return &session, nil
}

func (r *redisCacheService) DeleteRefreshSession(ctx context.Context, tokenHash string) error {
	return r.client.Del(ctx, refreshKey(tokenHash)).Err()
}

// IsRateLimited counts one attempt in a fixed window and reports whether the
// limit has been exceeded.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, cacheKey)
		pipe.ExpireNX(ctx, cacheKey, window)
		return nil
	})
	if err != nil {
		return false, errors.Annotate(err, "count rate limit")
	}
	return incr.Val() > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKey(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
