package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tya-notifications/internal/common/logger"
	"tya-notifications/pkg/registry"

	"github.com/redis/go-redis/v9"
)

// MapStore serves keys from an in-memory map, typically the flattened
// template registry file.
type MapStore map[string]string

func (m MapStore) Lookup(_ context.Context, key string) (string, bool, error) {
	id, ok := m[key]
	return id, ok, nil
}

// NewRegistryStore loads the registry file at path into a MapStore.
func NewRegistryStore(path string) (MapStore, *registry.TemplateRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load template registry: %w", err)
	}
	return MapStore(reg.Keys()), reg, nil
}

const (
	cacheKeyPrefix = "tmpl:"
	// Cached marker for a key that is known to be unset.
	absentMarker = "\x00"
)

// PostgresStore reads template ids from the notification_templates table
// and caches hits and misses in Redis.
type PostgresStore struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		redis:  redisClient,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "template-store"}),
	}
}

func (s *PostgresStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	cacheKey := cacheKeyPrefix + key
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			if val == absentMarker {
				return "", false, nil
			}
			return val, true, nil
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("template cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	var id string
	query := `SELECT template_id FROM notification_templates WHERE template_key = $1`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&id)
	found := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return "", false, fmt.Errorf("query template %s: %w", key, err)
	}

	if s.redis != nil {
		cached := id
		if !found {
			cached = absentMarker
		}
		if err := s.redis.Set(ctx, cacheKey, cached, s.ttl).Err(); err != nil {
			s.logger.Warn("template cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}

	return id, found, nil
}
