package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

const maxTxRetries = 10

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisOptions configures the Redis connection
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// RedisStore keeps the collection as the JSON value of one Redis key
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisStore connects and pings the server
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errs.Storage("store.Open", fmt.Errorf("failed to parse Redis URL: %w", err))
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errs.Storage("store.Open", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, key: Key, now: time.Now, logger: logger}, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) List(ctx context.Context) ([]models.StoredReport, error) {
	reports, err := s.get(ctx, s.client)
	if err != nil {
		return nil, errs.Storage("store.List", err)
	}
	return reports, nil
}

func (s *RedisStore) Append(ctx context.Context, r models.StoredReport) (models.StoredReport, error) {
	r = prepare(r, s.now)
	err := s.update(ctx, func(reports []models.StoredReport) ([]models.StoredReport, bool) {
		return append(reports, r), true
	})
	if err != nil {
		return models.StoredReport{}, errs.Storage("store.Append", err)
	}
	s.logger.Debug("report stored", "id", r.ID, "key", s.key)
	return r, nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	err := s.update(ctx, func(reports []models.StoredReport) ([]models.StoredReport, bool) {
		return without(reports, id)
	})
	if err != nil {
		return errs.Storage("store.Remove", err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, c getter) ([]models.StoredReport, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.StoredReport{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}
	return decode(data)
}

// update runs a read-modify-write under WATCH, retrying when another writer
// changed the key first. mutate reports whether anything changed.
func (s *RedisStore) update(ctx context.Context, mutate func([]models.StoredReport) ([]models.StoredReport, bool)) error {
	txf := func(tx *redis.Tx) error {
		reports, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		next, changed := mutate(reports)
		if !changed {
			return nil
		}
		data, err := encode(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("retrying conflicted transaction", "key", s.key, "attempt", i+1)
			continue
		}
		return err
	}
	return fmt.Errorf("failed to update %s: too many conflicting writers", s.key)
}
