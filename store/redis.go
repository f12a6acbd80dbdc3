package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/recipebox/models"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to the hash name
}

// Redis keeps every summary as a JSON field of one hash, so each
// operation is a single atomic command.
type Redis struct {
	client *redis.Client
	hash   string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable("open", fmt.Errorf("ping redis at %s: %w", opts.Addr, err))
	}
	return NewRedis(client, opts.Prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, hash: prefix + "summaries"}
}

func (r *Redis) Put(ctx context.Context, key string, s *models.StoredSummary) error {
	data, err := json.Marshal(stamp(key, s))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := r.client.HSet(ctx, r.hash, key, data).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (*models.StoredSummary, bool, error) {
	data, err := r.client.HGet(ctx, r.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	s, err := decodeSummary(key, data)
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return s, true, nil
}

func (r *Redis) List(ctx context.Context) (map[string]*models.StoredSummary, error) {
	all, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, unavailable("list", err)
	}
	out := make(map[string]*models.StoredSummary, len(all))
	for k, v := range all {
		s, err := decodeSummary(k, []byte(v))
		if err != nil {
			return nil, unavailable("list", err)
		}
		out[k] = s
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.hash, key).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// decodeSummary parses a stored JSON record. Records written without a
// key field take the key they are stored under.
func decodeSummary(key string, data []byte) (*models.StoredSummary, error) {
	var s models.StoredSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode summary %q: %w", key, err)
	}
	if s.Key == "" {
		s.Key = key
	}
	return &s, nil
}
