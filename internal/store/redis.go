package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/LeCodex/Br4nd-0n-V3-sub000/internal/codec"
)

// RedisStore persists documents in redis, one hash per collection with the
// document name as field. It implements the same contract as FileStore for
// deployments where the bot's working directory is not durable.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects to the redis instance described by url
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) key(collection string) string {
	if s.prefix == "" {
		return collection
	}
	return s.prefix + ":" + collection
}

func (s *RedisStore) Get(collection, name string, fallback codec.Document) (codec.Document, error) {
	data, err := s.rdb.HGet(context.Background(), s.key(collection), name).Result()
	if err == redis.Nil {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, name, err)
	}

	var doc codec.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, name, err)
	}
	return doc, nil
}

func (s *RedisStore) Save(collection, name string, doc codec.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, name, err)
	}
	if err := s.rdb.HSet(context.Background(), s.key(collection), name, data).Err(); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", collection, name, err)
	}
	return nil
}

func (s *RedisStore) Delete(collection, name string) error {
	if err := s.rdb.HDel(context.Background(), s.key(collection), name).Err(); err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, name, err)
	}
	return nil
}

func (s *RedisStore) List(collection string) ([]string, error) {
	names, err := s.rdb.HKeys(context.Background(), s.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	return names, nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
