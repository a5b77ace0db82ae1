package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campusbook/internal/config"
	"campusbook/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss — значения нет в кэше; вызывающий идёт в хранилище.
var ErrCacheMiss = errors.New("reference cache miss")

const (
	campusKeyPrefix = "ref:campus:"
	holidaysKey     = "ref:holidays"
)

// RedisReferenceCache держит справочники в Redis с TTL.
type RedisReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisReferenceCache(client *redis.Client, ttl time.Duration) *RedisReferenceCache {
	if ttl <= 0 {
		ttl = models.ReferenceCacheTTL * time.Second
	}
	return &RedisReferenceCache{client: client, ttl: ttl}
}

func (r *RedisReferenceCache) GetCampus(ctx context.Context, id int64) (*models.Campus, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, fmt.Sprintf("%s%d", campusKeyPrefix, id)).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campus from redis: %w", err)
	}

	var campus models.Campus
	if err := json.Unmarshal([]byte(val), &campus); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campus: %w", err)
	}
	return &campus, nil
}

func (r *RedisReferenceCache) SetCampus(ctx context.Context, campus *models.Campus) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(campus)
	if err != nil {
		return fmt.Errorf("failed to marshal campus: %w", err)
	}
	key := fmt.Sprintf("%s%d", campusKeyPrefix, campus.ID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set campus in redis: %w", err)
	}
	return nil
}

func (r *RedisReferenceCache) GetHolidays(ctx context.Context) ([]*models.Holiday, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, holidaysKey).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays from redis: %w", err)
	}

	var holidays []*models.Holiday
	if err := json.Unmarshal([]byte(val), &holidays); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holidays: %w", err)
	}
	return holidays, nil
}

func (r *RedisReferenceCache) SetHolidays(ctx context.Context, holidays []*models.Holiday) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(holidays)
	if err != nil {
		return fmt.Errorf("failed to marshal holidays: %w", err)
	}
	if err := r.client.Set(ctx, holidaysKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set holidays in redis: %w", err)
	}
	return nil
}

func (r *RedisReferenceCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	iter := r.client.Scan(ctx, 0, campusKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate campus key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan campus keys: %w", err)
	}
	if err := r.client.Del(ctx, holidaysKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate holidays: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
