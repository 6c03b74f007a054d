// Package redisstore guarda las preferencias en un hash de Redis.
// Útil cuando varias réplicas del servicio comparten configuración.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey es el hash donde viven las preferencias.
const DefaultKey = "coralbridge:prefs"

// hashCommands es el subconjunto de redis.Cmdable que usamos.
type hashCommands interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type Store struct {
	rdb hashCommands
	key string
}

// Dial conecta a addr y verifica con PING.
func Dial(ctx context.Context, addr, password string, db int, key string) (*Store, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redisstore: ping %s: %w", addr, err)
	}
	return New(client, key), client, nil
}

// New usa un cliente existente. key vacío = DefaultKey.
func New(rdb hashCommands, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{rdb: rdb, key: key}
}

func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: hgetall %s: %w", s.key, err)
	}
	return m, nil
}

// Save es un único HSET con todos los pares: atómico del lado de Redis.
func (s *Store) Save(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	if err := s.rdb.HSet(ctx, s.key, args...).Err(); err != nil {
		return fmt.Errorf("redisstore: hset %s: %w", s.key, err)
	}
	return nil
}
