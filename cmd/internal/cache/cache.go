package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache — тонкая обертка над Redis. Кэш опционален:
// nil-клиент (пустой redis_url) превращает все операции в no-op,
// и вызывающий код идет напрямую в БД.
type Cache struct {
	client *redis.Client
}

// New создает кэш по redis_url. Пустой URL или ошибка парсинга
// дают кэш без клиента — это не ошибка конфигурации.
func New(redisURL string) *Cache {
	if redisURL == "" {
		return &Cache{}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return &Cache{}
	}
	return &Cache{client: redis.NewClient(opts)}
}

// Enabled сообщает, подключен ли реальный Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get возвращает значение и признак попадания. Ошибки Redis глотаются:
// промах кэша всегда безопасен.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetEx записывает значение с TTL. Ошибка записи игнорируется.
func (c *Cache) SetEx(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	_ = c.client.SetEx(ctx, key, value, ttl).Err()
}

// Delete удаляет ключи (инвалидация).
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}
