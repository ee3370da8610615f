package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kazumae/fx-forecast-backend/llm"
)

// AnswerCache stores AI answers keyed by a hash of the question context
type AnswerCache struct {
	redis *RedisClient
}

// NewAnswerCache creates a new answer cache instance
func NewAnswerCache(redis *RedisClient) *AnswerCache {
	return &AnswerCache{
		redis: redis,
	}
}

// GetAnswer returns the cached answer for a context hash
func (c *AnswerCache) GetAnswer(ctx context.Context, contextHash string) (*llm.Answer, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	var answer llm.Answer
	if err := c.redis.Get(ctx, answerKey(contextHash), &answer); err != nil {
		return nil, false
	}
	return &answer, true
}

// SetAnswer caches an answer for a context hash
func (c *AnswerCache) SetAnswer(ctx context.Context, contextHash string, answer *llm.Answer, ttl time.Duration) error {
	if c == nil || c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, answerKey(contextHash), answer, ttl)
}

// TryCooldown claims a cooldown slot for a question hash.
// It returns false while a previous claim is still active. Without Redis it always succeeds.
func (c *AnswerCache) TryCooldown(ctx context.Context, contextHash string, ttl time.Duration) bool {
	if c == nil || c.redis == nil {
		return true
	}
	ok, err := c.redis.SetNX(ctx, "llm:cooldown:"+contextHash, time.Now().Unix(), ttl)
	if err != nil {
		return true
	}
	return ok
}

// GenerateContextHash hashes anything JSON encodable into a short cache key
func GenerateContextHash(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf("%x", hash[:8]) // first 8 bytes
}

func answerKey(hash string) string {
	return "llm:answer:" + hash
}
