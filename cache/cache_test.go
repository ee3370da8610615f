package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/kazumae/fx-forecast-backend/llm"
)

func TestGenerateContextHash(t *testing.T) {
	a := GenerateContextHash(map[string]string{"q": "エントリーは?"})
	b := GenerateContextHash(map[string]string{"q": "エントリーは?"})
	c := GenerateContextHash(map[string]string{"q": "利確は?"})

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNilRedisDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	var r *RedisClient

	assert.ErrorIs(t, r.Set(ctx, "k", 1, time.Minute), ErrNotInitialized)
	assert.ErrorIs(t, r.Ping(ctx), ErrNotInitialized)
	assert.ErrorIs(t, r.PublishComment(ctx, CommentEvent{Action: "created"}), ErrNotInitialized)
	assert.NoError(t, r.Close())

	// returns at once without a connection
	r.SubscribeComments(ctx, zap.NewNop(), func(CommentEvent) { t.Fatal("unexpected event") })

	ac := NewAnswerCache(nil)
	_, ok := ac.GetAnswer(ctx, "h")
	assert.False(t, ok)
	assert.Error(t, ac.SetAnswer(ctx, "h", &llm.Answer{Answer: "x"}, time.Minute))
	assert.True(t, ac.TryCooldown(ctx, "h", time.Minute))
}
