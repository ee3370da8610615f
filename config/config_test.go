package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	assert.Equal(t, 30, cfg.Analysis.DefaultWindowDays)
	assert.Equal(t, []string{"XAUUSD", "USDJPY", "EURUSD", "GBPUSD"}, cfg.Analysis.StatisticsPairs)
	assert.InDelta(t, 1.0, cfg.Analysis.WeightCurrencyPair+cfg.Analysis.WeightTimeframe+
		cfg.Analysis.WeightPattern+cfg.Analysis.WeightRecency, 1e-9)
	assert.InDelta(t, 0.5, cfg.Analysis.SimilarityThreshold, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.Analysis.LearningInterval)
	assert.False(t, cfg.LLM.Enabled)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "0.65")
	t.Setenv("ANALYSIS_STATISTICS_PAIRS", "xauusd, audusd,,")
	t.Setenv("LEARNING_COMPILE_INTERVAL", "90m")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LLM_ENABLED", "true")

	cfg := LoadFromEnv()

	assert.InDelta(t, 0.65, cfg.Analysis.SimilarityThreshold, 1e-9)
	assert.Equal(t, []string{"XAUUSD", "AUDUSD"}, cfg.Analysis.StatisticsPairs)
	assert.Equal(t, 90*time.Minute, cfg.Analysis.LearningInterval)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.LLM.Enabled)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"int", "TEST_CFG_INT", "abc"},
		{"duration", "TEST_CFG_DUR", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			switch tt.name {
			case "int":
				assert.Equal(t, 7, getEnvInt(tt.key, 7))
			case "duration":
				assert.Equal(t, time.Second, getEnvDuration(tt.key, time.Second))
			}
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{DatabaseHost: "db", DatabaseUser: "u", DatabasePassword: "p", DatabaseName: "n", DatabasePort: "5433"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}
