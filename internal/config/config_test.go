package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.Set("GEMINI_API_KEY", "test-key")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiMatchModel)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GeminiCoachModel)
	assert.Equal(t, 0.7, cfg.MatchNotifyThreshold)
	assert.Equal(t, 4*time.Hour, cfg.CoachCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 30*time.Second, cfg.ServerTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestFromViper_ListsAreSplit(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]interface{}{
		"KAFKA_BROKERS":        "kafka-1:9092, kafka-2:9092,",
		"CORS_ALLOWED_ORIGINS": "http://localhost:5173,https://shareaplate.ng",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:5173", "https://shareaplate.ng"}, cfg.CORSAllowedOrigins)
}

func TestFromViper_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"missing api key", map[string]interface{}{"GEMINI_API_KEY": ""}},
		{"threshold above one", map[string]interface{}{"MATCH_NOTIFY_THRESHOLD": 1.5}},
		{"negative threshold", map[string]interface{}{"MATCH_NOTIFY_THRESHOLD": -0.1}},
		{"zero llm timeout", map[string]interface{}{"LLM_TIMEOUT_SECONDS": 0}},
		{"unknown driver", map[string]interface{}{"DB_DRIVER": "mysql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newTestViper(tt.overrides))
			assert.Error(t, err)
		})
	}
}
