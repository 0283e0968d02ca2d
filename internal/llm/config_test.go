package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeminiConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, map[ModelTier]string{
		TierLite:     "gemini-2.5-flash-lite",
		TierStandard: "gemini-2.5-flash",
		TierAdvanced: "gemini-2.5-pro",
	}, cfg.Models)
	assert.InDelta(t, 0.3, float64(cfg.Temperature), 1e-6)

	// the retrier built from the defaults stops after ten calls and never waits past a minute
	r := NewRetrier(cfg.MaxAttempts, cfg.MaxBackoff, nil)
	assert.Equal(t, 10, r.MaxAttempts)
	assert.Equal(t, 60*time.Second, r.Delay(20, 0))
}

func TestConfig_GetModel(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{"configured tier", map[ModelTier]string{TierAdvanced: "pro"}, TierAdvanced, "pro"},
		{"advanced falls back to standard", map[ModelTier]string{TierStandard: "flash", TierLite: "lite"}, TierAdvanced, "flash"},
		{"then to lite", map[ModelTier]string{TierLite: "lite"}, TierAdvanced, "lite"},
		{"nothing configured", map[ModelTier]string{}, TierStandard, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, cfg.GetModel(tt.tier))
		})
	}
}

func TestConfig_WithModelCopies(t *testing.T) {
	base := DefaultConfig()
	override := base.WithModel(TierLite, "gemini-2.0-flash-lite")
	override.Models[TierStandard] = "changed"

	assert.Equal(t, "gemini-2.0-flash-lite", override.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash-lite", base.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", base.GetModel(TierStandard))
	assert.Equal(t, base.MaxAttempts, override.MaxAttempts)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	client, err := NewClient(context.Background(), nil, "", nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, client)
}
