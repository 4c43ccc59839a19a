package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.PaymentMarkers, "pagamento recebido")
	assert.True(t, cfg.ExactTolerance.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, 45, cfg.MatchWindowDays)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
payment_markers:
  - "payment received"
close_tolerance: "5.00"
match_window_days: 30
regex_timeout_ms: 100
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"payment received"}, cfg.PaymentMarkers)
	assert.True(t, cfg.CloseTolerance.Equal(decimal.RequireFromString("5.00")))
	assert.Equal(t, 30, cfg.MatchWindowDays)
	assert.Equal(t, 100*time.Millisecond, cfg.RegexTimeout)
	// Untouched fields keep defaults.
	assert.True(t, cfg.ExactTolerance.Equal(decimal.RequireFromString("0.01")))
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "payment_markers: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("bad tolerance", func(t *testing.T) {
		_, err := Load(writeConfig(t, `exact_tolerance: "abc"`))
		assert.Error(t, err)
	})

	t.Run("close below exact", func(t *testing.T) {
		_, err := Load(writeConfig(t, "exact_tolerance: \"1.00\"\nclose_tolerance: \"0.50\""))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MatchWindowDays = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.PaymentMarkers = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RegexTimeout = 0
	assert.Error(t, cfg.Validate())
}
