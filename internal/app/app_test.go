package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/config"
	"github.com/dropDatabas3/coralbridge/internal/events"
	"github.com/dropDatabas3/coralbridge/internal/rate"
	"github.com/dropDatabas3/coralbridge/internal/security/secretbox"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.Default()
	cfg.SettingsStore.Path = filepath.Join(t.TempDir(), "prefs.yaml")

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &rate.MemoryLimiter{}, c.ProvisionLimiter)
	assert.IsType(t, events.LogPublisher{}, c.Publisher)
	assert.False(t, c.AdminKey.Enabled())
	assert.Nil(t, c.Metrics)
	assert.False(t, c.EmbedTrust.Enabled())

	s, err := c.Settings.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultBgColor, s.Display.BgColor)

	_, err = c.Digest()
	assert.ErrorIs(t, err, ErrNoSMTP)
}

func TestNew_SealsTokenWithSecretbox(t *testing.T) {
	key, err := secretbox.GenerateKey()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.SettingsStore.Driver = "sqlite"
	cfg.SettingsStore.DSN = ":memory:"
	cfg.Security.SecretboxKey = key
	cfg.Rate.Disabled = true
	cfg.Events.Driver = "none"
	cfg.Metrics.Enabled = true

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.ProvisionLimiter)
	assert.IsType(t, events.Noop{}, c.Publisher)
	assert.NotNil(t, c.Metrics)
	require.Contains(t, c.Checks, "settings_store")
	require.NoError(t, c.Checks["settings_store"](context.Background()))

	ctx := context.Background()
	require.NoError(t, c.Settings.StoreToken(ctx, "plain-token"))
	s, err := c.Settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plain-token", s.APIToken)
	assert.Equal(t, settings.StatusConnected, s.TokenStatus)
}

func TestNew_EmbedTrust(t *testing.T) {
	cfg := config.Default()
	cfg.SettingsStore.Driver = "memory"
	cfg.Embed.ProxySecret = "shh"
	cfg.Embed.TrustedProxies = []string{"127.0.0.1/32"}

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()
	assert.True(t, c.EmbedTrust.Enabled())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SettingsStore.Driver = "etcd"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestDigest_UsesSMTPConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SettingsStore.Driver = "memory"
	cfg.SMTP.Host = "smtp.example.com"
	cfg.Digest.Recipients = []string{"mod@example.com"}

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	d, err := c.Digest()
	require.NoError(t, err)
	assert.NotNil(t, d)
}
