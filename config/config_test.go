package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "fixtures", cfg.Import.FixturesDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("PRICES_FAMILY_MONTHLY", "price_fam_m")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_NAME", "billing")
	t.Setenv("SERVER_BASE_URL", "https://app.eduline.io")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", cfg.Stripe.APIKey)
	assert.Equal(t, "price_fam_m", cfg.Prices.FamilyMonthly)
	assert.Equal(t, "https://app.eduline.io", cfg.Server.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Database.Configured())
	assert.Contains(t, cfg.Database.GetDSN(), "host=db.internal")
	assert.Contains(t, cfg.Database.GetDSN(), "dbname=billing")
}

func TestDatabaseNotConfiguredByDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Database.Configured())
}

func TestKafkaBrokerList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{"a:9092, b:9092", []string{"a:9092", "b:9092"}},
		{" a:9092 ,, ", []string{"a:9092"}},
	}

	for _, tc := range cases {
		c := KafkaConfig{Brokers: tc.raw}
		assert.Equal(t, tc.want, c.BrokerList(), "raw %q", tc.raw)
	}
}
