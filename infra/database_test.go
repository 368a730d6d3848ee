package infra

import (
	"testing"

	"github.com/amirasaad/escrow/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/plugin/prometheus"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"", "postgres", "mysql"} {
		d, err := dialector(&config.DB{Driver: driver, Url: "dsn"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}
	name := map[string]string{"postgres": "postgres", "mysql": "mysql"}
	for driver, want := range name {
		d, err := dialector(&config.DB{Driver: driver, Url: "dsn"})
		require.NoError(t, err)
		assert.Equal(t, want, d.Name())
	}

	_, err := dialector(&config.DB{Driver: "sqlite"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNewDBConnection_RequiresURL(t *testing.T) {
	_, err := NewDBConnection(&config.DB{Driver: "postgres"}, "test", "escrow")
	assert.EqualError(t, err, "DATABASE_URL is not set")
}

func TestMetricsConfig(t *testing.T) {
	pc := metricsConfig(&config.DB{Driver: "postgres"}, "escrow")
	assert.Equal(t, "escrow", pc.DBName)
	assert.False(t, pc.StartServer)
	assert.Empty(t, pc.MetricsCollector)

	pc = metricsConfig(&config.DB{Driver: "mysql"}, "escrow")
	require.Len(t, pc.MetricsCollector, 1)
	_, ok := pc.MetricsCollector[0].(*prometheus.MySQL)
	assert.True(t, ok)
}
