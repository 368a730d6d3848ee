package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "hnl", cfg.Escrow.Currency)
	assert.Equal(t, 15*time.Second, cfg.Escrow.ProviderTimeout)
	assert.Equal(t, 32, cfg.Escrow.SecretLength)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.Equal(t, "escrow.events", cfg.EventBus.KafkaTopic)
	assert.Equal(t, "memory", cfg.Notify.Driver)
	assert.Equal(t, "escrow.buyer-notifications", cfg.Notify.KafkaTopic)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.escrow-test")
	require.NoError(t, os.WriteFile(file, []byte("ESCROW_CURRENCY=usd\nLOCK_BACKEND=redis\nDATABASE_DRIVER=memory\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = os.Unsetenv("ESCROW_CURRENCY")
		_ = os.Unsetenv("LOCK_BACKEND")
		_ = os.Unsetenv("DATABASE_DRIVER")
	})

	cfg, err := Load(".env.escrow-test")
	require.NoError(t, err)
	assert.Equal(t, "usd", cfg.Escrow.Currency)
	assert.Equal(t, "redis", cfg.Lock.Backend)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	_, err := Load("does-not-exist.env")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load("does-not-exist.env")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "sk****cdef", maskValue("sk_test_abcdef"))
}

func TestFindEnvFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.find"), []byte("A=1\n"), 0o600))
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	found, err := FindEnvFile(".env.find")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env.find"), found)

	abs, err := FindEnvFile(filepath.Join(root, ".env.find"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env.find"), abs)

	_, err = FindEnvFile(".env.missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_RedisLockOutlivesProviderCall(t *testing.T) {
	valid := func() *App {
		return &App{
			DB:               &DB{Driver: "memory"},
			Lock:             &Lock{Backend: "redis", TTL: 30 * time.Second},
			EventBus:         &EventBus{Driver: "memory"},
			Notify:           &Notify{Driver: "memory"},
			PaymentProviders: &PaymentProviders{Driver: "mock"},
			Log:              &Log{Format: "json"},
			Escrow:           &Escrow{ProviderTimeout: 15 * time.Second, SecretLength: 32},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		backend string
		ttl     time.Duration
		timeout time.Duration
		wantErr bool
	}{
		{name: "ttl shorter than provider timeout", backend: "redis", ttl: 10 * time.Second, timeout: 15 * time.Second, wantErr: true},
		{name: "ttl leaves no storage margin", backend: "redis", ttl: 20 * time.Second, timeout: 15 * time.Second, wantErr: true},
		{name: "ttl covers call and storage", backend: "redis", ttl: 21 * time.Second, timeout: 15 * time.Second},
		{name: "memory lock has no ttl", backend: "memory", ttl: time.Second, timeout: 15 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			cfg.Lock.Backend = tt.backend
			cfg.Lock.TTL = tt.ttl
			cfg.Escrow.ProviderTimeout = tt.timeout
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_RejectsShortRedisLockTTL(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_TTL", "10s")
	t.Setenv("ESCROW_PROVIDER_TIMEOUT", "15s")
	_, err := Load("does-not-exist.env")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
