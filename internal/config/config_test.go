package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_UIDS", "root,ops")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "59 59 23 * * *", cfg.ReaperSchedule)
	assert.Equal(t, 48*time.Hour, cfg.UnpaidTTL)
	assert.True(t, cfg.IsAdmin("ops"))
	assert.False(t, cfg.IsAdmin("someone"))
}

func TestLoadMySQLRequiresDB(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("INSTANCE_CONNECTION_NAME", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}
