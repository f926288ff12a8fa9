package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RFQ_DATA_DIR", dir)
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("GO_PORT", "")
	t.Setenv("BACKUP_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rfqdesk", cfg.SessionIssuer)
	assert.Equal(t, "@every 1h", cfg.MaintenanceSchedule)
	assert.Equal(t, filepath.Join(dir, "procurement.db"), cfg.DatabasePath())
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 7, cfg.Backup.Retention)
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("RFQ_DATA_DIR", t.TempDir())
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DEV_MODE", "false")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_DevModeFallsBackToFixedSecret(t *testing.T) {
	t.Setenv("RFQ_DATA_DIR", t.TempDir())
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SessionSecret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{Port: 8001, SessionSecret: "x", Backup: &BackupConfig{}},
		},
		{
			name:    "bad port",
			cfg:     Config{Port: 70000, SessionSecret: "x"},
			wantErr: "invalid port",
		},
		{
			name:    "backup without bucket",
			cfg:     Config{Port: 8001, SessionSecret: "x", Backup: &BackupConfig{Enabled: true, Retention: 3}},
			wantErr: "BACKUP_BUCKET",
		},
		{
			name:    "backup without retention",
			cfg:     Config{Port: 8001, SessionSecret: "x", Backup: &BackupConfig{Enabled: true, Bucket: "b"}},
			wantErr: "BACKUP_RETENTION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
