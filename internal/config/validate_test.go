package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseValidConfig() *Config {
	cfg := Default()
	cfg.Store = StoreConfig{
		Type:   "local",
		Prefix: "asset:",
		Local:  LocalConfig{Path: "/tmp/assets"},
	}
	cfg.Schedules = []ScheduleConfig{
		{Name: "nightly", Mode: "junk", Cron: "0 3 * * *", DryRun: true},
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "asset:", cfg.Store.Prefix)
	assert.Equal(t, 50, cfg.Cleanup.BatchSize)
	assert.Equal(t, 1000, cfg.Cleanup.Junk.MaxDeletions)
	assert.Equal(t, 500, cfg.Cleanup.LowQuality.MaxDeletions)
	assert.Equal(t, 30, cfg.Cleanup.LowQuality.QualityThreshold)
	assert.True(t, cfg.Cleanup.LowQuality.ExcludeJunk)
	assert.Equal(t, 300, cfg.Cleanup.Duplicates.MaxDeletions)
	assert.Equal(t, "highest_quality", cfg.Cleanup.Duplicates.KeepStrategy)
	assert.Equal(t, 50, cfg.Cleanup.Preview.MaxPreview)
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, baseValidConfig().Validate())
}

func TestValidateRejectsInvalidSchedule(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Schedules[0].Cron = "61 * * * *"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedules[0].cron")
}

func TestValidateRejectsUnknownScheduleMode(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Schedules[0].Mode = "everything"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mode")
}

func TestValidateRejectsUnknownStoreType(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Store.Type = "ftp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Store.Type")
}

func TestValidateStoreSpecificFields(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Store.Local.Path = ""
	require.ErrorContains(t, cfg.Validate(), "store.local.path")

	cfg = baseValidConfig()
	cfg.Store.Type = "s3"
	require.ErrorContains(t, cfg.Validate(), "store.s3.bucket")

	cfg.Store.S3 = S3Config{Bucket: "b", Region: "eu-west-1", AccessKey: "only-one"}
	require.ErrorContains(t, cfg.Validate(), "set together")

	cfg = baseValidConfig()
	cfg.Store.Type = "badger"
	cfg.Store.Badger = BadgerConfig{InMemory: true}
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsZeroBatchSize(t *testing.T) {
	cfg := baseValidConfig()
	cfg.Cleanup.BatchSize = 0
	require.ErrorContains(t, cfg.Validate(), "BatchSize")
}

func TestLoadConfigExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("ASSETSWEEP_TEST_DIR", "/srv/assets")

	path := filepath.Join(t.TempDir(), "assetsweep.yaml")
	body := `
version: 1
store:
  type: local
  local:
    path: ${ASSETSWEEP_TEST_DIR}
cleanup:
  duplicates:
    keep_strategy: most_recent
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/srv/assets", cfg.Store.Local.Path)
	assert.Equal(t, "most_recent", cfg.Cleanup.Duplicates.KeepStrategy)
	assert.Equal(t, 300, cfg.Cleanup.Duplicates.MaxDeletions)
	assert.Equal(t, 50, cfg.Cleanup.BatchSize)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "failed to read config")
}
