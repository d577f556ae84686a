package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEPRISK_BASE_URL", "DEPRISK_FILE_EXT", "DEPRISK_DATA_DIR",
		"HTTP_TIMEOUT_MS", "FETCH_WORKERS", "RETRY_ATTEMPTS", "RETRY_DELAY_MS",
		"RUN_EVAL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

// TestLoadConfig_Defaults verifies the configuration loads without any
// environment set.
func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://wwwn.cdc.gov/Nchs/Nhanes/2021-2022", cfg.BaseURL)
	assert.Equal(t, ".sas7bdat", cfg.FileExt)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 3, cfg.FetchWorkers)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, time.Minute, cfg.HTTPTimeout)
	assert.False(t, cfg.RunEval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

// TestLoadConfig_Overrides verifies environment variables take precedence
// over defaults.
func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEPRISK_BASE_URL", "http://localhost:8080/extracts")
	t.Setenv("DEPRISK_DATA_DIR", "/tmp/deprisk")
	t.Setenv("FETCH_WORKERS", "5")
	t.Setenv("RETRY_DELAY_MS", "250")
	t.Setenv("RUN_EVAL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/extracts", cfg.BaseURL)
	assert.Equal(t, "/tmp/deprisk", cfg.DataDir)
	assert.Equal(t, 5, cfg.FetchWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.True(t, cfg.RunEval)
}

// TestLoadConfig_MalformedValuesFallBack verifies unparseable numeric and
// boolean values fall back to defaults instead of failing the load.
func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("FETCH_WORKERS", "many")
	t.Setenv("RUN_EVAL", "yes please")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.FetchWorkers)
	assert.False(t, cfg.RunEval)
}

// TestConfig_Validate covers the rejection cases.
func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BaseURL:       "http://localhost",
			DataDir:       "data",
			FetchWorkers:  1,
			RetryAttempts: 0,
			HTTPTimeout:   time.Second,
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.FetchWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RetryAttempts = -1
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.HTTPTimeout = 0
	assert.Error(t, cfg.Validate())
}

// TestConfig_StorageAreas verifies the derived paths hang off the data
// directory.
func TestConfig_StorageAreas(t *testing.T) {
	cfg := &Config{DataDir: "data"}

	assert.Equal(t, "data/raw", cfg.RawDir())
	assert.Equal(t, "data/clean", cfg.CleanDir())
	assert.Equal(t, "data/external", cfg.ExternalDir())
	assert.Equal(t, "data/seqn_demo", cfg.SeqnDemoDir())
	assert.Equal(t, "data/audit.db", cfg.AuditPath())
}
