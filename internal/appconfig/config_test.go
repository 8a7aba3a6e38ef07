package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xkanth/evmload/internal/executor"
)

func TestLoad_DefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Equal(t, "evmload-addresses.db", cfg.AddressBookPath)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
}

func TestLoad_TOMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evmload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc_url = "http://localhost:8545"
chain_id = 1337
metrics_addr = ":9999"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", cfg.RPCURL)
	require.EqualValues(t, 1337, cfg.ChainID)
	require.Equal(t, ":9999", cfg.MetricsAddr)
	require.Equal(t, "evmload-addresses.db", cfg.AddressBookPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evmload.toml")
	require.NoError(t, os.WriteFile(path, []byte(`rpc_url = "http://localhost:8545"`), 0o600))

	t.Setenv("EVMLOAD_RPC_URL", "http://example.com:8545")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://example.com:8545", cfg.RPCURL)
}

func TestLoad_EnvOverridesControllerTunable(t *testing.T) {
	t.Setenv("EVMLOAD_CONTROLLER_UPDATE_INTERVAL_MS", "750")

	cfg, err := Load("")
	require.NoError(t, err)
	require.EqualValues(t, 750, cfg.ControllerUpdateIntervalMs)
}

func TestTunables_ZeroFieldsKeepDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, executor.DefaultTunables(), cfg.Tunables())
}

func TestTunables_NonZeroFieldsOverrideDefaults(t *testing.T) {
	cfg := Config{
		ControllerInitialLimit:     8,
		ControllerUpdateIntervalMs: 750,
	}

	tunables := cfg.Tunables()
	require.Equal(t, uint32(8), tunables.InitialLimit)
	require.Equal(t, 750*time.Millisecond, tunables.UpdateInterval)
	require.Equal(t, executor.DefaultTunables().WindowMax, tunables.WindowMax)
}
