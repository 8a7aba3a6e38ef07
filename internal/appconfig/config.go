// Package appconfig loads evmload's ambient configuration (RPC endpoint,
// metrics address, optional NATS URL, address book path) the same way
// internal/util/init.go's InitConfig does: koanf with a TOML file provider
// and an environment-variable overlay, except the TOML file is optional
// here (a CLI flag can supply everything a short-lived batch run needs).
package appconfig

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/0xkanth/evmload/internal/executor"
)

// Config is the ambient configuration every evmload subcommand shares. The
// Controller* fields override the executor's concurrency tunables
// (executor.DefaultTunables); left at zero, Tunables() leaves the
// corresponding default untouched.
type Config struct {
	RPCURL          string `koanf:"rpc_url"`
	ChainID         int64  `koanf:"chain_id"`
	MetricsAddr     string `koanf:"metrics_addr"`
	NATSURL         string `koanf:"nats_url"`
	AddressBookPath string `koanf:"address_book_path"`
	LogLevel        string `koanf:"log_level"`

	ControllerInitialLimit     uint32 `koanf:"controller_initial_limit"`
	ControllerWindowMax        int    `koanf:"controller_window_max"`
	ControllerUpdateIntervalMs int64  `koanf:"controller_update_interval_ms"`
	ControllerDeltaRangeMs     uint64 `koanf:"controller_delta_range_ms"`
	ControllerMinLimit         uint32 `koanf:"controller_min_limit"`
}

func defaults() Config {
	return Config{
		MetricsAddr:     ":9090",
		AddressBookPath: "evmload-addresses.db",
		LogLevel:        "info",
	}
}

// Load reads configPath (if it exists) as TOML, then overlays environment
// variables of the form EVMLOAD_RPC_URL -> rpc_url, EVMLOAD_NATS_URL ->
// nats_url, etc. A missing configPath is not an error: every field keeps
// its default (or whatever the environment supplies).
func Load(configPath string) (Config, error) {
	ko := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := ko.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return Config{}, err
			}
		}
	}

	if err := ko.Load(env.Provider("EVMLOAD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "EVMLOAD_"))
	}), nil); err != nil {
		return Config{}, err
	}

	out := defaults()
	if err := ko.Unmarshal("", &out); err != nil {
		return Config{}, err
	}

	return out, nil
}

// Tunables returns executor.DefaultTunables() with any non-zero Controller*
// field substituted in, for callers that want to experiment with the
// controller's concurrency behaviour without a code change.
func (c Config) Tunables() executor.Tunables {
	t := executor.DefaultTunables()

	if c.ControllerInitialLimit != 0 {
		t.InitialLimit = c.ControllerInitialLimit
	}
	if c.ControllerWindowMax != 0 {
		t.WindowMax = c.ControllerWindowMax
	}
	if c.ControllerUpdateIntervalMs != 0 {
		t.UpdateInterval = time.Duration(c.ControllerUpdateIntervalMs) * time.Millisecond
	}
	if c.ControllerDeltaRangeMs != 0 {
		t.DeltaRangeMs = c.ControllerDeltaRangeMs
	}
	if c.ControllerMinLimit != 0 {
		t.MinLimit = c.ControllerMinLimit
	}

	return t
}
