// Package config defines the gateway's command-line surface and binds it
// to viper so flags, environment variables, and defaults resolve through
// one precedence chain.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	FlagPort           = "port"
	FlagMidenStoreDir  = "miden-store-dir"
	FlagMidenNode      = "miden-node"
	FlagChainID        = "chain-id"
	FlagInit           = "init"
	FlagMetricsAddr    = "metrics-addr"
	envLogLevel        = "LOG_LEVEL"
	defaultLogLevel    = "info"
	defaultPort        = uint16(8125)
	defaultMidenNode   = "http://localhost:57291"
	defaultChainID     = uint64(2)
)

// Config is the resolved set of values the gateway runs with, after
// flags, environment variables, and defaults have been merged by viper.
type Config struct {
	Port          uint16
	MidenStoreDir string
	MidenNode     string
	ChainID       uint64
	Init          bool
	MetricsAddr   string
	LogLevel      string
}

// defaultStoreDir returns $HOME/.miden, falling back to ./.miden if the
// home directory can't be resolved.
func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".miden"
	}
	return filepath.Join(home, ".miden")
}

// BindFlags registers every gateway flag on cmd and binds it into v,
// matching the flag/viper pairing the rest of this codebase's CLI uses.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.Flags()
	flags.Uint16(FlagPort, defaultPort, "port the JSON-RPC server listens on")
	flags.String(FlagMidenStoreDir, defaultStoreDir(), "directory holding account config, keystore, and sync state")
	flags.String(FlagMidenNode, defaultMidenNode, "Miden node gRPC endpoint (or devnet/testnet)")
	flags.Uint64(FlagChainID, defaultChainID, "chain ID this gateway presents to the coordinator")
	flags.Bool(FlagInit, false, "bootstrap accounts and exit instead of serving")
	flags.String(FlagMetricsAddr, "", "Prometheus metrics listen address (disabled if empty)")

	for _, name := range []string{FlagPort, FlagMidenStoreDir, FlagMidenNode, FlagChainID, FlagInit, FlagMetricsAddr} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves a Config from v, which must already have had BindFlags
// applied to the command that parsed the process's arguments.
func Load(v *viper.Viper) Config {
	logLevel := os.Getenv(envLogLevel)
	if logLevel == "" {
		logLevel = defaultLogLevel
	}

	return Config{
		Port:          uint16(v.GetUint(FlagPort)),
		MidenStoreDir: v.GetString(FlagMidenStoreDir),
		MidenNode:     v.GetString(FlagMidenNode),
		ChainID:       v.GetUint64(FlagChainID),
		Init:          v.GetBool(FlagInit),
		MetricsAddr:   v.GetString(FlagMetricsAddr),
		LogLevel:      logLevel,
	}
}

// ListenAddr returns the host:port this gateway's JSON-RPC server binds.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
