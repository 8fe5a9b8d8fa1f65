// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Ledger genesis: keys, slash sink and initial balances, applied once
//     when the ledger database is first created
//   - Node settings: Runtime configuration, can vary per run
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime settings)
// =============================================================================

// Config holds node runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Genesis file applied when the ledger is created. Empty means the
	// built-in genesis of the network.
	GenesisFile string `conf:"genesis"`

	// Storage
	Storage StorageConfig

	// RPC server
	RPC RPCConfig

	// Keystore
	Keys KeysConfig

	// Logging
	Log LogConfig
}

// StorageConfig holds database settings.
type StorageConfig struct {
	// InMemory keeps all state in memory. Nothing survives a restart.
	InMemory bool `conf:"db.memory"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// KeysConfig holds operator keystore settings.
type KeysConfig struct {
	Dir string `conf:"keys.dir"` // Empty means <datadir>/<network>/keystore.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.stakeledger
//	macOS:   ~/Library/Application Support/StakeLedger
//	Windows: %APPDATA%\StakeLedger
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stakeledger"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "StakeLedger")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "StakeLedger")
		}
		return filepath.Join(home, "AppData", "Roaming", "StakeLedger")
	default:
		return filepath.Join(home, ".stakeledger")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the ledger database directory.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.NetworkDataDir(), "ledger")
}

// SnapshotsDir returns the directory ledger snapshots are exported to.
func (c *Config) SnapshotsDir() string {
	return filepath.Join(c.NetworkDataDir(), "snapshots")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	if c.Keys.Dir != "" {
		return c.Keys.Dir
	}
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "stakeledger.conf")
}
