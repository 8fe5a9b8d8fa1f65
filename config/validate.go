package config

import (
	"fmt"
	"net"
	"strings"
)

var validLogLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true,
	"warn": true, "warning": true, "error": true, "fatal": true, "off": true,
}

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for i, entry := range cfg.RPC.AllowedIPs {
		entry = strings.TrimSpace(entry)
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, entry)
		}
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
