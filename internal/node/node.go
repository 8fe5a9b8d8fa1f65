// Package node provides a reusable stake ledger node that can be embedded
// in any binary (daemon, tests, tools).
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/rpc"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
)

// Node is a fully-initialized stake ledger node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	// Core
	db     storage.DB
	bank   *custody.NativeBank
	tokens *custody.Registry
	vault  *custody.Vault
	ledger *ledger.Ledger

	// RPC
	rpcServer *rpc.Server
}

// New creates and initializes a new Node. It opens storage, wires custody
// and the ledger, and applies the genesis when the database is new. Call
// Start to serve RPC.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "stakeledgerd.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	// ── 2. Open storage ─────────────────────────────────────────────
	var db storage.DB
	var err error
	if cfg.Storage.InMemory {
		db, err = storage.NewBadgerInMemory()
	} else {
		db, err = storage.NewBadger(cfg.LedgerDir())
	}
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.LedgerDir(), err)
	}
	logger.Info().
		Str("path", cfg.LedgerDir()).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("Database opened")

	// ── 3. Genesis ──────────────────────────────────────────────────
	genesis, fresh, err := resolveGenesis(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger = klog.WithLedgerID(genesis.LedgerID).With().Str("component", "node").Logger()
	logger.Info().
		Str("network", string(cfg.Network)).
		Msg("Starting Klingnet Stake Ledger node")

	// ── 4. Custody + ledger ─────────────────────────────────────────
	bank := custody.NewNativeBank(db, genesis.CustodyAddress())
	tokens := custody.NewRegistry(db)
	vault := custody.NewVault(bank, tokens)

	l, err := ledger.New(ledger.Config{DB: db, Port: vault})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	ctx := context.Background()
	if fresh {
		if err := ApplyGenesis(ctx, db, l, vault, genesis); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply genesis: %w", err)
		}
		logger.Info().
			Int("allocations", len(genesis.Alloc)).
			Int("tokens", len(genesis.Tokens)).
			Msg("Ledger initialized from genesis")
	} else {
		meta, err := l.Info(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		logger.Info().
			Uint64("height", meta.Height).
			Uint64("next_nonce", meta.NextNonce).
			Bool("paused", meta.Paused).
			Msg("Ledger resumed from database")
	}

	n := &Node{
		cfg:     cfg,
		genesis: genesis,
		logger:  logger,
		db:      db,
		bank:    bank,
		tokens:  tokens,
		vault:   vault,
		ledger:  l,
	}

	// ── 5. RPC ──────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		n.rpcServer = rpc.New(addr, l, vault, genesis, cfg.RPC)
	}

	return n, nil
}

// resolveGenesis picks the genesis for db. A database that already holds a
// ledger keeps the genesis it was created from; a genesis file given in
// the config must then match it. fresh reports whether db is empty.
func resolveGenesis(cfg *config.Config, db storage.DB) (gen *config.Genesis, fresh bool, err error) {
	var configured *config.Genesis
	if cfg.GenesisFile != "" {
		configured, err = config.LoadGenesis(expandHome(cfg.GenesisFile))
		if err != nil {
			return nil, false, err
		}
	}

	stored, err := storedGenesis(db)
	if err != nil {
		return nil, false, err
	}
	if stored != nil {
		if configured != nil {
			same, err := sameGenesis(stored, configured)
			if err != nil {
				return nil, false, err
			}
			if !same {
				return nil, false, fmt.Errorf("genesis file %s does not match the ledger in %s", cfg.GenesisFile, cfg.LedgerDir())
			}
		}
		return stored, false, nil
	}

	if configured == nil {
		configured = config.GenesisFor(cfg.Network)
		if err := configured.Validate(); err != nil {
			return nil, false, fmt.Errorf("%s has no built-in genesis keys, a genesis file is required: %w", cfg.Network, err)
		}
	}
	return configured, true, nil
}

// Start launches the RPC server.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return err
		}
	}

	meta, err := n.ledger.Info(context.Background())
	if err != nil {
		return err
	}
	n.logger.Info().
		Uint64("height", meta.Height).
		Str("custody", meta.Custody.String()).
		Bool("rpc", n.rpcServer != nil).
		Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order. A durable node writes
// a snapshot of the ledger before closing the database.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if !n.cfg.Storage.InMemory {
		if path, err := n.ExportSnapshot(n.cfg.SnapshotsDir()); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to write shutdown snapshot")
		} else {
			n.logger.Info().Str("path", path).Msg("Ledger snapshot written")
		}
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// ExportSnapshot writes the committed ledger state to dir as
// ledger-<height>.json and returns the file path.
func (n *Node) ExportSnapshot(dir string) (string, error) {
	snap, err := n.ledger.Snapshot(context.Background())
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("ledger-%d.json", snap.Meta.Height))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Vault returns the node's custody vault.
func (n *Node) Vault() *custody.Vault {
	return n.vault
}

// Genesis returns the genesis the ledger was created from.
func (n *Node) Genesis() *config.Genesis {
	return n.genesis
}
