package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/keys"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/rpc"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// ── info ────────────────────────────────────────────────────────────────

func (c *cli) cmdInfo() {
	info, err := c.client.Info()
	if err != nil {
		fatal("ledger_getInfo: %v", err)
	}

	fmt.Printf("Ledger:          %s\n", info.LedgerID)
	fmt.Printf("Schema version:  %d\n", info.Version)
	fmt.Printf("Height:          %d\n", info.Height)
	fmt.Printf("Next nonce:      %d\n", info.NextNonce)
	fmt.Printf("Paused:          %v\n", info.Paused)
	fmt.Printf("Custody:         %s\n", info.Custody)
	if info.SlashSink.IsZero() {
		fmt.Printf("Slash sink:      (burn)\n")
	} else {
		fmt.Printf("Slash sink:      %s\n", info.SlashSink)
	}
	fmt.Printf("Registry key:    %s\n", info.RegistryKey)
	fmt.Printf("Governance key:  %s\n", info.GovernanceKey)
	fmt.Printf("Governance seq:  %d\n", info.GovernanceSeq)
	fmt.Printf("Events:          %d\n", info.EventSeq)
}

// ── stakes ──────────────────────────────────────────────────────────────

func (c *cli) cmdStake(args []string) {
	if len(args) < 1 {
		fatal("Usage: stakeledger-cli stake <nonce>")
	}
	nonce, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fatal("invalid nonce: %v", err)
	}
	st, err := c.client.Stake(nonce)
	if err != nil {
		fatal("ledger_getStake: %v", err)
	}
	printStake(st)
}

func (c *cli) cmdStakes(args []string) {
	if len(args) < 1 {
		fatal("Usage: stakeledger-cli stakes <owner>")
	}
	owner := mustAddress("owner", args[0])
	stakes, err := c.client.StakesByOwner(owner)
	if err != nil {
		fatal("ledger_getStakesByOwner: %v", err)
	}
	if len(stakes) == 0 {
		fmt.Println("No stakes found.")
		return
	}
	fmt.Printf("Stakes: %d\n\n", len(stakes))
	for i := range stakes {
		printStake(&stakes[i])
		fmt.Println()
	}
}

func printStake(st *ledger.Stake) {
	fmt.Printf("Nonce:        %d\n", st.Nonce)
	if st.Pruned {
		fmt.Printf("Status:       released (pruned)\n")
		return
	}
	fmt.Printf("Owner:        %s\n", st.Owner)
	fmt.Printf("Asset:        %s\n", st.Asset)
	fmt.Printf("Amount:       %s\n", formatAssetAmount(st.Asset, st.Amount))
	fmt.Printf("Height:       %d\n", st.DepositHeight)
	if st.SynthesizerID != "" {
		fmt.Printf("Synthesizer:  %s\n", st.SynthesizerID)
	}
	if st.Released {
		fmt.Printf("Status:       released\n")
	} else {
		fmt.Printf("Status:       active\n")
	}
}

// ── events ──────────────────────────────────────────────────────────────

func (c *cli) cmdEvents(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	kind := fs.String("kind", "", "Event kind (Staked, Unstaked, Recovered, Paused, Unpaused, RegistryKeyRotated)")
	owner := fs.String("owner", "", "Stake owner")
	nonce := fs.Int64("nonce", -1, "Stake nonce")
	from := fs.Uint64("from", 0, "First event sequence")
	limit := fs.Int("limit", 0, "Maximum events (0 = no limit)")
	fs.Parse(args)

	params := rpc.EventsParam{Kind: *kind, Owner: *owner, FromSeq: *from, Limit: *limit}
	if *nonce >= 0 {
		n := uint64(*nonce)
		params.Nonce = &n
	}
	events, err := c.client.Events(params)
	if err != nil {
		fatal("ledger_getEvents: %v", err)
	}
	if len(events) == 0 {
		fmt.Println("No events found.")
		return
	}
	for _, ev := range events {
		line := fmt.Sprintf("#%d h=%d %-18s", ev.Seq, ev.Height, ev.Kind)
		if ev.Nonce != nil {
			line += fmt.Sprintf(" nonce=%d", *ev.Nonce)
		}
		if ev.Owner != nil {
			line += fmt.Sprintf(" owner=%s", ev.Owner)
		}
		if ev.Asset != nil {
			line += fmt.Sprintf(" amount=%s", formatAssetAmount(*ev.Asset, ev.Amount))
		}
		if ev.Slashed > 0 {
			line += fmt.Sprintf(" slashed=%d", ev.Slashed)
		}
		if len(ev.Key) > 0 {
			line += fmt.Sprintf(" key=%s", ev.Key)
		}
		fmt.Println(line)
	}
}

// ── snapshot ────────────────────────────────────────────────────────────

func (c *cli) cmdSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	out := fs.String("out", "", "Output file (default: stdout)")
	fs.Parse(args)

	snap, err := c.client.Snapshot()
	if err != nil {
		fatal("ledger_getSnapshot: %v", err)
	}
	if err := snap.Validate(); err != nil {
		fatal("snapshot failed validation: %v", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fatal("encode snapshot: %v", err)
	}
	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fatal("write snapshot: %v", err)
	}
	fmt.Printf("Snapshot at height %d written to %s\n", snap.Meta.Height, *out)
}

// ── deposit ─────────────────────────────────────────────────────────────

func (c *cli) cmdDeposit(args []string) {
	if len(args) < 1 {
		fatal("Usage: stakeledger-cli deposit <native|token> [flags]")
	}
	switch args[0] {
	case "native":
		fs := flag.NewFlagSet("deposit native", flag.ExitOnError)
		from := fs.String("from", "", "Depositing address")
		amount := fs.String("amount", "", "Amount in coins (e.g. 12.5)")
		synth := fs.String("synth", "", "Synthesizer ID")
		fs.Parse(args[1:])
		if *from == "" || *amount == "" {
			fatal("Usage: stakeledger-cli deposit native --from <addr> --amount <amt> [--synth <id>]")
		}
		value, err := parseAmount(*amount)
		if err != nil {
			fatal("invalid amount: %v", err)
		}
		nonce, err := c.client.DepositNative(mustAddress("from", *from), *synth, value)
		if err != nil {
			fatal("ledger_depositNative: %v", err)
		}
		fmt.Printf("Staked %s, nonce %d\n", formatAmount(value), nonce)
	case "token":
		fs := flag.NewFlagSet("deposit token", flag.ExitOnError)
		from := fs.String("from", "", "Depositing address")
		tokenID := fs.String("token", "", "Token ID")
		amount := fs.Uint64("amount", 0, "Amount in token base units")
		synth := fs.String("synth", "", "Synthesizer ID")
		fs.Parse(args[1:])
		if *from == "" || *tokenID == "" {
			fatal("Usage: stakeledger-cli deposit token --from <addr> --token <id> --amount <units> [--synth <id>]")
		}
		nonce, err := c.client.DepositToken(mustAddress("from", *from), mustTokenID(*tokenID), *amount, *synth)
		if err != nil {
			fatal("ledger_depositToken: %v", err)
		}
		fmt.Printf("Staked %d units of %s, nonce %d\n", *amount, *tokenID, nonce)
	default:
		fatal("Unknown deposit kind: %s\nUsage: stakeledger-cli deposit <native|token> [flags]", args[0])
	}
}

// ── release ─────────────────────────────────────────────────────────────

func (c *cli) cmdRelease(args []string) {
	fs := flag.NewFlagSet("release", flag.ExitOnError)
	from := fs.String("from", "", "Stake owner")
	nonce := fs.Int64("nonce", -1, "Stake nonce")
	slash := fs.Uint64("slash", 0, "Slash in asset base units")
	sigHex := fs.String("sig", "", "Registry signature (hex)")
	keyName := fs.String("key", "", "Sign with this registry key from the keystore")
	fs.Parse(args)

	if *from == "" || *nonce < 0 || (*sigHex == "" && *keyName == "") {
		fatal("Usage: stakeledger-cli release --from <addr> --nonce <n> [--slash <units>] (--sig <hex> | --key <name>)")
	}
	caller := mustAddress("from", *from)
	n := uint64(*nonce)

	var sig []byte
	if *sigHex != "" {
		var err error
		if sig, err = hex.DecodeString(*sigHex); err != nil {
			fatal("invalid signature hex: %v", err)
		}
	} else {
		st, err := c.client.Stake(n)
		if err != nil {
			fatal("ledger_getStake: %v", err)
		}
		key := c.unlock(*keyName, keys.RoleRegistry)
		defer key.Zero()
		sig, err = auth.SignRelease(key, auth.ReleaseMessage{
			Owner: st.Owner, Asset: st.Asset, Amount: st.Amount, Nonce: n, Slash: *slash,
		})
		if err != nil {
			fatal("sign release: %v", err)
		}
	}

	receipt, err := c.client.Release(caller, n, *slash, sig, nil)
	if err != nil {
		fatal("ledger_release: %v", err)
	}
	printReceipt(receipt)
}

func printReceipt(r *ledger.Receipt) {
	fmt.Printf("Released stake %d\n", r.Nonce)
	fmt.Printf("  Owner:    %s\n", r.Owner)
	fmt.Printf("  Payout:   %s\n", formatAssetAmount(r.Asset, r.Payout))
	fmt.Printf("  Slashed:  %s\n", formatAssetAmount(r.Asset, r.Slashed))
}

// ── gov ─────────────────────────────────────────────────────────────────

func (c *cli) cmdGov(args []string) {
	const usageLine = "Usage: stakeledger-cli gov <pause|unpause|rotate|recover> --key <name> [flags]"
	if len(args) < 1 {
		fatal(usageLine)
	}
	fs := flag.NewFlagSet("gov "+args[0], flag.ExitOnError)
	keyName := fs.String("key", "", "Governance key name")
	newKey := fs.String("new-key", "", "New registry public key (hex), for rotate")
	nonce := fs.Int64("nonce", -1, "Stake nonce, for recover")
	fs.Parse(args[1:])
	if *keyName == "" {
		fatal(usageLine)
	}

	info, err := c.client.Info()
	if err != nil {
		fatal("ledger_getInfo: %v", err)
	}
	seq := info.GovernanceSeq

	var msg auth.GovernanceMessage
	var newKeyBytes []byte
	var kind types.AssetKind
	switch args[0] {
	case "pause":
		msg = auth.PauseMessage(seq)
	case "unpause":
		msg = auth.UnpauseMessage(seq)
	case "rotate":
		if newKeyBytes, err = hex.DecodeString(*newKey); err != nil || len(newKeyBytes) == 0 {
			fatal("--new-key must be a hex public key")
		}
		msg = auth.RotateKeyMessage(seq, newKeyBytes)
	case "recover":
		if *nonce < 0 {
			fatal("--nonce is required for recover")
		}
		st, err := c.client.Stake(uint64(*nonce))
		if err != nil {
			fatal("ledger_getStake: %v", err)
		}
		kind = st.Asset.Kind
		msg = auth.RecoveryMessage(seq, kind, uint64(*nonce))
	default:
		fatal("Unknown gov command: %s\n%s", args[0], usageLine)
	}

	key := c.unlock(*keyName, keys.RoleGovernance)
	proof, err := auth.SignGovernance(key, msg)
	key.Zero()
	if err != nil {
		fatal("sign governance message: %v", err)
	}

	switch args[0] {
	case "pause":
		err = c.client.Pause(proof)
	case "unpause":
		err = c.client.Unpause(proof)
	case "rotate":
		err = c.client.RotateRegistryKey(newKeyBytes, proof)
	case "recover":
		var receipt *ledger.Receipt
		receipt, err = c.client.ForceRecover(uint64(*nonce), kind.String(), proof)
		if err == nil {
			printReceipt(receipt)
			return
		}
	}
	if err != nil {
		fatal("gov %s: %v", args[0], err)
	}
	fmt.Printf("gov %s applied (governance seq %d)\n", args[0], seq)
}
