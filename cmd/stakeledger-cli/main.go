// stakeledger-cli is a command-line client for a stakeledgerd node.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/rpcclient"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	rpcURL := ""
	dataDir := config.DefaultDataDir()
	network := string(config.Mainnet)
	keysDir := ""

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--keys" && len(args) > 1:
			keysDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--keys="):
			keysDir = args[0][len("--keys="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := config.Default(config.NetworkType(network))
	cfg.DataDir = dataDir
	cfg.Keys.Dir = keysDir
	if rpcURL == "" {
		rpcURL = fmt.Sprintf("http://%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
	}

	env := &cli{
		client: rpcclient.New(rpcURL),
		ksDir:  cfg.KeystoreDir(),
	}
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "info":
		env.cmdInfo()
	case "stake":
		env.cmdStake(cmdArgs)
	case "stakes":
		env.cmdStakes(cmdArgs)
	case "events":
		env.cmdEvents(cmdArgs)
	case "snapshot":
		env.cmdSnapshot(cmdArgs)
	case "deposit":
		env.cmdDeposit(cmdArgs)
	case "release":
		env.cmdRelease(cmdArgs)
	case "gov":
		env.cmdGov(cmdArgs)
	case "bank":
		env.cmdBank(cmdArgs)
	case "token":
		env.cmdToken(cmdArgs)
	case "key":
		env.cmdKey(cmdArgs)
	case "sign":
		env.cmdSign(cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// cli carries what every command needs.
type cli struct {
	client *rpcclient.Client
	ksDir  string
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: stakeledger-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: the network's local port)
  --datadir <path>    Data directory (default: ~/.stakeledger)
  --network <net>     mainnet (default) or testnet
  --keys <path>       Keystore directory (default: <datadir>/<network>/keystore)

Ledger:
  info                            Show ledger state
  stake <nonce>                   Show a stake
  stakes <owner>                  List an owner's stakes
  events [--kind k] [--owner a] [--nonce n] [--from seq] [--limit n]
                                  Query the event log
  snapshot [--out <file>]         Export a ledger snapshot

  deposit native --from <addr> --amount <amt> [--synth <id>]
                                  Stake native coin
  deposit token --from <addr> --token <id> --amount <units> [--synth <id>]
                                  Stake a token (approve first)
  release --from <addr> --nonce <n> [--slash <amt>] (--sig <hex> | --key <name>)
                                  Release a stake with a registry signature

Governance (signed with a governance key):
  gov pause --key <name>
  gov unpause --key <name>
  gov rotate --key <name> --new-key <pubkey hex>
  gov recover --key <name> --nonce <n>

Custody:
  bank balance <address>          Show native balance
  bank transfer --from <a> --to <b> --amount <amt>
  token list                      List registered tokens
  token info <token_id>           Show token metadata and supply
  token balance <token_id> <address>
                                  Show token balance and allowance
  token approve --token <id> --owner <addr> --amount <units>
                                  Allow the ledger to pull tokens

Keys:
  key new --name <n> --role <governance|registry|account>
  key import --name <n> --role <r> (--mnemonic "..." [--index i] | --hex <privkey>)
  key list
  key show <name>

Offline signing (prints hex):
  sign release --key <name> --owner <a> --asset <native|token_id> --amount <units> --nonce <n> [--slash <units>]
  sign gov --key <name> --action <pause|unpause|rotate|recover> --seq <n> [--new-key <hex>] [--nonce <n> --kind <native|token>]
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
