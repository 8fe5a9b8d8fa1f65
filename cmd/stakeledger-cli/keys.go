package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/keys"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// ── key ─────────────────────────────────────────────────────────────────

func (c *cli) keystore() *keys.Keystore {
	ks, err := keys.NewKeystore(c.ksDir, keys.DefaultParams())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

// unlock prompts for the password of name and checks it holds a key for role.
func (c *cli) unlock(name string, role keys.Role) *crypto.PrivateKey {
	ks := c.keystore()
	info, err := ks.Info(name)
	if err != nil {
		fatal("key %s: %v", name, err)
	}
	if info.Role != role {
		fatal("key %s is a %s key, need %s", name, info.Role, role)
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", name))
	if err != nil {
		fatal("read password: %v", err)
	}
	key, err := ks.Unlock(name, password)
	if err != nil {
		fatal("unlock %s: %v", name, err)
	}
	return key
}

func (c *cli) cmdKey(args []string) {
	const usageLine = "Usage: stakeledger-cli key <new|import|list|show> [flags]"
	if len(args) < 1 {
		fatal(usageLine)
	}
	switch args[0] {
	case "new":
		c.cmdKeyNew(args[1:])
	case "import":
		c.cmdKeyImport(args[1:])
	case "list":
		list, err := c.keystore().List()
		if err != nil {
			fatal("list keys: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No keys found.")
			return
		}
		for _, k := range list {
			fmt.Printf("  %-20s %-11s %s\n", k.Name, k.Role, k.Address)
		}
	case "show":
		if len(args) < 2 {
			fatal("Usage: stakeledger-cli key show <name>")
		}
		printKeyInfo(c.keystore(), args[1])
	default:
		fatal("Unknown key command: %s\n%s", args[0], usageLine)
	}
}

func (c *cli) cmdKeyNew(args []string) {
	fs := flag.NewFlagSet("key new", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	roleStr := fs.String("role", "", "governance, registry or account")
	fs.Parse(args)
	if *name == "" || *roleStr == "" {
		fatal("Usage: stakeledger-cli key new --name <n> --role <governance|registry|account>")
	}
	role, err := keys.ParseRole(*roleStr)
	if err != nil {
		fatal("%v", err)
	}

	mnemonic, err := keys.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	password := newPassword()
	ks := c.keystore()
	if _, err := ks.ImportMnemonic(*name, role, mnemonic, "", 0, password); err != nil {
		fatal("store key: %v", err)
	}
	printKeyInfo(ks, *name)
}

func (c *cli) cmdKeyImport(args []string) {
	fs := flag.NewFlagSet("key import", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	roleStr := fs.String("role", "", "governance, registry or account")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	index := fs.Uint("index", 0, "Derivation index")
	privHex := fs.String("hex", "", "Raw private key (hex)")
	fs.Parse(args)
	if *name == "" || *roleStr == "" || (*mnemonic == "") == (*privHex == "") {
		fatal("Usage: stakeledger-cli key import --name <n> --role <r> (--mnemonic \"...\" [--index i] | --hex <privkey>)")
	}
	role, err := keys.ParseRole(*roleStr)
	if err != nil {
		fatal("%v", err)
	}

	password := newPassword()
	ks := c.keystore()
	if *mnemonic != "" {
		if !keys.ValidateMnemonic(*mnemonic) {
			fatal("invalid mnemonic")
		}
		if _, err := ks.ImportMnemonic(*name, role, *mnemonic, "", uint32(*index), password); err != nil {
			fatal("import key: %v", err)
		}
	} else {
		raw, err := hex.DecodeString(*privHex)
		if err != nil {
			fatal("invalid private key hex: %v", err)
		}
		key, err := crypto.PrivateKeyFromBytes(raw)
		if err != nil {
			fatal("invalid private key: %v", err)
		}
		defer key.Zero()
		if _, err := ks.Import(*name, role, key, password); err != nil {
			fatal("import key: %v", err)
		}
	}
	printKeyInfo(ks, *name)
}

func printKeyInfo(ks *keys.Keystore, name string) {
	info, err := ks.Info(name)
	if err != nil {
		fatal("key %s: %v", name, err)
	}
	fmt.Printf("Name:        %s\n", info.Name)
	fmt.Printf("Role:        %s\n", info.Role)
	fmt.Printf("Address:     %s\n", info.Address)
	fmt.Printf("Public key:  %s\n", info.PublicKey)
	if info.Path != "" {
		fmt.Printf("Path:        %s\n", info.Path)
	}
}

// ── sign ────────────────────────────────────────────────────────────────

// cmdSign produces signatures offline, for keys kept away from the node.
func (c *cli) cmdSign(args []string) {
	const usageLine = "Usage: stakeledger-cli sign <release|gov> --key <name> [flags]"
	if len(args) < 1 {
		fatal(usageLine)
	}
	switch args[0] {
	case "release":
		fs := flag.NewFlagSet("sign release", flag.ExitOnError)
		keyName := fs.String("key", "", "Registry key name")
		owner := fs.String("owner", "", "Stake owner")
		asset := fs.String("asset", "native", "native or a token ID")
		amount := fs.Uint64("amount", 0, "Stake amount in base units")
		nonce := fs.Uint64("nonce", 0, "Stake nonce")
		slash := fs.Uint64("slash", 0, "Slash in base units")
		fs.Parse(args[1:])
		if *keyName == "" || *owner == "" {
			fatal("Usage: stakeledger-cli sign release --key <name> --owner <a> --asset <native|token_id> --amount <units> --nonce <n> [--slash <units>]")
		}
		msg := auth.ReleaseMessage{
			Owner:  mustAddress("owner", *owner),
			Asset:  mustAsset(*asset),
			Amount: *amount,
			Nonce:  *nonce,
			Slash:  *slash,
		}
		key := c.unlock(*keyName, keys.RoleRegistry)
		sig, err := auth.SignRelease(key, msg)
		key.Zero()
		if err != nil {
			fatal("sign release: %v", err)
		}
		fmt.Println(hex.EncodeToString(sig))
	case "gov":
		fs := flag.NewFlagSet("sign gov", flag.ExitOnError)
		keyName := fs.String("key", "", "Governance key name")
		action := fs.String("action", "", "pause, unpause, rotate or recover")
		seq := fs.Uint64("seq", 0, "Governance sequence number")
		newKey := fs.String("new-key", "", "New registry public key (hex), for rotate")
		nonce := fs.Uint64("nonce", 0, "Stake nonce, for recover")
		kindStr := fs.String("kind", "native", "Stake asset kind, for recover")
		fs.Parse(args[1:])
		if *keyName == "" || *action == "" {
			fatal("Usage: stakeledger-cli sign gov --key <name> --action <pause|unpause|rotate|recover> --seq <n> [flags]")
		}
		var msg auth.GovernanceMessage
		switch *action {
		case "pause":
			msg = auth.PauseMessage(*seq)
		case "unpause":
			msg = auth.UnpauseMessage(*seq)
		case "rotate":
			b, err := hex.DecodeString(*newKey)
			if err != nil || len(b) == 0 {
				fatal("--new-key must be a hex public key")
			}
			msg = auth.RotateKeyMessage(*seq, b)
		case "recover":
			kind, err := types.ParseAssetKind(*kindStr)
			if err != nil {
				fatal("%v", err)
			}
			msg = auth.RecoveryMessage(*seq, kind, *nonce)
		default:
			fatal("unknown action %q", *action)
		}
		key := c.unlock(*keyName, keys.RoleGovernance)
		proof, err := auth.SignGovernance(key, msg)
		key.Zero()
		if err != nil {
			fatal("sign governance message: %v", err)
		}
		fmt.Println(hex.EncodeToString(proof))
	default:
		fatal("Unknown sign command: %s\n%s", args[0], usageLine)
	}
}

// ── Password helpers ────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func newPassword() []byte {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}
	return password
}
