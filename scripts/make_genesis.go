// make_genesis.go writes a ledger genesis file from hex-encoded private
// key files for the governance and registry authorities.
// Usage: go run scripts/make_genesis.go --id <ledger_id> --gov <keyfile> --registry <keyfile> [--sink <addr>] [--out genesis.json]
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
)

func pubKeyFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return "", err
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return "", err
	}
	defer key.Zero()
	return hex.EncodeToString(key.PublicKey()), nil
}

func main() {
	id := flag.String("id", "", "Ledger ID")
	name := flag.String("name", "Klingnet Stake Ledger", "Ledger name")
	gov := flag.String("gov", "", "Governance private key file")
	registry := flag.String("registry", "", "Registry private key file")
	sink := flag.String("sink", "", "Slash sink address (empty burns)")
	out := flag.String("out", "genesis.json", "Output path")
	flag.Parse()

	if *id == "" || *gov == "" || *registry == "" {
		fmt.Fprintln(os.Stderr, "usage: make_genesis --id <ledger_id> --gov <keyfile> --registry <keyfile> [--sink <addr>] [--out <path>]")
		os.Exit(1)
	}

	govKey, err := pubKeyFromFile(*gov)
	if err != nil {
		fmt.Fprintln(os.Stderr, "governance key:", err)
		os.Exit(1)
	}
	regKey, err := pubKeyFromFile(*registry)
	if err != nil {
		fmt.Fprintln(os.Stderr, "registry key:", err)
		os.Exit(1)
	}

	gen := &config.Genesis{
		LedgerID:      *id,
		Name:          *name,
		Symbol:        "KGX",
		GovernanceKey: govKey,
		RegistryKey:   regKey,
		SlashSink:     *sink,
		Alloc:         map[string]uint64{},
	}
	if err := gen.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := gen.Save(*out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("custody=%s\n", gen.CustodyAddress())
	fmt.Printf("wrote %s\n", *out)
}
