package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Denomination constants.
// 1 coin = 10^12 base units. All ledger amounts are in base units.
const (
	Decimals  = 12
	Coin      = 1_000_000_000_000 // 10^12 base units per coin
	MilliCoin = 1_000_000_000     // 10^9
	MicroCoin = 1_000_000         // 10^6
)

// =============================================================================
// Ledger Genesis (applied once, when the ledger database is created)
// =============================================================================

// Genesis holds the initial ledger state.
type Genesis struct {
	// Ledger identity
	LedgerID string `json:"ledger_id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol,omitempty"` // Native asset symbol (e.g., "KGX")

	// Authorities (compressed secp256k1 public keys, hex).
	GovernanceKey string `json:"governance_key"`
	RegistryKey   string `json:"registry_key"`

	// SlashSink receives slashed amounts. Empty burns them.
	SlashSink string `json:"slash_sink,omitempty"`

	// Initial native balances (address -> base units)
	Alloc map[string]uint64 `json:"alloc"`

	// Tokens registered at genesis.
	Tokens []GenesisToken `json:"tokens,omitempty"`
}

// GenesisToken describes a token registered at genesis.
type GenesisToken struct {
	Name       string            `json:"name"`
	Symbol     string            `json:"symbol"`
	Decimals   uint8             `json:"decimals"`
	Creator    string            `json:"creator"`
	Convention string            `json:"convention,omitempty"` // strict (default), void or bool
	Alloc      map[string]uint64 `json:"alloc,omitempty"`
}

// Metadata returns the token metadata the genesis token describes.
func (t *GenesisToken) Metadata() (*token.Metadata, error) {
	creator, err := types.ParseAddress(t.Creator)
	if err != nil {
		return nil, fmt.Errorf("creator: %w", err)
	}
	conv, err := token.ParseConvention(t.Convention)
	if err != nil {
		return nil, err
	}
	return &token.Metadata{
		Name:       t.Name,
		Symbol:     t.Symbol,
		Decimals:   t.Decimals,
		Creator:    creator,
		Convention: conv,
	}, nil
}

// ID returns the token's ID.
func (t *GenesisToken) ID() (types.TokenID, error) {
	creator, err := types.ParseAddress(t.Creator)
	if err != nil {
		return types.TokenID{}, fmt.Errorf("creator: %w", err)
	}
	return token.DeriveTokenID(creator, t.Symbol), nil
}

// Allocation is one initial balance.
type Allocation struct {
	Address types.Address
	Amount  uint64
}

// ParseAlloc validates an allocation map and returns it sorted by address.
func ParseAlloc(alloc map[string]uint64) ([]Allocation, error) {
	out := make([]Allocation, 0, len(alloc))
	var total uint64
	for s, v := range alloc {
		addr, err := types.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid alloc address %q: %w", s, err)
		}
		if v > math.MaxUint64-total {
			return nil, fmt.Errorf("allocations overflow uint64")
		}
		total += v
		out = append(out, Allocation{Address: addr, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Address[:]) < string(out[j].Address[:])
	})
	return out, nil
}

// =============================================================================
// Testnet Identity
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Derivation path: m/44'/8888'/0'/0/0 (no passphrase)
// =============================================================================

const (
	// TestnetMnemonic is the well-known seed phrase for the testnet authorities.
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	// TestnetPubKey is the compressed public key (hex) derived from TestnetMnemonic.
	TestnetPubKey = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"

	// TestnetPrivKey is the private key (hex) derived from TestnetMnemonic.
	TestnetPrivKey = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"
)

// TestnetAddress returns the address of TestnetPubKey.
func TestnetAddress() types.Address {
	pub, _ := types.ParseHexBytes(TestnetPubKey)
	return crypto.AddressFromPubKey(pub)
}

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis skeleton. Its authority keys
// are not built in: a mainnet ledger is created from a genesis file.
func MainnetGenesis() *Genesis {
	return &Genesis{
		LedgerID: "klingnet-stakeledger-1",
		Name:     "Klingnet Stake Ledger",
		Symbol:   "KGX",
		Alloc:    map[string]uint64{},
	}
}

// TestnetGenesis returns the testnet genesis configuration. Both
// authorities use the well-known testnet key; release and governance
// digests are domain-separated, so one key cannot be confused for the
// other's role.
func TestnetGenesis() *Genesis {
	addr := TestnetAddress().String()
	return &Genesis{
		LedgerID:      "klingnet-stakeledger-testnet-1",
		Name:          "Klingnet Stake Ledger Testnet",
		Symbol:        "tKGX",
		GovernanceKey: TestnetPubKey,
		RegistryKey:   TestnetPubKey,
		SlashSink:     crypto.DeriveAddress("testnet/slash-sink").String(),
		Alloc: map[string]uint64{
			addr: 200_000 * Coin,
		},
		Tokens: []GenesisToken{
			{
				Name:     "Testnet Dollar",
				Symbol:   "tUSD",
				Decimals: 6,
				Creator:  addr,
				Alloc:    map[string]uint64{addr: 1_000_000 * MicroCoin},
			},
			{
				Name:       "Testnet Legacy Token",
				Symbol:     "tLEG",
				Decimals:   6,
				Creator:    addr,
				Convention: string(token.ConventionBool),
				Alloc:      map[string]uint64{addr: 1_000_000 * MicroCoin},
			},
		},
	}
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// GovernanceKeyBytes decodes and checks the governance key.
func (g *Genesis) GovernanceKeyBytes() ([]byte, error) {
	return parseKey("governance_key", g.GovernanceKey)
}

// RegistryKeyBytes decodes and checks the registry key.
func (g *Genesis) RegistryKeyBytes() ([]byte, error) {
	return parseKey("registry_key", g.RegistryKey)
}

// SlashSinkAddress returns the slash sink, the zero address when unset.
func (g *Genesis) SlashSinkAddress() (types.Address, error) {
	if g.SlashSink == "" {
		return types.Address{}, nil
	}
	addr, err := types.ParseAddress(g.SlashSink)
	if err != nil {
		return types.Address{}, fmt.Errorf("slash_sink: %w", err)
	}
	return addr, nil
}

// CustodyAddress returns the ledger's custody account. It is derived from
// the ledger ID and controlled by no key.
func (g *Genesis) CustodyAddress() types.Address {
	return crypto.DeriveAddress("stakeledger/custody/" + g.LedgerID)
}

func parseKey(field, s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	key, err := types.ParseHexBytes(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if err := crypto.ValidatePublicKey(key); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.LedgerID == "" {
		return fmt.Errorf("ledger_id is required")
	}
	if _, err := g.GovernanceKeyBytes(); err != nil {
		return err
	}
	if _, err := g.RegistryKeyBytes(); err != nil {
		return err
	}
	sink, err := g.SlashSinkAddress()
	if err != nil {
		return err
	}
	custody := g.CustodyAddress()
	if sink == custody {
		return fmt.Errorf("slash_sink must not be the custody account")
	}

	alloc, err := ParseAlloc(g.Alloc)
	if err != nil {
		return err
	}
	for _, a := range alloc {
		if a.Address == custody {
			return fmt.Errorf("alloc must not credit the custody account")
		}
	}

	seen := make(map[types.TokenID]bool, len(g.Tokens))
	for i := range g.Tokens {
		t := &g.Tokens[i]
		meta, err := t.Metadata()
		if err != nil {
			return fmt.Errorf("tokens[%d]: %w", i, err)
		}
		if err := meta.Validate(); err != nil {
			return fmt.Errorf("tokens[%d]: %w", i, err)
		}
		id := token.DeriveTokenID(meta.Creator, meta.Symbol)
		if seen[id] {
			return fmt.Errorf("tokens[%d]: duplicate token %s", i, meta.Symbol)
		}
		seen[id] = true
		if _, err := ParseAlloc(t.Alloc); err != nil {
			return fmt.Errorf("tokens[%d]: %w", i, err)
		}
	}

	return nil
}

// Hash returns a BLAKE3 hash of the genesis configuration.
// Used to detect a genesis mismatch against an existing ledger.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
