package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/config"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
)

// keyGenesis holds the genesis a database was created from.
var keyGenesis = []byte("G/genesis")

// ApplyGenesis initializes the empty ledger over db from gen as one atomic
// operation: the ledger parameters, native allocations, and every genesis
// token with its allocations. Nothing is written if any step fails.
func ApplyGenesis(ctx context.Context, db storage.DB, l *ledger.Ledger, vault *custody.Vault, gen *config.Genesis) error {
	if err := gen.Validate(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	if vault.Custody() != gen.CustodyAddress() {
		return fmt.Errorf("custody %s does not belong to ledger %q", vault.Custody(), gen.LedgerID)
	}
	govKey, _ := gen.GovernanceKeyBytes()
	regKey, _ := gen.RegistryKeyBytes()
	sink, _ := gen.SlashSinkAddress()
	alloc, _ := config.ParseAlloc(gen.Alloc)

	return l.Exec(ctx, "genesis", func(ctx context.Context) error {
		if err := l.Initialize(ctx, ledger.Params{
			GovernanceKey: govKey,
			RegistryKey:   regKey,
			SlashSink:     sink,
			Custody:       gen.CustodyAddress(),
		}); err != nil {
			return err
		}

		for _, a := range alloc {
			if err := vault.Bank().Credit(ctx, a.Address, a.Amount); err != nil {
				return fmt.Errorf("alloc %s: %w", a.Address, err)
			}
		}

		for i := range gen.Tokens {
			t := &gen.Tokens[i]
			meta, _ := t.Metadata()
			id, _ := t.ID()
			if err := vault.Tokens().Register(ctx, id, meta); err != nil {
				return fmt.Errorf("register %s: %w", t.Symbol, err)
			}
			book, err := vault.Tokens().Book(ctx, id)
			if err != nil {
				return err
			}
			tokenAlloc, _ := config.ParseAlloc(t.Alloc)
			for _, a := range tokenAlloc {
				if err := book.Mint(ctx, a.Address, a.Amount); err != nil {
					return fmt.Errorf("mint %s to %s: %w", t.Symbol, a.Address, err)
				}
			}
		}

		data, err := json.Marshal(gen)
		if err != nil {
			return err
		}
		return storage.Scope(ctx, db).Put(keyGenesis, data)
	})
}

// storedGenesis returns the genesis db was created from, or nil for a
// database created before genesis recording.
func storedGenesis(db storage.DB) (*config.Genesis, error) {
	data, err := db.Get(keyGenesis)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gen config.Genesis
	if err := json.Unmarshal(data, &gen); err != nil {
		return nil, fmt.Errorf("decode stored genesis: %w", err)
	}
	return &gen, nil
}

// sameGenesis reports whether a and b hash equally.
func sameGenesis(a, b *config.Genesis) (bool, error) {
	ha, err := a.Hash()
	if err != nil {
		return false, err
	}
	hb, err := b.Hash()
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
