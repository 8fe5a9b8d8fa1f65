package custody

import (
	"context"
	"fmt"
	"sync"

	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

var (
	bankNamespace = []byte("B/")
	prefixBalance = []byte("b/") // b/<address(20)> -> uint64 BE
	keySupply     = []byte("s/supply")
)

// Receiver runs when an account receives native value from custody. It
// gets the context of the operation that made the payment, so it may call
// back into the ledger. A returned error fails the payment.
type Receiver func(ctx context.Context, from types.Address, amount uint64) error

// NativeBank holds native value balances.
type NativeBank struct {
	root    storage.DB
	custody types.Address

	mu        sync.RWMutex
	receivers map[types.Address]Receiver
}

// NewNativeBank creates a bank over root whose custody account is custody.
func NewNativeBank(root storage.DB, custody types.Address) *NativeBank {
	return &NativeBank{
		root:      root,
		custody:   custody,
		receivers: make(map[types.Address]Receiver),
	}
}

// Custody returns the custody account address.
func (b *NativeBank) Custody() types.Address {
	return b.custody
}

// SetReceiver installs fn as the receive hook of addr. A nil fn removes it.
func (b *NativeBank) SetReceiver(addr types.Address, fn Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn == nil {
		delete(b.receivers, addr)
		return
	}
	b.receivers[addr] = fn
}

func (b *NativeBank) receiver(addr types.Address) Receiver {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.receivers[addr]
}

func (b *NativeBank) db(ctx context.Context) storage.DB {
	return storage.NewPrefixDB(storage.Scope(ctx, b.root), bankNamespace)
}

// Balance returns the native balance of addr.
func (b *NativeBank) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	return readBalance(b.db(ctx), addr)
}

// Supply returns the total native value ever credited minus burns.
func (b *NativeBank) Supply(ctx context.Context) (uint64, error) {
	data, err := b.db(ctx).Get(keySupply)
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeAmount(data)
}

// Credit mints amount to addr. Used for genesis allocations.
func (b *NativeBank) Credit(ctx context.Context, addr types.Address, amount uint64) error {
	db := b.db(ctx)
	supply, err := b.Supply(ctx)
	if err != nil {
		return err
	}
	if supply, err = addAmount(supply, amount); err != nil {
		return err
	}
	if err := credit(db, addr, amount); err != nil {
		return err
	}
	return db.Put(keySupply, encodeAmount(supply))
}

// Transfer moves value between two accounts. Direct transfers into the
// custody account are rejected: native value only enters custody through
// a deposit.
func (b *NativeBank) Transfer(ctx context.Context, from, to types.Address, amount uint64) error {
	if to == b.custody {
		return ErrUnsolicitedTransfer
	}
	if from == b.custody {
		return fmt.Errorf("%w: custody funds move only through the ledger", ErrTransferFailed)
	}
	if err := b.move(ctx, from, to, amount); err != nil {
		return err
	}
	if fn := b.receiver(to); fn != nil {
		if err := fn(ctx, from, amount); err != nil {
			return fmt.Errorf("%w: receiver %s: %v", ErrTransferFailed, to, err)
		}
	}
	return nil
}

// Pull moves amount from an account into custody as part of a deposit.
func (b *NativeBank) Pull(ctx context.Context, from types.Address, amount uint64) error {
	return b.move(ctx, from, b.custody, amount)
}

// Push pays amount out of custody and runs the recipient's receive hook.
func (b *NativeBank) Push(ctx context.Context, to types.Address, amount uint64) error {
	if err := b.move(ctx, b.custody, to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if fn := b.receiver(to); fn != nil {
		if err := fn(ctx, b.custody, amount); err != nil {
			klog.Custody.Debug().Err(err).Str("to", to.String()).Msg("Native receiver rejected payment")
			return fmt.Errorf("%w: receiver %s: %v", ErrTransferFailed, to, err)
		}
	}
	return nil
}

// Burn destroys amount held in custody.
func (b *NativeBank) Burn(ctx context.Context, amount uint64) error {
	db := b.db(ctx)
	if err := debit(db, b.custody, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	supply, err := b.Supply(ctx)
	if err != nil {
		return err
	}
	if supply < amount {
		return fmt.Errorf("%w: burn exceeds supply", ErrTransferFailed)
	}
	return db.Put(keySupply, encodeAmount(supply-amount))
}

func (b *NativeBank) move(ctx context.Context, from, to types.Address, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	db := b.db(ctx)
	if err := debit(db, from, amount); err != nil {
		return err
	}
	return credit(db, to, amount)
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func readBalance(db storage.DB, addr types.Address) (uint64, error) {
	data, err := db.Get(balanceKey(addr))
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", addr, err)
	}
	return decodeAmount(data)
}

func writeBalance(db storage.DB, addr types.Address, v uint64) error {
	if v == 0 {
		return db.Delete(balanceKey(addr))
	}
	return db.Put(balanceKey(addr), encodeAmount(v))
}

func debit(db storage.DB, addr types.Address, amount uint64) error {
	bal, err := readBalance(db, addr)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, addr, bal, amount)
	}
	return writeBalance(db, addr, bal-amount)
}

func credit(db storage.DB, addr types.Address, amount uint64) error {
	bal, err := readBalance(db, addr)
	if err != nil {
		return err
	}
	next, err := addAmount(bal, amount)
	if err != nil {
		return err
	}
	return writeBalance(db, addr, next)
}
