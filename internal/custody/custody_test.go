package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

var (
	custodyAddr = types.Address{0xcc}
	alice       = types.Address{0xa1}
	bob         = types.Address{0xb0}
)

type fixture struct {
	root  *storage.MemoryDB
	bank  *NativeBank
	reg   *Registry
	vault *Vault
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := storage.NewMemory()
	bank := NewNativeBank(root, custodyAddr)
	reg := NewRegistry(root)
	return &fixture{root: root, bank: bank, reg: reg, vault: NewVault(bank, reg)}
}

func (f *fixture) addToken(t *testing.T, symbol string, conv token.Convention) *BookToken {
	t.Helper()
	ctx := context.Background()
	id := token.DeriveTokenID(alice, symbol)
	err := f.reg.Register(ctx, id, &token.Metadata{Name: symbol, Symbol: symbol, Decimals: 6, Creator: alice, Convention: conv})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	book, err := f.reg.Book(ctx, id)
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	return book
}

func balance(t *testing.T, f *fixture, addr types.Address) uint64 {
	t.Helper()
	v, err := f.bank.Balance(context.Background(), addr)
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	return v
}

func TestNativeBank_TransferAndSupply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bank.Credit(ctx, alice, 100); err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if err := f.bank.Transfer(ctx, alice, bob, 40); err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}
	if got := balance(t, f, alice); got != 60 {
		t.Errorf("alice = %d, want 60", got)
	}
	if got := balance(t, f, bob); got != 40 {
		t.Errorf("bob = %d, want 40", got)
	}

	err := f.bank.Transfer(ctx, bob, alice, 41)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Transfer() overdraft error = %v, want ErrInsufficientBalance", err)
	}
	if supply, _ := f.bank.Supply(ctx); supply != 100 {
		t.Errorf("Supply() = %d, want 100", supply)
	}
}

func TestNativeBank_RejectsUnsolicitedTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bank.Credit(ctx, alice, 100)

	err := f.bank.Transfer(ctx, alice, custodyAddr, 10)
	if !errors.Is(err, ErrUnsolicitedTransfer) {
		t.Fatalf("Transfer() to custody error = %v, want ErrUnsolicitedTransfer", err)
	}
	if got := balance(t, f, custodyAddr); got != 0 {
		t.Errorf("custody = %d, want 0", got)
	}
}

func TestNativeBank_ReceiverFailureFailsPush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bank.Credit(ctx, alice, 50)
	if err := f.bank.Pull(ctx, alice, 50); err != nil {
		t.Fatalf("Pull() error: %v", err)
	}

	f.bank.SetReceiver(bob, func(context.Context, types.Address, uint64) error {
		return errors.New("no thanks")
	})
	err := f.bank.Push(ctx, bob, 50)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Push() error = %v, want ErrTransferFailed", err)
	}

	f.bank.SetReceiver(bob, nil)
	if err := f.bank.Push(ctx, bob, 10); err != nil {
		t.Fatalf("Push() after removing receiver error: %v", err)
	}
}

func TestBookToken_Conventions(t *testing.T) {
	tests := []struct {
		conv     token.Convention
		okReturn Return
		failErr  bool
	}{
		{token.ConventionStrict, ReturnTrue, true},
		{token.ConventionVoid, ReturnVoid, true},
		{token.ConventionBool, ReturnTrue, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.conv), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			book := f.addToken(t, "T"+string(tt.conv), tt.conv)
			book.Mint(ctx, alice, 10)

			ret, err := book.Transfer(ctx, alice, bob, 4)
			if err != nil || ret != tt.okReturn {
				t.Fatalf("Transfer() = %s, %v; want %s", ret, err, tt.okReturn)
			}

			ret, err = book.Transfer(ctx, alice, bob, 100)
			if tt.failErr {
				if !errors.Is(err, ErrInsufficientBalance) {
					t.Errorf("failed Transfer() error = %v, want ErrInsufficientBalance", err)
				}
			} else if err != nil || ret != ReturnFalse {
				t.Errorf("failed Transfer() = %s, %v; want false, nil", ret, err)
			}

			if err := SafeTransfer(ctx, book, alice, bob, 100); !errors.Is(err, ErrTransferFailed) {
				t.Errorf("SafeTransfer() error = %v, want ErrTransferFailed", err)
			}
			if bal, _ := book.BalanceOf(ctx, alice); bal != 6 {
				t.Errorf("alice balance = %d, want 6", bal)
			}
		})
	}
}

func TestBookToken_TransferFromSpendsAllowance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addToken(t, "USDX", token.ConventionStrict)
	book.Mint(ctx, alice, 100)
	book.Approve(ctx, alice, custodyAddr, 60)

	if _, err := book.TransferFrom(ctx, custodyAddr, alice, custodyAddr, 50); err != nil {
		t.Fatalf("TransferFrom() error: %v", err)
	}
	if left, _ := book.Allowance(ctx, alice, custodyAddr); left != 10 {
		t.Errorf("Allowance() = %d, want 10", left)
	}
	_, err := book.TransferFrom(ctx, custodyAddr, alice, custodyAddr, 11)
	if !errors.Is(err, ErrAllowanceNotGranted) {
		t.Errorf("TransferFrom() error = %v, want ErrAllowanceNotGranted", err)
	}
}

func TestVault_PullToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addToken(t, "USDX", token.ConventionVoid)
	book.Mint(ctx, alice, 50)
	asset := types.TokenAsset(book.ID())

	if err := f.vault.Pull(ctx, alice, asset, 60); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Pull() error = %v, want ErrInsufficientBalance", err)
	}
	if err := f.vault.Pull(ctx, alice, asset, 50); !errors.Is(err, ErrAllowanceNotGranted) {
		t.Errorf("Pull() error = %v, want ErrAllowanceNotGranted", err)
	}

	book.Approve(ctx, alice, custodyAddr, 50)
	if err := f.vault.Pull(ctx, alice, asset, 50); err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if bal, _ := book.BalanceOf(ctx, custodyAddr); bal != 50 {
		t.Errorf("custody balance = %d, want 50", bal)
	}

	if err := f.vault.Push(ctx, bob, asset, 20); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if bal, _ := book.BalanceOf(ctx, bob); bal != 20 {
		t.Errorf("bob balance = %d, want 20", bal)
	}
}

func TestVault_UnknownToken(t *testing.T) {
	f := newFixture(t)
	err := f.vault.Pull(context.Background(), alice, types.TokenAsset(types.TokenID{0x42}), 1)
	if !errors.Is(err, ErrUnknownToken) {
		t.Errorf("Pull() error = %v, want ErrUnknownToken", err)
	}
}

func TestVault_NativeBurnToZeroAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bank.Credit(ctx, alice, 30)
	f.vault.Pull(ctx, alice, types.NativeAsset(), 30)

	if err := f.vault.Push(ctx, types.Address{}, types.NativeAsset(), 30); err != nil {
		t.Fatalf("Push() to zero address error: %v", err)
	}
	if supply, _ := f.bank.Supply(ctx); supply != 0 {
		t.Errorf("Supply() after burn = %d, want 0", supply)
	}
}

func TestVault_WritesFollowJournal(t *testing.T) {
	f := newFixture(t)
	f.bank.Credit(context.Background(), alice, 10)

	j := storage.NewJournal(f.root)
	ctx := storage.WithJournal(context.Background(), j)
	if err := f.vault.Pull(ctx, alice, types.NativeAsset(), 10); err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	if got := balance(t, f, custodyAddr); got != 0 {
		t.Fatalf("committed custody = %d before journal commit", got)
	}
	j.Discard()
	if got := balance(t, f, alice); got != 10 {
		t.Errorf("alice = %d after discard, want 10", got)
	}
}
