package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() should reject an empty config")
	}
}

func TestInitialize(t *testing.T) {
	h := newHarness(t)

	m := h.info()
	if m.Version != SchemaVersion {
		t.Errorf("Version = %d, want %d", m.Version, SchemaVersion)
	}
	if m.NextNonce != 0 || m.Height != 0 || m.Paused {
		t.Errorf("fresh meta = %+v", m)
	}
	if m.SlashSink != sink {
		t.Errorf("SlashSink = %s, want %s", m.SlashSink, sink)
	}

	err := h.ledger.Initialize(h.ctx, Params{
		GovernanceKey: h.gov.PublicKey(),
		RegistryKey:   h.registry.PublicKey(),
		Custody:       h.custody,
	})
	wantErr(t, "second Initialize()", err, ErrAlreadyInitialized)
}

func TestInitialize_InvalidKeys(t *testing.T) {
	root := storage.NewMemory()
	bank := custody.NewNativeBank(root, types.Address{0xcc})
	l, err := New(Config{DB: root, Port: custody.NewVault(bank, custody.NewRegistry(root))})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	key := mustKey(t)

	tests := []struct {
		name string
		p    Params
	}{
		{"bad governance key", Params{GovernanceKey: []byte{1, 2}, RegistryKey: key.PublicKey(), Custody: types.Address{0xcc}}},
		{"bad registry key", Params{GovernanceKey: key.PublicKey(), RegistryKey: make([]byte, 33), Custody: types.Address{0xcc}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantErr(t, "Initialize()", l.Initialize(context.Background(), tt.p), ErrInvalidKey)
		})
	}
	ok, err := l.Initialized(context.Background())
	if err != nil {
		t.Fatalf("Initialized() error: %v", err)
	}
	if ok {
		t.Error("ledger should stay uninitialized")
	}
	if _, err := l.DepositNative(context.Background(), alice, "s", 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("DepositNative() error = %v, want %v", err, ErrNotInitialized)
	}
}

func TestDeposit_SequentialNonces(t *testing.T) {
	h := newHarness(t)
	h.fund(alice, 1000)
	h.fund(bob, 1000)
	book := h.addToken("USDX", token.ConventionStrict, bob, 500)

	steps := []struct {
		owner  types.Address
		token  bool
		amount uint64
	}{
		{alice, false, 100},
		{bob, true, 50},
		{bob, false, 7},
		{alice, false, 1},
		{bob, true, 450},
	}
	for i, s := range steps {
		var nonce uint64
		var err error
		if s.token {
			nonce, err = h.ledger.DepositToken(h.ctx, s.owner, book.ID(), s.amount, "synth")
		} else {
			nonce, err = h.ledger.DepositNative(h.ctx, s.owner, "synth", s.amount)
		}
		if err != nil {
			t.Fatalf("deposit %d error: %v", i, err)
		}
		if nonce != uint64(i) {
			t.Fatalf("deposit %d got nonce %d", i, nonce)
		}
		st, err := h.ledger.Stake(h.ctx, nonce)
		if err != nil {
			t.Fatalf("Stake(%d) error: %v", nonce, err)
		}
		if st.Owner != s.owner || st.Amount != s.amount || st.Released {
			t.Errorf("stake %d = %+v", nonce, st)
		}
		if st.Asset.IsToken() != s.token {
			t.Errorf("stake %d asset = %s", nonce, st.Asset)
		}
		if st.DepositHeight != uint64(i+1) {
			t.Errorf("stake %d DepositHeight = %d, want %d", nonce, st.DepositHeight, i+1)
		}
	}

	if got := h.native(h.custody); got != 108 {
		t.Errorf("custody native = %d, want 108", got)
	}
	if got, _ := book.BalanceOf(h.ctx, h.custody); got != 500 {
		t.Errorf("custody tokens = %d, want 500", got)
	}
	if got := h.info().NextNonce; got != uint64(len(steps)) {
		t.Errorf("NextNonce = %d, want %d", got, len(steps))
	}

	owned, err := h.ledger.StakesByOwner(h.ctx, bob)
	if err != nil {
		t.Fatalf("StakesByOwner() error: %v", err)
	}
	if len(owned) != 3 || owned[0].Nonce != 1 || owned[1].Nonce != 2 || owned[2].Nonce != 4 {
		t.Errorf("StakesByOwner(bob) = %+v", owned)
	}
	if got := len(h.events(EventStaked)); got != len(steps) {
		t.Errorf("Staked events = %d, want %d", got, len(steps))
	}
}

func TestDeposit_Rejections(t *testing.T) {
	h := newHarness(t)
	h.fund(alice, 10)
	book := h.addToken("LOW", token.ConventionStrict, alice, 5)
	noAllowance := token.DeriveTokenID(bob, "NOAL")
	if err := h.tokens.Register(h.ctx, noAllowance, &token.Metadata{Name: "n", Symbol: "NOAL", Creator: bob}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	nb, err := h.tokens.Book(h.ctx, noAllowance)
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	if err := nb.Mint(h.ctx, alice, 100); err != nil {
		t.Fatalf("Mint() error: %v", err)
	}

	tests := []struct {
		name string
		call func() (uint64, error)
		want error
	}{
		{"zero native", func() (uint64, error) { return h.ledger.DepositNative(h.ctx, alice, "s", 0) }, ErrInvalidAmount},
		{"zero token", func() (uint64, error) { return h.ledger.DepositToken(h.ctx, alice, book.ID(), 0, "s") }, ErrInvalidAmount},
		{"native over balance", func() (uint64, error) { return h.ledger.DepositNative(h.ctx, alice, "s", 11) }, ErrInsufficientBalance},
		{"token over balance", func() (uint64, error) { return h.ledger.DepositToken(h.ctx, alice, book.ID(), 6, "s") }, ErrInsufficientBalance},
		{"token without allowance", func() (uint64, error) { return h.ledger.DepositToken(h.ctx, alice, noAllowance, 1, "s") }, ErrAllowanceNotGranted},
		{"unregistered token", func() (uint64, error) {
			return h.ledger.DepositToken(h.ctx, alice, types.TokenID{0x99}, 1, "s")
		}, ErrUnknownToken},
		{"zero token id", func() (uint64, error) { return h.ledger.DepositToken(h.ctx, alice, types.TokenID{}, 1, "s") }, ErrUnknownToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			wantErr(t, tt.name, err, tt.want)
		})
	}

	m := h.info()
	if m.NextNonce != 0 || m.Height != 0 || m.EventSeq != 0 {
		t.Errorf("rejected deposits changed state: %+v", m)
	}
	if got := h.native(alice); got != 10 {
		t.Errorf("alice native = %d, want 10", got)
	}
	if got, _ := book.BalanceOf(h.ctx, alice); got != 5 {
		t.Errorf("alice tokens = %d, want 5", got)
	}
}

func TestDeposit_VoidAndBoolTokens(t *testing.T) {
	for _, conv := range []token.Convention{token.ConventionVoid, token.ConventionBool} {
		t.Run(string(conv), func(t *testing.T) {
			h := newHarness(t)
			book := h.addToken("T"+string(conv[:1]), conv, alice, 40)

			nonce, err := h.ledger.DepositToken(h.ctx, alice, book.ID(), 40, "s")
			if err != nil {
				t.Fatalf("DepositToken() error: %v", err)
			}
			if got, _ := book.BalanceOf(h.ctx, h.custody); got != 40 {
				t.Errorf("custody tokens = %d, want 40", got)
			}

			_, err = h.ledger.DepositToken(h.ctx, alice, book.ID(), 1, "s")
			wantErr(t, "overdraft DepositToken()", err, ErrInsufficientBalance)

			sig := h.signRelease(h.registry, nonce, 0)
			if _, err := h.ledger.ReleaseToken(h.ctx, alice, book.ID(), nonce, 0, sig); err != nil {
				t.Fatalf("ReleaseToken() error: %v", err)
			}
			if got, _ := book.BalanceOf(h.ctx, alice); got != 40 {
				t.Errorf("alice tokens = %d, want 40", got)
			}
		})
	}
}

func TestExec_RollsBackOnError(t *testing.T) {
	h := newHarness(t)
	h.fund(alice, 10)

	errStop := errors.New("stop")
	err := h.ledger.Exec(h.ctx, "transfer", func(ctx context.Context) error {
		if err := h.bank.Transfer(ctx, alice, bob, 4); err != nil {
			return err
		}
		return errStop
	})
	wantErr(t, "Exec()", err, errStop)
	if got := h.native(bob); got != 0 {
		t.Errorf("bob native = %d after rollback, want 0", got)
	}

	err = h.ledger.Exec(h.ctx, "transfer", func(ctx context.Context) error {
		return h.bank.Transfer(ctx, alice, bob, 4)
	})
	if err != nil {
		t.Fatalf("Exec() error: %v", err)
	}
	if got := h.native(bob); got != 4 {
		t.Errorf("bob native = %d, want 4", got)
	}
}

func TestExec_UnsolicitedTransferRejected(t *testing.T) {
	h := newHarness(t)
	h.fund(alice, 10)
	err := h.ledger.Exec(h.ctx, "transfer", func(ctx context.Context) error {
		return h.bank.Transfer(ctx, alice, h.custody, 5)
	})
	wantErr(t, "Transfer() to custody", err, custody.ErrUnsolicitedTransfer)
	if got := h.native(h.custody); got != 0 {
		t.Errorf("custody native = %d, want 0", got)
	}
}
