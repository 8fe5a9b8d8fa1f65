package ledger

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/auth"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/custody"
	klog "github.com/Klingon-tech/klingnet-stakeledger/internal/log"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

var (
	alice = types.Address{0xa1}
	bob   = types.Address{0xb0}
	sink  = types.Address{0x5e}
)

type harness struct {
	t        *testing.T
	ctx      context.Context
	root     storage.DB
	bank     *custody.NativeBank
	tokens   *custody.Registry
	ledger   *Ledger
	registry *crypto.PrivateKey
	gov      *crypto.PrivateKey
	custody  types.Address
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, storage.NewMemory())
}

func newHarnessOn(t *testing.T, root storage.DB) *harness {
	t.Helper()
	klog.SetOutput(io.Discard, "off")

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		root:     root,
		registry: mustKey(t),
		gov:      mustKey(t),
		custody:  crypto.DeriveAddress("custody"),
	}
	h.open()
	err := h.ledger.Initialize(h.ctx, Params{
		GovernanceKey: h.gov.PublicKey(),
		RegistryKey:   h.registry.PublicKey(),
		SlashSink:     sink,
		Custody:       h.custody,
	})
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return h
}

func (h *harness) open() {
	h.t.Helper()
	h.bank = custody.NewNativeBank(h.root, h.custody)
	h.tokens = custody.NewRegistry(h.root)
	l, err := New(Config{DB: h.root, Port: custody.NewVault(h.bank, h.tokens)})
	if err != nil {
		h.t.Fatalf("New() error: %v", err)
	}
	h.ledger = l
}

func mustKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return key
}

func (h *harness) fund(addr types.Address, amount uint64) {
	h.t.Helper()
	if err := h.bank.Credit(h.ctx, addr, amount); err != nil {
		h.t.Fatalf("Credit() error: %v", err)
	}
}

func (h *harness) native(addr types.Address) uint64 {
	h.t.Helper()
	v, err := h.bank.Balance(h.ctx, addr)
	if err != nil {
		h.t.Fatalf("Balance() error: %v", err)
	}
	return v
}

// addToken registers a token, mints amount to owner and approves custody.
func (h *harness) addToken(symbol string, conv token.Convention, owner types.Address, amount uint64) *custody.BookToken {
	h.t.Helper()
	id := token.DeriveTokenID(owner, symbol)
	meta := &token.Metadata{Name: symbol, Symbol: symbol, Decimals: 6, Creator: owner, Convention: conv}
	if err := h.tokens.Register(h.ctx, id, meta); err != nil {
		h.t.Fatalf("Register() error: %v", err)
	}
	book, err := h.tokens.Book(h.ctx, id)
	if err != nil {
		h.t.Fatalf("Book() error: %v", err)
	}
	if err := book.Mint(h.ctx, owner, amount); err != nil {
		h.t.Fatalf("Mint() error: %v", err)
	}
	if err := book.Approve(h.ctx, owner, h.custody, amount); err != nil {
		h.t.Fatalf("Approve() error: %v", err)
	}
	return book
}

func (h *harness) depositNative(owner types.Address, amount uint64) uint64 {
	h.t.Helper()
	nonce, err := h.ledger.DepositNative(h.ctx, owner, "synth", amount)
	if err != nil {
		h.t.Fatalf("DepositNative() error: %v", err)
	}
	return nonce
}

func (h *harness) signRelease(key *crypto.PrivateKey, nonce, slash uint64) []byte {
	h.t.Helper()
	st, err := h.ledger.Stake(h.ctx, nonce)
	if err != nil {
		h.t.Fatalf("Stake(%d) error: %v", nonce, err)
	}
	sig, err := auth.SignRelease(key, auth.ReleaseMessage{
		Owner: st.Owner, Asset: st.Asset, Amount: st.Amount, Nonce: nonce, Slash: slash,
	})
	if err != nil {
		h.t.Fatalf("SignRelease() error: %v", err)
	}
	return sig
}

// proof signs the message build returns for the current governance sequence.
func (h *harness) proof(build func(seq uint64) auth.GovernanceMessage) []byte {
	h.t.Helper()
	info := h.info()
	sig, err := auth.SignGovernance(h.gov, build(info.GovernanceSeq))
	if err != nil {
		h.t.Fatalf("SignGovernance() error: %v", err)
	}
	return sig
}

func (h *harness) recoveryProof(nonce uint64) []byte {
	h.t.Helper()
	st, err := h.ledger.Stake(h.ctx, nonce)
	if err != nil {
		h.t.Fatalf("Stake(%d) error: %v", nonce, err)
	}
	return h.proof(func(seq uint64) auth.GovernanceMessage {
		return auth.RecoveryMessage(seq, st.Asset.Kind, nonce)
	})
}

func (h *harness) info() *Meta {
	h.t.Helper()
	m, err := h.ledger.Info(h.ctx)
	if err != nil {
		h.t.Fatalf("Info() error: %v", err)
	}
	return m
}

func (h *harness) events(kind EventKind) []Event {
	h.t.Helper()
	evs, err := h.ledger.Events(h.ctx, EventFilter{Kind: kind})
	if err != nil {
		h.t.Fatalf("Events() error: %v", err)
	}
	return evs
}

func wantErr(t *testing.T, op string, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("%s error = %v, want %v", op, err, want)
	}
}
