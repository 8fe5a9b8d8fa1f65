package custody

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

var prefixAllowance = []byte("a/") // a/<owner(20)><spender(20)> -> uint64 BE

// BookToken is a storage-backed token whose transfer calls follow one of
// the token.Convention return styles.
type BookToken struct {
	id         types.TokenID
	root       storage.DB
	convention token.Convention
}

// NewBookToken creates the book for id over root.
func NewBookToken(root storage.DB, id types.TokenID, convention token.Convention) *BookToken {
	if convention == "" {
		convention = token.ConventionStrict
	}
	return &BookToken{id: id, root: root, convention: convention}
}

// ID returns the token ID.
func (t *BookToken) ID() types.TokenID { return t.id }

// Convention returns the token's return-value convention.
func (t *BookToken) Convention() token.Convention { return t.convention }

func (t *BookToken) db(ctx context.Context) storage.DB {
	ns := make([]byte, 0, 2+types.HashSize+1)
	ns = append(ns, 'T', '/')
	ns = append(ns, t.id[:]...)
	ns = append(ns, '/')
	return storage.NewPrefixDB(storage.Scope(ctx, t.root), ns)
}

// BalanceOf returns the token balance of owner.
func (t *BookToken) BalanceOf(ctx context.Context, owner types.Address) (uint64, error) {
	return readBalance(t.db(ctx), owner)
}

// Allowance returns how much spender may pull from owner.
func (t *BookToken) Allowance(ctx context.Context, owner, spender types.Address) (uint64, error) {
	data, err := t.db(ctx).Get(allowanceKey(owner, spender))
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeAmount(data)
}

// Approve sets spender's allowance over owner's balance.
func (t *BookToken) Approve(ctx context.Context, owner, spender types.Address, amount uint64) error {
	db := t.db(ctx)
	if amount == 0 {
		return db.Delete(allowanceKey(owner, spender))
	}
	return db.Put(allowanceKey(owner, spender), encodeAmount(amount))
}

// Mint credits amount to to and grows the supply.
func (t *BookToken) Mint(ctx context.Context, to types.Address, amount uint64) error {
	db := t.db(ctx)
	supply, err := t.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if supply, err = addAmount(supply, amount); err != nil {
		return err
	}
	if err := credit(db, to, amount); err != nil {
		return err
	}
	return db.Put(keySupply, encodeAmount(supply))
}

// TotalSupply returns the minted supply.
func (t *BookToken) TotalSupply(ctx context.Context) (uint64, error) {
	data, err := t.db(ctx).Get(keySupply)
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeAmount(data)
}

// Transfer implements Token.
func (t *BookToken) Transfer(ctx context.Context, from, to types.Address, amount uint64) (Return, error) {
	db := t.db(ctx)
	if bal, err := readBalance(db, from); err != nil {
		return ReturnVoid, err
	} else if bal < amount {
		return t.fail(fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, bal, amount))
	}
	if err := t.move(db, from, to, amount); err != nil {
		return ReturnVoid, err
	}
	return t.ok(), nil
}

// TransferFrom implements Token.
func (t *BookToken) TransferFrom(ctx context.Context, spender, from, to types.Address, amount uint64) (Return, error) {
	db := t.db(ctx)
	allowance, err := t.Allowance(ctx, from, spender)
	if err != nil {
		return ReturnVoid, err
	}
	if allowance < amount {
		return t.fail(fmt.Errorf("%w: %s allows %s %d, needs %d", ErrAllowanceNotGranted, from, spender, allowance, amount))
	}
	bal, err := readBalance(db, from)
	if err != nil {
		return ReturnVoid, err
	}
	if bal < amount {
		return t.fail(fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, bal, amount))
	}
	if err := t.move(db, from, to, amount); err != nil {
		return ReturnVoid, err
	}
	if err := t.Approve(ctx, from, spender, allowance-amount); err != nil {
		return ReturnVoid, err
	}
	return t.ok(), nil
}

func (t *BookToken) move(db storage.DB, from, to types.Address, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if err := debit(db, from, amount); err != nil {
		return err
	}
	return credit(db, to, amount)
}

func (t *BookToken) ok() Return {
	if t.convention == token.ConventionVoid {
		return ReturnVoid
	}
	return ReturnTrue
}

// fail reports err the way the convention does: bool tokens swallow it
// and return false, the others fail the call.
func (t *BookToken) fail(err error) (Return, error) {
	if t.convention == token.ConventionBool {
		return ReturnFalse, nil
	}
	return ReturnVoid, err
}

func allowanceKey(owner, spender types.Address) []byte {
	key := make([]byte, 0, len(prefixAllowance)+2*types.AddressSize)
	key = append(key, prefixAllowance...)
	key = append(key, owner[:]...)
	key = append(key, spender[:]...)
	return key
}
