package rpcclient

import (
	"encoding/hex"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/rpc"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// Info calls ledger_getInfo.
func (c *Client) Info() (*rpc.LedgerInfoResult, error) {
	var res rpc.LedgerInfoResult
	if err := c.Call("ledger_getInfo", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stake calls ledger_getStake.
func (c *Client) Stake(nonce uint64) (*ledger.Stake, error) {
	var st ledger.Stake
	if err := c.Call("ledger_getStake", rpc.NonceParam{Nonce: nonce}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StakesByOwner calls ledger_getStakesByOwner.
func (c *Client) StakesByOwner(owner types.Address) ([]ledger.Stake, error) {
	var stakes []ledger.Stake
	if err := c.Call("ledger_getStakesByOwner", rpc.AddressParam{Address: owner.String()}, &stakes); err != nil {
		return nil, err
	}
	return stakes, nil
}

// Events calls ledger_getEvents.
func (c *Client) Events(params rpc.EventsParam) ([]ledger.Event, error) {
	var events []ledger.Event
	if err := c.Call("ledger_getEvents", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Snapshot calls ledger_getSnapshot.
func (c *Client) Snapshot() (*ledger.Snapshot, error) {
	var snap ledger.Snapshot
	if err := c.Call("ledger_getSnapshot", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DepositNative calls ledger_depositNative and returns the new nonce.
func (c *Client) DepositNative(caller types.Address, synthesizerID string, value uint64) (uint64, error) {
	var res rpc.NonceResult
	err := c.Call("ledger_depositNative", rpc.DepositNativeParam{
		Caller: caller.String(), SynthesizerID: synthesizerID, Value: value,
	}, &res)
	return res.Nonce, err
}

// DepositToken calls ledger_depositToken and returns the new nonce.
func (c *Client) DepositToken(caller types.Address, id types.TokenID, amount uint64, synthesizerID string) (uint64, error) {
	var res rpc.NonceResult
	err := c.Call("ledger_depositToken", rpc.DepositTokenParam{
		Caller: caller.String(), TokenID: id.String(), Amount: amount, SynthesizerID: synthesizerID,
	}, &res)
	return res.Nonce, err
}

// Release calls ledger_release. A nil asset releases whatever the stake holds.
func (c *Client) Release(caller types.Address, nonce, slash uint64, sig []byte, asset *types.Asset) (*ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := c.Call("ledger_release", rpc.ReleaseParam{
		Caller:    caller.String(),
		Nonce:     nonce,
		Slash:     slash,
		Signature: hex.EncodeToString(sig),
		Asset:     asset,
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Pause calls gov_pause.
func (c *Client) Pause(proof []byte) error {
	return c.Call("gov_pause", rpc.ProofParam{Proof: hex.EncodeToString(proof)}, nil)
}

// Unpause calls gov_unpause.
func (c *Client) Unpause(proof []byte) error {
	return c.Call("gov_unpause", rpc.ProofParam{Proof: hex.EncodeToString(proof)}, nil)
}

// RotateRegistryKey calls gov_rotateRegistryKey.
func (c *Client) RotateRegistryKey(newKey, proof []byte) error {
	return c.Call("gov_rotateRegistryKey", rpc.RotateKeyParam{
		NewKey: hex.EncodeToString(newKey),
		Proof:  hex.EncodeToString(proof),
	}, nil)
}

// ForceRecover calls gov_forceRecover. An empty kind skips the asset kind check.
func (c *Client) ForceRecover(nonce uint64, kind string, proof []byte) (*ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := c.Call("gov_forceRecover", rpc.RecoverParam{
		Nonce: nonce, Kind: kind, Proof: hex.EncodeToString(proof),
	}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Balance calls bank_getBalance.
func (c *Client) Balance(addr types.Address) (uint64, error) {
	var res rpc.BalanceResult
	err := c.Call("bank_getBalance", rpc.AddressParam{Address: addr.String()}, &res)
	return res.Balance, err
}

// Transfer calls bank_transfer.
func (c *Client) Transfer(from, to types.Address, amount uint64) error {
	return c.Call("bank_transfer", rpc.TransferParam{From: from.String(), To: to.String(), Amount: amount}, nil)
}

// Tokens calls token_list.
func (c *Client) Tokens() ([]rpc.TokenInfoResult, error) {
	var res rpc.TokenListResult
	if err := c.Call("token_list", nil, &res); err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

// TokenInfo calls token_getInfo.
func (c *Client) TokenInfo(id types.TokenID) (*rpc.TokenInfoResult, error) {
	var res rpc.TokenInfoResult
	if err := c.Call("token_getInfo", rpc.TokenIDParam{TokenID: id.String()}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// TokenBalance calls token_getBalance.
func (c *Client) TokenBalance(id types.TokenID, addr types.Address) (*rpc.TokenBalanceResult, error) {
	var res rpc.TokenBalanceResult
	if err := c.Call("token_getBalance", rpc.TokenBalanceParam{TokenID: id.String(), Address: addr.String()}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Approve calls token_approve.
func (c *Client) Approve(id types.TokenID, owner types.Address, amount uint64) error {
	return c.Call("token_approve", rpc.ApproveParam{TokenID: id.String(), Owner: owner.String(), Amount: amount}, nil)
}
