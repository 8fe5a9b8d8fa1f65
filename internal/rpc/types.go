package rpc

import (
	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Ledger error codes. Each ledger sentinel has its own code so clients can
// tell rejections apart without parsing messages.
const (
	CodeInvalidAmount          = -32010
	CodeInsufficientBalance    = -32011
	CodeAllowanceNotGranted    = -32012
	CodeStakeNotFound          = -32013
	CodeUnauthorized           = -32014
	CodeInvalidGovernanceProof = -32015
	CodeExcessiveSlash         = -32016
	CodeTransferFailed         = -32017
	CodePaused                 = -32018
	CodeUnknownToken           = -32019
	CodeInvalidKey             = -32020
	CodeNotInitialized         = -32021
	CodeUnsolicitedTransfer    = -32022
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// NonceParam is used by ledger_getStake.
type NonceParam struct {
	Nonce uint64 `json:"nonce"`
}

// AddressParam is used by ledger_getStakesByOwner and bank_getBalance.
type AddressParam struct {
	Address string `json:"address"`
}

// EventsParam is used by ledger_getEvents. Every field is optional.
type EventsParam struct {
	Kind    string  `json:"kind,omitempty"`
	Owner   string  `json:"owner,omitempty"`
	Nonce   *uint64 `json:"nonce,omitempty"`
	FromSeq uint64  `json:"from_seq,omitempty"`
	Limit   int     `json:"limit,omitempty"`
}

// DepositNativeParam is used by ledger_depositNative.
type DepositNativeParam struct {
	Caller        string `json:"caller"`
	SynthesizerID string `json:"synthesizer_id"`
	Value         uint64 `json:"value"`
}

// DepositTokenParam is used by ledger_depositToken.
type DepositTokenParam struct {
	Caller        string `json:"caller"`
	TokenID       string `json:"token_id"`
	Amount        uint64 `json:"amount"`
	SynthesizerID string `json:"synthesizer_id"`
}

// ReleaseParam is used by ledger_release. Asset, when given, must match
// the stake's asset.
type ReleaseParam struct {
	Caller    string       `json:"caller"`
	Nonce     uint64       `json:"nonce"`
	Slash     uint64       `json:"slash"`
	Signature string       `json:"signature"`
	Asset     *types.Asset `json:"asset,omitempty"`
}

// ProofParam is used by gov_pause and gov_unpause.
type ProofParam struct {
	Proof string `json:"proof"`
}

// RotateKeyParam is used by gov_rotateRegistryKey.
type RotateKeyParam struct {
	NewKey string `json:"new_key"`
	Proof  string `json:"proof"`
}

// RecoverParam is used by gov_forceRecover.
type RecoverParam struct {
	Nonce uint64 `json:"nonce"`
	Kind  string `json:"kind,omitempty"`
	Proof string `json:"proof"`
}

// TransferParam is used by bank_transfer.
type TransferParam struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// TokenIDParam is used by token_getInfo.
type TokenIDParam struct {
	TokenID string `json:"token_id"`
}

// TokenBalanceParam is used by token_getBalance.
type TokenBalanceParam struct {
	TokenID string `json:"token_id"`
	Address string `json:"address"`
}

// ApproveParam is used by token_approve. The spender is always the
// ledger's custody account.
type ApproveParam struct {
	TokenID string `json:"token_id"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
}

// ── Result types ────────────────────────────────────────────────────────

// LedgerInfoResult is returned by ledger_getInfo.
type LedgerInfoResult struct {
	LedgerID      string         `json:"ledger_id"`
	Version       uint32         `json:"version"`
	NextNonce     uint64         `json:"next_nonce"`
	Height        uint64         `json:"height"`
	Paused        bool           `json:"paused"`
	RegistryKey   types.HexBytes `json:"registry_key"`
	GovernanceKey types.HexBytes `json:"governance_key"`
	GovernanceSeq uint64         `json:"governance_seq"`
	EventSeq      uint64         `json:"event_seq"`
	Custody       types.Address  `json:"custody"`
	SlashSink     types.Address  `json:"slash_sink"`
}

func newLedgerInfoResult(id string, m *ledger.Meta) *LedgerInfoResult {
	return &LedgerInfoResult{
		LedgerID:      id,
		Version:       m.Version,
		NextNonce:     m.NextNonce,
		Height:        m.Height,
		Paused:        m.Paused,
		RegistryKey:   m.RegistryKey,
		GovernanceKey: m.GovernanceKey,
		GovernanceSeq: m.GovernanceSeq,
		EventSeq:      m.EventSeq,
		Custody:       m.Custody,
		SlashSink:     m.SlashSink,
	}
}

// NonceResult is returned by the deposit methods.
type NonceResult struct {
	Nonce uint64 `json:"nonce"`
}

// OKResult acknowledges a state change with no other output.
type OKResult struct {
	OK bool `json:"ok"`
}

// BalanceResult is returned by bank_getBalance.
type BalanceResult struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// TokenInfoResult is returned by token_getInfo and token_list.
type TokenInfoResult struct {
	TokenID     types.TokenID `json:"token_id"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint8         `json:"decimals"`
	Creator     types.Address `json:"creator"`
	Convention  string        `json:"convention"`
	TotalSupply uint64        `json:"total_supply"`
}

// TokenListResult is returned by token_list.
type TokenListResult struct {
	Tokens []TokenInfoResult `json:"tokens"`
}

// TokenBalanceResult is returned by token_getBalance. Allowance is what
// the address has approved for the custody account.
type TokenBalanceResult struct {
	TokenID   types.TokenID `json:"token_id"`
	Address   types.Address `json:"address"`
	Balance   uint64        `json:"balance"`
	Allowance uint64        `json:"allowance"`
}
