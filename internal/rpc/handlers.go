package rpc

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/ledger"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// ── Ledger queries ──────────────────────────────────────────────────────

func (s *Server) handleLedgerGetInfo(ctx context.Context, req *Request) (interface{}, *Error) {
	meta, err := s.ledger.Info(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	id := ""
	if s.genesis != nil {
		id = s.genesis.LedgerID
	}
	return newLedgerInfoResult(id, meta), nil
}

func (s *Server) handleLedgerGetStake(ctx context.Context, req *Request) (interface{}, *Error) {
	var params NonceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	st, err := s.ledger.Stake(ctx, params.Nonce)
	if err != nil {
		return nil, ledgerError(err)
	}
	return st, nil
}

func (s *Server) handleLedgerGetStakesByOwner(ctx context.Context, req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	stakes, err := s.ledger.StakesByOwner(ctx, owner)
	if err != nil {
		return nil, ledgerError(err)
	}
	return stakes, nil
}

func (s *Server) handleLedgerGetEvents(ctx context.Context, req *Request) (interface{}, *Error) {
	var params EventsParam
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	filter := ledger.EventFilter{
		Kind:    ledger.EventKind(params.Kind),
		Nonce:   params.Nonce,
		FromSeq: params.FromSeq,
		Limit:   params.Limit,
	}
	if params.Owner != "" {
		owner, rpcErr := parseAddress("owner", params.Owner)
		if rpcErr != nil {
			return nil, rpcErr
		}
		filter.Owner = &owner
	}
	events, err := s.ledger.Events(ctx, filter)
	if err != nil {
		return nil, ledgerError(err)
	}
	return events, nil
}

func (s *Server) handleLedgerGetSnapshot(ctx context.Context, req *Request) (interface{}, *Error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	return snap, nil
}

// ── Ledger operations ───────────────────────────────────────────────────

func (s *Server) handleLedgerDepositNative(ctx context.Context, req *Request) (interface{}, *Error) {
	var params DepositNativeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.ledger.DepositNative(ctx, caller, params.SynthesizerID, params.Value)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &NonceResult{Nonce: nonce}, nil
}

func (s *Server) handleLedgerDepositToken(ctx context.Context, req *Request) (interface{}, *Error) {
	var params DepositTokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseTokenID(params.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.ledger.DepositToken(ctx, caller, id, params.Amount, params.SynthesizerID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &NonceResult{Nonce: nonce}, nil
}

func (s *Server) handleLedgerRelease(ctx context.Context, req *Request) (interface{}, *Error) {
	var params ReleaseParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sig, rpcErr := parseHex("signature", params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	receipt, err := s.ledger.Release(ctx, ledger.ReleaseRequest{
		Caller:    caller,
		Nonce:     params.Nonce,
		Slash:     params.Slash,
		Signature: sig,
		Asset:     params.Asset,
	})
	if err != nil {
		return nil, ledgerError(err)
	}
	return receipt, nil
}

// ── Governance ──────────────────────────────────────────────────────────

func (s *Server) handleGovPause(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.setPaused(ctx, req, s.ledger.Pause)
}

func (s *Server) handleGovUnpause(ctx context.Context, req *Request) (interface{}, *Error) {
	return s.setPaused(ctx, req, s.ledger.Unpause)
}

func (s *Server) setPaused(ctx context.Context, req *Request, op func(context.Context, []byte) error) (interface{}, *Error) {
	var params ProofParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	proof, rpcErr := parseHex("proof", params.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := op(ctx, proof); err != nil {
		return nil, ledgerError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleGovRotateRegistryKey(ctx context.Context, req *Request) (interface{}, *Error) {
	var params RotateKeyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	newKey, rpcErr := parseHex("new_key", params.NewKey)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, rpcErr := parseHex("proof", params.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.ledger.RotateRegistryKey(ctx, newKey, proof); err != nil {
		return nil, ledgerError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleGovForceRecover(ctx context.Context, req *Request) (interface{}, *Error) {
	var params RecoverParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	proof, rpcErr := parseHex("proof", params.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	rr := ledger.RecoverRequest{Nonce: params.Nonce, Proof: proof}
	if params.Kind != "" {
		kind, err := types.ParseAssetKind(params.Kind)
		if err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
		}
		rr.Kind = &kind
	}
	receipt, err := s.ledger.ForceRecover(ctx, rr)
	if err != nil {
		return nil, ledgerError(err)
	}
	return receipt, nil
}

// ── Param parsing ───────────────────────────────────────────────────────

func parseAddress(field, s string) (types.Address, *Error) {
	if s == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: field + " is required"}
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return addr, nil
}

func parseTokenID(s string) (types.TokenID, *Error) {
	if s == "" {
		return types.TokenID{}, &Error{Code: CodeInvalidParams, Message: "token_id is required"}
	}
	id, err := types.HexToTokenID(s)
	if err != nil {
		return types.TokenID{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid token_id: %v", err)}
	}
	return id, nil
}

func parseHex(field, s string) ([]byte, *Error) {
	if s == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: field + " is required"}
	}
	b, err := types.ParseHexBytes(s)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return b, nil
}
