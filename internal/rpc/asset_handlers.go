package rpc

import (
	"context"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

// ── Native bank ─────────────────────────────────────────────────────────

func (s *Server) handleBankGetBalance(ctx context.Context, req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal, err := s.vault.Bank().Balance(ctx, addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &BalanceResult{Address: addr, Balance: bal}, nil
}

// handleBankTransfer moves native value between two accounts. It runs as
// a ledger operation so it is ordered with deposits and releases.
func (s *Server) handleBankTransfer(ctx context.Context, req *Request) (interface{}, *Error) {
	var params TransferParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	from, rpcErr := parseAddress("from", params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress("to", params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if params.Amount == 0 {
		return nil, &Error{Code: CodeInvalidAmount, Message: "amount must be positive"}
	}
	err := s.ledger.Exec(ctx, "bank_transfer", func(ctx context.Context) error {
		return s.vault.Bank().Transfer(ctx, from, to, params.Amount)
	})
	if err != nil {
		return nil, ledgerError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── Tokens ──────────────────────────────────────────────────────────────

func (s *Server) handleTokenList(ctx context.Context, req *Request) (interface{}, *Error) {
	entries, err := s.vault.Tokens().List(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	out := &TokenListResult{Tokens: make([]TokenInfoResult, 0, len(entries))}
	for i := range entries {
		info, rpcErr := s.tokenInfo(ctx, entries[i].ID, &entries[i].Metadata)
		if rpcErr != nil {
			return nil, rpcErr
		}
		out.Tokens = append(out.Tokens, *info)
	}
	return out, nil
}

func (s *Server) handleTokenGetInfo(ctx context.Context, req *Request) (interface{}, *Error) {
	var params TokenIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	id, rpcErr := parseTokenID(params.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	meta, err := s.vault.Tokens().Metadata(ctx, id)
	if err != nil {
		return nil, ledgerError(err)
	}
	return s.tokenInfo(ctx, id, meta)
}

func (s *Server) tokenInfo(ctx context.Context, id types.TokenID, meta *token.Metadata) (*TokenInfoResult, *Error) {
	book, err := s.vault.Tokens().Book(ctx, id)
	if err != nil {
		return nil, ledgerError(err)
	}
	supply, err := book.TotalSupply(ctx)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &TokenInfoResult{
		TokenID:     id,
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		Decimals:    meta.Decimals,
		Creator:     meta.Creator,
		Convention:  string(meta.Convention),
		TotalSupply: supply,
	}, nil
}

func (s *Server) handleTokenGetBalance(ctx context.Context, req *Request) (interface{}, *Error) {
	var params TokenBalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	id, rpcErr := parseTokenID(params.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tok, err := s.vault.Tokens().Token(ctx, id)
	if err != nil {
		return nil, ledgerError(err)
	}
	bal, err := tok.BalanceOf(ctx, addr)
	if err != nil {
		return nil, ledgerError(err)
	}
	allowance, err := tok.Allowance(ctx, addr, s.vault.Custody())
	if err != nil {
		return nil, ledgerError(err)
	}
	return &TokenBalanceResult{TokenID: id, Address: addr, Balance: bal, Allowance: allowance}, nil
}

// handleTokenApprove sets the custody account's allowance over the owner's
// balance, the step that precedes a token deposit.
func (s *Server) handleTokenApprove(ctx context.Context, req *Request) (interface{}, *Error) {
	var params ApproveParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	id, rpcErr := parseTokenID(params.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	err := s.ledger.Exec(ctx, "token_approve", func(ctx context.Context) error {
		book, err := s.vault.Tokens().Book(ctx, id)
		if err != nil {
			return err
		}
		return book.Approve(ctx, owner, s.vault.Custody(), params.Amount)
	})
	if err != nil {
		return nil, ledgerError(err)
	}
	return &OKResult{OK: true}, nil
}
