package main

import (
	"flag"
	"fmt"
)

// ── bank ────────────────────────────────────────────────────────────────

func (c *cli) cmdBank(args []string) {
	const usageLine = "Usage: stakeledger-cli bank <balance|transfer> [flags]"
	if len(args) < 1 {
		fatal(usageLine)
	}
	switch args[0] {
	case "balance":
		if len(args) < 2 {
			fatal("Usage: stakeledger-cli bank balance <address>")
		}
		addr := mustAddress("address", args[1])
		bal, err := c.client.Balance(addr)
		if err != nil {
			fatal("bank_getBalance: %v", err)
		}
		fmt.Printf("Address:  %s\n", addr)
		fmt.Printf("Balance:  %s\n", formatAmount(bal))
	case "transfer":
		fs := flag.NewFlagSet("bank transfer", flag.ExitOnError)
		from := fs.String("from", "", "Sender")
		to := fs.String("to", "", "Recipient")
		amount := fs.String("amount", "", "Amount in coins")
		fs.Parse(args[1:])
		if *from == "" || *to == "" || *amount == "" {
			fatal("Usage: stakeledger-cli bank transfer --from <addr> --to <addr> --amount <amt>")
		}
		value, err := parseAmount(*amount)
		if err != nil {
			fatal("invalid amount: %v", err)
		}
		if err := c.client.Transfer(mustAddress("from", *from), mustAddress("to", *to), value); err != nil {
			fatal("bank_transfer: %v", err)
		}
		fmt.Printf("Transferred %s\n", formatAmount(value))
	default:
		fatal("Unknown bank command: %s\n%s", args[0], usageLine)
	}
}

// ── token ───────────────────────────────────────────────────────────────

func (c *cli) cmdToken(args []string) {
	const usageLine = "Usage: stakeledger-cli token <list|info|balance|approve> [flags]"
	if len(args) < 1 {
		fatal(usageLine)
	}
	switch args[0] {
	case "list":
		tokens, err := c.client.Tokens()
		if err != nil {
			fatal("token_list: %v", err)
		}
		if len(tokens) == 0 {
			fmt.Println("No tokens found.")
			return
		}
		fmt.Printf("Tokens: %d\n\n", len(tokens))
		for i, t := range tokens {
			fmt.Printf("  [%d] %s (%s)\n", i, t.Name, t.Symbol)
			fmt.Printf("      ID:         %s\n", t.TokenID)
			fmt.Printf("      Decimals:   %d\n", t.Decimals)
			fmt.Printf("      Convention: %s\n", t.Convention)
			fmt.Printf("      Supply:     %d\n", t.TotalSupply)
			fmt.Println()
		}
	case "info":
		if len(args) < 2 {
			fatal("Usage: stakeledger-cli token info <token_id>")
		}
		t, err := c.client.TokenInfo(mustTokenID(args[1]))
		if err != nil {
			fatal("token_getInfo: %v", err)
		}
		fmt.Printf("Token ID:    %s\n", t.TokenID)
		fmt.Printf("Name:        %s\n", t.Name)
		fmt.Printf("Symbol:      %s\n", t.Symbol)
		fmt.Printf("Decimals:    %d\n", t.Decimals)
		fmt.Printf("Creator:     %s\n", t.Creator)
		fmt.Printf("Convention:  %s\n", t.Convention)
		fmt.Printf("Supply:      %d\n", t.TotalSupply)
	case "balance":
		if len(args) < 3 {
			fatal("Usage: stakeledger-cli token balance <token_id> <address>")
		}
		res, err := c.client.TokenBalance(mustTokenID(args[1]), mustAddress("address", args[2]))
		if err != nil {
			fatal("token_getBalance: %v", err)
		}
		fmt.Printf("Address:    %s\n", res.Address)
		fmt.Printf("Balance:    %d\n", res.Balance)
		fmt.Printf("Allowance:  %d\n", res.Allowance)
	case "approve":
		fs := flag.NewFlagSet("token approve", flag.ExitOnError)
		tokenID := fs.String("token", "", "Token ID")
		owner := fs.String("owner", "", "Token owner")
		amount := fs.Uint64("amount", 0, "Allowance in token base units")
		fs.Parse(args[1:])
		if *tokenID == "" || *owner == "" {
			fatal("Usage: stakeledger-cli token approve --token <id> --owner <addr> --amount <units>")
		}
		if err := c.client.Approve(mustTokenID(*tokenID), mustAddress("owner", *owner), *amount); err != nil {
			fatal("token_approve: %v", err)
		}
		fmt.Printf("Approved %d units for the ledger custody account\n", *amount)
	default:
		fatal("Unknown token command: %s\n%s", args[0], usageLine)
	}
}
