package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/compiler"
	"github.com/meikuraledutech/walletflow/contract"
	"github.com/meikuraledutech/walletflow/memory"
	"github.com/meikuraledutech/walletflow/postgres"
	"github.com/meikuraledutech/walletflow/simulate"
)

func main() {
	ctx := context.Background()

	// Postgres when DATABASE_URL is set, memory otherwise.
	var store walletflow.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Bulk save ─────────────────────────────────────────────────────
	flow := &walletflow.Flow{
		ID:      "payout-flow",
		Version: "1.0.0",
		Network: walletflow.Devnet,
		Nodes: []walletflow.Node{
			{ID: "wallet", Type: walletflow.NodeWallet, Data: compiler.DefaultData(walletflow.NodeWallet, walletflow.Devnet)},
			{ID: "check", Type: walletflow.NodeConditional, Data: map[string]any{"label": "Has funds", "condition": "balance > 1"}},
			{ID: "pay", Type: walletflow.NodeTransaction, Data: map[string]any{"label": "Pay", "amount": 0.5, "type": "transfer"}},
		},
		Edges: []walletflow.Edge{
			{Source: "wallet", Target: "check"},
			{Source: "check", Target: "pay"},
		},
	}

	saved, err := store.SaveFlow(ctx, flow)
	if err != nil {
		log.Fatalf("save flow: %v", err)
	}
	fmt.Println("flow saved")
	printJSON(saved)

	// ── Granular: add a token node after the payment ──────────────────
	tokenID, err := store.AddNode(ctx, "payout-flow", &walletflow.Node{
		Type: walletflow.NodeToken,
		Data: compiler.DefaultData(walletflow.NodeToken, walletflow.Devnet),
	})
	if err != nil {
		log.Fatalf("add node: %v", err)
	}
	edgeID, err := store.AddEdge(ctx, "payout-flow", &walletflow.Edge{Source: "pay", Target: tokenID})
	if err != nil {
		log.Fatalf("add edge: %v", err)
	}
	fmt.Printf("\nadded node %s and edge %s\n", tokenID, edgeID)

	// A back edge is refused.
	if _, err := store.AddEdge(ctx, "payout-flow", &walletflow.Edge{Source: tokenID, Target: "wallet"}); err != nil {
		fmt.Printf("back edge rejected: %v\n", err)
	}

	// ── Compile ───────────────────────────────────────────────────────
	current, err := store.GetFlow(ctx, "payout-flow")
	if err != nil {
		log.Fatalf("get flow: %v", err)
	}
	program, err := compiler.CompileFlow(current)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}
	if err := store.SaveProgram(ctx, program); err != nil {
		log.Fatalf("save program: %v", err)
	}
	fmt.Printf("\ncompiled %s (%d gas, %s)\n", program.ID, program.EstimatedGas, program.Metadata.Complexity)
	fmt.Println(program.Bytecode)

	// ── Simulate ──────────────────────────────────────────────────────
	result, err := simulate.New().Run(ctx, program, func(s simulate.Step) {
		fmt.Printf("  %-22s %s\n", s.Name, s.Details)
	})
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}
	fmt.Printf("simulation: success=%v gas=%d fee=%.4f SOL\n", result.Success, result.TotalGasUsed, result.NetworkFee)

	// ── Contract ──────────────────────────────────────────────────────
	c := contract.FromFlow(current, "", time.Now())
	raw, _ := json.Marshal(c)
	fmt.Println("\ncontract:")
	printJSON(c)
	printJSON(contract.Validate(raw))

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteFlow(ctx, "payout-flow"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
