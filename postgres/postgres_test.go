package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/walletflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFlowRejectsBeforeQuerying(t *testing.T) {
	// A nil pool panics on use, so these only pass if validation runs first.
	s := New(nil)

	_, err := s.SaveFlow(context.Background(), &walletflow.Flow{
		Nodes: []walletflow.Node{{ID: "a"}, {ID: "b"}},
		Edges: []walletflow.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
	})
	assert.ErrorIs(t, err, walletflow.ErrCycleDetected)

	_, err = s.SaveFlow(context.Background(), &walletflow.Flow{
		Nodes: []walletflow.Node{{ID: "a"}},
		Edges: []walletflow.Edge{{Source: "a", Target: "z"}},
	})
	assert.ErrorIs(t, err, walletflow.ErrDanglingEdge)
}

func openStore(t *testing.T) *PGStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("Integration test requires PostgreSQL database (set DATABASE_URL)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	return s
}

func TestPGStoreFlowRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	f := &walletflow.Flow{
		ID:      "pg-flow",
		Version: "1.0.0",
		Network: walletflow.Devnet,
		Nodes: []walletflow.Node{
			{ID: "z", Type: walletflow.NodeWallet, Position: &walletflow.Position{X: 1, Y: 2}, Data: map[string]any{"label": "W"}},
			{ID: "a", Type: walletflow.NodeTransaction, Data: map[string]any{"amount": 1.5}},
		},
		Edges: []walletflow.Edge{{Source: "z", Target: "a"}},
	}
	_, err := s.SaveFlow(ctx, f)
	require.NoError(t, err)

	got, err := s.GetFlow(ctx, "pg-flow")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "z", got.Nodes[0].ID, "nodes keep their saved order")
	assert.Equal(t, &walletflow.Position{X: 1, Y: 2}, got.Nodes[0].Position)
	assert.Nil(t, got.Nodes[1].Position)
	assert.Equal(t, 1.5, got.Nodes[1].Data["amount"])
	assert.Equal(t, "z-a", got.Edges[0].ID)

	_, err = s.AddEdge(ctx, "pg-flow", &walletflow.Edge{Source: "a", Target: "z"})
	assert.ErrorIs(t, err, walletflow.ErrCycleDetected)

	id, err := s.AddNode(ctx, "pg-flow", &walletflow.Node{Type: walletflow.NodeToken})
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, "pg-flow", &walletflow.Edge{Source: "a", Target: id})
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(ctx, "pg-flow", "a"))
	edges, err := s.ListEdges(ctx, "pg-flow")
	require.NoError(t, err)
	assert.Empty(t, edges)

	err = s.UpdateNode(ctx, "pg-flow", &walletflow.Node{ID: "missing"})
	assert.ErrorIs(t, err, walletflow.ErrNodeNotFound)
}

func TestPGStoreProgramsAndWallets(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.SaveFlow(ctx, &walletflow.Flow{ID: "f", Nodes: []walletflow.Node{}})
	require.NoError(t, err)

	p := &walletflow.CompiledProgram{ID: "prog_1", FlowID: "f", Bytecode: "INIT_WALLET\nLOAD_KEYPAIR"}
	require.NoError(t, s.SaveProgram(ctx, p))
	require.NoError(t, s.SaveProgram(ctx, &walletflow.CompiledProgram{ID: "prog_adhoc"}))

	list, err := s.ListPrograms(ctx, "f")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.Bytecode, list[0].Bytecode)

	require.NoError(t, s.DeleteFlow(ctx, "f"))
	got, err := s.GetProgram(ctx, "prog_1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveWallet(ctx, "ns", &walletflow.Wallet{PublicKey: "K", Balance: 2}))
	wallets, err := s.ListWallets(ctx, "ns")
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, 2.0, wallets[0].Balance)

	require.NoError(t, s.DeleteWallet(ctx, "ns", "K"))
	wallets, err = s.ListWallets(ctx, "ns")
	require.NoError(t, err)
	assert.Empty(t, wallets)
}
