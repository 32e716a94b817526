package compiler

import (
	"context"
	"testing"

	"github.com/meikuraledutech/walletflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAll(t *testing.T) {
	flows := []*walletflow.Flow{walletTxFlow(), {}, mixedFlow()}

	results, err := fixedCompiler().CompileAll(context.Background(), flows, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Program)
	assert.Equal(t, 6000, results[0].Program.EstimatedGas)
	assert.Empty(t, results[0].Errors)

	assert.Nil(t, results[1].Program)
	assert.Equal(t, []string{MsgInvalidStructure}, results[1].Errors)

	require.NotNil(t, results[2].Program)
	assert.Len(t, results[2].Program.Instructions, 6)
}

func TestCompileAllUnbounded(t *testing.T) {
	var flows []*walletflow.Flow
	for i := 0; i < 20; i++ {
		flows = append(flows, walletTxFlow())
	}

	results, err := New(WithCache(NewCache(2))).CompileAll(context.Background(), flows, 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "INIT_WALLET\nLOAD_KEYPAIR\nCREATE_TX\nSET_RECIPIENT\nSET_AMOUNT\nSIGN_TX", r.Program.Bytecode)
	}
}

func TestCompileAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New().CompileAll(ctx, []*walletflow.Flow{walletTxFlow()}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}
