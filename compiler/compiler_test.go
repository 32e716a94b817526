package compiler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meikuraledutech/walletflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func fixedCompiler(opts ...Option) *Compiler {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func(time.Time) string { return "prog_test" }),
	}
	return New(append(base, opts...)...)
}

func node(id string, t walletflow.NodeType, data map[string]any) walletflow.Node {
	if data == nil {
		data = map[string]any{}
	}
	return walletflow.Node{ID: id, Type: t, Data: data}
}

func walletTxFlow() *walletflow.Flow {
	return &walletflow.Flow{
		Version: "1.0.0",
		Network: walletflow.Devnet,
		Nodes: []walletflow.Node{
			node("1", walletflow.NodeWallet, nil),
			node("2", walletflow.NodeTransaction, map[string]any{"amount": 1.0, "recipient": "X"}),
		},
		Edges: []walletflow.Edge{{ID: "1-2", Source: "1", Target: "2"}},
	}
}

func TestCompileWalletAndTransaction(t *testing.T) {
	p, err := fixedCompiler().Compile(walletTxFlow())
	require.NoError(t, err)

	assert.Equal(t, "INIT_WALLET\nLOAD_KEYPAIR\nCREATE_TX\nSET_RECIPIENT\nSET_AMOUNT\nSIGN_TX", p.Bytecode)
	assert.Equal(t, 6000, p.EstimatedGas)
	assert.Equal(t, walletflow.ComplexityLow, p.Metadata.Complexity)
	assert.Equal(t, 2, p.Metadata.NodeCount)
	assert.Equal(t, 1, p.Metadata.EdgeCount)
	assert.Equal(t, "prog_test", p.ID)
	assert.Equal(t, "2025-03-14T09:26:53.589Z", p.CompiledAt)
	assert.Equal(t, walletflow.Devnet, p.Network)
	assert.Equal(t, "1.0.0", p.Version)

	require.Len(t, p.Instructions, 2)
	assert.Equal(t, walletflow.Instruction{
		Index:       1,
		Type:        walletflow.NodeTransaction,
		Operation:   "Create and Execute Transaction",
		GasEstimate: 5000,
		Data:        map[string]any{"amount": 1.0, "recipient": "X"},
	}, p.Instructions[1])
}

func TestCompileMissingNodes(t *testing.T) {
	for _, mode := range []Mode{ModeBasic, ModeStrict} {
		t.Run(mode.String(), func(t *testing.T) {
			p, err := fixedCompiler(WithMode(mode)).Compile(&walletflow.Flow{Version: "1.0.0", Network: walletflow.Devnet})
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidStructure))
			assert.True(t, strings.HasPrefix(err.Error(), MsgInvalidStructure))

			var se *StructuralError
			require.True(t, errors.As(err, &se))
			assert.NotEmpty(t, se.Errors)
		})
	}

	t.Run("nil flow", func(t *testing.T) {
		_, err := CompileFlow(nil)
		assert.ErrorIs(t, err, ErrInvalidStructure)
	})
}

func TestCompileEmptyNodesIsValid(t *testing.T) {
	p, err := fixedCompiler().Compile(&walletflow.Flow{Nodes: []walletflow.Node{}})
	require.NoError(t, err)
	assert.Equal(t, "", p.Bytecode)
	assert.Empty(t, p.Instructions)
	assert.Equal(t, 0, p.EstimatedGas)
}

func TestCompileHighComplexityBoundary(t *testing.T) {
	f := &walletflow.Flow{}
	for i := 0; i < 12; i++ {
		f.Nodes = append(f.Nodes, node(fmt.Sprint(i), walletflow.NodeWallet, nil))
	}
	for i := 0; i < 6; i++ {
		f.Edges = append(f.Edges, walletflow.Edge{Source: fmt.Sprint(i), Target: fmt.Sprint(i + 1)})
	}

	p, err := fixedCompiler().Compile(f)
	require.NoError(t, err)
	assert.Equal(t, walletflow.ComplexityHigh, p.Metadata.Complexity)
}

func TestCompileUnknownType(t *testing.T) {
	f := &walletflow.Flow{Nodes: []walletflow.Node{node("m", "mysteryNode", map[string]any{"x": 1.0})}}

	p, err := fixedCompiler().Compile(f)
	require.NoError(t, err)
	assert.Equal(t, "", p.Bytecode)
	require.Len(t, p.Instructions, 1)
	assert.Equal(t, UnknownOperation, p.Instructions[0].Operation)
	assert.Equal(t, DefaultGasCost, p.Instructions[0].GasEstimate)
	assert.Equal(t, 1000, p.EstimatedGas)
}

func TestCompileReorderedNodes(t *testing.T) {
	a := walletTxFlow()
	b := walletTxFlow()
	b.Nodes[0], b.Nodes[1] = b.Nodes[1], b.Nodes[0]

	pa, err := fixedCompiler().Compile(a)
	require.NoError(t, err)
	pb, err := fixedCompiler().Compile(b)
	require.NoError(t, err)

	assert.NotEqual(t, pa.Bytecode, pb.Bytecode)
	assert.Equal(t, pa.EstimatedGas, pb.EstimatedGas)
	assert.Equal(t, walletflow.NodeTransaction, pb.Instructions[0].Type)
	assert.Equal(t, 0, pb.Instructions[0].Index)
}

func TestCompileDeterministic(t *testing.T) {
	f := mixedFlow()
	c := New()

	first, err := c.Compile(f)
	require.NoError(t, err)
	second, err := c.Compile(f)
	require.NoError(t, err)

	assert.Equal(t, first.Bytecode, second.Bytecode)
	assert.Equal(t, first.Instructions, second.Instructions)
	assert.Equal(t, first.EstimatedGas, second.EstimatedGas)
}

func TestCompileIndexesFollowInputOrder(t *testing.T) {
	f := mixedFlow()
	_, instructions := CompileNodes(f.Nodes)
	require.Len(t, instructions, len(f.Nodes))
	for i, ins := range instructions {
		assert.Equal(t, i, ins.Index)
		assert.Equal(t, f.Nodes[i].Type, ins.Type)
	}
}

func TestCompileDataIsPassedThrough(t *testing.T) {
	data := map[string]any{"amount": 2.0}
	_, instructions := CompileNodes([]walletflow.Node{node("t", walletflow.NodeTransaction, data)})

	data["recipient"] = "later"
	assert.Equal(t, "later", instructions[0].Data["recipient"])
}

func TestCompileNetworkAndVersionDefaults(t *testing.T) {
	f := &walletflow.Flow{Nodes: []walletflow.Node{}}

	p, err := fixedCompiler(WithDefaultNetwork(walletflow.Testnet), WithDefaultVersion("2.0.0")).Compile(f)
	require.NoError(t, err)
	assert.Equal(t, walletflow.Testnet, p.Network)
	assert.Equal(t, "2.0.0", p.Version)

	f.Network = walletflow.Mainnet
	f.Version = "3.1.4"
	p, err = fixedCompiler().Compile(f)
	require.NoError(t, err)
	assert.Equal(t, walletflow.Mainnet, p.Network)
	assert.Equal(t, "3.1.4", p.Version)
}

func TestCompileStrictRejectsDanglingEdge(t *testing.T) {
	f := walletTxFlow()
	f.Edges = append(f.Edges, walletflow.Edge{Source: "1", Target: "ghost"})

	_, err := New().Compile(f)
	require.NoError(t, err, "basic mode keeps dangling edges")

	_, err = New(WithMode(ModeStrict)).Compile(f)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{`Edge 1: Unknown target "ghost"`}, se.Errors)
}

func TestNewProgramID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := NewProgramID(now)
	b := NewProgramID(now)

	assert.True(t, strings.HasPrefix(a, "prog_1700000000123_"))
	assert.Len(t, a, len("prog_1700000000123_")+6)
	assert.NotEqual(t, a, b)
}

type recordingObserver struct {
	mu          sync.Mutex
	compiles    []bool
	validations []int
	cache       []bool
}

func (o *recordingObserver) ObserveCompile(ok bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.compiles = append(o.compiles, ok)
}

func (o *recordingObserver) ObserveValidation(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validations = append(o.validations, n)
}

func (o *recordingObserver) ObserveCache(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = append(o.cache, hit)
}

func TestCompileObserver(t *testing.T) {
	obs := &recordingObserver{}
	c := New(WithObserver(obs), WithCache(NewCache(4)))

	_, err := c.Compile(walletTxFlow())
	require.NoError(t, err)
	_, err = c.Compile(walletTxFlow())
	require.NoError(t, err)
	_, err = c.Compile(&walletflow.Flow{})
	require.Error(t, err)

	assert.Equal(t, []bool{true, true, false}, obs.compiles)
	assert.Equal(t, []int{1}, obs.validations)
	assert.Equal(t, []bool{false, true}, obs.cache)
}

func mixedFlow() *walletflow.Flow {
	return &walletflow.Flow{
		Version: "1.0.0",
		Network: walletflow.Devnet,
		Nodes: []walletflow.Node{
			node("a", walletflow.NodeWallet, nil),
			node("b", walletflow.NodeFunding, map[string]any{"amount": 5.0}),
			node("c", walletflow.NodeToken, map[string]any{"mint": "M"}),
			node("d", walletflow.NodeConditional, map[string]any{"condition": "balance > 0"}),
			node("e", walletflow.NodeTransaction, nil),
			node("f", "futureNode", nil),
		},
		Edges: []walletflow.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "d"},
		},
	}
}
