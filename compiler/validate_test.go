package compiler

import (
	"testing"

	"github.com/meikuraledutech/walletflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlowBasic(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ok     bool
		errors []string
	}{
		{"valid", `{"nodes":[{"id":"1","type":"wallet","data":{}}]}`, true, []string{}},
		{"empty nodes", `{"nodes":[]}`, true, []string{}},
		{"missing nodes", `{"version":"1.0.0"}`, false, []string{MsgInvalidStructure}},
		{"nodes not a sequence", `{"nodes":{"id":"1"}}`, false, []string{MsgInvalidStructure}},
		{"nodes null", `{"nodes":null}`, false, []string{MsgInvalidStructure}},
		{"top level array", `[1,2]`, false, []string{MsgInvalidStructure}},
		{"syntax error", `{"nodes":[`, false, []string{MsgInvalidJSON}},
		{"null document", `null`, false, []string{MsgInvalidJSON}},
		{"empty input", ``, false, []string{MsgInvalidJSON}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateFlow([]byte(tt.input), ModeBasic)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.errors, res.Errors)
		})
	}
}

func TestValidateFlowStrictAccumulates(t *testing.T) {
	input := `{
		"nodes": [
			{"type": "wallet", "data": {}},
			{"id": "b", "data": {}},
			{"id": "c", "type": "token"},
			{"id": "c", "type": "token", "data": "oops"}
		],
		"edges": [
			{"target": "b"},
			{"source": "b"},
			{"source": "b", "target": "zzz"}
		]
	}`

	res := ValidateFlow([]byte(input), ModeStrict)
	require.False(t, res.OK)
	assert.Equal(t, []string{
		"Missing version field",
		"Missing network field",
		"Node 0: Missing id",
		"Node 1: Missing type",
		"Node 2: Missing data",
		`Node 3: Duplicate id "c"`,
		"Node 3: Invalid data",
		"Edge 0: Missing source",
		"Edge 1: Missing target",
		`Edge 2: Unknown target "zzz"`,
	}, res.Errors)
	assert.Error(t, res.Err())
}

func TestValidateFlowStrictCountsEveryViolation(t *testing.T) {
	// k nodes without id and k edges without source: at least 2k errors.
	const k = 7
	doc := map[string]any{"version": "1.0.0", "network": "devnet"}
	var nodes, edges []any
	for i := 0; i < k; i++ {
		nodes = append(nodes, map[string]any{"type": "wallet", "data": map[string]any{}})
		edges = append(edges, map[string]any{"target": "x"})
	}
	doc["nodes"] = nodes
	doc["edges"] = edges

	res := ValidateDocument(doc, ModeStrict)
	assert.GreaterOrEqual(t, len(res.Errors), 2*k)
}

func TestValidateFlowStrictTopLevel(t *testing.T) {
	res := ValidateFlow([]byte(`{"version":"","network":"moonnet"}`), ModeStrict)
	assert.Equal(t, []string{
		"Missing version field",
		`Invalid network "moonnet"`,
		"Missing or invalid nodes array",
		"Missing or invalid edges array",
	}, res.Errors)

	res = ValidateFlow([]byte(`not json`), ModeStrict)
	assert.Equal(t, []string{MsgInvalidJSON}, res.Errors)
}

func TestValidateFlowStrictValid(t *testing.T) {
	input := `{
		"version": "1.0.0",
		"network": "testnet",
		"nodes": [
			{"id": "1", "type": "wallet", "position": {"x": 10, "y": 20}, "data": {"label": "W"}},
			{"id": "2", "type": "transaction", "data": {"amount": 1}}
		],
		"edges": [{"id": "1-2", "source": "1", "target": "2"}]
	}`

	res := ValidateFlow([]byte(input), ModeStrict)
	assert.True(t, res.OK)
	assert.Empty(t, res.Errors)
	assert.NoError(t, res.Err())
}

func TestValidateFlowNonObjectNodes(t *testing.T) {
	res := ValidateFlow([]byte(`{"version":"1","network":"devnet","nodes":[null, 3],"edges":[]}`), ModeStrict)
	assert.Equal(t, []string{
		"Node 0: Missing id", "Node 0: Missing type", "Node 0: Missing data",
		"Node 1: Missing id", "Node 1: Missing type", "Node 1: Missing data",
	}, res.Errors)
}

func TestCheckTypedFlow(t *testing.T) {
	f := &walletflow.Flow{
		Version: "1.0.0",
		Network: walletflow.Devnet,
		Nodes:   []walletflow.Node{{ID: "1", Type: walletflow.NodeWallet}},
	}

	res := Check(f, ModeStrict)
	assert.Equal(t, []string{"Missing or invalid edges array", "Node 0: Missing data"}, res.Errors)

	assert.True(t, Check(f, ModeBasic).OK)
	assert.False(t, Check(nil, ModeBasic).OK)
}

func TestDecodeFlow(t *testing.T) {
	raw := []byte(`{"version":"1.0.0","network":"devnet","nodes":[{"id":"1","type":"wallet","position":{"x":1.5,"y":-2},"data":{"label":"W"}}],"edges":[]}`)

	f, res := DecodeFlow(raw, ModeStrict)
	require.True(t, res.OK)
	require.NotNil(t, f)
	require.Len(t, f.Nodes, 1)
	assert.Equal(t, &walletflow.Position{X: 1.5, Y: -2}, f.Nodes[0].Position)
	assert.Equal(t, "W", f.Nodes[0].Data["label"])

	f, res = DecodeFlow([]byte(`{"edges":[]}`), ModeBasic)
	assert.Nil(t, f)
	assert.Equal(t, []string{MsgInvalidStructure}, res.Errors)

	f, res = DecodeFlow([]byte(`{`), ModeBasic)
	assert.Nil(t, f)
	assert.Equal(t, []string{MsgInvalidJSON}, res.Errors)
}

func TestDecodeFlowCoercesIllTypedFields(t *testing.T) {
	raw := []byte(`{"version":2,"network":7,"edges":{},"nodes":[
		{"id":7,"type":"wallet","position":"left","data":"x"},
		"not a node",
		{"id":"b","type":"token","data":{"symbol":"SOL"}}
	]}`)

	f, res := DecodeFlow(raw, ModeBasic)
	require.True(t, res.OK)
	require.NotNil(t, f)
	assert.Equal(t, "2", f.Version)
	assert.Equal(t, walletflow.Network("7"), f.Network)
	assert.Empty(t, f.Edges)
	require.Len(t, f.Nodes, 3)
	assert.Equal(t, walletflow.Node{ID: "7", Type: walletflow.NodeWallet}, f.Nodes[0])
	assert.Equal(t, walletflow.Node{}, f.Nodes[1])
	assert.Equal(t, map[string]any{"symbol": "SOL"}, f.Nodes[2].Data)

	p, err := New().Compile(f)
	require.NoError(t, err)
	assert.Equal(t, "2", p.Version)
	assert.Equal(t, 5000, p.EstimatedGas)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeStrict, ParseMode("strict"))
	assert.Equal(t, ModeBasic, ParseMode(""))
	assert.Equal(t, ModeBasic, ParseMode("lenient"))
}
