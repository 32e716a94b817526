package compiler

import (
	"testing"

	"github.com/meikuraledutech/walletflow"
	"github.com/stretchr/testify/assert"
)

func typed(types ...walletflow.NodeType) []walletflow.Node {
	nodes := make([]walletflow.Node, 0, len(types))
	for _, t := range types {
		nodes = append(nodes, node(string(t), t, nil))
	}
	return nodes
}

func TestDetectFlowType(t *testing.T) {
	tests := []struct {
		name  string
		nodes []walletflow.Node
		want  string
	}{
		{"empty", nil, "general"},
		{"plain transfer", typed(walletflow.NodeWallet, walletflow.NodeTransaction), "general"},
		{"arbitrage wins", typed(walletflow.NodeMemeTrade, walletflow.NodeArbitrage), "arbitrage"},
		{"meme before copy", typed(walletflow.NodeCopyTrade, walletflow.NodeMemeTrade), "meme-trading"},
		{"copy trading", typed(walletflow.NodeWallet, walletflow.NodeCopyTrade), "copy-trading"},
		{"two tokens", typed(walletflow.NodeToken, walletflow.NodeToken), "general"},
		{"three tokens", typed(walletflow.NodeToken, walletflow.NodeToken, walletflow.NodeToken), "multi-token-swap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFlowType(tt.nodes))
		})
	}
}

func TestSummarize(t *testing.T) {
	m := Summarize(mixedFlow(), fixedNow)
	assert.Equal(t, walletflow.Metadata{
		CreatedAt: "2025-03-14T09:26:53.589Z",
		Network:   walletflow.Devnet,
		NodeCount: 6,
		EdgeCount: 3,
		FlowType:  "general",
	}, m)
}
