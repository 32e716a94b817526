package compiler

import (
	"time"

	"github.com/meikuraledutech/walletflow"
)

// DetectFlowType tags a flow by the strategy nodes it contains.
func DetectFlowType(nodes []walletflow.Node) string {
	has := make(map[walletflow.NodeType]int, len(nodes))
	for _, n := range nodes {
		has[n.Type]++
	}
	switch {
	case has[walletflow.NodeArbitrage] > 0:
		return "arbitrage"
	case has[walletflow.NodeMemeTrade] > 0:
		return "meme-trading"
	case has[walletflow.NodeCopyTrade] > 0:
		return "copy-trading"
	case has[walletflow.NodeToken] > 2:
		return "multi-token-swap"
	default:
		return "general"
	}
}

// Summarize derives the metadata block of f as of now.
func Summarize(f *walletflow.Flow, now time.Time) walletflow.Metadata {
	return walletflow.Metadata{
		CreatedAt: FormatTimestamp(now),
		Network:   f.Network,
		NodeCount: len(f.Nodes),
		EdgeCount: len(f.Edges),
		FlowType:  DetectFlowType(f.Nodes),
	}
}
