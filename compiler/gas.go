package compiler

import "github.com/meikuraledutech/walletflow"

// DefaultGasCost is charged for node types without an entry in the cost table.
// It happens to equal the wallet cost; the two are unrelated.
const DefaultGasCost = 1000

var gasTable = map[walletflow.NodeType]int{
	walletflow.NodeWallet:      1000,
	walletflow.NodeTransaction: 5000,
	walletflow.NodeToken:       3000,
	walletflow.NodeConditional: 800,
}

// Complexity thresholds on the score nodeCount + 0.5*edgeCount.
const (
	mediumThreshold = 5
	highThreshold   = 15
)

// GasCost returns the fixed cost of a node of type t.
func GasCost(t walletflow.NodeType) int {
	if c, ok := gasTable[t]; ok {
		return c
	}
	return DefaultGasCost
}

// EstimateGas sums the fixed cost of every node.
func EstimateGas(nodes []walletflow.Node) int {
	total := 0
	for _, n := range nodes {
		total += GasCost(n.Type)
	}
	return total
}

// ComplexityScore is nodeCount + 0.5*edgeCount.
func ComplexityScore(nodeCount, edgeCount int) float64 {
	return float64(nodeCount) + 0.5*float64(edgeCount)
}

// EstimateComplexity buckets the score: below 5 is low, below 15 is medium, else high.
func EstimateComplexity(nodeCount, edgeCount int) walletflow.Complexity {
	score := ComplexityScore(nodeCount, edgeCount)
	switch {
	case score < mediumThreshold:
		return walletflow.ComplexityLow
	case score < highThreshold:
		return walletflow.ComplexityMedium
	default:
		return walletflow.ComplexityHigh
	}
}
