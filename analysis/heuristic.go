package analysis

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/meikuraledutech/walletflow/compiler"
)

// Heuristic derives a report from the flow's size alone. Given the same flow and no
// random source it always returns the same report.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic creates a Heuristic. With a nil rng the profitability range is the
// midpoint of the usual spread.
func NewHeuristic(rng *rand.Rand) *Heuristic {
	return &Heuristic{rng: rng}
}

func (h *Heuristic) Analyze(_ context.Context, req Request) (*Report, error) {
	nodes, edges := 0, 0
	if req.Flow != nil {
		nodes, edges = len(req.Flow.Nodes), len(req.Flow.Edges)
	}
	score := compiler.ComplexityScore(nodes, edges)

	complexity := "Low"
	switch {
	case score > 15:
		complexity = "High"
	case score > 5:
		complexity = "Medium"
	}

	risk := "Low"
	switch {
	case nodes > 10:
		risk = "High"
	case nodes > 5:
		risk = "Moderate"
	}

	low, high := h.spread()
	return &Report{
		FlowComplexity:         complexity,
		RiskAssessment:         risk,
		EstimatedProfitability: fmt.Sprintf("%.1f%% - %.1f%% (24h)", low, high),
		Suggestions: []string{
			"Consider adding a stop-loss condition to limit downside risk",
			"The arbitrage path could be optimized by routing through Jupiter aggregator",
			"Current memecoin volatility suggests increasing slippage tolerance to 2.5%",
			"Add a time-based condition to execute trades during higher liquidity periods",
		},
		MarketInsights: []string{
			"BONK/SOL pair showing 18% price inefficiency across exchanges",
			"Raydium liquidity pools for SAMO have increased 32% in last 6 hours",
			"Memecoin trading volume has increased 3x in the past 24 hours",
			"SOL price correlation with BTC has decreased to 0.72 in the last week",
		},
		TradingOpportunities: []Opportunity{
			{
				Type:            "Arbitrage",
				Route:           "BONK → SOL → SAMO → BONK",
				EstimatedProfit: "3.2%",
				Risk:            "Low",
				TimeWindow:      "1-2 hours",
			},
			{
				Type:            "Momentum",
				Asset:           "MEME",
				Direction:       "Long",
				EstimatedProfit: "15-20%",
				Risk:            "High",
				TimeWindow:      "24-48 hours",
			},
		},
	}, nil
}

// spread returns the low end in [5, 15) and the high end in [10, 20).
func (h *Heuristic) spread() (float64, float64) {
	if h.rng == nil {
		return 10, 15
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()*10 + 5, h.rng.Float64()*10 + 10
}
