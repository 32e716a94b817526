package compiler

import "github.com/meikuraledutech/walletflow"

// DefaultData returns the initial data payload for a newly created node of type t.
// Unknown types get a record holding only a display label. The result is a fresh map.
func DefaultData(t walletflow.NodeType, network walletflow.Network) map[string]any {
	var d walletflow.NodeData
	switch t {
	case walletflow.NodeWallet:
		d = walletflow.WalletData{Label: "Wallet Node", Network: network}
	case walletflow.NodeFunding:
		d = walletflow.FundingData{Label: "Wallet Funding", Amount: 5, Source: "faucet", Currency: "SOL"}
	case walletflow.NodeTransaction:
		d = walletflow.TransactionData{Label: "Transaction Node", Kind: "transfer"}
	case walletflow.NodeToken:
		d = walletflow.TokenData{Label: "Token Transfer", Decimals: 9}
	case walletflow.NodeInputValue:
		d = walletflow.InputValueData{Label: "Input Value", ValueType: "number", DefaultValue: 0, Validation: "required"}
	case walletflow.NodeConditionalTimer:
		d = walletflow.ConditionalTimerData{Label: "Timer Condition", Duration: 60, Unit: "seconds", Condition: "after"}
	case walletflow.NodeOracleCheck:
		d = walletflow.OracleCheckData{Label: "Oracle Check", Oracle: "pyth", Asset: "SOL/USD", Condition: "price > 100"}
	case walletflow.NodeOutput:
		d = walletflow.OutputData{Label: "Output Node", Format: "json", Destination: "console"}
	case walletflow.NodeConditional:
		d = walletflow.ConditionalData{Label: "Conditional Logic", Condition: "balance > 0"}
	case walletflow.NodeCopyTrade:
		d = walletflow.CopyTradeData{
			Label:       "Copy Trading",
			CopyPercent: 100,
			MaxSlippage: 1.0,
			Tokens:      []string{"SOL", "BONK", "SAMO"},
		}
	case walletflow.NodeProfitLoss:
		d = walletflow.ProfitLossData{Label: "Profit/Loss Control", TakeProfit: 15, StopLoss: 7, TimeLimit: 24}
	case walletflow.NodeArbitrage:
		d = walletflow.ArbitrageData{
			Label:            "Arbitrage Strategy",
			Path:             []string{"DEX1", "DEX2", "DEX3"},
			MinProfitPercent: 1.5,
			MaxSlippage:      1.0,
			GasLimit:         500000,
		}
	case walletflow.NodeMemeTrade:
		d = walletflow.MemeTradeData{
			Label:         "Meme Trading",
			Tokens:        []string{"BONK", "SAMO", "MEME"},
			Strategy:      "momentum",
			RiskLevel:     "medium",
			MaxAllocation: 10,
		}
	default:
		return map[string]any{"label": "Node"}
	}
	return walletflow.DataMap(d)
}
