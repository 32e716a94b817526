package walletflow

import (
	"encoding/json"
	"reflect"
	"strings"
)

// NodeData is the typed view of a node's data mapping.
// Each variant declares the keys its node type recognizes; keys match exactly, case
// included. Absent or ill-typed keys keep the defaults documented on the variant, so
// decoding never fails.
type NodeData interface {
	NodeType() NodeType
}

// WalletData: all fields default to their zero values.
type WalletData struct {
	Label   string  `json:"label"`
	Network Network `json:"network"`
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// FundingData: Source defaults to "faucet", Currency to "SOL".
type FundingData struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Source   string  `json:"source"`
	Currency string  `json:"currency"`
}

// TransactionData: Kind (the "type" key) defaults to "transfer".
type TransactionData struct {
	Label     string  `json:"label"`
	Kind      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Recipient string  `json:"recipient"`
}

// TokenData: Decimals defaults to 9.
type TokenData struct {
	Label    string  `json:"label"`
	Mint     string  `json:"mint"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// InputValueData: ValueType defaults to "number".
type InputValueData struct {
	Label        string `json:"label"`
	ValueType    string `json:"valueType"`
	DefaultValue any    `json:"defaultValue"`
	Validation   string `json:"validation"`
}

// ConditionalTimerData: Unit defaults to "seconds".
type ConditionalTimerData struct {
	Label     string  `json:"label"`
	Duration  float64 `json:"duration"`
	Unit      string  `json:"unit"`
	Condition string  `json:"condition"`
}

type OracleCheckData struct {
	Label     string `json:"label"`
	Oracle    string `json:"oracle"`
	Asset     string `json:"asset"`
	Condition string `json:"condition"`
}

// OutputData: Format defaults to "json".
type OutputData struct {
	Label       string `json:"label"`
	Format      string `json:"format"`
	Destination string `json:"destination"`
}

type ConditionalData struct {
	Label       string `json:"label"`
	Condition   string `json:"condition"`
	TrueAction  string `json:"trueAction"`
	FalseAction string `json:"falseAction"`
}

type CopyTradeData struct {
	Label        string   `json:"label"`
	TargetWallet string   `json:"targetWallet"`
	CopyPercent  float64  `json:"copyPercent"`
	MaxSlippage  float64  `json:"maxSlippage"`
	Tokens       []string `json:"tokens"`
}

// ProfitLossData: TimeLimit is in hours.
type ProfitLossData struct {
	Label        string  `json:"label"`
	TakeProfit   float64 `json:"takeProfit"`
	StopLoss     float64 `json:"stopLoss"`
	TrailingStop bool    `json:"trailingStop"`
	TimeLimit    float64 `json:"timeLimit"`
}

type ArbitrageData struct {
	Label            string   `json:"label"`
	Path             []string `json:"path"`
	MinProfitPercent float64  `json:"minProfitPercent"`
	MaxSlippage      float64  `json:"maxSlippage"`
	GasLimit         float64  `json:"gasLimit"`
}

// MemeTradeData: MaxAllocation is a percentage.
type MemeTradeData struct {
	Label         string   `json:"label"`
	Tokens        []string `json:"tokens"`
	Strategy      string   `json:"strategy"`
	RiskLevel     string   `json:"riskLevel"`
	MaxAllocation float64  `json:"maxAllocation"`
}

// UnknownData is returned for node types outside the closed enumeration.
type UnknownData struct {
	Type  NodeType `json:"-"`
	Label string   `json:"label"`
}

func (WalletData) NodeType() NodeType           { return NodeWallet }
func (FundingData) NodeType() NodeType          { return NodeFunding }
func (TransactionData) NodeType() NodeType      { return NodeTransaction }
func (TokenData) NodeType() NodeType            { return NodeToken }
func (InputValueData) NodeType() NodeType       { return NodeInputValue }
func (ConditionalTimerData) NodeType() NodeType { return NodeConditionalTimer }
func (OracleCheckData) NodeType() NodeType      { return NodeOracleCheck }
func (OutputData) NodeType() NodeType           { return NodeOutput }
func (ConditionalData) NodeType() NodeType      { return NodeConditional }
func (CopyTradeData) NodeType() NodeType        { return NodeCopyTrade }
func (ProfitLossData) NodeType() NodeType       { return NodeProfitLoss }
func (ArbitrageData) NodeType() NodeType        { return NodeArbitrage }
func (MemeTradeData) NodeType() NodeType        { return NodeMemeTrade }
func (d UnknownData) NodeType() NodeType        { return d.Type }

// Typed decodes the node's data into the variant for its type.
func (n Node) Typed() NodeData {
	return DecodeData(n.Type, n.Data)
}

// DecodeData decodes a data mapping into the variant for t.
func DecodeData(t NodeType, data map[string]any) NodeData {
	switch t {
	case NodeWallet:
		d := WalletData{}
		fill(data, &d)
		return d
	case NodeFunding:
		d := FundingData{Source: "faucet", Currency: "SOL"}
		fill(data, &d)
		return d
	case NodeTransaction:
		d := TransactionData{Kind: "transfer"}
		fill(data, &d)
		return d
	case NodeToken:
		d := TokenData{Decimals: 9}
		fill(data, &d)
		return d
	case NodeInputValue:
		d := InputValueData{ValueType: "number"}
		fill(data, &d)
		return d
	case NodeConditionalTimer:
		d := ConditionalTimerData{Unit: "seconds"}
		fill(data, &d)
		return d
	case NodeOracleCheck:
		d := OracleCheckData{}
		fill(data, &d)
		return d
	case NodeOutput:
		d := OutputData{Format: "json"}
		fill(data, &d)
		return d
	case NodeConditional:
		d := ConditionalData{}
		fill(data, &d)
		return d
	case NodeCopyTrade:
		d := CopyTradeData{}
		fill(data, &d)
		return d
	case NodeProfitLoss:
		d := ProfitLossData{}
		fill(data, &d)
		return d
	case NodeArbitrage:
		d := ArbitrageData{}
		fill(data, &d)
		return d
	case NodeMemeTrade:
		d := MemeTradeData{}
		fill(data, &d)
		return d
	default:
		d := UnknownData{Type: t}
		fill(data, &d)
		return d
	}
}

// fill overlays data onto dst one key at a time, so a single ill-typed value only
// leaves its own field at the default. Only keys spelled exactly like a field's JSON
// name are used.
func fill(data map[string]any, dst any) {
	known := jsonKeys(reflect.TypeOf(dst).Elem())
	for k, v := range data {
		if _, ok := known[k]; !ok || v == nil {
			continue
		}
		raw, err := json.Marshal(map[string]any{k: v})
		if err != nil {
			continue
		}
		_ = json.Unmarshal(raw, dst)
	}
}

func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

// DataMap encodes a typed variant back into an open mapping.
func DataMap(d NodeData) map[string]any {
	raw, err := json.Marshal(d)
	if err != nil {
		return map[string]any{}
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}
