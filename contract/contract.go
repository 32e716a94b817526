// Package contract renders flows as JSON contract documents and checks hand-edited ones.
package contract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/compiler"
)

const (
	Version      = "1.0.0"
	ContractType = "wallet_flow"
	Source       = "flow_playground"
)

// Contract is the document generated from a flow.
type Contract struct {
	Version      string             `json:"version"`
	ContractType string             `json:"contract_type"`
	Network      walletflow.Network `json:"network"`
	Description  string             `json:"description"`
	Functions    []Function         `json:"functions"`
	Metadata     Metadata           `json:"metadata"`
}

// Function is one node of the flow. Conditions is null for nodes without trigger
// conditions.
type Function struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Type           walletflow.NodeType `json:"type"`
	Parameters     map[string]any      `json:"parameters"`
	ExecutionOrder int                 `json:"execution_order"`
	Conditions     map[string]any      `json:"conditions"`
}

type Metadata struct {
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
	NodeCount   int    `json:"node_count"`
}

var whitespace = regexp.MustCompile(`\s+`)

// FromFlow generates the contract for f. Functions follow node order.
func FromFlow(f *walletflow.Flow, network walletflow.Network, now time.Time) *Contract {
	if network == "" {
		network = f.Network
	}
	c := &Contract{
		Version:      Version,
		ContractType: ContractType,
		Network:      network,
		Description:  "Auto-generated from flow playground",
		Functions:    make([]Function, 0, len(f.Nodes)),
		Metadata: Metadata{
			GeneratedAt: compiler.FormatTimestamp(now),
			Source:      Source,
			NodeCount:   len(f.Nodes),
		},
	}

	for i, n := range f.Nodes {
		c.Functions = append(c.Functions, Function{
			ID:             "function_" + strconv.Itoa(i),
			Name:           functionName(n),
			Type:           n.Type,
			Parameters:     parameters(n),
			ExecutionOrder: i,
			Conditions:     conditions(n),
		})
	}
	return c
}

func functionName(n walletflow.Node) string {
	label, _ := n.Data["label"].(string)
	if label == "" {
		label = string(n.Type)
	}
	return whitespace.ReplaceAllString(strings.ToLower(label), "_")
}

func parameters(n walletflow.Node) map[string]any {
	switch n.Type {
	case walletflow.NodeWallet:
		return pick(n.Data, "network", "network", "address", "address")
	case walletflow.NodeTransaction:
		return pick(n.Data, "amount", "amount", "recipient", "recipient")
	case walletflow.NodeInputValue:
		return pick(n.Data, "valueType", "type", "defaultValue", "default")
	default:
		return map[string]any{}
	}
}

func conditions(n walletflow.Node) map[string]any {
	switch n.Type {
	case walletflow.NodeConditionalTimer:
		return pick(n.Data, "duration", "duration", "unit", "unit")
	case walletflow.NodeOracleCheck:
		return pick(n.Data, "oracle", "oracle", "condition", "condition")
	default:
		return nil
	}
}

// pick copies the keys present in data, renamed pairwise (from, to, from, to...).
func pick(data map[string]any, pairs ...string) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if v, ok := data[pairs[i]]; ok && v != nil {
			out[pairs[i+1]] = v
		}
	}
	return out
}

// Validation is the verdict on a contract document.
type Validation struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	GasEstimate int      `json:"gasEstimate"`
	Complexity  string   `json:"complexity"`
}

// Validate checks a contract document. The gas estimate sums the per-type gas cost of
// every function, so the same document always gets the same estimate.
func Validate(raw []byte) Validation {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return Validation{
			Errors:     []string{compiler.MsgInvalidJSON},
			Warnings:   []string{},
			Complexity: "Invalid",
		}
	}

	v := Validation{Errors: []string{}, Warnings: []string{}}
	if !present(doc["version"]) {
		v.Errors = append(v.Errors, "Missing version field")
	}
	if !present(doc["contract_type"]) {
		v.Warnings = append(v.Warnings, "Contract type not specified")
	}
	functions, ok := doc["functions"].([]any)
	if !ok {
		v.Errors = append(v.Errors, "Missing or invalid functions array")
	}

	for _, fn := range functions {
		m, _ := fn.(map[string]any)
		t, _ := m["type"].(string)
		v.GasEstimate += compiler.GasCost(walletflow.NodeType(t))
	}

	v.Valid = len(v.Errors) == 0
	switch {
	case !v.Valid:
		v.Complexity = "Invalid"
	case len(v.Warnings) > 2:
		v.Complexity = "High"
	default:
		v.Complexity = "Medium"
	}
	return v
}

// present reports a value that is not empty in the editor's sense.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}
