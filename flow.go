// Package walletflow defines the flow graph that the visual builder produces and the
// compiled program derived from it.
package walletflow

// NodeType identifies the behavior of a node. The set of known types is closed, but any
// string is accepted so that flows authored with newer editors still decode.
type NodeType string

const (
	NodeWallet           NodeType = "wallet"
	NodeFunding          NodeType = "funding"
	NodeTransaction      NodeType = "transaction"
	NodeToken            NodeType = "token"
	NodeInputValue       NodeType = "inputValue"
	NodeConditionalTimer NodeType = "conditionalTimer"
	NodeOracleCheck      NodeType = "oracleCheck"
	NodeOutput           NodeType = "output"
	NodeConditional      NodeType = "conditional"
	NodeCopyTrade        NodeType = "copyTrade"
	NodeProfitLoss       NodeType = "profitLoss"
	NodeArbitrage        NodeType = "arbitrage"
	NodeMemeTrade        NodeType = "memeTrade"
)

// NodeTypes lists every known node type in palette order.
var NodeTypes = []NodeType{
	NodeWallet,
	NodeFunding,
	NodeTransaction,
	NodeToken,
	NodeInputValue,
	NodeConditionalTimer,
	NodeOracleCheck,
	NodeOutput,
	NodeConditional,
	NodeCopyTrade,
	NodeProfitLoss,
	NodeArbitrage,
	NodeMemeTrade,
}

// Known reports whether t belongs to the closed node type enumeration.
func (t NodeType) Known() bool {
	for _, k := range NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Network is the cluster a flow targets.
type Network string

const (
	Devnet  Network = "devnet"
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)

// Valid reports whether n is one of devnet, testnet or mainnet.
func (n Network) Valid() bool {
	switch n {
	case Devnet, Testnet, Mainnet:
		return true
	}
	return false
}

// Position is the canvas coordinate of a node. It has no compile semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a typed unit of behavior in a flow.
// Data is kept as an open mapping so it round-trips untouched; use Typed for field access.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Position *Position      `json:"position,omitempty"`
	Data     map[string]any `json:"data"`
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Metadata is a derived, non-authoritative summary of a flow.
type Metadata struct {
	CreatedAt string  `json:"createdAt,omitempty"`
	Network   Network `json:"network,omitempty"`
	NodeCount int     `json:"nodeCount"`
	EdgeCount int     `json:"edgeCount"`
	FlowType  string  `json:"flowType,omitempty"`
}

// Flow is the root artifact authored in the editor.
// Node order is significant: it drives instruction order and step indexes.
type Flow struct {
	ID       string    `json:"id,omitempty"`
	Version  string    `json:"version"`
	Network  Network   `json:"network"`
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}
