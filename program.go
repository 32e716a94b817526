package walletflow

// Complexity is the coarse size bucket of a flow.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Instruction is the compiled form of one node.
// Data references the node's own mapping and must be treated as read-only.
type Instruction struct {
	Index       int            `json:"index"`
	Type        NodeType       `json:"type"`
	Operation   string         `json:"operation"`
	GasEstimate int            `json:"gasEstimate"`
	Data        map[string]any `json:"data"`
}

// ProgramMetadata summarizes the compiled flow.
type ProgramMetadata struct {
	NodeCount  int        `json:"nodeCount"`
	EdgeCount  int        `json:"edgeCount"`
	Complexity Complexity `json:"complexity"`
}

// CompiledProgram is the immutable output of a successful compilation.
type CompiledProgram struct {
	ID           string          `json:"id"`
	FlowID       string          `json:"flowId,omitempty"`
	Version      string          `json:"version"`
	Network      Network         `json:"network"`
	Bytecode     string          `json:"bytecode"`
	Instructions []Instruction   `json:"instructions"`
	EstimatedGas int             `json:"estimatedGas"`
	CompiledAt   string          `json:"compiledAt"`
	Metadata     ProgramMetadata `json:"metadata"`
}

// Wallet is a wallet record as kept by the wallet service. The compiler never reads it.
type Wallet struct {
	PublicKey  string  `json:"publicKey"`
	PrivateKey string  `json:"privateKey,omitempty"`
	Network    Network `json:"network"`
	Balance    float64 `json:"balance"`
	Created    string  `json:"created"`
}
