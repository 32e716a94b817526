package compiler

import "github.com/meikuraledutech/walletflow"

// Opcode is one mnemonic of the emitted bytecode.
type Opcode string

const (
	OpInitWallet    Opcode = "INIT_WALLET"
	OpLoadKeypair   Opcode = "LOAD_KEYPAIR"
	OpCreateTx      Opcode = "CREATE_TX"
	OpSetRecipient  Opcode = "SET_RECIPIENT"
	OpSetAmount     Opcode = "SET_AMOUNT"
	OpSignTx        Opcode = "SIGN_TX"
	OpTokenInit     Opcode = "TOKEN_INIT"
	OpTokenTransfer Opcode = "TOKEN_TRANSFER"
	OpEvalCondition Opcode = "EVAL_CONDITION"
	OpBranch        Opcode = "BRANCH"
)

// UnknownOperation labels instructions of types outside the operation table.
const UnknownOperation = "Unknown Operation"

var opcodeTable = map[walletflow.NodeType][]Opcode{
	walletflow.NodeWallet:      {OpInitWallet, OpLoadKeypair},
	walletflow.NodeTransaction: {OpCreateTx, OpSetRecipient, OpSetAmount, OpSignTx},
	walletflow.NodeToken:       {OpTokenInit, OpTokenTransfer},
	walletflow.NodeConditional: {OpEvalCondition, OpBranch},
}

var operationTable = map[walletflow.NodeType]string{
	walletflow.NodeWallet:      "Initialize Wallet Connection",
	walletflow.NodeTransaction: "Create and Execute Transaction",
	walletflow.NodeToken:       "SPL Token Operation",
	walletflow.NodeConditional: "Conditional Logic Evaluation",
}

// Opcodes returns a copy of the opcode sequence emitted for t, empty when t has none.
func Opcodes(t walletflow.NodeType) []Opcode {
	ops := opcodeTable[t]
	out := make([]Opcode, len(ops))
	copy(out, ops)
	return out
}

// Operation returns the human-readable label for t.
func Operation(t walletflow.NodeType) string {
	if op, ok := operationTable[t]; ok {
		return op
	}
	return UnknownOperation
}

// CatalogEntry describes how one node type compiles.
type CatalogEntry struct {
	Type      walletflow.NodeType `json:"type"`
	Opcodes   []Opcode            `json:"opcodes"`
	Operation string              `json:"operation"`
	GasCost   int                 `json:"gasCost"`
}

// Catalog lists every known node type with its compile tables, in palette order.
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(walletflow.NodeTypes))
	for _, t := range walletflow.NodeTypes {
		entries = append(entries, CatalogEntry{
			Type:      t,
			Opcodes:   Opcodes(t),
			Operation: Operation(t),
			GasCost:   GasCost(t),
		})
	}
	return entries
}
