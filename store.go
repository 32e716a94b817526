package walletflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrCycleDetected = errors.New("walletflow: cycle detected, flow is not acyclic")
	ErrDanglingEdge  = errors.New("walletflow: edge references unknown node")
	ErrFlowNotFound  = errors.New("walletflow: flow not found")
	ErrNodeNotFound  = errors.New("walletflow: node not found")
	ErrEdgeNotFound  = errors.New("walletflow: edge not found")
	ErrDuplicateNode = errors.New("walletflow: duplicate node id")
	ErrDuplicateEdge = errors.New("walletflow: duplicate edge id")
)

// Store defines the contract for persisting flows, compiled programs and wallet records.
// Get methods return nil, nil when the record does not exist.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Flows (bulk operations, replace semantics)
	SaveFlow(ctx context.Context, f *Flow) (*Flow, error)
	GetFlow(ctx context.Context, flowID string) (*Flow, error)
	DeleteFlow(ctx context.Context, flowID string) error

	// Nodes
	AddNode(ctx context.Context, flowID string, node *Node) (string, error)
	GetNode(ctx context.Context, flowID, nodeID string) (*Node, error)
	UpdateNode(ctx context.Context, flowID string, node *Node) error
	DeleteNode(ctx context.Context, flowID, nodeID string) error
	ListNodes(ctx context.Context, flowID string) ([]Node, error)

	// Edges
	AddEdge(ctx context.Context, flowID string, edge *Edge) (string, error)
	DeleteEdge(ctx context.Context, flowID, edgeID string) error
	ListEdges(ctx context.Context, flowID string) ([]Edge, error)

	// Compiled programs
	SaveProgram(ctx context.Context, p *CompiledProgram) error
	GetProgram(ctx context.Context, programID string) (*CompiledProgram, error)
	ListPrograms(ctx context.Context, flowID string) ([]CompiledProgram, error)

	// Wallet records, keyed by a caller-chosen namespace
	SaveWallet(ctx context.Context, namespace string, w *Wallet) error
	ListWallets(ctx context.Context, namespace string) ([]Wallet, error)
	DeleteWallet(ctx context.Context, namespace, publicKey string) error
}

// Prepare readies f for persistence: it fills in missing flow, node and edge ids and
// rejects duplicate node ids, dangling edges and cycles. Stores call it before writing.
func Prepare(f *Flow) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	seen := make(map[string]struct{}, len(f.Nodes))
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = struct{}{}
		if n.Data == nil {
			n.Data = map[string]any{}
		}
	}

	edgeIDs := make(map[string]struct{}, len(f.Edges))
	for i := range f.Edges {
		e := &f.Edges[i]
		if e.ID == "" {
			e.ID = EdgeID(e.Source, e.Target, edgeIDs)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateEdge, e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
	}

	if err := CheckEdges(f.Nodes, f.Edges); err != nil {
		return err
	}
	return CheckAcyclic(f.Nodes, f.Edges)
}

// EdgeID names an edge "<source>-<target>" like the editor does, falling back to a
// UUID when that name is already taken.
func EdgeID(source, target string, taken map[string]struct{}) string {
	id := source + "-" + target
	if _, ok := taken[id]; ok {
		return uuid.NewString()
	}
	return id
}
