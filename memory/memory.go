// Package memory implements walletflow.Store in process memory. It backs the server when
// no database is configured and stands in for PostgreSQL in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/walletflow"
)

type flowRecord struct {
	flow     walletflow.Flow
	programs []string
}

// Store is a concurrency-safe in-memory walletflow.Store.
// Values are copied on the way in and out, so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	flows    map[string]*flowRecord
	programs map[string]walletflow.CompiledProgram
	order    []string
	wallets  map[string][]walletflow.Wallet
}

var _ walletflow.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.flows = make(map[string]*flowRecord)
	s.programs = make(map[string]walletflow.CompiledProgram)
	s.order = nil
	s.wallets = make(map[string][]walletflow.Wallet)
}

// CreateSchema is a no-op; the maps exist from New on.
func (s *Store) CreateSchema(context.Context) error { return nil }

// DropSchema discards everything.
func (s *Store) DropSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// SaveFlow stores f, replacing any flow with the same id.
func (s *Store) SaveFlow(_ context.Context, f *walletflow.Flow) (*walletflow.Flow, error) {
	if err := walletflow.Prepare(f); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[f.ID]
	if !ok {
		rec = &flowRecord{}
		s.flows[f.ID] = rec
	}
	rec.flow = cloneFlow(*f)
	return f, nil
}

// GetFlow returns nil, nil if the flow does not exist.
func (s *Store) GetFlow(_ context.Context, flowID string) (*walletflow.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return nil, nil
	}
	f := cloneFlow(rec.flow)
	return &f, nil
}

// DeleteFlow removes the flow and its programs. No error if it doesn't exist.
func (s *Store) DeleteFlow(_ context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return nil
	}
	for _, id := range rec.programs {
		delete(s.programs, id)
	}
	s.order = filter(s.order, func(id string) bool {
		_, ok := s.programs[id]
		return ok
	})
	delete(s.flows, flowID)
	return nil
}

func (s *Store) AddNode(_ context.Context, flowID string, node *walletflow.Node) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return "", walletflow.ErrFlowNotFound
	}
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if rec.flow.NodeByID(node.ID) != nil {
		return "", fmt.Errorf("%w: %q", walletflow.ErrDuplicateNode, node.ID)
	}
	if node.Data == nil {
		node.Data = map[string]any{}
	}
	rec.flow.Nodes = append(rec.flow.Nodes, cloneNode(*node))
	return node.ID, nil
}

// GetNode returns nil, nil if the flow or node does not exist.
func (s *Store) GetNode(_ context.Context, flowID, nodeID string) (*walletflow.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return nil, nil
	}
	n := rec.flow.NodeByID(nodeID)
	if n == nil {
		return nil, nil
	}
	out := cloneNode(*n)
	return &out, nil
}

// UpdateNode replaces the type, position and data of an existing node, keeping its place
// in the node order.
func (s *Store) UpdateNode(_ context.Context, flowID string, node *walletflow.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return walletflow.ErrNodeNotFound
	}
	n := rec.flow.NodeByID(node.ID)
	if n == nil {
		return walletflow.ErrNodeNotFound
	}
	*n = cloneNode(*node)
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	return nil
}

// DeleteNode removes a node and every edge touching it. No error if it doesn't exist.
func (s *Store) DeleteNode(_ context.Context, flowID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return nil
	}
	nodes := rec.flow.Nodes[:0]
	for _, n := range rec.flow.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	rec.flow.Nodes = nodes

	edges := rec.flow.Edges[:0]
	for _, e := range rec.flow.Edges {
		if e.Source != nodeID && e.Target != nodeID {
			edges = append(edges, e)
		}
	}
	rec.flow.Edges = edges
	return nil
}

// ListNodes returns the nodes of a flow in order, or an empty slice.
func (s *Store) ListNodes(_ context.Context, flowID string) ([]walletflow.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := []walletflow.Node{}
	if rec, ok := s.flows[flowID]; ok {
		for _, n := range rec.flow.Nodes {
			nodes = append(nodes, cloneNode(n))
		}
	}
	return nodes, nil
}

// AddEdge appends an edge after checking that both ends exist and that it closes no cycle.
func (s *Store) AddEdge(_ context.Context, flowID string, edge *walletflow.Edge) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return "", walletflow.ErrFlowNotFound
	}

	taken := make(map[string]struct{}, len(rec.flow.Edges))
	for _, e := range rec.flow.Edges {
		taken[e.ID] = struct{}{}
	}
	if edge.ID == "" {
		edge.ID = walletflow.EdgeID(edge.Source, edge.Target, taken)
	}
	if _, dup := taken[edge.ID]; dup {
		return "", fmt.Errorf("%w: %q", walletflow.ErrDuplicateEdge, edge.ID)
	}

	edges := append(append([]walletflow.Edge{}, rec.flow.Edges...), *edge)
	if err := walletflow.CheckEdges(rec.flow.Nodes, edges); err != nil {
		return "", err
	}
	if err := walletflow.CheckAcyclic(rec.flow.Nodes, edges); err != nil {
		return "", err
	}
	rec.flow.Edges = edges
	return edge.ID, nil
}

// DeleteEdge removes an edge. No error if it doesn't exist.
func (s *Store) DeleteEdge(_ context.Context, flowID, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[flowID]
	if !ok {
		return nil
	}
	edges := rec.flow.Edges[:0]
	for _, e := range rec.flow.Edges {
		if e.ID != edgeID {
			edges = append(edges, e)
		}
	}
	rec.flow.Edges = edges
	return nil
}

func (s *Store) ListEdges(_ context.Context, flowID string) ([]walletflow.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := []walletflow.Edge{}
	if rec, ok := s.flows[flowID]; ok {
		edges = append(edges, rec.flow.Edges...)
	}
	return edges, nil
}

// SaveProgram stores p, replacing any program with the same id.
func (s *Store) SaveProgram(_ context.Context, p *walletflow.CompiledProgram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[p.ID]; !exists {
		s.order = append(s.order, p.ID)
		if rec, ok := s.flows[p.FlowID]; ok && p.FlowID != "" {
			rec.programs = append(rec.programs, p.ID)
		}
	}
	s.programs[p.ID] = cloneProgram(*p)
	return nil
}

// GetProgram returns nil, nil if the program does not exist.
func (s *Store) GetProgram(_ context.Context, programID string) (*walletflow.CompiledProgram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[programID]
	if !ok {
		return nil, nil
	}
	out := cloneProgram(p)
	return &out, nil
}

// ListPrograms returns the programs compiled from a flow, oldest first.
func (s *Store) ListPrograms(_ context.Context, flowID string) ([]walletflow.CompiledProgram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	programs := []walletflow.CompiledProgram{}
	for _, id := range s.order {
		if p := s.programs[id]; p.FlowID == flowID {
			programs = append(programs, cloneProgram(p))
		}
	}
	return programs, nil
}

// SaveWallet stores w under namespace, replacing a record with the same public key.
func (s *Store) SaveWallet(_ context.Context, namespace string, w *walletflow.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.wallets[namespace]
	for i := range list {
		if list[i].PublicKey == w.PublicKey {
			list[i] = *w
			return nil
		}
	}
	s.wallets[namespace] = append(list, *w)
	return nil
}

func (s *Store) ListWallets(_ context.Context, namespace string) ([]walletflow.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]walletflow.Wallet{}, s.wallets[namespace]...), nil
}

// DeleteWallet removes a record. No error if it doesn't exist.
func (s *Store) DeleteWallet(_ context.Context, namespace, publicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.wallets[namespace][:0]
	for _, w := range s.wallets[namespace] {
		if w.PublicKey != publicKey {
			list = append(list, w)
		}
	}
	if len(list) == 0 {
		delete(s.wallets, namespace)
		return nil
	}
	s.wallets[namespace] = list
	return nil
}

func filter(ids []string, keep func(string) bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
