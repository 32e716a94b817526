package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/walletflow"
)

// SaveFlow saves a full flow (nodes + edges) in one transaction, replacing any flow with
// the same id. Missing ids are filled in; duplicate nodes, dangling edges and cycles are
// rejected before anything is written.
func (s *PGStore) SaveFlow(ctx context.Context, f *walletflow.Flow) (*walletflow.Flow, error) {
	if err := walletflow.Prepare(f); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("walletflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics: nodes and edges are rewritten, programs survive.
	if _, err := tx.Exec(ctx,
		`INSERT INTO flows (id, version, network, metadata) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET version = EXCLUDED.version, network = EXCLUDED.network,
		     metadata = EXCLUDED.metadata, updated_at = NOW()`,
		f.ID, f.Version, string(f.Network), f.Metadata,
	); err != nil {
		return nil, fmt.Errorf("walletflow: upsert flow: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE flow_id = $1`, f.ID); err != nil {
		return nil, fmt.Errorf("walletflow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, f.ID); err != nil {
		return nil, fmt.Errorf("walletflow: delete nodes: %w", err)
	}

	for i, n := range f.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_nodes (flow_id, id, seq, type, position, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			f.ID, n.ID, i, string(n.Type), n.Position, n.Data,
		); err != nil {
			return nil, fmt.Errorf("walletflow: insert node %s: %w", n.ID, err)
		}
	}

	for i, e := range f.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_edges (flow_id, id, seq, source, target, source_handle, target_handle)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, e.ID, i, e.Source, e.Target, e.SourceHandle, e.TargetHandle,
		); err != nil {
			return nil, fmt.Errorf("walletflow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("walletflow: commit: %w", err)
	}
	return f, nil
}

// GetFlow retrieves a full flow by its ID, nodes in their saved order.
// Returns nil, nil if the flow doesn't exist.
func (s *PGStore) GetFlow(ctx context.Context, flowID string) (*walletflow.Flow, error) {
	f := &walletflow.Flow{ID: flowID}
	var network string

	err := s.db.QueryRow(ctx,
		`SELECT version, network, metadata FROM flows WHERE id = $1`, flowID,
	).Scan(&f.Version, &network, &f.Metadata)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walletflow: get flow: %w", err)
	}
	f.Network = walletflow.Network(network)

	if f.Nodes, err = listNodes(ctx, s.db, flowID); err != nil {
		return nil, err
	}
	if f.Edges, err = listEdges(ctx, s.db, flowID); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFlow removes a flow; nodes, edges and programs are cascade-deleted by the DB.
// No error if the flow doesn't exist.
func (s *PGStore) DeleteFlow(ctx context.Context, flowID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM flows WHERE id = $1`, flowID); err != nil {
		return fmt.Errorf("walletflow: delete flow: %w", err)
	}
	return nil
}
