package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/walletflow"
)

// AddEdge inserts a single edge into a flow.
// If edge.ID is empty it is named "<source>-<target>".
// Validates that both ends exist and that adding this edge does not create a cycle.
// Returns the edge ID (generated or provided).
func (s *PGStore) AddEdge(ctx context.Context, flowID string, edge *walletflow.Edge) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("walletflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := flowExists(ctx, tx, flowID)
	if err != nil {
		return "", fmt.Errorf("walletflow: find flow: %w", err)
	}
	if !ok {
		return "", walletflow.ErrFlowNotFound
	}

	// Fetch existing edges + nodes for validation.
	nodes, err := listNodes(ctx, tx, flowID)
	if err != nil {
		return "", err
	}
	edges, err := listEdges(ctx, tx, flowID)
	if err != nil {
		return "", err
	}

	taken := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		taken[e.ID] = struct{}{}
	}
	if edge.ID == "" {
		edge.ID = walletflow.EdgeID(edge.Source, edge.Target, taken)
	}
	if _, dup := taken[edge.ID]; dup {
		return "", fmt.Errorf("%w: %q", walletflow.ErrDuplicateEdge, edge.ID)
	}

	edges = append(edges, *edge)
	if err := walletflow.CheckEdges(nodes, edges); err != nil {
		return "", err
	}
	if err := walletflow.CheckAcyclic(nodes, edges); err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO flow_edges (flow_id, id, seq, source, target, source_handle, target_handle)
		 SELECT $1, $2, COALESCE(MAX(seq) + 1, 0), $3, $4, $5, $6 FROM flow_edges WHERE flow_id = $1`,
		flowID, edge.ID, edge.Source, edge.Target, edge.SourceHandle, edge.TargetHandle,
	); err != nil {
		return "", fmt.Errorf("walletflow: insert edge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("walletflow: commit: %w", err)
	}
	return edge.ID, nil
}

// DeleteEdge deletes an edge of a flow.
// No error if the edge doesn't exist.
func (s *PGStore) DeleteEdge(ctx context.Context, flowID, edgeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_edges WHERE flow_id = $1 AND id = $2`, flowID, edgeID)
	if err != nil {
		return fmt.Errorf("walletflow: delete edge: %w", err)
	}
	return nil
}

// ListEdges returns all edges of a flow in insertion order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEdges(ctx context.Context, flowID string) ([]walletflow.Edge, error) {
	return listEdges(ctx, s.db, flowID)
}

func listEdges(ctx context.Context, q querier, flowID string) ([]walletflow.Edge, error) {
	rows, err := q.Query(ctx,
		`SELECT id, source, target, source_handle, target_handle FROM flow_edges
		 WHERE flow_id = $1 ORDER BY seq`, flowID)
	if err != nil {
		return nil, fmt.Errorf("walletflow: list edges: %w", err)
	}
	defer rows.Close()

	edges := []walletflow.Edge{}
	for rows.Next() {
		var e walletflow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle); err != nil {
			return nil, fmt.Errorf("walletflow: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("walletflow: rows edges: %w", err)
	}
	return edges, nil
}
