package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/walletflow"
)

// AddNode appends a node to a flow.
// If node.ID is empty, a UUID is auto-generated.
// Returns the node ID (generated or provided).
func (s *PGStore) AddNode(ctx context.Context, flowID string, node *walletflow.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.Data == nil {
		node.Data = map[string]any{}
	}

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

	_, err = tx.Exec(ctx,
		`INSERT INTO flow_nodes (flow_id, id, seq, type, position, data)
		 SELECT $1, $2, COALESCE(MAX(seq) + 1, 0), $3, $4, $5 FROM flow_nodes WHERE flow_id = $1`,
		flowID, node.ID, string(node.Type), node.Position, node.Data,
	)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: %q", walletflow.ErrDuplicateNode, node.ID)
	}
	if err != nil {
		return "", fmt.Errorf("walletflow: insert node: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("walletflow: commit: %w", err)
	}
	return node.ID, nil
}

// GetNode fetches a single node of a flow.
// Returns nil, nil if not found.
func (s *PGStore) GetNode(ctx context.Context, flowID, nodeID string) (*walletflow.Node, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, type, position, data FROM flow_nodes WHERE flow_id = $1 AND id = $2`, flowID, nodeID)

	n, err := scanNode(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walletflow: get node: %w", err)
	}
	return &n, nil
}

// UpdateNode replaces the type, position and data of an existing node. Its position in
// the node order is kept.
// Returns ErrNodeNotFound if the node doesn't exist.
func (s *PGStore) UpdateNode(ctx context.Context, flowID string, node *walletflow.Node) error {
	data := node.Data
	if data == nil {
		data = map[string]any{}
	}
	ct, err := s.db.Exec(ctx,
		`UPDATE flow_nodes SET type = $1, position = $2, data = $3 WHERE flow_id = $4 AND id = $5`,
		string(node.Type), node.Position, data, flowID, node.ID,
	)
	if err != nil {
		return fmt.Errorf("walletflow: update node: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return walletflow.ErrNodeNotFound
	}
	return nil
}

// DeleteNode deletes a node.
// Associated edges are cascade-deleted by the DB.
// No error if the node doesn't exist.
func (s *PGStore) DeleteNode(ctx context.Context, flowID, nodeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1 AND id = $2`, flowID, nodeID)
	if err != nil {
		return fmt.Errorf("walletflow: delete node: %w", err)
	}
	return nil
}

// ListNodes returns all nodes of a flow in order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, flowID string) ([]walletflow.Node, error) {
	return listNodes(ctx, s.db, flowID)
}

func listNodes(ctx context.Context, q querier, flowID string) ([]walletflow.Node, error) {
	rows, err := q.Query(ctx,
		`SELECT id, type, position, data FROM flow_nodes WHERE flow_id = $1 ORDER BY seq`, flowID)
	if err != nil {
		return nil, fmt.Errorf("walletflow: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []walletflow.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("walletflow: scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("walletflow: rows nodes: %w", err)
	}
	return nodes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (walletflow.Node, error) {
	var (
		n        walletflow.Node
		typ      string
		position []byte
	)
	if err := row.Scan(&n.ID, &typ, &position, &n.Data); err != nil {
		return n, err
	}
	n.Type = walletflow.NodeType(typ)
	if position != nil {
		n.Position = &walletflow.Position{}
		if err := json.Unmarshal(position, n.Position); err != nil {
			return n, err
		}
	}
	return n, nil
}
