package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/walletflow"
)

// SaveProgram stores a compiled program, replacing one with the same ID. Programs with a
// FlowID are deleted together with their flow.
func (s *PGStore) SaveProgram(ctx context.Context, p *walletflow.CompiledProgram) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO programs (id, flow_id, body) VALUES ($1, NULLIF($2, ''), $3)
		 ON CONFLICT (id) DO UPDATE SET flow_id = EXCLUDED.flow_id, body = EXCLUDED.body`,
		p.ID, p.FlowID, p,
	)
	if err != nil {
		return fmt.Errorf("walletflow: save program: %w", err)
	}
	return nil
}

// GetProgram fetches a program by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetProgram(ctx context.Context, programID string) (*walletflow.CompiledProgram, error) {
	var p walletflow.CompiledProgram
	err := s.db.QueryRow(ctx, `SELECT body FROM programs WHERE id = $1`, programID).Scan(&p)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walletflow: get program: %w", err)
	}
	return &p, nil
}

// ListPrograms returns the programs compiled from a flow, oldest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListPrograms(ctx context.Context, flowID string) ([]walletflow.CompiledProgram, error) {
	rows, err := s.db.Query(ctx,
		`SELECT body FROM programs WHERE flow_id = $1 ORDER BY created_at, id`, flowID)
	if err != nil {
		return nil, fmt.Errorf("walletflow: list programs: %w", err)
	}
	defer rows.Close()

	programs := []walletflow.CompiledProgram{}
	for rows.Next() {
		var p walletflow.CompiledProgram
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("walletflow: scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("walletflow: rows programs: %w", err)
	}
	return programs, nil
}
