package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flows (
    id         TEXT PRIMARY KEY,
    version    TEXT NOT NULL DEFAULT '',
    network    TEXT NOT NULL DEFAULT '',
    metadata   JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flow_nodes (
    flow_id  TEXT NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
    id       TEXT NOT NULL,
    seq      INTEGER NOT NULL,
    type     TEXT NOT NULL,
    position JSONB,
    data     JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (flow_id, id)
);

CREATE TABLE IF NOT EXISTS flow_edges (
    flow_id       TEXT NOT NULL,
    id            TEXT NOT NULL,
    seq           INTEGER NOT NULL,
    source        TEXT NOT NULL,
    target        TEXT NOT NULL,
    source_handle TEXT NOT NULL DEFAULT '',
    target_handle TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (flow_id, id),
    FOREIGN KEY (flow_id, source) REFERENCES flow_nodes(flow_id, id) ON DELETE CASCADE,
    FOREIGN KEY (flow_id, target) REFERENCES flow_nodes(flow_id, id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS programs (
    id         TEXT PRIMARY KEY,
    flow_id    TEXT REFERENCES flows(id) ON DELETE CASCADE,
    body       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS wallets (
    namespace   TEXT NOT NULL,
    public_key  TEXT NOT NULL,
    body        JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (namespace, public_key)
);

CREATE INDEX IF NOT EXISTS idx_flow_nodes_seq   ON flow_nodes(flow_id, seq);
CREATE INDEX IF NOT EXISTS idx_flow_edges_seq   ON flow_edges(flow_id, seq);
CREATE INDEX IF NOT EXISTS idx_programs_flow_id ON programs(flow_id);
`

// CreateSchema creates the flow, program and wallet tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every table CreateSchema creates.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS wallets, programs, flow_edges, flow_nodes, flows CASCADE;`)
	return err
}
