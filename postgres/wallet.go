package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/walletflow"
)

// SaveWallet upserts a wallet record under namespace, keyed by its public key.
func (s *PGStore) SaveWallet(ctx context.Context, namespace string, w *walletflow.Wallet) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO wallets (namespace, public_key, body) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, public_key) DO UPDATE SET body = EXCLUDED.body`,
		namespace, w.PublicKey, w,
	)
	if err != nil {
		return fmt.Errorf("walletflow: save wallet: %w", err)
	}
	return nil
}

// ListWallets returns the records of a namespace, oldest first.
func (s *PGStore) ListWallets(ctx context.Context, namespace string) ([]walletflow.Wallet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT body FROM wallets WHERE namespace = $1 ORDER BY created_at, public_key`, namespace)
	if err != nil {
		return nil, fmt.Errorf("walletflow: list wallets: %w", err)
	}
	defer rows.Close()

	wallets := []walletflow.Wallet{}
	for rows.Next() {
		var w walletflow.Wallet
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("walletflow: scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("walletflow: rows wallets: %w", err)
	}
	return wallets, nil
}

// DeleteWallet removes a record.
// No error if it doesn't exist.
func (s *PGStore) DeleteWallet(ctx context.Context, namespace, publicKey string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM wallets WHERE namespace = $1 AND public_key = $2`, namespace, publicKey)
	if err != nil {
		return fmt.Errorf("walletflow: delete wallet: %w", err)
	}
	return nil
}
