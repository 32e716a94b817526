package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/meikuraledutech/walletflow"
	"go.uber.org/zap"
)

// Service ties key generation, the faucet and wallet records together.
type Service struct {
	Generator Generator
	Faucet    Faucet
	Ledger    *Ledger
	store     walletflow.Store
	logger    *zap.Logger
}

// NewService keeps records in store. A nil logger discards logs.
func NewService(store walletflow.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Ledger: NewLedger(), store: store, logger: logger}
}

// Generate creates a wallet and, when namespace is set, records it without its private
// key. The returned wallet carries the private key; it is never stored.
func (s *Service) Generate(ctx context.Context, namespace string, network walletflow.Network) (*walletflow.Wallet, error) {
	w, err := s.Generator.Generate(network)
	if err != nil {
		return nil, err
	}
	if namespace != "" {
		record := *w
		record.PrivateKey = ""
		if err := s.store.SaveWallet(ctx, namespace, &record); err != nil {
			return nil, err
		}
	}
	s.logger.Info("wallet generated",
		zap.String("public_key", w.PublicKey),
		zap.String("network", string(network)))
	return w, nil
}

// Airdrop requests test SOL and credits the ledger. A record of the key in namespace, if
// any, gets the new balance.
func (s *Service) Airdrop(ctx context.Context, namespace, publicKey string, network walletflow.Network) (*Airdrop, float64, error) {
	drop, err := s.Faucet.Airdrop(ctx, publicKey, network)
	if err != nil {
		return nil, 0, err
	}
	balance := s.Ledger.Credit(network, publicKey, drop.Amount)

	if namespace != "" {
		records, err := s.store.ListWallets(ctx, namespace)
		if err != nil {
			return nil, 0, err
		}
		for i := range records {
			if records[i].PublicKey == publicKey && records[i].Network == network {
				records[i].Balance = balance
				if err := s.store.SaveWallet(ctx, namespace, &records[i]); err != nil {
					return nil, 0, err
				}
				break
			}
		}
	}

	s.logger.Info("airdrop granted",
		zap.String("public_key", publicKey),
		zap.String("network", string(network)),
		zap.Float64("amount", drop.Amount))
	return drop, balance, nil
}

// Save records w under namespace. Private keys are dropped.
func (s *Service) Save(ctx context.Context, namespace string, w *walletflow.Wallet) error {
	if _, err := solana.PublicKeyFromBase58(w.PublicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if err := checkNetwork(w.Network); err != nil {
		return err
	}
	record := *w
	record.PrivateKey = ""
	return s.store.SaveWallet(ctx, namespace, &record)
}

func (s *Service) List(ctx context.Context, namespace string) ([]walletflow.Wallet, error) {
	return s.store.ListWallets(ctx, namespace)
}

func (s *Service) Delete(ctx context.Context, namespace, publicKey string) error {
	return s.store.DeleteWallet(ctx, namespace, publicKey)
}
