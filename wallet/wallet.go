// Package wallet generates Solana keypairs, hands out mock faucet airdrops and keeps
// wallet records in a walletflow.Store.
package wallet

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/meikuraledutech/walletflow"
)

var (
	ErrFaucetUnavailable = errors.New("wallet: faucet not available on mainnet")
	ErrInvalidPublicKey  = errors.New("wallet: invalid public key")
	ErrInvalidNetwork    = errors.New("wallet: invalid network")
)

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func checkNetwork(n walletflow.Network) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, n)
	}
	return nil
}

// Generator creates fresh ed25519 keypairs.
type Generator struct {
	Clock func() time.Time
}

// Generate returns a new wallet with a zero balance. Keys are base58 encoded.
func (g Generator) Generate(network walletflow.Network) (*walletflow.Wallet, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	clock := g.Clock
	if clock == nil {
		clock = time.Now
	}
	return &walletflow.Wallet{
		PublicKey:  key.PublicKey().String(),
		PrivateKey: key.String(),
		Network:    network,
		Created:    timestamp(clock()),
	}, nil
}

// Airdrop is a granted faucet request.
type Airdrop struct {
	Signature string             `json:"signature"`
	Amount    float64            `json:"amount"`
	Network   walletflow.Network `json:"network"`
	PublicKey string             `json:"publicKey"`
}

// Faucet grants test SOL. No transaction is sent; signatures are random.
type Faucet struct {
	// Delay mimics network latency. Zero means none.
	Delay time.Duration
}

// AirdropAmount is the SOL granted per request on network, zero where there is no faucet.
func AirdropAmount(network walletflow.Network) float64 {
	switch network {
	case walletflow.Devnet:
		return 2
	case walletflow.Testnet:
		return 1
	}
	return 0
}

func (f Faucet) Airdrop(ctx context.Context, publicKey string, network walletflow.Network) (*Airdrop, error) {
	if network == walletflow.Mainnet {
		return nil, ErrFaucetUnavailable
	}
	if err := checkNetwork(network); err != nil {
		return nil, err
	}
	if _, err := solana.PublicKeyFromBase58(publicKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return nil, fmt.Errorf("wallet: signature: %w", err)
	}
	return &Airdrop{
		Signature: sig.String(),
		Amount:    AirdropAmount(network),
		Network:   network,
		PublicKey: publicKey,
	}, nil
}

// Ledger tracks balances credited by the faucet, per network and public key.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]float64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]float64)}
}

func ledgerKey(network walletflow.Network, publicKey string) string {
	return string(network) + "/" + publicKey
}

// Credit adds amount and returns the new balance.
func (l *Ledger) Credit(network walletflow.Network, publicKey string, amount float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := ledgerKey(network, publicKey)
	l.balances[k] += amount
	return l.balances[k]
}

func (l *Ledger) Balance(network walletflow.Network, publicKey string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[ledgerKey(network, publicKey)]
}
