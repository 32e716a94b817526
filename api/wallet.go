package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/wallet"
)

type walletRequest struct {
	Network   walletflow.Network `json:"network"`
	Namespace string             `json:"namespace"`
	PublicKey string             `json:"publicKey"`
}

// walletError maps wallet service errors to 400s; anything else goes to the error handler.
func walletError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, wallet.ErrFaucetUnavailable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Faucet not available on mainnet"})
	case errors.Is(err, wallet.ErrInvalidPublicKey):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid public key"})
	case errors.Is(err, wallet.ErrInvalidNetwork):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid network"})
	}
	return err
}

func (s *Server) generateWallet(c fiber.Ctx) error {
	var req walletRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}
	w, err := s.Wallets.Generate(c.Context(), req.Namespace, s.network(req.Network))
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "wallet": w})
}

func (s *Server) faucet(c fiber.Ctx) error {
	var req walletRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}
	drop, balance, err := s.Wallets.Airdrop(c.Context(), req.Namespace, req.PublicKey, s.network(req.Network))
	if err != nil {
		return walletError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"signature": drop.Signature,
		"amount":    drop.Amount,
		"network":   drop.Network,
		"balance":   balance,
	})
}

func (s *Server) listWallets(c fiber.Ctx) error {
	list, err := s.Wallets.List(c.Context(), c.Params("namespace"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"wallets": list})
}

func (s *Server) saveWallet(c fiber.Ctx) error {
	var w walletflow.Wallet
	if err := c.Bind().JSON(&w); err != nil {
		return badJSON(c)
	}
	w.Network = s.network(w.Network)
	if err := s.Wallets.Save(c.Context(), c.Params("namespace"), &w); err != nil {
		return walletError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) deleteWallet(c fiber.Ctx) error {
	if err := s.Wallets.Delete(c.Context(), c.Params("namespace"), c.Params("publicKey")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
