// Package api exposes the compiler, simulator, contract tools, analysis, wallet service
// and flow store over HTTP with fiber.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/analysis"
	"github.com/meikuraledutech/walletflow/compiler"
	"github.com/meikuraledutech/walletflow/metrics"
	"github.com/meikuraledutech/walletflow/simulate"
	"github.com/meikuraledutech/walletflow/wallet"
	"go.uber.org/zap"
)

// Server holds the dependencies of the HTTP handlers. Store, Compiler, Simulator,
// Analyzer and Wallets are required; Metrics and Logger are optional.
type Server struct {
	Store     walletflow.Store
	Compiler  *compiler.Compiler
	Simulator *simulate.Simulator
	Analyzer  analysis.Provider
	Wallets   *wallet.Service
	Metrics   *metrics.Collector
	Logger    *zap.Logger

	// DefaultNetwork applies to requests that name no network. Default devnet.
	DefaultNetwork walletflow.Network
	// AnalysisTimeout bounds each analysis call. Zero means no extra bound.
	AnalysisTimeout time.Duration
	// BatchLimit caps concurrent compilations per batch request. Default 8.
	BatchLimit int
	// RequestTimeout bounds reading a request and writing its response. Zero means none.
	RequestTimeout time.Duration

	Clock func() time.Time
}

func (s *Server) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Server) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *Server) network(n walletflow.Network) walletflow.Network {
	if n != "" {
		return n
	}
	if s.DefaultNetwork != "" {
		return s.DefaultNetwork
	}
	return walletflow.Devnet
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: s.handleError,
		ReadTimeout:  s.RequestTimeout,
		WriteTimeout: s.RequestTimeout,
	})

	app.Use(s.observe)
	app.Use(recoverer.New())

	// ── Compiler ──────────────────────────────────────────────────────
	app.Post("/api/compile", s.compile)
	app.Post("/api/compile/batch", s.compileBatch)
	app.Post("/api/validate", s.validate)
	app.Get("/api/nodes", s.nodeCatalog)
	app.Get("/api/nodes/:type/defaults", s.nodeDefaults)
	app.Post("/api/simulate", s.simulate)
	app.Post("/api/contract/generate", s.generateContract)
	app.Post("/api/contract/validate", s.validateContract)

	// ── Analysis and wallets ──────────────────────────────────────────
	app.Post("/api/groq/analyze", s.analyze)
	app.Post("/api/wallet/generate", s.generateWallet)
	app.Post("/api/faucet", s.faucet)
	app.Get("/api/wallets/:namespace", s.listWallets)
	app.Post("/api/wallets/:namespace", s.saveWallet)
	app.Delete("/api/wallets/:namespace/:publicKey", s.deleteWallet)

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", s.createSchema)
	app.Delete("/schema", s.dropSchema)

	// ── Flows (bulk) ──────────────────────────────────────────────────
	app.Post("/flows", s.saveFlow)
	app.Get("/flows/:id", s.getFlow)
	app.Delete("/flows/:id", s.deleteFlow)
	app.Post("/flows/:id/compile", s.compileStored)
	app.Get("/flows/:id/programs", s.listPrograms)
	app.Get("/programs/:id", s.getProgram)

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/nodes", s.addNode)
	app.Get("/flows/:id/nodes", s.listNodes)
	app.Get("/flows/:id/nodes/:nodeId", s.getNode)
	app.Put("/flows/:id/nodes/:nodeId", s.updateNode)
	app.Delete("/flows/:id/nodes/:nodeId", s.deleteNode)

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/edges", s.addEdge)
	app.Get("/flows/:id/edges", s.listEdges)
	app.Delete("/flows/:id/edges/:edgeId", s.deleteEdge)

	if s.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))
	}

	return app
}

// handleError answers errors no handler turned into a response. Internal details are
// logged, never sent.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	s.logger().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
