package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/compiler"
	"github.com/meikuraledutech/walletflow/contract"
	"go.uber.org/zap"
)

const maxBatch = 100

type compileOptions struct {
	Strict bool `json:"strict"`
}

type compileRequest struct {
	Program json.RawMessage    `json:"program"`
	Flow    json.RawMessage    `json:"flow"`
	Network walletflow.Network `json:"network"`
	Options compileOptions     `json:"options"`
}

// document returns the flow the request carries under "program" or "flow".
func (r compileRequest) document() json.RawMessage {
	if present(r.Program) {
		return r.Program
	}
	return r.Flow
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// mode never drops below the compiler's own mode, so a flow accepted here is accepted by
// Compile too.
func (s *Server) mode(strict bool) compiler.Mode {
	if strict || s.Compiler.Mode() == compiler.ModeStrict {
		return compiler.ModeStrict
	}
	return compiler.ModeBasic
}

// decodeFlow validates and decodes a flow document. A missing document is read as an
// empty object. The request network, when set, overrides the flow's own.
func (s *Server) decodeFlow(raw json.RawMessage, network walletflow.Network, mode compiler.Mode) (*walletflow.Flow, compiler.ValidationResult) {
	if !present(raw) {
		raw = json.RawMessage("{}")
	}
	f, res := compiler.DecodeFlow(raw, mode)
	if !res.OK {
		return nil, res
	}
	if network != "" {
		f.Network = network
	}
	return f, res
}

func invalid(c fiber.Ctx, errs []string) error {
	msg := compiler.MsgInvalidStructure
	if len(errs) == 1 && errs[0] == compiler.MsgInvalidJSON {
		msg = compiler.MsgInvalidJSON
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
		"errors":  errs,
	})
}

func badJSON(c fiber.Ctx) error {
	return invalid(c, []string{compiler.MsgInvalidJSON})
}

func (s *Server) compile(c fiber.Ctx) error {
	var req compileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}

	f, res := s.decodeFlow(req.document(), req.Network, s.mode(req.Options.Strict))
	if !res.OK {
		return invalid(c, res.Errors)
	}

	p, err := s.Compiler.Compile(f)
	if err != nil {
		var se *compiler.StructuralError
		if errors.As(err, &se) {
			return invalid(c, se.Errors)
		}
		s.logger().Error("compile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Compilation failed",
		})
	}
	return c.JSON(fiber.Map{"success": true, "program": p})
}

type batchRequest struct {
	Flows   []json.RawMessage  `json:"flows"`
	Network walletflow.Network `json:"network"`
	Options compileOptions     `json:"options"`
}

func (s *Server) compileBatch(c fiber.Ctx) error {
	var req batchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}
	if len(req.Flows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "No flows provided"})
	}
	if len(req.Flows) > maxBatch {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Too many flows"})
	}

	mode := s.mode(req.Options.Strict)
	results := make([]compiler.BatchResult, len(req.Flows))
	var (
		flows []*walletflow.Flow
		slots []int
	)
	for i, raw := range req.Flows {
		f, res := s.decodeFlow(raw, req.Network, mode)
		if !res.OK {
			results[i] = compiler.BatchResult{Errors: res.Errors}
			continue
		}
		flows = append(flows, f)
		slots = append(slots, i)
	}

	limit := s.BatchLimit
	if limit == 0 {
		limit = 8
	}
	compiled, err := s.Compiler.CompileAll(c.Context(), flows, limit)
	if err != nil {
		return err
	}
	for j, r := range compiled {
		results[slots[j]] = r
	}
	return c.JSON(fiber.Map{"success": true, "results": results})
}

func (s *Server) validate(c fiber.Ctx) error {
	mode := compiler.ParseMode(c.Query("mode"))
	return c.JSON(compiler.ValidateFlow(c.Body(), mode))
}

func (s *Server) nodeCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"nodes": compiler.Catalog()})
}

func (s *Server) nodeDefaults(c fiber.Ctx) error {
	t := walletflow.NodeType(c.Params("type"))
	network := s.network(walletflow.Network(c.Query("network")))
	if !network.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid network"})
	}
	return c.JSON(fiber.Map{
		"type":  t,
		"known": t.Known(),
		"data":  compiler.DefaultData(t, network),
	})
}

func (s *Server) simulate(c fiber.Ctx) error {
	var req compileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}

	var p *walletflow.CompiledProgram
	if present(req.Program) {
		p = &walletflow.CompiledProgram{}
		if err := json.Unmarshal(req.Program, p); err != nil || p.Instructions == nil {
			// Not a compiled program; try it as a flow.
			p = nil
		}
	}
	if p == nil {
		f, res := s.decodeFlow(req.document(), req.Network, s.mode(req.Options.Strict))
		if !res.OK {
			return invalid(c, res.Errors)
		}
		compiled, err := s.Compiler.Compile(f)
		if err != nil {
			var se *compiler.StructuralError
			if errors.As(err, &se) {
				return invalid(c, se.Errors)
			}
			return err
		}
		p = compiled
	}

	result, err := s.Simulator.Run(c.Context(), p, nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "result": result})
}

type contractRequest struct {
	Flow    json.RawMessage    `json:"flow"`
	Network walletflow.Network `json:"network"`
}

func (s *Server) generateContract(c fiber.Ctx) error {
	var req contractRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badJSON(c)
	}
	f, res := s.decodeFlow(req.Flow, "", compiler.ModeBasic)
	if !res.OK {
		return invalid(c, res.Errors)
	}
	network := req.Network
	if network == "" && f.Network == "" {
		network = s.network("")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"contract": contract.FromFlow(f, network, s.now()),
	})
}

func (s *Server) validateContract(c fiber.Ctx) error {
	return c.JSON(contract.Validate(c.Body()))
}
