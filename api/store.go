package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/compiler"
)

// storeError answers the store's sentinel errors; anything else goes to the error handler.
func storeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, walletflow.ErrFlowNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "flow not found"})
	case errors.Is(err, walletflow.ErrNodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node not found"})
	case errors.Is(err, walletflow.ErrCycleDetected):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "cycle detected"})
	case errors.Is(err, walletflow.ErrDanglingEdge):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, walletflow.ErrDuplicateNode), errors.Is(err, walletflow.ErrDuplicateEdge):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return err
}

func invalidBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}

// ── Schema ────────────────────────────────────────────────────────────

func (s *Server) createSchema(c fiber.Ctx) error {
	if err := s.Store.CreateSchema(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (s *Server) dropSchema(c fiber.Ctx) error {
	if err := s.Store.DropSchema(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

// ── Flows ─────────────────────────────────────────────────────────────

func (s *Server) saveFlow(c fiber.Ctx) error {
	var f walletflow.Flow
	if err := c.Bind().JSON(&f); err != nil {
		return invalidBody(c)
	}
	if f.Nodes == nil {
		f.Nodes = []walletflow.Node{}
	}
	f.Network = s.network(f.Network)
	if !f.Network.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid network"})
	}
	meta := compiler.Summarize(&f, s.now())
	f.Metadata = &meta

	result, err := s.Store.SaveFlow(c.Context(), &f)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) getFlow(c fiber.Ctx) error {
	f, err := s.Store.GetFlow(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if f == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "flow not found"})
	}
	return c.JSON(f)
}

func (s *Server) deleteFlow(c fiber.Ctx) error {
	if err := s.Store.DeleteFlow(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// compileStored compiles the stored flow as it is now and keeps the program.
func (s *Server) compileStored(c fiber.Ctx) error {
	f, err := s.Store.GetFlow(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if f == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "flow not found"})
	}

	p, err := s.Compiler.Compile(f)
	if err != nil {
		var se *compiler.StructuralError
		if errors.As(err, &se) {
			return invalid(c, se.Errors)
		}
		return err
	}
	if err := s.Store.SaveProgram(c.Context(), p); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "program": p})
}

func (s *Server) listPrograms(c fiber.Ctx) error {
	programs, err := s.Store.ListPrograms(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(programs)
}

func (s *Server) getProgram(c fiber.Ctx) error {
	p, err := s.Store.GetProgram(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "program not found"})
	}
	return c.JSON(p)
}

// ── Nodes ─────────────────────────────────────────────────────────────

// addNode fills in the default data of the node type when the body carries none.
func (s *Server) addNode(c fiber.Ctx) error {
	var node walletflow.Node
	if err := c.Bind().JSON(&node); err != nil {
		return invalidBody(c)
	}
	if node.Data == nil {
		node.Data = compiler.DefaultData(node.Type, s.network(walletflow.Network(c.Query("network"))))
	}
	id, err := s.Store.AddNode(c.Context(), c.Params("id"), &node)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) listNodes(c fiber.Ctx) error {
	nodes, err := s.Store.ListNodes(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(nodes)
}

func (s *Server) getNode(c fiber.Ctx) error {
	n, err := s.Store.GetNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return err
	}
	if n == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node not found"})
	}
	return c.JSON(n)
}

func (s *Server) updateNode(c fiber.Ctx) error {
	var node walletflow.Node
	if err := c.Bind().JSON(&node); err != nil {
		return invalidBody(c)
	}
	node.ID = c.Params("nodeId")
	if err := s.Store.UpdateNode(c.Context(), c.Params("id"), &node); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) deleteNode(c fiber.Ctx) error {
	if err := s.Store.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Edges ─────────────────────────────────────────────────────────────

func (s *Server) addEdge(c fiber.Ctx) error {
	var edge walletflow.Edge
	if err := c.Bind().JSON(&edge); err != nil {
		return invalidBody(c)
	}
	id, err := s.Store.AddEdge(c.Context(), c.Params("id"), &edge)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) listEdges(c fiber.Ctx) error {
	edges, err := s.Store.ListEdges(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(edges)
}

func (s *Server) deleteEdge(c fiber.Ctx) error {
	if err := s.Store.DeleteEdge(c.Context(), c.Params("id"), c.Params("edgeId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
