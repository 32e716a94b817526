// Package compiler validates flows and compiles them into instruction programs.
//
// Compilation is a pure function of the node sequence and edge count: recompiling the
// same nodes yields byte-identical bytecode and identical instructions. Only the program
// id and compiledAt differ between runs.
package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/walletflow"
	"go.uber.org/zap"
)

// Compiler assembles compiled programs from flow snapshots. It holds no mutable state
// besides the optional cache and is safe for concurrent use.
type Compiler struct {
	cfg *config
}

// New creates a Compiler with the given options.
func New(opts ...Option) *Compiler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Compiler{cfg: cfg}
}

// Mode returns the validation mode the compiler applies.
func (c *Compiler) Mode() Mode {
	return c.cfg.mode
}

// CompileFlow compiles f with default options.
func CompileFlow(f *walletflow.Flow) (*walletflow.CompiledProgram, error) {
	return New().Compile(f)
}

// Compile validates f and assembles a CompiledProgram.
// A flow that fails validation returns a *StructuralError and no program.
func (c *Compiler) Compile(f *walletflow.Flow) (*walletflow.CompiledProgram, error) {
	start := c.cfg.clock()

	if res := c.validate(f); !res.OK {
		c.observeValidation(len(res.Errors))
		c.observeCompile(false, c.cfg.clock().Sub(start))
		c.cfg.logger.Debug("flow rejected",
			zap.String("mode", c.cfg.mode.String()),
			zap.Strings("errors", res.Errors))
		return nil, res.Err()
	}

	art := c.artifact(f.Nodes, len(f.Edges))

	network := f.Network
	if network == "" {
		network = c.cfg.defaultNetwork
	}
	version := f.Version
	if version == "" {
		version = c.cfg.defaultVersion
	}

	instructions := make([]walletflow.Instruction, len(art.instructions))
	copy(instructions, art.instructions)
	for i := range instructions {
		instructions[i].Data = f.Nodes[i].Data
	}

	p := &walletflow.CompiledProgram{
		ID:           c.cfg.newID(start),
		FlowID:       f.ID,
		Version:      version,
		Network:      network,
		Bytecode:     art.bytecode,
		Instructions: instructions,
		EstimatedGas: art.gas,
		CompiledAt:   FormatTimestamp(start),
		Metadata: walletflow.ProgramMetadata{
			NodeCount:  len(f.Nodes),
			EdgeCount:  len(f.Edges),
			Complexity: art.complexity,
		},
	}

	c.observeCompile(true, c.cfg.clock().Sub(start))
	c.cfg.logger.Debug("flow compiled",
		zap.String("program_id", p.ID),
		zap.Int("nodes", p.Metadata.NodeCount),
		zap.Int("edges", p.Metadata.EdgeCount),
		zap.Int("gas", p.EstimatedGas))

	return p, nil
}

func (c *Compiler) validate(f *walletflow.Flow) ValidationResult {
	if c.cfg.mode == ModeStrict {
		return Check(f, ModeStrict)
	}
	if f == nil || f.Nodes == nil {
		return result([]string{MsgInvalidStructure})
	}
	return result(nil)
}

// artifact is the deterministic part of a compiled program.
type artifact struct {
	bytecode     string
	instructions []walletflow.Instruction
	gas          int
	complexity   walletflow.Complexity
}

// withoutData returns a copy of a whose instructions carry no node data.
func (a artifact) withoutData() artifact {
	instructions := make([]walletflow.Instruction, len(a.instructions))
	for i, ins := range a.instructions {
		ins.Data = nil
		instructions[i] = ins
	}
	a.instructions = instructions
	return a
}

func buildArtifact(nodes []walletflow.Node, edgeCount int) artifact {
	bytecode, instructions := CompileNodes(nodes)
	return artifact{
		bytecode:     bytecode,
		instructions: instructions,
		gas:          EstimateGas(nodes),
		complexity:   EstimateComplexity(len(nodes), edgeCount),
	}
}

func (c *Compiler) artifact(nodes []walletflow.Node, edgeCount int) artifact {
	if c.cfg.cache == nil {
		return buildArtifact(nodes, edgeCount)
	}
	art, hit := c.cfg.cache.get(nodes, edgeCount)
	if c.cfg.observer != nil {
		c.cfg.observer.ObserveCache(hit)
	}
	return art
}

// CompileNodes emits the bytecode and one instruction per node, in node order.
// Types without opcodes contribute nothing to the bytecode but still get an instruction.
func CompileNodes(nodes []walletflow.Node) (string, []walletflow.Instruction) {
	var ops []string
	instructions := make([]walletflow.Instruction, 0, len(nodes))

	for i, n := range nodes {
		for _, op := range opcodeTable[n.Type] {
			ops = append(ops, string(op))
		}
		instructions = append(instructions, walletflow.Instruction{
			Index:       i,
			Type:        n.Type,
			Operation:   Operation(n.Type),
			GasEstimate: GasCost(n.Type),
			Data:        n.Data,
		})
	}

	return strings.Join(ops, "\n"), instructions
}

// NewProgramID returns "prog_<unix millis>_<6 random characters>".
func NewProgramID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("prog_%d_%s", now.UnixMilli(), suffix)
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func (c *Compiler) observeCompile(ok bool, elapsed time.Duration) {
	if c.cfg.observer != nil {
		c.cfg.observer.ObserveCompile(ok, elapsed)
	}
}

func (c *Compiler) observeValidation(n int) {
	if c.cfg.observer != nil {
		c.cfg.observer.ObserveValidation(n)
	}
}
