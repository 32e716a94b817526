// Package simulate dry-runs a compiled program step by step without touching a network.
package simulate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/meikuraledutech/walletflow"
	"go.uber.org/zap"
)

// Status of a step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// feePerGas converts gas into a mock network fee in SOL.
const feePerGas = 0.000005

// Step is one stage of a simulation.
type Step struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	DurationMs int64  `json:"duration"`
	Details    string `json:"details"`
	GasUsed    int    `json:"gasUsed,omitempty"`
}

// Result summarizes a finished simulation.
type Result struct {
	Success        bool               `json:"success"`
	Error          string             `json:"error,omitempty"`
	ProgramID      string             `json:"programId"`
	Network        walletflow.Network `json:"network"`
	Steps          []Step             `json:"steps"`
	TotalGasUsed   int                `json:"totalGasUsed"`
	ExecutionTime  int64              `json:"executionTime"`
	StepsCompleted int                `json:"stepsCompleted"`
	TotalSteps     int                `json:"totalSteps"`
	NetworkFee     float64            `json:"networkFee"`
	Timestamp      string             `json:"timestamp"`
}

// Jitter perturbs simulated gas and decides failures. It is the only source of
// randomness in a simulation; without one, runs are deterministic and always succeed.
type Jitter interface {
	Gas(step Step) int
	Fail(step Step) bool
}

// Simulator runs compiled programs.
type Simulator struct {
	pacing float64
	jitter Jitter
	clock  func() time.Time
	logger *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPacing sleeps scale times each step's duration between steps. Zero disables pacing.
func WithPacing(scale float64) Option {
	return func(s *Simulator) {
		if scale > 0 {
			s.pacing = scale
		}
	}
}

// WithJitter installs a source of randomness.
func WithJitter(j Jitter) Option {
	return func(s *Simulator) {
		s.jitter = j
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{clock: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan lists the steps a program goes through: initialization, one step per wallet,
// transaction, token and conditional instruction, then finalization. Other instruction
// types have no simulated effect and are skipped. A nil program plans as an empty one.
func Plan(p *walletflow.CompiledProgram) []Step {
	if p == nil {
		p = &walletflow.CompiledProgram{}
	}
	steps := []Step{{
		ID:         "init",
		Name:       "Initialize Simulation",
		DurationMs: 500,
		Details:    "Setting up simulation environment",
	}}

	for _, ins := range p.Instructions {
		idx := strconv.Itoa(ins.Index)
		switch d := walletflow.DecodeData(ins.Type, ins.Data).(type) {
		case walletflow.WalletData:
			addr := d.Address
			if addr == "" {
				addr = "Generated"
			}
			steps = append(steps, Step{
				ID:         "wallet-" + idx,
				Name:       "Connect Wallet",
				DurationMs: 1000,
				Details:    "Connecting to wallet: " + addr,
			})
		case walletflow.TransactionData:
			steps = append(steps, Step{
				ID:         "tx-" + idx,
				Name:       "Create Transaction",
				DurationMs: 1500,
				Details:    d.Kind + " transaction",
				GasUsed:    ins.GasEstimate,
			})
		case walletflow.TokenData:
			steps = append(steps, Step{
				ID:         "token-" + idx,
				Name:       "Token Transfer",
				DurationMs: 2000,
				Details:    fmt.Sprintf("Transfer %s tokens", strconv.FormatFloat(d.Amount, 'f', -1, 64)),
				GasUsed:    ins.GasEstimate,
			})
		case walletflow.ConditionalData:
			cond := d.Condition
			if cond == "" {
				cond = "condition"
			}
			steps = append(steps, Step{
				ID:         "condition-" + idx,
				Name:       "Evaluate Condition",
				DurationMs: 800,
				Details:    "Check: " + cond,
				GasUsed:    ins.GasEstimate,
			})
		}
	}

	steps = append(steps, Step{
		ID:         "finalize",
		Name:       "Finalize Simulation",
		DurationMs: 1000,
		Details:    "Completing simulation and generating results",
	})

	for i := range steps {
		steps[i].Status = StatusPending
	}
	return steps
}

// Run executes the plan of p, calling onStep (if non-nil) after each step settles.
// A failed step ends the run with Success false; the error return is reserved for ctx
// cancellation. A nil program runs as an empty one.
func (s *Simulator) Run(ctx context.Context, p *walletflow.CompiledProgram, onStep func(Step)) (*Result, error) {
	if p == nil {
		p = &walletflow.CompiledProgram{}
	}
	steps := Plan(p)
	res := &Result{
		Success:    true,
		ProgramID:  p.ID,
		Network:    p.Network,
		TotalSteps: len(steps),
	}

	for _, step := range steps {
		res.ExecutionTime += step.DurationMs
	}

	for i := range steps {
		step := &steps[i]
		if err := s.wait(ctx, step.DurationMs); err != nil {
			return nil, err
		}

		if s.jitter != nil && step.GasUsed > 0 {
			step.GasUsed = s.jitter.Gas(*step)
		}
		if s.jitter != nil && step.ID != "init" && step.ID != "finalize" && s.jitter.Fail(*step) {
			step.Status = StatusFailed
			res.Success = false
			res.Error = "Step failed: " + step.Name
			s.logger.Debug("simulation step failed", zap.String("program_id", p.ID), zap.String("step", step.ID))
			if onStep != nil {
				onStep(*step)
			}
			break
		}

		step.Status = StatusCompleted
		res.TotalGasUsed += step.GasUsed
		res.StepsCompleted++
		if onStep != nil {
			onStep(*step)
		}
	}

	res.Steps = steps
	res.NetworkFee = float64(res.TotalGasUsed) * feePerGas
	res.Timestamp = s.clock().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	s.logger.Debug("simulation finished",
		zap.String("program_id", p.ID),
		zap.Bool("success", res.Success),
		zap.Int("gas", res.TotalGasUsed))
	return res, nil
}

func (s *Simulator) wait(ctx context.Context, ms int64) error {
	if s.pacing == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(float64(ms) * s.pacing * float64(time.Millisecond)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
