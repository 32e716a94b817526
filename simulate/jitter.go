package simulate

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// RandomJitter draws gas from the ranges the playground showed and fails steps with a
// fixed probability. It is safe for concurrent use.
type RandomJitter struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
}

// NewRandomJitter uses rng (a fresh PCG source when nil) and fails each eligible step
// with probability failureRate.
func NewRandomJitter(rng *rand.Rand, failureRate float64) *RandomJitter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomJitter{rng: rng, failureRate: failureRate}
}

func (j *RandomJitter) Gas(step Step) int {
	base, spread := gasRange(step.ID)
	if spread == 0 {
		return step.GasUsed
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return base + j.rng.IntN(spread)
}

func (j *RandomJitter) Fail(Step) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Float64() < j.failureRate
}

func gasRange(stepID string) (base, spread int) {
	switch {
	case strings.HasPrefix(stepID, "tx-"):
		return 2000, 5000
	case strings.HasPrefix(stepID, "token-"):
		return 1500, 3000
	case strings.HasPrefix(stepID, "condition-"):
		return 500, 1000
	}
	return 0, 0
}
