package compiler

import (
	"time"

	"github.com/meikuraledutech/walletflow"
	"go.uber.org/zap"
)

// Option configures a Compiler.
type Option func(*config)

// Observer receives compile outcomes, e.g. to export metrics.
type Observer interface {
	ObserveCompile(ok bool, elapsed time.Duration)
	ObserveValidation(errorCount int)
	ObserveCache(hit bool)
}

// config holds the Compiler configuration.
type config struct {
	mode           Mode
	clock          func() time.Time
	newID          func(time.Time) string
	defaultNetwork walletflow.Network
	defaultVersion string
	cache          *Cache
	observer       Observer
	logger         *zap.Logger
}

func defaultConfig() *config {
	return &config{
		mode:           ModeBasic,
		clock:          time.Now,
		newID:          NewProgramID,
		defaultNetwork: walletflow.Devnet,
		defaultVersion: "1.0.0",
		logger:         zap.NewNop(),
	}
}

// WithMode sets the validation mode applied before compiling. Default is ModeBasic.
func WithMode(m Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// WithClock replaces time.Now, which stamps program ids and compiledAt.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerator replaces the program id generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(c *config) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithDefaultNetwork sets the network used when a flow names none. Default is devnet.
func WithDefaultNetwork(n walletflow.Network) Option {
	return func(c *config) {
		if n != "" {
			c.defaultNetwork = n
		}
	}
}

// WithDefaultVersion sets the version used when a flow names none. Default is "1.0.0".
func WithDefaultVersion(v string) Option {
	return func(c *config) {
		if v != "" {
			c.defaultVersion = v
		}
	}
}

// WithCache memoizes compile artifacts by node sequence.
func WithCache(cache *Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithObserver reports every compilation to o.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
