package forge

import (
	"time"

	"github.com/forgetree/forge/emit"
)

// Option is a functional option for configuring a Session, mirroring the
// teacher's functional-options pattern (graph.Option) for chainable,
// self-documenting construction.
type Option func(*sessionConfig) error

// sessionConfig collects options before a Session is built.
type sessionConfig struct {
	callbacks            Callbacks
	externalExecutors    map[string]ExternalExecutor
	userContext          any
	dependencies         any
	maxConcurrentActions int
	defaultNodeTimeoutMs int64
	metrics              *Metrics
	emitter              emit.Emitter
}

// WithCallbacks sets the host-side BeforeVisitNode/AfterVisitNode callbacks (§6).
func WithCallbacks(cb Callbacks) Option {
	return func(c *sessionConfig) error {
		c.callbacks = cb
		return nil
	}
}

// WithExternalExecutors sets the prefix -> ExternalExecutor map (§6, §4.7 case 2).
func WithExternalExecutors(m map[string]ExternalExecutor) Option {
	return func(c *sessionConfig) error {
		c.externalExecutors = m
		return nil
	}
}

// WithUserContext sets the opaque value threaded to callbacks and action contexts (§6).
func WithUserContext(uc any) Option {
	return func(c *sessionConfig) error {
		c.userContext = uc
		return nil
	}
}

// WithDependencies records an opaque dependencies value in the session
// configuration. NewSession does not hand it to the ExpressionExecutor;
// forge/expr.Executor receives its dependencies through expr.NewExecutor.
func WithDependencies(deps any) Option {
	return func(c *sessionConfig) error {
		c.dependencies = deps
		return nil
	}
}

// WithMaxConcurrentActions bounds the number of actions on a single node
// that may run concurrently. Zero (the default) means unbounded, matching
// the spec's "no cross-node parallelism" but full intra-node concurrency.
func WithMaxConcurrentActions(n int) Option {
	return func(c *sessionConfig) error {
		c.maxConcurrentActions = n
		return nil
	}
}

// WithDefaultNodeTimeout sets the node-level timeout used when a node omits
// Timeout entirely (§3 says default is infinite; this option lets a host
// tighten that default without touching the schema).
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(c *sessionConfig) error {
		c.defaultNodeTimeoutMs = d.Milliseconds()
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection for this session.
func WithMetrics(m *Metrics) Option {
	return func(c *sessionConfig) error {
		c.metrics = m
		return nil
	}
}

// WithEmitter sets the observability event sink (defaults to an emit.NullEmitter if unset).
func WithEmitter(e emit.Emitter) Option {
	return func(c *sessionConfig) error {
		c.emitter = e
		return nil
	}
}
