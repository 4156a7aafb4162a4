package compiler

import (
	"log/slog"
	"os"

	"github.com/sandrolain/goperon/pkg/cache"
	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/loader"
	"github.com/sandrolain/goperon/pkg/types"
)

// TestContext supplies mocks and assertions for external component call
// sites, keyed by ns:name:identifier.
type TestContext interface {
	// Mock returns the replacement expression for key, if any.
	Mock(key string) (types.Node, bool, error)
	// Assertions returns the assertion expressions registered for key.
	Assertions(key string) ([]types.Node, error)
}

// Option configures a Compiler.
type Option func(*Options)

// Options holds compiler configuration.
type Options struct {
	// Logger receives debug records for imports, resolution and weaving.
	Logger *slog.Logger
	// Loader fetches imported modules. Imports fail when it is nil.
	Loader loader.Loader
	// TestContext enables test instrumentation of I/O call sites.
	TestContext TestContext
	// Evaluator folds the few compile-time constants that are not literals.
	Evaluator types.Evaluator
	// Getenv resolves <?env:NAME> lookups.
	Getenv func(name string) (string, bool)
	// Registry lists the built-in functions.
	Registry *functions.Registry
	// Cache stores compiled programs by source identity.
	Cache *cache.Cache
	// File names the main source in error messages.
	File string
	// MaxDepth limits syntactic nesting.
	MaxDepth int
	// Globals are variable names provided by the host at evaluation time.
	Globals []string
}

func defaultOptions() Options {
	return Options{
		Logger:   slog.Default(),
		Getenv:   os.LookupEnv,
		Registry: functions.Default(),
		MaxDepth: 200,
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithLoader sets the module loader.
func WithLoader(l loader.Loader) Option {
	return func(opts *Options) {
		opts.Loader = l
	}
}

// WithTestContext enables mock and assertion weaving.
// Programs compiled with a test context are never cached.
func WithTestContext(tc TestContext) Option {
	return func(opts *Options) {
		opts.TestContext = tc
	}
}

// WithEvaluator sets the evaluator used for compile-time folding.
func WithEvaluator(ev types.Evaluator) Option {
	return func(opts *Options) {
		opts.Evaluator = ev
	}
}

// WithGetenv replaces the environment lookup.
func WithGetenv(getenv func(name string) (string, bool)) Option {
	return func(opts *Options) {
		opts.Getenv = getenv
	}
}

// WithRegistry replaces the built-in function registry.
func WithRegistry(reg *functions.Registry) Option {
	return func(opts *Options) {
		opts.Registry = reg
	}
}

// WithBuiltin registers additional built-ins on a private copy of the
// current registry.
func WithBuiltin(defs ...functions.Builtin) Option {
	return func(opts *Options) {
		reg := opts.Registry.Clone()
		reg.Register(defs...)
		opts.Registry = reg
	}
}

// WithCache enables caching of compiled programs.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
	}
}

// WithFile sets the source name reported in errors.
func WithFile(file string) Option {
	return func(opts *Options) {
		opts.File = file
	}
}

// WithMaxDepth sets the maximum syntactic nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithGlobals declares variables the host binds at evaluation time.
func WithGlobals(names ...string) Option {
	return func(opts *Options) {
		opts.Globals = append(opts.Globals, names...)
	}
}
