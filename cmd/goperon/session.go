package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sandrolain/goperon/pkg/cache"
	"github.com/sandrolain/goperon/pkg/compiler"
	"github.com/sandrolain/goperon/pkg/config"
	"github.com/sandrolain/goperon/pkg/loader"
	"github.com/sandrolain/goperon/pkg/logger"
	"github.com/sandrolain/goperon/pkg/testctx"
	"github.com/sandrolain/goperon/pkg/types"
)

const envConfigName = config.EnvConfig

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath string
	roots      stringList
	globals    stringList
	testPath   string
	verbose    bool
}

func newFlagSet(name string, common *commonFlags) *flag.FlagSet {
	flags := flag.NewFlagSet("goperon "+name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&common.configPath, "config", "", "Path to config file")
	flags.Var(&common.roots, "I", "Module search root")
	flags.Var(&common.globals, "global", "Host variable name")
	flags.StringVar(&common.testPath, "test", "", "Test context file")
	flags.BoolVar(&common.verbose, "v", false, "Debug logging")
	return flags
}

// parseFlags parses args, printing usage for -h.
func parseFlags(flags *flag.FlagSet, args []string, stdout io.Writer) (help bool, err error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// session is the configuration of one command run.
type session struct {
	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
	getenv   func(string) string
}

func newSession(common *commonFlags, stdout, stderr io.Writer, getenv func(string) string) (*session, error) {
	cfg, path, err := config.LoadWithPath(common.configPath, getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.Modules.Roots = append(cfg.Modules.Roots, common.roots...)
	cfg.Compiler.Globals = append(cfg.Compiler.Globals, common.globals...)
	if common.testPath != "" {
		cfg.Test.Context = common.testPath
	}
	if common.verbose {
		cfg.Logging.Level = "debug"
	}

	lc, err := logger.FromSettings(cfg.Logging, stdout, stderr)
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("opening log output: %w", err)
	}
	if path != "" {
		log.Debug("loaded config", "path", path)
	}
	return &session{cfg: cfg, log: log, closeLog: closeLog, getenv: getenv}, nil
}

func (s *session) Close() error {
	return s.closeLog()
}

// options returns the compiler options described by the configuration.
func (s *session) options(cached bool) ([]compiler.Option, error) {
	opts := []compiler.Option{
		compiler.WithLogger(s.log),
		compiler.WithLoader(loader.NewFileLoader(s.cfg.Modules.Roots...)),
		compiler.WithMaxDepth(s.cfg.Compiler.MaxDepth),
		compiler.WithGlobals(s.cfg.Compiler.Globals...),
		compiler.WithGetenv(func(name string) (string, bool) {
			v := s.getenv(name)
			return v, v != ""
		}),
	}
	if s.cfg.Test.Context != "" {
		tc, err := testctx.Load(s.cfg.Test.Context, opts...)
		if err != nil {
			return nil, err
		}
		s.log.Debug("loaded test context", "path", s.cfg.Test.Context, "components", len(tc.Keys()))
		opts = append(opts, compiler.WithTestContext(tc))
	}

	if cached && s.cfg.Compiler.CacheSize > 0 {
		opts = append(opts, compiler.WithCache(cache.New(s.cfg.Compiler.CacheSize)))
	}
	return opts, nil
}

func (s *session) compiler(cached bool) (*compiler.Compiler, error) {
	opts, err := s.options(cached)
	if err != nil {
		return nil, err
	}
	return compiler.New(opts...), nil
}

// report prints a compilation error the way editors expect.
func report(w io.Writer, err error) {
	var terr *types.Error
	if errors.As(err, &terr) {
		fmt.Fprintf(w, "%v [%s]\n", err, terr.Class())
		return
	}
	fmt.Fprintln(w, err)
}
