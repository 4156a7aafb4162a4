// Package config loads the YAML configuration shared by the goperon CLI and
// embedders.
package config

// Config represents the complete goperon configuration
type Config struct {
	BaseDir  string         `yaml:"-"` // Directory containing the config file, for resolving relative paths
	Logging  LoggingConfig  `yaml:"logging"`
	Modules  ModulesConfig  `yaml:"modules"`
	Compiler CompilerConfig `yaml:"compiler"`
	Test     TestConfig     `yaml:"test"`
	REPL     REPLConfig     `yaml:"repl"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr, stdout or a file path
}

// ModulesConfig controls module lookup for Import declarations
type ModulesConfig struct {
	Roots []string `yaml:"roots"` // Searched after the importing file's directory
}

// CompilerConfig holds compiler limits and host declarations
type CompilerConfig struct {
	MaxDepth  int      `yaml:"max_depth"`  // Maximum syntactic nesting
	CacheSize int      `yaml:"cache_size"` // Compiled program cache entries (0 = no cache)
	Globals   []string `yaml:"globals"`    // Variables bound by the host at evaluation time
}

// TestConfig enables mock and assertion weaving
type TestConfig struct {
	Context string `yaml:"context"` // Path to a test context fixture file
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	History string `yaml:"history"` // History file ("" = no history)
	Prompt  string `yaml:"prompt"`
}

// Defaults returns a Config with default values
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Compiler: CompilerConfig{
			MaxDepth:  200,
			CacheSize: 128,
		},
		REPL: REPLConfig{
			Prompt: "goperon> ",
		},
	}
}
