package parser

// Package parser is the syntax front-end of goperon.
//
// It turns source text into a concrete syntax tree (CST) of Rules whose
// ordered children are terminal Tokens or nested Rules, and replays that tree
// as rule enter/exit events through Walk. The compiler assembles the AST
// from those events; the parser itself builds no AST.
//
// # Architecture
//
// The parser consists of two main components:
//   - Lexer: Tokenizes the input into a stream of tokens
//   - Parser: Recursive descent over declarations, with a precedence-climbing
//     loop for binary operators
//
// # Example
//
//	root, err := parser.Parse(src, parser.WithFile("main.gp"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = parser.Walk(root, listener)

// Parse parses a complete program or module.
//
// If parsing fails, it returns a *types.Error with line and column.
func Parse(src string, opts ...Option) (*Rule, error) {
	p := NewParser(src, opts...)
	return p.ParseProgram()
}

// ParseExpression parses a standalone expression. The root is a RuleExpr.
func ParseExpression(src string, opts ...Option) (*Rule, error) {
	p := NewParser(src, opts...)
	return p.ParseExpression()
}

// Option configures parsing behavior.
type Option func(*Options)

// Options holds parser configuration.
type Options struct {
	// MaxDepth limits expression nesting to prevent stack overflow.
	MaxDepth int
	// File names the source in error messages.
	File string
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithFile sets the source name reported in errors.
func WithFile(file string) Option {
	return func(opts *Options) {
		opts.File = file
	}
}
