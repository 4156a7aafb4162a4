package compiler

import (
	"errors"
	"testing"

	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/scope"
	"github.com/sandrolain/goperon/pkg/types"
)

func parseExpr(t *testing.T, src string) *parser.Rule {
	t.Helper()
	root, err := parser.ParseExpression(src)
	if err != nil {
		t.Fatalf("ParseExpression(%q) error: %v", src, err)
	}
	return root
}

func newTestAssembler() *assembler {
	opts := defaultOptions()
	return newAssembler(&opts, types.NewProgram("", "", ""), true, nil)
}

func TestScopeBalance(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		pushes  int
		wantErr bool
	}{
		{"nested blocks", "Map: Map: Map: Map: Map: @ End End End End End", 5, false},
		{"mixed frames", "Map: Loop($i: [1]): Choice When $i: Lambda($x): Try: $x Catch: 1 End End Otherwise: 0 End End End", 5, false},
		{"error at depth five", "Map: Map: Map: Map: Map: $missing End End End End End", 5, true},
		{"error inside parameters", "Map: Lambda($x, $x): 1 End End", 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAssembler()
			_, err := a.run(parseExpr(t, tt.src))
			if (err != nil) != tt.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
			stats := a.chain.Stats()
			if stats.Pushes != stats.Pops {
				t.Errorf("pushes = %d, pops = %d", stats.Pushes, stats.Pops)
			}
			if stats.Pushes != tt.pushes {
				t.Errorf("pushes = %d, want %d", stats.Pushes, tt.pushes)
			}
			if a.chain.Current() != scope.Root {
				t.Errorf("current frame = %d, want root", a.chain.Current())
			}
		})
	}
}

func TestProgramScopeBalance(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		pushes  int
		wantErr bool
	}{
		{
			name:   "function let map loop choice",
			src:    "Function f($a): Let $b: Map: Loop($i: $a): Choice When $i: 1 End End End; $b End Select: f(1)",
			pushes: 6,
		},
		{
			name:   "nested lets",
			src:    "Function g(): Let $x: Map: Let $y: 1; $y End; $x End Select: g()",
			pushes: 5,
		},
		{
			name:    "error at depth five",
			src:     "Function f($a): Let $b: Map: Loop($i: $a): Choice When $missing: 1 End End End; $b End Select: f(1)",
			pushes:  5,
			wantErr: true,
		},
		{
			name:    "duplicate let in a function",
			src:     "Function f(): Let $a: 1; Let $a: 2; $a End Select: f()",
			pushes:  3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := parser.Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			opts := defaultOptions()
			a := newAssembler(&opts, types.NewProgram("", "", ""), false, nil)
			_, err = a.run(root)
			if (err != nil) != tt.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
			stats := a.chain.Stats()
			if stats.Pushes != stats.Pops {
				t.Errorf("pushes = %d, pops = %d", stats.Pushes, stats.Pops)
			}
			if stats.Pushes != tt.pushes {
				t.Errorf("pushes = %d, want %d", stats.Pushes, tt.pushes)
			}
			if a.chain.Current() != scope.Root {
				t.Errorf("current frame = %d, want root", a.chain.Current())
			}
		})
	}
}

func TestStackImbalance(t *testing.T) {
	a := newTestAssembler()
	a.stack = append(a.stack, nodeVal{&types.Current{}})
	_, err := a.run(parseExpr(t, "1"))

	var terr *types.Error
	if !errors.As(err, &terr) || terr.Code != types.ErrStackImbalance {
		t.Fatalf("error = %v, want %s", err, types.ErrStackImbalance)
	}
}

func tok(tt parser.TokenType, lexeme string) *parser.Token {
	return &parser.Token{Type: tt, Value: lexeme, Lexeme: lexeme, LineNo: 1, Column: 1}
}

func TestMalformedTrees(t *testing.T) {
	number := &parser.Rule{Kind: parser.RuleLiteral, LineNo: 1, Children: []parser.Child{tok(parser.TokenNumber, "1")}}

	tests := []struct {
		name string
		root *parser.Rule
		code types.ErrorCode
	}{
		{
			name: "two operators",
			root: &parser.Rule{Kind: parser.RuleExpr, LineNo: 1, Children: []parser.Child{
				tok(parser.TokenPlus, "+"), tok(parser.TokenPlus, "+"),
			}},
			code: types.ErrMalformedRule,
		},
		{
			name: "unknown infix operator",
			root: &parser.Rule{Kind: parser.RuleExpr, LineNo: 1, Children: []parser.Child{
				number, tok(parser.TokenComma, ","), number,
			}},
			code: types.ErrMalformedRule,
		},
		{
			name: "filter item inside an array",
			root: &parser.Rule{Kind: parser.RuleExpr, LineNo: 1, Children: []parser.Child{
				&parser.Rule{Kind: parser.RuleArray, LineNo: 1, Children: []parser.Child{
					tok(parser.TokenBracketOpen, "["),
					&parser.Rule{Kind: parser.RuleFilterItem, LineNo: 1, Children: []parser.Child{
						&parser.Rule{Kind: parser.RuleExpr, LineNo: 1, Children: []parser.Child{number}},
					}},
					tok(parser.TokenBracketClose, "]"),
				}},
			}},
			code: types.ErrUnexpectedValue,
		},
		{
			name: "call without children",
			root: &parser.Rule{Kind: parser.RuleCall, LineNo: 1},
			code: types.ErrMalformedRule,
		},
		{
			name: "call without a name",
			root: &parser.Rule{Kind: parser.RuleCall, LineNo: 1, Children: []parser.Child{number}},
			code: types.ErrMalformedRule,
		},
		{
			name: "namespaced variable without a namespace",
			root: &parser.Rule{Kind: parser.RuleVar, LineNo: 1, Children: []parser.Child{
				number, tok(parser.TokenColon, ":"), tok(parser.TokenVariable, "x"),
			}},
			code: types.ErrMalformedRule,
		},
		{
			name: "function reference without a name",
			root: &parser.Rule{Kind: parser.RuleFunctionRef, LineNo: 1, Children: []parser.Child{
				tok(parser.TokenAmp, "&"),
			}},
			code: types.ErrMalformedRule,
		},
		{
			name: "function declaration without a name",
			root: &parser.Rule{Kind: parser.RuleProgram, LineNo: 1, Children: []parser.Child{
				&parser.Rule{Kind: parser.RuleFunction, LineNo: 1, Children: []parser.Child{
					tok(parser.TokenFunction, "Function"), tok(parser.TokenParenOpen, "("), tok(parser.TokenParenClose, ")"),
				}},
			}},
			code: types.ErrMalformedRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().CompileTree(tt.root, "")
			var terr *types.Error
			if !errors.As(err, &terr) || terr.Code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
