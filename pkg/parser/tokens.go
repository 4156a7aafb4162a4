package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString      // "hello" or 'hello'
	TokenNumber      // 123, 3.14, 1e-10
	TokenBoolean     // true, false
	TokenNull        // null
	TokenEmpty       // empty
	TokenEnd         // end
	TokenBytes       // `raw bytes`
	TokenName        // fieldName
	TokenVariable    // $var
	TokenEnv         // <?env:NAME>
	TokenPlaceholder // _

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )
	TokenComputedRef  // $(

	// Basic symbols
	TokenDot       // .
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenAnySingle // ?
	TokenAnyPlus   // ?+
	TokenAnyStar   // ?*
	TokenAt        // @
	TokenAmp       // &

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %
	TokenPow   // ^

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Special operators
	TokenRange  // ..
	TokenAssign // :=
	TokenArrow  // ->

	// Keywords
	TokenAnd
	TokenOr
	TokenNot
	TokenImport
	TokenAs
	TokenFunction
	TokenLet
	TokenException
	TokenFrom
	TokenSelect
	TokenKwEnd
	TokenLambda
	TokenPath
	TokenMatches
	TokenFilter
	TokenUpdate
	TokenUpdateArray
	TokenBuild
	TokenChoice
	TokenWhen
	TokenOtherwise
	TokenLoop
	TokenWhile
	TokenDo
	TokenMap
	TokenWhere
	TokenTry
	TokenCatch
	TokenThrow
	TokenAggregate
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenNumber:
		return "(number)"
	case TokenBoolean:
		return "(boolean)"
	case TokenNull:
		return "null"
	case TokenEmpty:
		return "empty"
	case TokenEnd:
		return "end"
	case TokenBytes:
		return "(bytes)"
	case TokenName:
		return "(name)"
	case TokenVariable:
		return "(variable)"
	case TokenEnv:
		return "(env)"
	case TokenPlaceholder:
		return "_"
	case TokenComputedRef:
		return "$("
	case TokenAnyPlus:
		return "?+"
	case TokenAnyStar:
		return "?*"
	}
	if s, ok := symbolNames[tt]; ok {
		return s
	}
	for kw, kt := range keywords {
		if kt == tt {
			return kw
		}
	}
	return "(unknown)"
}

// Token represents a lexical token.
//
// Value holds the decoded content (string contents without quotes, variable
// names without '$'); Lexeme holds the raw source text.
type Token struct {
	Type     TokenType
	Value    string
	Lexeme   string
	Position int // byte offset in the input
	LineNo   int // 1-based
	Column   int // 1-based
}

// Line returns the 1-based line of the token.
func (t *Token) Line() int { return t.LineNo }

// Text returns the raw source text of the token.
func (t *Token) Text() string { return t.Lexeme }

func (*Token) isChild() {}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	';': TokenSemicolon,
	':': TokenColon,
	'?': TokenAnySingle,
	'@': TokenAt,
	'&': TokenAmp,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'^': TokenPow,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'.': {{'.', TokenRange}},
	':': {{'=', TokenAssign}},
	'-': {{'>', TokenArrow}},
	'?': {{'+', TokenAnyPlus}, {'*', TokenAnyStar}},
}

var symbolNames = map[TokenType]string{
	TokenBracketOpen:  "[",
	TokenBracketClose: "]",
	TokenBraceOpen:    "{",
	TokenBraceClose:   "}",
	TokenParenOpen:    "(",
	TokenParenClose:   ")",
	TokenDot:          ".",
	TokenComma:        ",",
	TokenColon:        ":",
	TokenSemicolon:    ";",
	TokenAnySingle:    "?",
	TokenAt:           "@",
	TokenAmp:          "&",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenMult:         "*",
	TokenDiv:          "/",
	TokenMod:          "%",
	TokenPow:          "^",
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenRange:        "..",
	TokenAssign:       ":=",
	TokenArrow:        "->",
}

var keywords = map[string]TokenType{
	"And":         TokenAnd,
	"Or":          TokenOr,
	"Not":         TokenNot,
	"Import":      TokenImport,
	"As":          TokenAs,
	"Function":    TokenFunction,
	"Let":         TokenLet,
	"Exception":   TokenException,
	"From":        TokenFrom,
	"Select":      TokenSelect,
	"End":         TokenKwEnd,
	"Lambda":      TokenLambda,
	"Path":        TokenPath,
	"Matches":     TokenMatches,
	"Filter":      TokenFilter,
	"Update":      TokenUpdate,
	"UpdateArray": TokenUpdateArray,
	"Build":       TokenBuild,
	"Choice":      TokenChoice,
	"When":        TokenWhen,
	"Otherwise":   TokenOtherwise,
	"Loop":        TokenLoop,
	"While":       TokenWhile,
	"Do":          TokenDo,
	"Map":         TokenMap,
	"Where":       TokenWhere,
	"Try":         TokenTry,
	"Catch":       TokenCatch,
	"Throw":       TokenThrow,
	"Aggregate":   TokenAggregate,
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword or literal word.
// Returns 0 if the string is not recognized. Keywords are case-sensitive.
func lookupKeyword(s string) TokenType {
	switch s {
	case "true", "false":
		return TokenBoolean
	case "null":
		return TokenNull
	case "empty":
		return TokenEmpty
	case "end":
		return TokenEnd
	case "_":
		return TokenPlaceholder
	}
	return keywords[s]
}

// isKeyword reports whether tt is a capitalized keyword.
func isKeyword(tt TokenType) bool {
	return tt >= TokenAnd && tt <= TokenAggregate
}
