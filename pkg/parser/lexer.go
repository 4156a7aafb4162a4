package parser

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/goperon/pkg/types"
)

const eof = -1

// Lexer converts source text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input    string // Input string being scanned
	length   int    // Length of input string
	start    int    // Start position of current token content
	tokStart int    // Start position of current raw lexeme
	current  int    // Current position in input
	width    int    // Width of last rune read
	lines    []int  // Offsets of line starts
	err      *types.Error
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	lines := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Lexer{
		input:  input,
		length: len(input),
		lines:  lines,
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	if l.err != nil {
		return l.errorToken()
	}
	l.tokStart = l.current
	l.start = l.current

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Environment lookup <?env:NAME>
	if ch == '<' && strings.HasPrefix(l.input[l.current:], "?") {
		return l.scanEnv()
	}

	// Variables and computed references
	if ch == '$' {
		if l.acceptRune('(') {
			return l.newToken(TokenComputedRef)
		}
		l.ignore()
		return l.scanName(TokenVariable)
	}

	// Check for two-character symbols first (e.g., !=, <=, ..)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals (single or double quoted)
	if ch == '"' || ch == '\'' {
		l.ignore()
		return l.scanString(ch)
	}

	// Number literals
	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.scanNumber()
	}

	// Raw bytes (backtick quoted)
	if ch == '`' {
		l.ignore()
		return l.scanBytes(ch)
	}

	if !isNameStart(ch) {
		return l.error(types.ErrSyntaxError, "unexpected character "+string(ch))
	}

	// Names, keywords and literal words
	l.backup()
	return l.scanName(TokenName)
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// Position converts a byte offset to a 1-based line and column.
func (l *Lexer) Position(offset int) (line, column int) {
	i := sort.Search(len(l.lines), func(i int) bool { return l.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	col := utf8.RuneCountInString(l.input[l.lines[i]:min(offset, l.length)]) + 1
	return i + 1, col
}

// scanEnv reads <?env:NAME>. The '<' has already been consumed.
func (l *Lexer) scanEnv() Token {
	const prefix = "?env:"
	if !strings.HasPrefix(l.input[l.current:], prefix) {
		return l.error(types.ErrInvalidEnvLookup, "expected <?env:NAME>")
	}
	l.current += len(prefix)
	l.start = l.current
	for {
		ch := l.nextRune()
		if ch == '>' {
			break
		}
		if ch == eof || !(isNameStart(ch) || unicode.IsDigit(ch)) {
			return l.error(types.ErrInvalidEnvLookup, "malformed environment lookup")
		}
	}
	name := l.input[l.start : l.current-1]
	if name == "" {
		return l.error(types.ErrInvalidEnvLookup, "empty environment variable name")
	}
	return l.emit(TokenEnv, name)
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.error(types.ErrStringNotClosed, "unterminated string literal")
		}
	}
	value, err := unescapeString(l.input[l.start : l.current-1])
	if err != nil {
		return l.error(types.ErrUnsupportedEscape, err.Error())
	}
	return l.emit(TokenString, value)
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	// JSON does not support leading zeroes.
	if !l.acceptRune('0') {
		l.accept(isNonZeroDigit)
		l.acceptAll(isDigit)
	}

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// Not a fraction: the dot belongs to a range or a path step.
			l.current--
			return l.number()
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrNumberOutOfRange, "malformed exponent")
		}
	}

	return l.number()
}

func (l *Lexer) number() Token {
	if _, err := strconv.ParseFloat(l.input[l.start:l.current], 64); err != nil {
		return l.error(types.ErrNumberOutOfRange, "number out of range")
	}
	return l.newToken(TokenNumber)
}

// scanBytes reads a raw byte literal. The opening backtick has already been
// consumed.
func (l *Lexer) scanBytes(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			return l.emit(TokenBytes, l.input[l.start:l.current-1])
		case eof:
			return l.error(types.ErrStringNotClosed, "unterminated byte literal")
		}
	}
}

// scanName reads a name, variable or keyword from the current position.
func (l *Lexer) scanName(tt TokenType) Token {
	for {
		ch := l.nextRune()
		if ch == eof {
			break
		}
		if !isNameStart(ch) && !unicode.IsDigit(ch) {
			l.backup()
			break
		}
	}

	t := l.newToken(tt)
	if tt == TokenVariable {
		if t.Value == "" {
			return l.error(types.ErrSyntaxError, "expected variable name after $")
		}
		return t
	}
	if kt := lookupKeyword(t.Value); kt > 0 {
		t.Type = kt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	line, col := l.Position(l.current)
	return Token{
		Type:     TokenEOF,
		Position: l.current,
		LineNo:   line,
		Column:   col,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.emit(TokenError, l.input[l.tokStart:l.current])
	l.err = &types.Error{
		Code:    code,
		Message: message,
		Line:    t.LineNo,
		Column:  t.Column,
		Token:   t.Lexeme,
	}
	return t
}

func (l *Lexer) errorToken() Token {
	return Token{Type: TokenError, Position: l.current, LineNo: l.err.Line, Column: l.err.Column}
}

func (l *Lexer) newToken(tt TokenType) Token {
	return l.emit(tt, l.input[l.start:l.current])
}

func (l *Lexer) emit(tt TokenType, value string) Token {
	line, col := l.Position(l.tokStart)
	t := Token{
		Type:     tt,
		Value:    value,
		Lexeme:   l.input[l.tokStart:l.current],
		Position: l.tokStart,
		LineNo:   line,
		Column:   col,
	}
	l.width = 0
	l.start = l.current
	l.tokStart = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	for l.err == nil {
		l.acceptAll(isWhitespace)
		l.ignore()

		if !strings.HasPrefix(l.input[l.current:], "/") {
			return
		}
		rest := l.input[l.current:]
		switch {
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				l.current = l.length
			} else {
				l.current += end + 1
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				line, col := l.Position(l.current)
				l.err = &types.Error{
					Code:    types.ErrCommentNotClosed,
					Message: "unclosed comment",
					Line:    line,
					Column:  col,
				}
				return
			}
			l.current += end + 4
		default:
			return
		}
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNonZeroDigit(r rune) bool {
	return r >= '1' && r <= '9'
}
