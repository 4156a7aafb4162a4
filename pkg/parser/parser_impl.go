package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/goperon/pkg/types"
)

// Binding powers for the precedence-climbing loop.
// Higher values bind more tightly.
const (
	precRange      = 5
	precOr         = 10
	precAnd        = 20
	precComparison = 30
	precAdditive   = 40
	precMultiply   = 50
	precPower      = 60
)

var precedence = map[TokenType]int{
	TokenRange:        precRange,        // ..
	TokenOr:           precOr,           // Or
	TokenAnd:          precAnd,          // And
	TokenEqual:        precComparison,   // =
	TokenNotEqual:     precComparison,   // !=
	TokenLess:         precComparison,   // <
	TokenLessEqual:    precComparison,   // <=
	TokenGreater:      precComparison,   // >
	TokenGreaterEqual: precComparison,   // >=
	TokenPlus:         precAdditive,     // +
	TokenMinus:        precAdditive,     // -
	TokenMult:         precMultiply,     // *
	TokenDiv:          precMultiply,     // /
	TokenMod:          precMultiply,     // %
	TokenPow:          precPower,        // ^ (right associative)
}

var titleCaser = cases.Title(language.Und)

// Parser implements a recursive descent parser producing a concrete syntax
// tree. Binary operators are handled by precedence climbing.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	ahead   []Token
	depth   int
	opts    Options
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...Option) *Parser {
	options := Options{
		MaxDepth: 200,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// ParseProgram parses a program or module.
func (p *Parser) ParseProgram() (*Rule, error) {
	r := p.rule(RuleProgram)
	r.LineNo = 1

Decls:
	for {
		var (
			decl *Rule
			err  error
		)
		switch p.current.Type {
		case TokenImport:
			decl, err = p.parseImport()
		case TokenFunction:
			decl, err = p.parseFunction()
		case TokenLet:
			decl, err = p.parseLet()
		case TokenException:
			decl, err = p.parseException()
		default:
			break Decls
		}
		if err != nil {
			return nil, err
		}
		r.add(decl)
	}

	if p.current.Type == TokenFrom {
		from, err := p.parseFrom()
		if err != nil {
			return nil, err
		}
		r.add(from)
	}
	if p.current.Type == TokenSelect {
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		r.add(sel)
	}

	if p.current.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return r, nil
}

// ParseExpression parses a single expression followed by end of input.
func (p *Parser) ParseExpression() (*Rule, error) {
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrUnexpectedEnd, "empty expression")
	}
	r, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.unexpected()
	}
	return r, nil
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	if len(p.ahead) > 0 {
		p.current = p.ahead[0]
		p.ahead = p.ahead[1:]
		return
	}
	p.current = p.lexer.Next()
}

// peek returns the n-th token after the current one (n >= 1).
func (p *Parser) peek(n int) Token {
	for len(p.ahead) < n {
		p.ahead = append(p.ahead, p.lexer.Next())
	}
	return p.ahead[n-1]
}

// take returns the current token as a CST terminal and advances.
func (p *Parser) take() *Token {
	t := p.current
	p.advance()
	return &t
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) (*Token, error) {
	if p.current.Type != tt {
		err := p.error(types.ErrExpectedToken, fmt.Sprintf("expected %s but got %s", tt, p.describe()))
		if isKeyword(tt) {
			err.Code = types.ErrExpectedKeyword
			if titleCaser.String(p.current.Lexeme) == tt.String() {
				err.WithHint("keywords are capitalized: did you mean " + tt.String() + "?")
			}
		}
		return nil, err
	}
	return p.take(), nil
}

// error creates a parser error at the current token. A pending lexer error
// takes precedence.
func (p *Parser) error(code types.ErrorCode, message string) *types.Error {
	if p.current.Type == TokenError && p.lexer.err != nil {
		return p.lexer.err.WithFile(p.opts.File)
	}
	return &types.Error{
		Code:    code,
		Message: message,
		Line:    p.current.LineNo,
		Column:  p.current.Column,
		File:    p.opts.File,
		Token:   p.current.Lexeme,
	}
}

func (p *Parser) unexpected() *types.Error {
	err := p.error(types.ErrSyntaxError, "unexpected "+p.describe())
	if p.current.Type == TokenName {
		if kw := titleCaser.String(p.current.Value); isKeyword(lookupKeyword(kw)) {
			err.WithHint("keywords are capitalized: did you mean " + kw + "?")
		}
	}
	return err
}

func (p *Parser) describe() string {
	switch p.current.Type {
	case TokenEOF:
		return "end of input"
	case TokenName, TokenVariable, TokenString, TokenNumber:
		return fmt.Sprintf("%s %q", p.current.Type, p.current.Lexeme)
	default:
		return fmt.Sprintf("%q", p.current.Type.String())
	}
}

// enter guards recursion depth.
func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return p.error(types.ErrNestingTooDeep, fmt.Sprintf("nesting deeper than %d", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) rule(kind RuleKind) *Rule {
	return &Rule{Kind: kind, LineNo: p.current.LineNo}
}

func (r *Rule) add(children ...Child) {
	r.Children = append(r.Children, children...)
}

// expectInto expects each token type in order and appends them to r.
func (p *Parser) expectInto(r *Rule, tts ...TokenType) error {
	for _, tt := range tts {
		t, err := p.expect(tt)
		if err != nil {
			return err
		}
		r.add(t)
	}
	return nil
}

// optional appends the current token to r when it has type tt.
func (p *Parser) optional(r *Rule, tt TokenType) bool {
	if p.current.Type != tt {
		return false
	}
	r.add(p.take())
	return true
}

// Declarations

func (p *Parser) parseImport() (*Rule, error) {
	r := p.rule(RuleImport)
	if err := p.expectInto(r, TokenImport, TokenString, TokenAs, TokenName, TokenSemicolon); err != nil {
		return nil, err
	}
	return r, nil
}

// parseQualifiedName appends NAME or NAME ':' NAME.
func (p *Parser) parseQualifiedName(r *Rule) error {
	if err := p.expectInto(r, TokenName); err != nil {
		return err
	}
	if p.current.Type == TokenColon && p.peek(1).Type == TokenName {
		return p.expectInto(r, TokenColon, TokenName)
	}
	return nil
}

func (p *Parser) parseFunction() (*Rule, error) {
	r := p.rule(RuleFunction)
	r.add(p.take())
	if err := p.parseQualifiedName(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenParenOpen); err != nil {
		return nil, err
	}
	if p.current.Type != TokenParenClose {
		for {
			param := p.rule(RuleParam)
			if err := p.expectInto(param, TokenVariable); err != nil {
				return nil, err
			}
			if err := p.optionalConstraint(param); err != nil {
				return nil, err
			}
			r.add(param)
			if !p.optional(r, TokenComma) {
				break
			}
		}
	}
	if err := p.expectInto(r, TokenParenClose); err != nil {
		return nil, err
	}
	if err := p.optionalConstraint(r); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseLet() (*Rule, error) {
	r := p.rule(RuleLet)
	r.add(p.take())
	if p.current.Type == TokenName {
		if err := p.expectInto(r, TokenName, TokenColon); err != nil {
			return nil, err
		}
	}
	if err := p.expectInto(r, TokenVariable); err != nil {
		return nil, err
	}
	if err := p.optionalConstraint(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenColon); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	r.add(expr)
	return r, p.expectInto(r, TokenSemicolon)
}

func (p *Parser) parseException() (*Rule, error) {
	r := p.rule(RuleException)
	r.add(p.take())
	if err := p.expectInto(r, TokenVariable); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseFrom() (*Rule, error) {
	r := p.rule(RuleFrom)
	r.add(p.take())
	if err := p.expectInto(r, TokenVariable); err != nil {
		return nil, err
	}
	if err := p.optionalConstraint(r); err != nil {
		return nil, err
	}
	return r, p.expectInto(r, TokenSemicolon)
}

func (p *Parser) parseSelect() (*Rule, error) {
	r := p.rule(RuleSelect)
	r.add(p.take())
	if err := p.optionalConstraint(r); err != nil {
		return nil, err
	}
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenColon); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	r.add(body)
	return r, nil
}

// bodyUntil appends ':' Body and the closing keyword.
func (p *Parser) bodyUntil(r *Rule, closing TokenType) error {
	if err := p.expectInto(r, TokenColon); err != nil {
		return err
	}
	body, err := p.parseBody()
	if err != nil {
		return err
	}
	r.add(body)
	return p.expectInto(r, closing)
}

func (p *Parser) parseBody() (*Rule, error) {
	r := p.rule(RuleBody)
	for p.current.Type == TokenLet {
		let, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		r.add(let)
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	r.add(expr)
	return r, nil
}

func (p *Parser) optionalConstraint(r *Rule) error {
	if p.current.Type != TokenLess {
		return nil
	}
	c := p.rule(RuleConstraint)
	c.add(p.take())
	inner, err := p.parseBinary(precComparison)
	if err != nil {
		return err
	}
	c.add(wrapExpr(inner))
	if err := p.expectInto(c, TokenGreater); err != nil {
		return err
	}
	r.add(c)
	return nil
}

func (p *Parser) optionalObject(r *Rule) error {
	if p.current.Type != TokenBraceOpen {
		return nil
	}
	obj, err := p.parseObject()
	if err != nil {
		return err
	}
	r.add(obj)
	return nil
}

// Expressions

// parseExpr parses an expression; the result is always a RuleExpr.
func (p *Parser) parseExpr() (*Rule, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	r, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	return wrapExpr(r), nil
}

func wrapExpr(r *Rule) *Rule {
	if r.Kind == RuleExpr {
		return r
	}
	return &Rule{Kind: RuleExpr, Children: []Child{r}, LineNo: r.LineNo}
}

// parseBinary parses operators binding tighter than minPrec.
func (p *Parser) parseBinary(minPrec int) (*Rule, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tt := p.current.Type
		prec := precedence[tt]
		if prec == 0 || prec <= minPrec {
			return left, nil
		}
		op := p.take()
		next := prec
		if tt == TokenPow {
			next = prec - 1
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		kind := RuleExpr
		if tt == TokenRange {
			kind = RuleRange
		}
		left = &Rule{Kind: kind, Children: []Child{left, op, right}, LineNo: left.LineNo}
	}
}

// parseUnary parses prefix operators.
func (p *Parser) parseUnary() (*Rule, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.current.Type {
	case TokenNot:
		r := p.rule(RuleExpr)
		r.add(p.take())
		operand, err := p.parseBinary(precAnd)
		if err != nil {
			return nil, err
		}
		r.add(operand)
		return r, nil
	case TokenMinus:
		r := p.rule(RuleExpr)
		r.add(p.take())
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		r.add(operand)
		return r, nil
	default:
		return p.parseOperand()
	}
}

// parseOperand parses a primary followed by postfix steps.
func (p *Parser) parseOperand() (*Rule, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	var steps []Child
Steps:
	for {
		var (
			step *Rule
			err  error
		)
		switch p.current.Type {
		case TokenDot:
			if p.peek(1).Type == TokenParenOpen {
				step, err = p.parseDynamicAccess()
			} else {
				step, err = p.parseAccess()
			}
		case TokenRange:
			if !p.isDeepScan() {
				break Steps
			}
			step, err = p.parseDeepScan()
		case TokenBracketOpen:
			step, err = p.parseIndex()
		default:
			break Steps
		}
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return prim, nil
	}
	r := &Rule{Kind: RuleExpr, LineNo: prim.LineNo}
	r.add(prim)
	r.add(steps...)
	return r, nil
}

// isDeepScan tells a '..' step apart from the range operator.
func (p *Parser) isDeepScan() bool {
	next := p.peek(1)
	switch next.Type {
	case TokenString, TokenBraceOpen:
		return true
	case TokenName:
		after := p.peek(2).Type
		return after != TokenParenOpen && after != TokenColon
	default:
		return false
	}
}

func (p *Parser) isKey() bool {
	tt := p.current.Type
	return tt == TokenName || tt == TokenString || isKeyword(tt)
}

func (p *Parser) parseAccess() (*Rule, error) {
	r := p.rule(RuleAccess)
	r.add(p.take())
	if !p.isKey() {
		return nil, p.error(types.ErrExpectedToken, "expected a key after '.' but got "+p.describe())
	}
	r.add(p.take())
	return r, nil
}

func (p *Parser) parseDynamicAccess() (*Rule, error) {
	r := p.rule(RuleDynamicAccess)
	r.add(p.take())
	return r, p.parenExpr(r)
}

func (p *Parser) parseDeepScan() (*Rule, error) {
	r := p.rule(RuleDeepScan)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if p.current.Type != TokenName && p.current.Type != TokenString {
		return nil, p.error(types.ErrExpectedToken, "expected a key after '..' but got "+p.describe())
	}
	r.add(p.take())
	return r, nil
}

func (p *Parser) parseIndex() (*Rule, error) {
	r := p.rule(RuleIndex)
	return r, p.bracketFilterList(r)
}

// parenExpr appends '(' Expr ')'.
func (p *Parser) parenExpr(r *Rule) error {
	if err := p.expectInto(r, TokenParenOpen); err != nil {
		return err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return err
	}
	r.add(expr)
	return p.expectInto(r, TokenParenClose)
}

// parsePrimary parses an expression that needs no left operand.
func (p *Parser) parsePrimary() (*Rule, error) {
	switch p.current.Type {
	case TokenString, TokenNumber, TokenBoolean, TokenNull, TokenEmpty, TokenEnd, TokenBytes:
		r := p.rule(RuleLiteral)
		r.add(p.take())
		return r, nil
	case TokenAt:
		r := p.rule(RuleCurrent)
		r.add(p.take())
		return r, nil
	case TokenEnv:
		r := p.rule(RuleEnv)
		r.add(p.take())
		return r, nil
	case TokenBracketOpen:
		return p.parseArray()
	case TokenBraceOpen:
		return p.parseObject()
	case TokenParenOpen:
		r := p.rule(RuleExpr)
		return r, p.parenExpr(r)
	case TokenComputedRef:
		r := p.rule(RuleComputedRef)
		r.add(p.take())
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r.add(expr)
		return r, p.expectInto(r, TokenParenClose)
	case TokenVariable:
		return p.parseVariable()
	case TokenName:
		return p.parseName()
	case TokenAmp:
		return p.parseFunctionRef()
	case TokenLambda:
		return p.parseLambda()
	case TokenPath:
		return p.parsePatternCall(RulePathValue)
	case TokenMatches:
		return p.parsePatternCall(RuleMatches)
	case TokenFilter:
		return p.parseFilter()
	case TokenUpdate:
		return p.parseUpdate(RuleUpdate)
	case TokenBuild:
		return p.parseUpdate(RuleBuild)
	case TokenUpdateArray:
		return p.parseUpdateArray()
	case TokenChoice:
		return p.parseChoice()
	case TokenLoop:
		return p.parseLoop()
	case TokenWhile:
		return p.parseWhile()
	case TokenDo:
		return p.parseDoWhile()
	case TokenMap:
		return p.parseBlock(RuleMap)
	case TokenWhere:
		return p.parseWhere()
	case TokenTry:
		return p.parseTry()
	case TokenThrow:
		r := p.rule(RuleThrow)
		r.add(p.take())
		return r, p.parenExpr(r)
	case TokenAggregate:
		r := p.rule(RuleAggregate)
		r.add(p.take())
		if p.current.Type != TokenBraceOpen {
			return nil, p.error(types.ErrExpectedToken, "expected { after Aggregate but got "+p.describe())
		}
		return r, p.optionalObject(r)
	case TokenArrow:
		return p.parseIOCall()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "unexpected end of input")
	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) parseArray() (*Rule, error) {
	r := p.rule(RuleArray)
	r.add(p.take())
	if p.optional(r, TokenBracketClose) {
		return r, nil
	}
	if err := p.exprList(r, false); err != nil {
		return nil, err
	}
	return r, p.expectInto(r, TokenBracketClose)
}

// exprList appends Expr {',' Expr}. With placeholders set, '_' is accepted
// in place of an expression.
func (p *Parser) exprList(r *Rule, placeholders bool) error {
	for {
		if placeholders && p.current.Type == TokenPlaceholder {
			r.add(p.take())
		} else {
			expr, err := p.parseExpr()
			if err != nil {
				return err
			}
			r.add(expr)
		}
		if !p.optional(r, TokenComma) {
			return nil
		}
	}
}

// argList appends '(' [args] ')'.
func (p *Parser) argList(r *Rule, placeholders bool) error {
	if err := p.expectInto(r, TokenParenOpen); err != nil {
		return err
	}
	if p.optional(r, TokenParenClose) {
		return nil
	}
	if err := p.exprList(r, placeholders); err != nil {
		return err
	}
	return p.expectInto(r, TokenParenClose)
}

func (p *Parser) parseObject() (*Rule, error) {
	r := p.rule(RuleObject)
	if err := p.expectInto(r, TokenBraceOpen); err != nil {
		return nil, err
	}
	if p.optional(r, TokenBraceClose) {
		return r, nil
	}
	for {
		pair := p.rule(RuleObjectPair)
		if p.current.Type != TokenName && p.current.Type != TokenString {
			return nil, p.error(types.ErrExpectedToken, "expected an object key but got "+p.describe())
		}
		pair.add(p.take())
		if err := p.expectInto(pair, TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		pair.add(value)
		r.add(pair)
		if !p.optional(r, TokenComma) {
			break
		}
	}
	return r, p.expectInto(r, TokenBraceClose)
}

func (p *Parser) parseVariable() (*Rule, error) {
	switch p.peek(1).Type {
	case TokenAssign:
		r := p.rule(RuleAssign)
		r.add(p.take(), p.take())
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r.add(expr)
		return r, nil
	case TokenParenOpen, TokenBraceOpen:
		r := p.rule(RuleInvoke)
		r.add(p.take())
		if err := p.optionalObject(r); err != nil {
			return nil, err
		}
		return r, p.argList(r, false)
	default:
		r := p.rule(RuleVar)
		r.add(p.take())
		return r, nil
	}
}

// parseName parses ns:$var or a function call.
func (p *Parser) parseName() (*Rule, error) {
	next := p.peek(1).Type
	if next == TokenColon && p.peek(2).Type == TokenVariable {
		r := p.rule(RuleVar)
		r.add(p.take(), p.take(), p.take())
		return r, nil
	}
	if next != TokenParenOpen && next != TokenColon {
		return nil, p.unexpected()
	}
	r := p.rule(RuleCall)
	if err := p.parseQualifiedName(r); err != nil {
		return nil, err
	}
	return r, p.argList(r, false)
}

func (p *Parser) parseFunctionRef() (*Rule, error) {
	r := p.rule(RuleFunctionRef)
	r.add(p.take())
	if err := p.parseQualifiedName(r); err != nil {
		return nil, err
	}
	if err := p.argList(r, true); err != nil {
		return nil, err
	}
	for p.current.Type == TokenParenOpen {
		if err := p.argList(r, true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (p *Parser) parseLambda() (*Rule, error) {
	r := p.rule(RuleLambda)
	r.add(p.take())
	if err := p.expectInto(r, TokenParenOpen); err != nil {
		return nil, err
	}
	if p.current.Type != TokenParenClose {
		for {
			param := p.rule(RuleLambdaParam)
			if err := p.expectInto(param, TokenVariable); err != nil {
				return nil, err
			}
			if err := p.optionalConstraint(param); err != nil {
				return nil, err
			}
			if p.optional(param, TokenColon) {
				value, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				param.add(value)
			}
			r.add(param)
			if !p.optional(r, TokenComma) {
				break
			}
		}
	}
	if err := p.expectInto(r, TokenParenClose); err != nil {
		return nil, err
	}
	if err := p.optionalConstraint(r); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

// parsePatternCall parses Path(pattern) and Matches(pattern).
func (p *Parser) parsePatternCall(kind RuleKind) (*Rule, error) {
	r := p.rule(kind)
	r.add(p.take())
	if err := p.expectInto(r, TokenParenOpen); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	r.add(pattern)
	return r, p.expectInto(r, TokenParenClose)
}

func (p *Parser) parsePattern() (*Rule, error) {
	r := p.rule(RulePattern)
	for {
		switch p.current.Type {
		case TokenDot:
			r.add(p.take())
			switch {
			case p.isKey():
				r.add(p.take())
			case p.current.Type == TokenAnySingle, p.current.Type == TokenAnyPlus, p.current.Type == TokenAnyStar:
				r.add(p.take())
			case p.current.Type == TokenParenOpen:
				if err := p.parenExpr(r); err != nil {
					return nil, err
				}
			default:
				return nil, p.error(types.ErrExpectedToken, "expected a path step after '.' but got "+p.describe())
			}
		case TokenBracketOpen:
			if err := p.bracketFilterList(r); err != nil {
				return nil, err
			}
		default:
			if len(r.Children) == 0 {
				return nil, p.error(types.ErrSyntaxError, "empty path pattern")
			}
			return r, nil
		}
	}
}

// bracketFilterList appends '[' FilterList ']'.
func (p *Parser) bracketFilterList(r *Rule) error {
	if err := p.expectInto(r, TokenBracketOpen); err != nil {
		return err
	}
	list := p.rule(RuleFilterList)
	for {
		item := p.rule(RuleFilterItem)
		expr, err := p.parseExpr()
		if err != nil {
			return err
		}
		item.add(expr)
		if p.optional(item, TokenColon) {
			to, err := p.parseExpr()
			if err != nil {
				return err
			}
			item.add(to)
		}
		list.add(item)
		if !p.optional(list, TokenComma) {
			break
		}
	}
	r.add(list)
	return p.expectInto(r, TokenBracketClose)
}

func (p *Parser) parseFilter() (*Rule, error) {
	r := p.rule(RuleFilter)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	return r, p.bracketFilterList(r)
}

// parseUpdate parses Update and Build; a body starting with Path is the
// keyed form.
func (p *Parser) parseUpdate(kind RuleKind) (*Rule, error) {
	r := p.rule(kind)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenColon); err != nil {
		return nil, err
	}
	if p.current.Type == TokenPath {
		for {
			pair := p.rule(RuleUpdatePair)
			pair.add(p.take())
			if err := p.expectInto(pair, TokenParenOpen); err != nil {
				return nil, err
			}
			pattern, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			pair.add(pattern)
			if err := p.expectInto(pair, TokenParenClose, TokenColon); err != nil {
				return nil, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pair.add(value)
			r.add(pair)
			if !p.optional(r, TokenComma) {
				break
			}
			if p.current.Type != TokenPath {
				return nil, p.error(types.ErrExpectedKeyword, "expected Path after ',' but got "+p.describe())
			}
		}
	} else {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r.add(expr)
	}
	return r, p.expectInto(r, TokenKwEnd)
}

func (p *Parser) parseUpdateArray() (*Rule, error) {
	r := p.rule(RuleUpdateArray)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenColon); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	r.add(expr)
	return r, p.expectInto(r, TokenKwEnd)
}

func (p *Parser) parseChoice() (*Rule, error) {
	r := p.rule(RuleChoice)
	r.add(p.take())
	if p.current.Type != TokenWhen {
		_, err := p.expect(TokenWhen)
		return nil, err
	}
	for p.current.Type == TokenWhen {
		when := p.rule(RuleWhen)
		when.add(p.take())
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		when.add(cond)
		if err := p.expectInto(when, TokenColon); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		when.add(then)
		r.add(when)
	}
	if p.current.Type == TokenOtherwise {
		other := p.rule(RuleOtherwise)
		other.add(p.take())
		if err := p.expectInto(other, TokenColon); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		other.add(expr)
		r.add(other)
	}
	return r, p.expectInto(r, TokenKwEnd)
}

func (p *Parser) parseLoop() (*Rule, error) {
	r := p.rule(RuleLoop)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenParenOpen, TokenVariable, TokenColon); err != nil {
		return nil, err
	}
	over, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	r.add(over)
	if err := p.expectInto(r, TokenParenClose); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseWhile() (*Rule, error) {
	r := p.rule(RuleWhile)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.parenExpr(r); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseDoWhile() (*Rule, error) {
	r := p.rule(RuleDoWhile)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.bodyUntil(r, TokenWhile); err != nil {
		return nil, err
	}
	return r, p.parenExpr(r)
}

// parseBlock parses keyword [Object] ':' Body 'End'.
func (p *Parser) parseBlock(kind RuleKind) (*Rule, error) {
	r := p.rule(kind)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseWhere() (*Rule, error) {
	r := p.rule(RuleWhere)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	r.add(pattern)
	return r, p.bodyUntil(r, TokenKwEnd)
}

func (p *Parser) parseTry() (*Rule, error) {
	r := p.rule(RuleTry)
	r.add(p.take())
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	if err := p.expectInto(r, TokenColon); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	r.add(body)

	catch := p.rule(RuleCatch)
	if err := p.expectInto(catch, TokenCatch); err != nil {
		return nil, err
	}
	p.optional(catch, TokenVariable)
	if err := p.expectInto(catch, TokenColon); err != nil {
		return nil, err
	}
	handler, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	catch.add(handler)
	r.add(catch)
	return r, p.expectInto(r, TokenKwEnd)
}

func (p *Parser) parseIOCall() (*Rule, error) {
	r := p.rule(RuleIOCall)
	r.add(p.take())
	if err := p.expectInto(r, TokenName, TokenColon, TokenName); err != nil {
		return nil, err
	}
	if p.current.Type == TokenColon {
		if err := p.expectInto(r, TokenColon, TokenName); err != nil {
			return nil, err
		}
	}
	if err := p.optionalObject(r); err != nil {
		return nil, err
	}
	return r, nil
}

// unescapeString processes escape sequences in a string literal.
// Handles standard escapes (\n, \t, etc.) and Unicode escapes (\uXXXX).
// Also handles UTF-16 surrogate pairs for characters outside the BMP.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case '\'':
			result.WriteByte('\'')
		case '/':
			result.WriteByte('/')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("invalid \\u escape: not enough characters")
			}
			hex := s[i+1 : i+5]
			codePoint, err := strconv.ParseUint(hex, 16, 16)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape: %s", hex)
			}
			i += 4
			r := rune(codePoint)

			// High surrogate: expect a low surrogate next
			if r >= 0xD800 && r <= 0xDBFF && i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				low, err := strconv.ParseUint(s[i+3:i+7], 16, 16)
				if err == nil && low >= 0xDC00 && low <= 0xDFFF {
					decoded := utf16.Decode([]uint16{uint16(r), uint16(low)})
					result.WriteRune(decoded[0])
					i += 6
					continue
				}
			}
			result.WriteRune(r)
		default:
			return "", fmt.Errorf("invalid escape sequence: \\%c", s[i])
		}
	}

	return result.String(), nil
}
