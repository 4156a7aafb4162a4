package parser

import "strings"

// RuleKind identifies a grammar rule.
//
// The ordered children of each rule are listed next to its kind; [x] is
// optional, {x} repeats, UPPER names are terminals and Capitalized names are
// nested rules.
type RuleKind uint8

const (
	RuleProgram     RuleKind = iota // {Import|Function|Let|Exception} [From] [Select]
	RuleImport                      // 'Import' STRING 'As' NAME ';'
	RuleFunction                    // 'Function' [NAME ':'] NAME '(' [Param {',' Param}] ')' [Constraint] ':' Body 'End'
	RuleParam                       // VAR [Constraint]
	RuleLet                         // 'Let' [NAME ':'] VAR [Constraint] ':' Expr ';'
	RuleException                   // 'Exception' VAR ':' Body 'End'
	RuleFrom                        // 'From' VAR [Constraint] ';'
	RuleSelect                      // 'Select' [Constraint] [Object] ':' Body
	RuleBody                        // {Let} Expr
	RuleConstraint                  // '<' Expr '>'
	RuleExpr                        // Operand | Op Operand | Operand OP Operand | '(' Expr ')' | Operand Postfix {Postfix}
	RuleRange                       // Operand '..' Operand
	RuleAssign                      // VAR ':=' Expr
	RuleLiteral                     // STRING | NUMBER | BOOLEAN | NULL | EMPTY | END | BYTES
	RuleArray                       // '[' [Expr {',' Expr}] ']'
	RuleObject                      // '{' [ObjectPair {',' ObjectPair}] '}'
	RuleObjectPair                  // (STRING|NAME) ':' Expr
	RuleCurrent                     // '@'
	RuleVar                         // [NAME ':'] VAR
	RuleComputedRef                 // '$(' Expr ')'
	RuleEnv                         // ENV
	RuleCall                        // [NAME ':'] NAME '(' [Expr {',' Expr}] ')'
	RuleFunctionRef                 // '&' [NAME ':'] NAME '(' [Arg {',' Arg}] ')' {'(' ... ')'}; Arg is Expr or '_'
	RuleInvoke                      // VAR [Object] '(' [Expr {',' Expr}] ')'
	RuleLambda                      // 'Lambda' '(' [LambdaParam {',' LambdaParam}] ')' [Constraint] ':' Body 'End'
	RuleLambdaParam                 // VAR [Constraint] [':' Expr]
	RulePathValue                   // 'Path' '(' Pattern ')'
	RuleMatches                     // 'Matches' '(' Pattern ')'
	RulePattern                     // {'.' (NAME|STRING|'?'|'?+'|'?*') | '.' '(' Expr ')' | '[' FilterList ']'}
	RuleFilter                      // 'Filter' [Object] '[' FilterList ']'
	RuleFilterList                  // FilterItem {',' FilterItem}
	RuleFilterItem                  // Expr [':' Expr]
	RuleUpdate                      // 'Update' [Object] ':' (UpdatePair {',' UpdatePair} | Expr) 'End'
	RuleUpdatePair                  // 'Path' '(' Pattern ')' ':' Expr
	RuleUpdateArray                 // 'UpdateArray' [Object] ':' Expr 'End'
	RuleBuild                       // 'Build' [Object] ':' (UpdatePair {',' UpdatePair} | Expr) 'End'
	RuleChoice                      // 'Choice' When {When} [Otherwise] 'End'
	RuleWhen                        // 'When' Expr ':' Expr
	RuleOtherwise                   // 'Otherwise' ':' Expr
	RuleLoop                        // 'Loop' [Object] '(' VAR ':' Expr ')' ':' Body 'End'
	RuleWhile                       // 'While' [Object] '(' Expr ')' ':' Body 'End'
	RuleDoWhile                     // 'Do' [Object] ':' Body 'While' '(' Expr ')'
	RuleMap                         // 'Map' [Object] ':' Body 'End'
	RuleWhere                       // 'Where' [Object] Pattern ':' Body 'End'
	RuleTry                         // 'Try' [Object] ':' Body Catch 'End'
	RuleCatch                       // 'Catch' [VAR] ':' Body
	RuleThrow                       // 'Throw' '(' Expr ')'
	RuleAggregate                   // 'Aggregate' Object
	RuleIOCall                      // '->' NAME ':' NAME [':' NAME] [Object]
	RuleAccess                      // '.' (NAME|STRING)
	RuleDynamicAccess               // '.' '(' Expr ')'
	RuleDeepScan                    // '..' [Object] (NAME|STRING)
	RuleIndex                       // '[' FilterList ']'
)

var ruleNames = [...]string{
	RuleProgram:       "program",
	RuleImport:        "import",
	RuleFunction:      "function",
	RuleParam:         "param",
	RuleLet:           "let",
	RuleException:     "exception",
	RuleFrom:          "from",
	RuleSelect:        "select",
	RuleBody:          "body",
	RuleConstraint:    "constraint",
	RuleExpr:          "expr",
	RuleRange:         "range",
	RuleAssign:        "assign",
	RuleLiteral:       "literal",
	RuleArray:         "array",
	RuleObject:        "object",
	RuleObjectPair:    "objectPair",
	RuleCurrent:       "current",
	RuleVar:           "var",
	RuleComputedRef:   "computedRef",
	RuleEnv:           "env",
	RuleCall:          "call",
	RuleFunctionRef:   "functionRef",
	RuleInvoke:        "invoke",
	RuleLambda:        "lambda",
	RuleLambdaParam:   "lambdaParam",
	RulePathValue:     "path",
	RuleMatches:       "matches",
	RulePattern:       "pattern",
	RuleFilter:        "filter",
	RuleFilterList:    "filterList",
	RuleFilterItem:    "filterItem",
	RuleUpdate:        "update",
	RuleUpdatePair:    "updatePair",
	RuleUpdateArray:   "updateArray",
	RuleBuild:         "build",
	RuleChoice:        "choice",
	RuleWhen:          "when",
	RuleOtherwise:     "otherwise",
	RuleLoop:          "loop",
	RuleWhile:         "while",
	RuleDoWhile:       "doWhile",
	RuleMap:           "map",
	RuleWhere:         "where",
	RuleTry:           "try",
	RuleCatch:         "catch",
	RuleThrow:         "throw",
	RuleAggregate:     "aggregate",
	RuleIOCall:        "ioCall",
	RuleAccess:        "access",
	RuleDynamicAccess: "dynamicAccess",
	RuleDeepScan:      "deepScan",
	RuleIndex:         "index",
}

func (k RuleKind) String() string {
	if int(k) < len(ruleNames) && ruleNames[k] != "" {
		return ruleNames[k]
	}
	return "(unknown)"
}

// Child is a child syntax node: a *Token terminal or a nested *Rule.
type Child interface {
	Line() int
	Text() string
	isChild()
}

// Rule is a node of the concrete syntax tree.
type Rule struct {
	Kind     RuleKind
	Children []Child
	LineNo   int
}

// Line returns the 1-based line the rule starts on.
func (r *Rule) Line() int { return r.LineNo }

func (*Rule) isChild() {}

// Text returns the terminal texts of the rule, in source order, separated
// by single spaces.
func (r *Rule) Text() string {
	var parts []string
	r.collectText(&parts)
	return strings.Join(parts, " ")
}

func (r *Rule) collectText(parts *[]string) {
	for _, ch := range r.Children {
		switch ch := ch.(type) {
		case *Token:
			*parts = append(*parts, ch.Lexeme)
		case *Rule:
			ch.collectText(parts)
		}
	}
}

// RuleCount returns the number of nested rule children.
func (r *Rule) RuleCount() int {
	var n int
	for _, ch := range r.Children {
		if _, ok := ch.(*Rule); ok {
			n++
		}
	}
	return n
}

// Listener receives rule events from Walk.
//
// EnterRule is called before the children of a rule are visited; the
// returned leave func (which may be nil) runs after ExitRule, or as soon as
// the walk of the rule fails. ExitRule is called once all nested rules have
// exited.
type Listener interface {
	EnterRule(r *Rule) (leave func(), err error)
	ExitRule(r *Rule) error
}

// Walk drives l depth-first over the tree rooted at root.
// The first error stops the walk and is returned.
func Walk(root *Rule, l Listener) error {
	leave, err := l.EnterRule(root)
	if err != nil {
		return err
	}
	if leave != nil {
		defer leave()
	}
	for _, ch := range root.Children {
		if sub, ok := ch.(*Rule); ok {
			if err := Walk(sub, l); err != nil {
				return err
			}
		}
	}
	return l.ExitRule(root)
}
