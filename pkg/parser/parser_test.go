package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// Helper functions

// shape renders a CST compactly: rules as kind(children...), terminals as
// their lexeme.
func shape(c parser.Child) string {
	r, ok := c.(*parser.Rule)
	if !ok {
		return c.Text()
	}
	parts := make([]string, len(r.Children))
	for i, ch := range r.Children {
		parts[i] = shape(ch)
	}
	return r.Kind.String() + "(" + strings.Join(parts, " ") + ")"
}

func parseExpr(t *testing.T, input string) *parser.Rule {
	t.Helper()
	r, err := parser.ParseExpression(input)
	if err != nil {
		t.Fatalf("ParseExpression(%q) error: %v", input, err)
	}
	return r
}

func expectCode(t *testing.T, err error, code types.ErrorCode) *types.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s but got none", code)
	}
	var perr *types.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error %v is not a *types.Error", err)
	}
	if perr.Code != code {
		t.Fatalf("error code = %s, want %s (%v)", perr.Code, code, err)
	}
	return perr
}

func TestParseExpressionShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"literal", `"a"`, `expr(literal("a"))`},
		{"precedence", "1 + 2 * 3", "expr(literal(1) + expr(literal(2) * literal(3)))"},
		{"left associative", "1 - 2 - 3", "expr(expr(literal(1) - literal(2)) - literal(3))"},
		{"power is right associative", "2 ^ 3 ^ 2", "expr(literal(2) ^ expr(literal(3) ^ literal(2)))"},
		{"logical", "$a And Not $b", "expr(var($a) And expr(Not var($b)))"},
		{"negation", "-$x", "expr(- var($x))"},
		{"parens", "(1)", "expr(( expr(literal(1)) ))"},
		{"range", "1..5", "expr(range(literal(1) .. literal(5)))"},
		{"postfix chain", "$a.b[1]", "expr(var($a) access(. b) index([ filterList(filterItem(expr(literal(1)))) ]))"},
		{"keyword as key", "$a.Select", "expr(var($a) access(. Select))"},
		{"dynamic access", "$a.($k)", "expr(var($a) dynamicAccess(. ( expr(var($k)) )))"},
		{"deep scan", "$a..name", "expr(var($a) deepScan(.. name))"},
		{"range after variable", "$a..$b", "expr(range(var($a) .. var($b)))"},
		{"current", "@", "expr(current(@))"},
		{"namespaced variable", "m:$x", "expr(var(m : $x))"},
		{"call", `str:upper("a")`, `expr(call(str : upper ( expr(literal("a")) )))`},
		{"assign", "$x := 1", "expr(assign($x := expr(literal(1))))"},
		{"computed ref", `$("x")`, `expr(computedRef($( expr(literal("x")) )))`},
		{"env", "<?env:HOME>", "expr(env(<?env:HOME>))"},
		{"array", "[1, 2]", "expr(array([ expr(literal(1)) , expr(literal(2)) ]))"},
		{"object", `{a: 1, "b": 2}`, `expr(object({ objectPair(a : expr(literal(1))) , objectPair("b" : expr(literal(2))) }))`},
		{"io call", "-> http:get:users", "expr(ioCall(-> http : get : users))"},
		{"throw", `Throw("x")`, `expr(throw(Throw ( expr(literal("x")) )))`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(parseExpr(t, tt.input))
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestParseConstructs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  parser.RuleKind
		rules int
	}{
		{"lambda", "Lambda($a, $b: 2): $a End", parser.RuleLambda, 3},
		{"function ref", "&f(_, 1)(2)", parser.RuleFunctionRef, 2},
		{"invoke with config", "$f{retries: 2}(1)", parser.RuleInvoke, 2},
		{"path", "Path(.a.?*[0])", parser.RulePathValue, 1},
		{"matches", "Matches(.a.(\"b\"))", parser.RuleMatches, 1},
		{"filter", "Filter{k: 1}[1:3, 5]", parser.RuleFilter, 2},
		{"update pairs", "Update: Path(.a): 1, Path(.b): 2 End", parser.RuleUpdate, 2},
		{"update whole", "Update: {a: 1} End", parser.RuleUpdate, 1},
		{"build", "Build: Path(.a): 1 End", parser.RuleBuild, 1},
		{"update array", "UpdateArray: [1] End", parser.RuleUpdateArray, 1},
		{"choice", `Choice When $a = 1: "one" When $a = 2: "two" Otherwise: "many" End`, parser.RuleChoice, 3},
		{"loop", "Loop($i: [1, 2]): Let $y: $i; $y End", parser.RuleLoop, 2},
		{"while", "While($a < 3): $a End", parser.RuleWhile, 2},
		{"do while", "Do: $a While($a < 3)", parser.RuleDoWhile, 2},
		{"map", "Map{mode: 1}: @ End", parser.RuleMap, 2},
		{"where", "Where .a.b: @ End", parser.RuleWhere, 2},
		{"try", "Try: $a Catch $e: $e End", parser.RuleTry, 2},
		{"aggregate", "Aggregate{firePredicate: true}", parser.RuleAggregate, 1},
		{"io call with config", "-> db:query:users{limit: 1}", parser.RuleIOCall, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := parseExpr(t, tt.input)
			if len(r.Children) != 1 {
				t.Fatalf("expected a wrapped construct, got %s", shape(r))
			}
			inner, ok := r.Children[0].(*parser.Rule)
			if !ok || inner.Kind != tt.kind {
				t.Fatalf("got %s, want %s", shape(r), tt.kind)
			}
			if n := inner.RuleCount(); n != tt.rules {
				t.Errorf("rule children = %d, want %d: %s", n, tt.rules, shape(inner))
			}
		})
	}
}

func TestParseProgram(t *testing.T) {
	src := `Import "lib.gp" As lib;
Function f($a <isNumber(@)>): $a End
Function str:g(): 1 End
Let cfg:$x: 1;
Exception $e: $e End
From $in;
Select {format: "json"}: lib:h($in)`

	root, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := []parser.RuleKind{
		parser.RuleImport,
		parser.RuleFunction,
		parser.RuleFunction,
		parser.RuleLet,
		parser.RuleException,
		parser.RuleFrom,
		parser.RuleSelect,
	}
	if len(root.Children) != len(want) {
		t.Fatalf("got %d declarations, want %d: %s", len(root.Children), len(want), shape(root))
	}
	for i, k := range want {
		r := root.Children[i].(*parser.Rule)
		if r.Kind != k {
			t.Errorf("declaration %d = %s, want %s", i, r.Kind, k)
		}
	}
	if line := root.Children[6].Line(); line != 7 {
		t.Errorf("select line = %d, want 7", line)
	}
}

func TestParseEmptyProgram(t *testing.T) {
	root, err := parser.Parse("  // nothing here\n")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(root.Children) != 0 {
		t.Errorf("got %s, want an empty program", shape(root))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  types.ErrorCode
		hint  string
	}{
		{"lowercase keyword", "select: 1", types.ErrSyntaxError, "did you mean Select?"},
		{"lowercase closing keyword", "Function f(): 1 end", types.ErrExpectedKeyword, "did you mean End?"},
		{"missing colon", "Select 1", types.ErrExpectedToken, ""},
		{"bare name", "Select: name", types.ErrSyntaxError, ""},
		{"trailing tokens", "Select: 1 2", types.ErrSyntaxError, ""},
		{"unexpected end", "Select: 1 +", types.ErrUnexpectedEnd, ""},
		{"lexer error", `Select: "abc`, types.ErrStringNotClosed, ""},
		{"declaration after select", "Select: 1 Let $x: 1;", types.ErrSyntaxError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input, parser.WithFile("main.gp"))
			perr := expectCode(t, err, tt.code)
			if perr.File != "main.gp" {
				t.Errorf("file = %q, want main.gp", perr.File)
			}
			if tt.hint != "" && !strings.Contains(perr.Hint, tt.hint) {
				t.Errorf("hint = %q, want it to contain %q", perr.Hint, tt.hint)
			}
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	src := strings.Repeat("(", 30) + "1" + strings.Repeat(")", 30)
	_, err := parser.ParseExpression(src, parser.WithMaxDepth(10))
	expectCode(t, err, types.ErrNestingTooDeep)

	if _, err := parser.ParseExpression(src); err != nil {
		t.Errorf("default depth rejected %d parens: %v", 30, err)
	}
}

func TestParseEmptyExpression(t *testing.T) {
	_, err := parser.ParseExpression("   ")
	expectCode(t, err, types.ErrUnexpectedEnd)
}

type recorder struct {
	events []string
	failOn parser.RuleKind
}

func (r *recorder) EnterRule(rule *parser.Rule) (func(), error) {
	r.events = append(r.events, "+"+rule.Kind.String())
	if rule.Kind == r.failOn {
		return nil, errors.New("stop")
	}
	return func() { r.events = append(r.events, "~"+rule.Kind.String()) }, nil
}

func (r *recorder) ExitRule(rule *parser.Rule) error {
	r.events = append(r.events, "-"+rule.Kind.String())
	return nil
}

func TestWalk(t *testing.T) {
	root := parseExpr(t, "[1]")

	rec := &recorder{failOn: parser.RuleProgram}
	if err := parser.Walk(root, rec); err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	want := "+expr +array +expr +literal -literal ~literal -expr ~expr -array ~array -expr ~expr"
	if got := strings.Join(rec.events, " "); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	rec = &recorder{failOn: parser.RuleLiteral}
	if err := parser.Walk(root, rec); err == nil {
		t.Fatal("expected the walk to stop")
	}
	want = "+expr +array +expr +literal ~expr ~array ~expr"
	if got := strings.Join(rec.events, " "); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}
