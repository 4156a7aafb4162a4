package parser_test

import (
	"testing"

	"github.com/sandrolain/goperon/pkg/parser"
)

func FuzzParser(f *testing.F) {
	seeds := []string{
		`Select: $in.name`,
		`From $in; Select: Filter[@.price > 100]`,
		`Function f($a): $a * 2 End Select: f(1)`,
		`Select: Lambda($v): $v End`,
		`Select: Update: Path(.a.?*): 1 End`,
		`Select: -> http:get:users{timeout: 5}`,
		`Import "x.gp" As x;`,
		``,
		`(`,
		`Select: $foo(`,
		`<?env:`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		root, err := parser.Parse(input, parser.WithMaxDepth(64))
		if err == nil && root == nil {
			t.Fatal("nil tree without error")
		}
	})
}
