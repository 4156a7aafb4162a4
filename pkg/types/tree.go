package types

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nodeIface     = reflect.TypeFor[Node]()
	stringerIface = reflect.TypeFor[fmt.Stringer]()
	posType       = reflect.TypeFor[Pos]()
)

// Tree converts a node into maps, slices and scalars ready for JSON
// encoding. Every node map carries "type" and "line"; zero-valued fields are
// left out. Bindings and function definitions are referenced by key, which
// keeps recursive functions finite.
func Tree(n Node) any {
	return treeValue(reflect.ValueOf(n))
}

func treeValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}

	switch x := v.Interface().(type) {
	case *Literal:
		return map[string]any{"type": string(NodeLiteral), "line": x.Line(), "kind": x.Kind.String(), "value": literalValue(x)}
	case *Binding:
		return map[string]any{"binding": x.Key(), "kind": x.Kind.String(), "scope": x.Scope}
	case *FunctionDef:
		return x.Key()
	case *Operator:
		return x.Symbol
	case *Constraint:
		return x.Text
	}

	// Enumerations print by name.
	if v.Kind() == reflect.Uint8 && v.Type().Implements(stringerIface) {
		return v.Interface().(fmt.Stringer).String()
	}

	switch v.Kind() {
	case reflect.Interface:
		return treeValue(v.Elem())
	case reflect.Pointer:
		if v.Type().Implements(nodeIface) {
			n := v.Interface().(Node)
			out := map[string]any{"type": string(n.Type()), "line": n.Line()}
			fields(v.Elem(), out)
			return out
		}
		return treeValue(v.Elem())
	case reflect.Struct:
		out := make(map[string]any)
		fields(v, out)
		return out
	case reflect.Slice:
		list := make([]any, v.Len())
		for i := range list {
			list[i] = treeValue(v.Index(i))
		}
		return list
	default:
		return v.Interface()
	}
}

func fields(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type == posType {
			continue
		}
		fv := v.Field(i)
		if fv.IsZero() {
			continue
		}
		out[lowerFirst(f.Name)] = treeValue(fv)
	}
}

func literalValue(l *Literal) any {
	if l.Kind == LitBytes {
		return string(l.Bytes)
	}
	return l.Value()
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if strings.ToUpper(s) == s {
		return strings.ToLower(s)
	}
	return string(unicode.ToLower(r)) + s[size:]
}
