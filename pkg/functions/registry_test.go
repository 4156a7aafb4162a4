package functions_test

import (
	"testing"

	"github.com/sandrolain/goperon/pkg/functions"
	"github.com/sandrolain/goperon/pkg/types"
)

func TestLookup(t *testing.T) {
	reg := functions.Default()

	tests := []struct {
		ns    string
		name  string
		arity int
		found bool
		key   string
	}{
		{"", "count", 1, true, "core:count:1"},
		{"core", "count", 0, true, "core:count:0"},
		{"", "count", 2, false, ""},
		{"array", "last", 0, true, "array:last:0"},
		{"array", "zip", 7, true, "array:zip:7"},
		{"array", "zip", 0, false, ""},
		{"string", "upper", 1, true, "string:upper:1"},
		{"nope", "upper", 1, false, ""},
		{"", "startsWith", 2, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.ns+":"+tt.name, func(t *testing.T) {
			b, ok := reg.Lookup(tt.ns, tt.name, tt.arity)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && b.Key(tt.arity) != tt.key {
				t.Errorf("key = %q, want %q", b.Key(tt.arity), tt.key)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	reg := functions.Default()

	b, ok := reg.Lookup("", "position", 0)
	if !ok || b.Caps != types.CapPosition {
		t.Errorf("position caps = %v", b)
	}
	b, ok = reg.Lookup("", "parent", 1)
	if !ok || b.Caps != types.CapParent {
		t.Errorf("parent caps = %v", b)
	}
	b, ok = reg.Lookup("", "count", 0)
	if !ok || b.Caps != 0 {
		t.Errorf("count caps = %v", b)
	}
}

func TestRegisterOnClone(t *testing.T) {
	base := functions.Default()
	reg := base.Clone()
	reg.Register(functions.Builtin{Namespace: "geo", Name: "distance", MinArgs: 2, MaxArgs: 2})

	if _, ok := reg.Lookup("geo", "distance", 2); !ok {
		t.Error("registered function not found")
	}
	if _, ok := base.Lookup("geo", "distance", 2); ok {
		t.Error("registering on a clone changed the default registry")
	}
	if reg.Len() != base.Len()+1 {
		t.Errorf("len = %d, want %d", reg.Len(), base.Len()+1)
	}

	var found bool
	for _, ns := range reg.Namespaces() {
		if ns == "geo" {
			found = true
		}
	}
	if !found {
		t.Errorf("namespaces %v lack geo", reg.Namespaces())
	}
}

func TestBuiltinString(t *testing.T) {
	tests := []struct {
		b    functions.Builtin
		want string
	}{
		{functions.Builtin{Name: "count", MinArgs: 0, MaxArgs: 1}, "core:count/0-1"},
		{functions.Builtin{Namespace: "func", Name: "pipe", MinArgs: 1, MaxArgs: functions.Variadic}, "func:pipe/1-*"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestLibrary(t *testing.T) {
	reg := functions.Default().Clone()

	got := reg.Library("last", 0)
	if len(got) != 1 || got[0].Key(0) != "array:last:0" {
		t.Fatalf("Library(last, 0) = %v", got)
	}
	if got := reg.Library("last", 5); len(got) != 0 {
		t.Errorf("Library(last, 5) = %v", got)
	}
	if got := reg.Library("count", 1); len(got) != 0 {
		t.Errorf("core function listed: %v", got)
	}

	reg.Register(functions.Builtin{Namespace: "geo", Name: "last", MinArgs: 0, MaxArgs: 0})
	got = reg.Library("last", 0)
	if len(got) != 2 || got[0].Namespace != "array" || got[1].Namespace != "geo" {
		t.Errorf("Library(last, 0) = %v", got)
	}
}

func TestInternalBuiltins(t *testing.T) {
	reg := functions.Default()

	b, ok := reg.Lookup("", "mock", 2)
	if !ok || !b.Internal {
		t.Fatalf("mock = %v, %v", b, ok)
	}
	for _, name := range reg.Names() {
		if name == "mock" || name == "assert" {
			t.Errorf("Names() lists internal built-in %s", name)
		}
	}
}
