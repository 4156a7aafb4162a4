package functions

import "github.com/sandrolain/goperon/pkg/types"

func fn(ns, name string, lo, hi int, sig string) Builtin {
	return Builtin{Namespace: ns, Name: name, MinArgs: lo, MaxArgs: hi, Signature: sig}
}

// Core returns the unqualified built-ins.
func Core() []Builtin {
	return []Builtin{
		{Name: "position", MinArgs: 0, MaxArgs: 0, Caps: types.CapPosition, Signature: "<:n>"},
		{Name: "parent", MinArgs: 0, MaxArgs: 1, Caps: types.CapParent, Signature: "<n?:x>"},
		{Name: "mock", MinArgs: 2, MaxArgs: 2, Signature: "<s-x:x>", Internal: true},
		{Name: "assert", MinArgs: 2, MaxArgs: 2, Signature: "<s-x:x>", Internal: true},
		fn("", "count", 0, 1, "<a?:n>"),
		fn("", "sum", 0, 1, "<a<n>?:n>"),
		fn("", "max", 0, 1, "<a<n>?:n>"),
		fn("", "min", 0, 1, "<a<n>?:n>"),
		fn("", "average", 0, 1, "<a<n>?:n>"),
		fn("", "string", 0, 2, "<x?b?:s>"),
		fn("", "number", 0, 1, "<x?:n>"),
		fn("", "boolean", 0, 1, "<x?:b>"),
		fn("", "not", 0, 1, "<x?:b>"),
		fn("", "exists", 1, 1, "<x:b>"),
		fn("", "keys", 0, 1, "<x?:a<s>>"),
		fn("", "lookup", 2, 2, "<x-s:x>"),
		fn("", "append", 2, 2, "<x-x:a>"),
		fn("", "merge", 1, 1, "<a<o>:o>"),
		fn("", "now", 0, 2, "<s?s?:s>"),
		fn("", "millis", 0, 0, "<:n>"),
		fn("", "error", 0, 1, "<s?:x>"),
		fn("", "type", 1, 1, "<x:s>"),
		fn("", "log", 1, 2, "<x-s?:x>"),
	}
}

// String returns the string library.
func String() []Builtin {
	return []Builtin{
		fn("string", "startsWith", 2, 2, "<s-s:b>"),
		fn("string", "endsWith", 2, 2, "<s-s:b>"),
		fn("string", "indexOf", 2, 3, "<s-s<n>?:n>"),
		fn("string", "lastIndexOf", 2, 2, "<s-s:n>"),
		fn("string", "capitalize", 1, 1, "<s:s>"),
		fn("string", "titleCase", 1, 1, "<s:s>"),
		fn("string", "camelCase", 1, 1, "<s:s>"),
		fn("string", "snakeCase", 1, 1, "<s:s>"),
		fn("string", "kebabCase", 1, 1, "<s:s>"),
		fn("string", "repeat", 2, 2, "<s-n:s>"),
		fn("string", "words", 1, 1, "<s:a<s>>"),
		fn("string", "upper", 0, 1, "<s?:s>"),
		fn("string", "lower", 0, 1, "<s?:s>"),
		fn("string", "trim", 0, 1, "<s?:s>"),
		fn("string", "length", 0, 1, "<s?:n>"),
		fn("string", "substring", 2, 3, "<s-n-n?:s>"),
		fn("string", "split", 2, 3, "<s-s-n?:a<s>>"),
		fn("string", "join", 1, 2, "<a<s>-s?:s>"),
		fn("string", "replace", 3, 4, "<s-s-s-n?:s>"),
		fn("string", "contains", 2, 2, "<s-s:b>"),
		fn("string", "matches", 2, 2, "<s-s:b>"),
	}
}

// Numeric returns the numeric library.
func Numeric() []Builtin {
	return []Builtin{
		fn("numeric", "log", 1, 2, "<n<n>?:n>"),
		fn("numeric", "sign", 1, 1, "<n:n>"),
		fn("numeric", "trunc", 1, 1, "<n:n>"),
		fn("numeric", "clamp", 3, 3, "<n-n-n:n>"),
		fn("numeric", "atan2", 2, 2, "<n-n:n>"),
		fn("numeric", "pi", 0, 0, "<:n>"),
		fn("numeric", "e", 0, 0, "<:n>"),
		fn("numeric", "median", 1, 1, "<a<n>:n>"),
		fn("numeric", "variance", 1, 1, "<a<n>:n>"),
		fn("numeric", "stddev", 1, 1, "<a<n>:n>"),
		fn("numeric", "percentile", 2, 2, "<a<n>-n:n>"),
		fn("numeric", "mode", 1, 1, "<a<n>:x>"),
		fn("numeric", "abs", 1, 1, "<n:n>"),
		fn("numeric", "floor", 1, 1, "<n:n>"),
		fn("numeric", "ceil", 1, 1, "<n:n>"),
		fn("numeric", "round", 1, 2, "<n-n?:n>"),
		fn("numeric", "power", 2, 2, "<n-n:n>"),
		fn("numeric", "sqrt", 1, 1, "<n:n>"),
		fn("numeric", "random", 0, 0, "<:n>"),
	}
}

// Array returns the array library. Functions that accept an optional array
// default to the current value.
func Array() []Builtin {
	return []Builtin{
		fn("array", "first", 0, 1, "<a?:x>"),
		fn("array", "last", 0, 1, "<a?:x>"),
		fn("array", "take", 2, 2, "<a-n:a>"),
		fn("array", "skip", 2, 2, "<a-n:a>"),
		fn("array", "slice", 2, 3, "<a-n<n>?:a>"),
		fn("array", "flatten", 1, 2, "<a<n>?:a>"),
		fn("array", "chunk", 2, 2, "<a-n:a>"),
		fn("array", "union", 2, 2, "<a-a:a>"),
		fn("array", "intersection", 2, 2, "<a-a:a>"),
		fn("array", "difference", 2, 2, "<a-a:a>"),
		fn("array", "symmetricDifference", 2, 2, "<a-a:a>"),
		fn("array", "range", 2, 3, "<n-n<n>?:a<n>>"),
		fn("array", "zipLongest", 2, 3, "<a-a<x>?:a>"),
		fn("array", "window", 3, 3, "<a-n-n:a>"),
		fn("array", "groupBy", 2, 2, "<a-f:o>"),
		fn("array", "countBy", 2, 2, "<a-f:o>"),
		fn("array", "sumBy", 2, 2, "<a-f:o>"),
		fn("array", "minBy", 2, 2, "<a-f:x>"),
		fn("array", "maxBy", 2, 2, "<a-f:x>"),
		fn("array", "accumulate", 2, 3, "<a-f-x?:a>"),
		fn("array", "sort", 1, 2, "<a-f?:a>"),
		fn("array", "reverse", 0, 1, "<a?:a>"),
		fn("array", "distinct", 0, 1, "<a?:a>"),
		fn("array", "zip", 1, Variadic, "<a+:a>"),
		fn("array", "filter", 2, 2, "<a-f:a>"),
		fn("array", "map", 2, 2, "<a-f:a>"),
		fn("array", "reduce", 2, 3, "<a-f-x?:x>"),
	}
}

// Object returns the object library.
func Object() []Builtin {
	return []Builtin{
		fn("object", "values", 1, 1, "<o:a>"),
		fn("object", "pairs", 1, 1, "<o:a>"),
		fn("object", "fromPairs", 1, 1, "<a:o>"),
		fn("object", "pick", 2, 2, "<o-a<s>:o>"),
		fn("object", "omit", 2, 2, "<o-a<s>:o>"),
		fn("object", "deepMerge", 1, 1, "<a<o>:o>"),
		fn("object", "invert", 1, 1, "<o:o>"),
		fn("object", "size", 1, 1, "<o:n>"),
		fn("object", "rename", 2, 2, "<o-o:o>"),
		fn("object", "mapValues", 2, 2, "<o-f:o>"),
		fn("object", "mapKeys", 2, 2, "<o-f:o>"),
		fn("object", "spread", 0, 1, "<x?:a<o>>"),
		fn("object", "each", 2, 2, "<o-f:a>"),
	}
}

// Types returns the type predicates.
func Types() []Builtin {
	return []Builtin{
		fn("types", "isString", 1, 1, "<x:b>"),
		fn("types", "isNumber", 1, 1, "<x:b>"),
		fn("types", "isBoolean", 1, 1, "<x:b>"),
		fn("types", "isArray", 1, 1, "<x:b>"),
		fn("types", "isObject", 1, 1, "<x:b>"),
		fn("types", "isNull", 1, 1, "<x:b>"),
		fn("types", "isFunction", 1, 1, "<x:b>"),
		fn("types", "isUndefined", 1, 1, "<x:b>"),
		fn("types", "isEmpty", 1, 1, "<x:b>"),
		fn("types", "default", 2, 2, "<x-x:x>"),
		fn("types", "identity", 1, 1, "<x:x>"),
	}
}

// DateTime returns the date/time library.
func DateTime() []Builtin {
	return []Builtin{
		fn("datetime", "dateAdd", 3, 3, "<n-n-s:n>"),
		fn("datetime", "dateDiff", 3, 3, "<n-n-s:n>"),
		fn("datetime", "dateComponents", 1, 2, "<n<s>?:o>"),
		fn("datetime", "dateStartOf", 2, 2, "<n-s:n>"),
		fn("datetime", "dateEndOf", 2, 2, "<n-s:n>"),
		fn("datetime", "toMillis", 1, 2, "<s-s?:n>"),
		fn("datetime", "fromMillis", 1, 3, "<n-s?-s?:s>"),
	}
}

// Crypto returns the hashing and id functions.
func Crypto() []Builtin {
	return []Builtin{
		fn("crypto", "uuid", 0, 0, "<:s>"),
		fn("crypto", "hash", 2, 2, "<s-s:s>"),
		fn("crypto", "hmac", 3, 3, "<s-s-s:s>"),
		fn("crypto", "base64encode", 1, 1, "<s:s>"),
		fn("crypto", "base64decode", 1, 1, "<s:s>"),
	}
}

// Format returns the data-format functions.
func Format() []Builtin {
	return []Builtin{
		fn("format", "csv", 1, 2, "<s<o>?:a<o>>"),
		fn("format", "toCSV", 1, 2, "<a<o><a<s>>?:s>"),
		fn("format", "template", 2, 2, "<s-o:s>"),
		fn("format", "json", 1, 2, "<x-b?:s>"),
		fn("format", "parseJSON", 1, 1, "<s:x>"),
	}
}

// Functional returns the higher-order utilities.
func Functional() []Builtin {
	return []Builtin{
		fn("func", "pipe", 1, Variadic, "<f+:f>"),
		fn("func", "memoize", 1, 1, "<f:f>"),
		fn("func", "apply", 1, 2, "<f-a?:x>"),
	}
}
