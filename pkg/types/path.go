package types

import "strings"

// PartKind classifies a path part.
type PartKind uint8

const (
	PartKey           PartKind = iota // .name or ."name"
	PartDynamicKey                    // .(expr)
	PartAnySingle                     // .?
	PartAnyOneOrMore                  // .?+
	PartAnyZeroOrMore                 // .?*
	PartFilter                        // [filter list]
)

func (k PartKind) String() string {
	switch k {
	case PartKey:
		return "key"
	case PartDynamicKey:
		return "dynamic"
	case PartAnySingle:
		return "?"
	case PartAnyOneOrMore:
		return "?+"
	case PartAnyZeroOrMore:
		return "?*"
	case PartFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// PathPart is one step of a Path. Key is set for PartKey, Expr for
// PartDynamicKey and Filter for PartFilter.
type PathPart struct {
	Kind   PartKind
	Key    string
	Expr   Node
	Filter *FilterList
}

// Path is an ordered structural address into a JSON value.
type Path []PathPart

// String renders the path in surface syntax; expressions are elided.
func (p Path) String() string {
	var sb strings.Builder
	for _, part := range p {
		switch part.Kind {
		case PartKey:
			sb.WriteByte('.')
			sb.WriteString(part.Key)
		case PartDynamicKey:
			sb.WriteString(".(…)")
		case PartAnySingle, PartAnyOneOrMore, PartAnyZeroOrMore:
			sb.WriteByte('.')
			sb.WriteString(part.Kind.String())
		case PartFilter:
			sb.WriteString("[…]")
		}
	}
	return sb.String()
}
