package compiler

import (
	"github.com/sandrolain/goperon/pkg/parser"
	"github.com/sandrolain/goperon/pkg/types"
)

// Path patterns and filters.

var anyParts = map[parser.TokenType]types.PartKind{
	parser.TokenAnySingle: types.PartAnySingle,
	parser.TokenAnyPlus:   types.PartAnyOneOrMore,
	parser.TokenAnyStar:   types.PartAnyZeroOrMore,
}

// pattern classifies the pattern's children into path parts. A '.' starts a
// step whose kind is decided by what follows it; a bracketed filter list is
// a step of its own.
func (a *assembler) pattern(c *cursor) (value, error) {
	var path types.Path
	for i := 0; i < c.Len(); i++ {
		switch {
		case c.IsTerminal(i, parser.TokenDot):
			i++
			t := c.Terminal(i)
			if t == nil {
				return nil, c.malformed("path step without a key")
			}
			if kind, ok := anyParts[t.Type]; ok {
				path = append(path, types.PathPart{Kind: kind})
				continue
			}
			if t.Type == parser.TokenParenOpen {
				expr, err := c.Node(i + 1)
				if err != nil {
					return nil, err
				}
				path = append(path, types.PathPart{Kind: types.PartDynamicKey, Expr: expr})
				i += 2
				continue
			}
			path = append(path, types.PathPart{Kind: types.PartKey, Key: t.Value})

		case c.IsTerminal(i, parser.TokenBracketOpen):
			list, err := a.filterListAt(c, i+1)
			if err != nil {
				return nil, err
			}
			path = append(path, types.PathPart{Kind: types.PartFilter, Filter: list})
			i += 2

		default:
			return nil, c.malformed("unexpected %s in path pattern", childName(c, i))
		}
	}
	if len(path) == 0 {
		return nil, c.malformed("empty path pattern")
	}
	return patternVal{path}, nil
}

func childName(c *cursor, i int) string {
	if t := c.Terminal(i); t != nil {
		return "token " + t.Lexeme
	}
	if r := c.Sub(i); r != nil {
		return "rule " + r.Kind.String()
	}
	return "end of rule"
}

// patternAt returns the path pattern reduced at child i.
func patternAt(c *cursor, i int) (types.Path, error) {
	v, ok := c.Value(i).(patternVal)
	if !ok {
		return nil, c.unexpected(i, "a path pattern")
	}
	return v.path, nil
}

func (a *assembler) pathCall(kind parser.RuleKind, c *cursor) (value, error) {
	path, err := patternAt(c, c.FindRule(parser.RulePattern, 0))
	if err != nil {
		return nil, err
	}
	line := types.Pos(c.Line())
	if kind == parser.RuleMatches {
		return nodeVal{&types.PathMatches{Pos: line, Path: path}}, nil
	}
	return nodeVal{&types.PathValue{Pos: line, Path: path}}, nil
}

// filterListAt returns the filter list reduced at child i.
func (a *assembler) filterListAt(c *cursor, i int) (*types.FilterList, error) {
	n, err := c.Node(i)
	if err != nil {
		return nil, err
	}
	list, ok := n.(*types.FilterList)
	if !ok {
		return nil, c.unexpected(i, "a filter list")
	}
	return list, nil
}

func (a *assembler) filter(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	list, err := a.filterListAt(c, c.FindRule(parser.RuleFilterList, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Filter{Pos: types.Pos(c.Line()), List: list, Config: config}}, nil
}

func (a *assembler) filterList(c *cursor) (value, error) {
	list := &types.FilterList{Pos: types.Pos(c.Line())}
	for i := 0; i < c.Len(); i++ {
		if c.Sub(i) == nil {
			continue
		}
		item, ok := c.Value(i).(filterItemVal)
		if !ok {
			return nil, c.unexpected(i, "a filter item")
		}
		list.Items = append(list.Items, item.item)
	}
	return nodeVal{list}, nil
}

func (a *assembler) filterItem(c *cursor) (value, error) {
	expr, err := c.Node(0)
	if err != nil {
		return nil, err
	}
	item := types.FilterItem{Expr: expr}
	if c.IsTerminal(1, parser.TokenColon) {
		if item.To, err = c.Node(2); err != nil {
			return nil, err
		}
	}
	return filterItemVal{item}, nil
}

func (a *assembler) where(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	path, err := patternAt(c, c.FindRule(parser.RulePattern, 0))
	if err != nil {
		return nil, err
	}
	body, err := c.Body(c.FindRule(parser.RuleBody, 0))
	if err != nil {
		return nil, err
	}
	return nodeVal{&types.Where{
		Pos:      types.Pos(c.Line()),
		Pattern:  path,
		Body:     body.node,
		Bindings: body.bindings,
		Config:   config,
	}}, nil
}
