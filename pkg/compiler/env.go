package compiler

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/sandrolain/goperon/pkg/types"
)

// env resolves <?env:NAME> to the JSON value held by the variable.
func (a *assembler) env(c *cursor) (value, error) {
	t := c.Terminal(0)
	if t == nil {
		return nil, c.malformed("environment lookup without a name")
	}
	raw, ok := a.opts.Getenv(t.Value)
	if !ok {
		return nil, c.errorf(types.ErrEnvMissing, "environment variable %s is not set", t.Value)
	}
	n, err := decodeJSON(raw, c.Line())
	if err != nil {
		return nil, c.errorf(types.ErrEnvNotJSON, "environment variable %s does not hold JSON", t.Value).
			WithCause(err).
			WithHint(`strings must be quoted, e.g. NAME='"text"'`)
	}
	return nodeVal{n}, nil
}

// decodeJSON converts one JSON document into literal, array and object
// nodes. Object keys keep their document order.
func decodeJSON(raw string, line int) (types.Node, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	n, err := decodeValue(dec, line)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return n, nil
}

func decodeValue(dec *json.Decoder, line int) (types.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	pos := types.Pos(line)
	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '[':
			arr := &types.Array{Pos: pos}
			for dec.More() {
				el, err := decodeValue(dec, line)
				if err != nil {
					return nil, err
				}
				arr.Elements = append(arr.Elements, el)
			}
			_, err := dec.Token()
			return arr, err
		case '{':
			obj := &types.Object{Pos: pos}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := kt.(string)
				val, err := decodeValue(dec, line)
				if err != nil {
					return nil, err
				}
				obj.Pairs = append(obj.Pairs, types.ObjectPair{Key: key, Value: val})
			}
			_, err := dec.Token()
			return obj, err
		}
		return nil, errors.New("unexpected delimiter " + tok.String())
	case string:
		return types.StringLiteral(line, tok), nil
	case json.Number:
		f, err := tok.Float64()
		if err != nil {
			return nil, err
		}
		return types.NumberLiteral(line, f), nil
	case bool:
		return &types.Literal{Pos: pos, Kind: types.LitBoolean, Bool: tok}, nil
	case nil:
		return &types.Literal{Pos: pos, Kind: types.LitNull}, nil
	}
	return nil, errors.New("unsupported JSON token")
}
