package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/sandrolain/goperon/pkg/types"
)

// Aggregation descriptor keys.
const (
	aggCorrelationID = "correlationId"
	aggFirePredicate = "firePredicate"
	aggFunction      = "aggregateFunction"
	aggTimeout       = "timeoutMillis"
)

// defaultBucket is the correlation id used when none is configured.
const defaultBucket = "default"

// aggregate validates the configuration object and turns it into a
// descriptor with a fresh process-unique id.
func (a *assembler) aggregate(c *cursor) (value, error) {
	config, err := c.Config(1)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, c.errorf(types.ErrInvalidAggregate, "Aggregate requires a configuration object")
	}

	desc := &types.AggregateDescriptor{ID: ulid.Make().String()}
	seen := make(map[string]bool, len(config.Pairs))
	for _, p := range config.Pairs {
		if seen[p.Key] {
			return nil, types.Errorf(types.ErrInvalidAggregate, p.Value.Line(), "duplicate aggregation key %q", p.Key)
		}
		seen[p.Key] = true
		switch p.Key {
		case aggCorrelationID:
			desc.CorrelationID = p.Value
		case aggFirePredicate:
			desc.FirePredicate = p.Value
		case aggFunction:
			desc.AggregateFunction = p.Value
		case aggTimeout:
			ms, err := a.foldTimeout(p.Value)
			if err != nil {
				return nil, err
			}
			desc.HasTimeout = true
			desc.TimeoutMillis = ms
		default:
			return nil, types.Errorf(types.ErrInvalidAggregate, p.Value.Line(), "unknown aggregation key %q", p.Key).
				WithHint("valid keys are correlationId, firePredicate, aggregateFunction and timeoutMillis")
		}
	}

	if desc.FirePredicate == nil {
		return nil, c.errorf(types.ErrInvalidAggregate, "aggregation requires %s", aggFirePredicate)
	}
	if desc.AggregateFunction == nil {
		return nil, c.errorf(types.ErrInvalidAggregate, "aggregation requires %s", aggFunction)
	}
	if desc.CorrelationID == nil {
		desc.CorrelationID = types.StringLiteral(c.Line(), defaultBucket)
	}

	a.log.Debug("assembled aggregation", "id", desc.ID, "timeout", desc.HasTimeout)
	return nodeVal{&types.Aggregate{Pos: types.Pos(c.Line()), Descriptor: desc}}, nil
}

// foldTimeout reduces the timeout to a positive number. Literals are read
// directly; anything else is folded through the configured evaluator.
func (a *assembler) foldTimeout(n types.Node) (float64, error) {
	var ms float64
	if lit, ok := types.Unwrap(n).(*types.Literal); ok {
		if lit.Kind != types.LitNumber {
			return 0, types.Errorf(types.ErrInvalidAggregate, n.Line(), "%s must be a number, found %s", aggTimeout, lit.Kind)
		}
		ms = lit.Num
	} else {
		if a.opts.Evaluator == nil {
			return 0, types.Errorf(types.ErrInvalidAggregate, n.Line(), "%s must be a constant number", aggTimeout).
				WithHint("configure an evaluator to fold constant expressions")
		}
		v, err := a.opts.Evaluator.Evaluate(n, nil)
		if err != nil {
			return 0, types.Errorf(types.ErrInvalidAggregate, n.Line(), "cannot fold %s", aggTimeout).WithCause(err)
		}
		if ms, err = toFloat(v); err != nil {
			return 0, types.Errorf(types.ErrInvalidAggregate, n.Line(), "%s: %v", aggTimeout, err)
		}
	}
	if ms <= 0 {
		return 0, types.Errorf(types.ErrInvalidAggregate, n.Line(), "%s must be positive, found %g", aggTimeout, ms)
	}
	return ms, nil
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("expected a number, found %T", v)
	}
}
