package types

// Evaluator evaluates a node against an input value.
//
// The compiler never executes programs. An Evaluator is only consulted to
// fold the few configuration values that must be constant at compile time
// (an aggregation's timeoutMillis) when they are written as expressions.
type Evaluator interface {
	Evaluate(node Node, input any) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(node Node, input any) (any, error)

// Evaluate calls f(node, input).
func (f EvaluatorFunc) Evaluate(node Node, input any) (any, error) {
	return f(node, input)
}
