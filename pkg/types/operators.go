package types

// OpClass groups operators by the kind of values they combine.
type OpClass uint8

const (
	OpArithmetic OpClass = iota
	OpComparison
	OpLogical
)

// Operator describes an operator implementation selected at compile time.
type Operator struct {
	Symbol string
	Class  OpClass
	Unary  bool
}

func (o *Operator) String() string {
	return o.Symbol
}

// Binary operators.
var (
	OpAdd = &Operator{Symbol: "+", Class: OpArithmetic}
	OpSub = &Operator{Symbol: "-", Class: OpArithmetic}
	OpMul = &Operator{Symbol: "*", Class: OpArithmetic}
	OpDiv = &Operator{Symbol: "/", Class: OpArithmetic}
	OpMod = &Operator{Symbol: "%", Class: OpArithmetic}
	OpPow = &Operator{Symbol: "^", Class: OpArithmetic}

	OpEq  = &Operator{Symbol: "=", Class: OpComparison}
	OpNeq = &Operator{Symbol: "!=", Class: OpComparison}
	OpGt  = &Operator{Symbol: ">", Class: OpComparison}
	OpGte = &Operator{Symbol: ">=", Class: OpComparison}
	OpLt  = &Operator{Symbol: "<", Class: OpComparison}
	OpLte = &Operator{Symbol: "<=", Class: OpComparison}

	OpAnd = &Operator{Symbol: "And", Class: OpLogical}
	OpOr  = &Operator{Symbol: "Or", Class: OpLogical}
)

// Unary operators.
var (
	OpNot    = &Operator{Symbol: "Not", Class: OpLogical, Unary: true}
	OpNegate = &Operator{Symbol: "-", Class: OpArithmetic, Unary: true}
)
