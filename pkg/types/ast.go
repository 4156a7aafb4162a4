package types

// NodeType identifies the variant of an AST node.
type NodeType string

// AST node variants.
const (
	// Literals and constructors
	NodeLiteral NodeType = "literal"
	NodeArray   NodeType = "array"
	NodeObject  NodeType = "object"

	// Operators
	NodeUnary  NodeType = "unary"
	NodeBinary NodeType = "binary"
	NodeMulti  NodeType = "multi"
	NodeRange  NodeType = "range"
	NodeAssign NodeType = "assign"

	// References and navigation
	NodeCurrent          NodeType = "current"  // @
	NodeValueRef         NodeType = "valueref" // $x, ns:$x, $(expr)
	NodeObjAccess        NodeType = "access"   // .key
	NodeObjDynamicAccess NodeType = "dynaccess"
	NodeObjDeepScan      NodeType = "deepscan" // ..key

	// Functions
	NodeFunctionCall      NodeType = "call"
	NodeFunctionRef       NodeType = "funcref"
	NodeFunctionRefInvoke NodeType = "invoke"
	NodeLambdaRef         NodeType = "lambda"
	NodeLambdaCall        NodeType = "lambdacall"

	// Structural sub-languages
	NodePathValue   NodeType = "path"
	NodePathMatches NodeType = "matches"
	NodeFilter      NodeType = "filter"
	NodeFilterList  NodeType = "filterlist"
	NodeUpdate      NodeType = "update"
	NodeUpdateArray NodeType = "updatearray"
	NodeBuild       NodeType = "build"
	NodeAggregate   NodeType = "aggregate"

	// Control flow
	NodeChoice   NodeType = "choice"
	NodeLoop     NodeType = "loop"
	NodeWhile    NodeType = "while"
	NodeDoWhile  NodeType = "dowhile"
	NodeMap      NodeType = "map"
	NodeWhere    NodeType = "where"
	NodeTryCatch NodeType = "try"
	NodeThrow    NodeType = "throw"

	// External components
	NodeIOCall NodeType = "iocall"
)

// Node is implemented by every AST variant.
//
// Nodes form a tree: a node is owned by exactly one parent and is never
// shared. Consumers dispatch with a type switch over the concrete variants.
type Node interface {
	Type() NodeType
	Line() int
}

// Pos is the 1-based source line a node originates from.
type Pos int

// Line returns the source line.
func (p Pos) Line() int { return int(p) }

// LiteralKind distinguishes literal values.
type LiteralKind uint8

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitNull
	LitBytes
	LitEmpty
	LitEnd
)

func (k LiteralKind) String() string {
	switch k {
	case LitString:
		return "string"
	case LitNumber:
		return "number"
	case LitBoolean:
		return "boolean"
	case LitNull:
		return "null"
	case LitBytes:
		return "bytes"
	case LitEmpty:
		return "empty"
	case LitEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Literal is a constant value.
type Literal struct {
	Pos
	Kind  LiteralKind
	Str   string
	Num   float64
	Bool  bool
	Bytes []byte
}

// Value returns the literal as a plain Go value (nil for null, empty and end).
func (n *Literal) Value() any {
	switch n.Kind {
	case LitString:
		return n.Str
	case LitNumber:
		return n.Num
	case LitBoolean:
		return n.Bool
	case LitBytes:
		return n.Bytes
	default:
		return nil
	}
}

// StringLiteral builds a string literal.
func StringLiteral(line int, s string) *Literal {
	return &Literal{Pos: Pos(line), Kind: LitString, Str: s}
}

// NumberLiteral builds a number literal.
func NumberLiteral(line int, f float64) *Literal {
	return &Literal{Pos: Pos(line), Kind: LitNumber, Num: f}
}

// Array constructs a JSON array.
type Array struct {
	Pos
	Elements []Node
}

// ObjectPair is one key/value entry of an Object.
type ObjectPair struct {
	Key   string
	Value Node
}

// Object constructs a JSON object. It doubles as the configuration object
// attached to constructs that accept one.
type Object struct {
	Pos
	Pairs []ObjectPair
}

// Get returns the value stored under key.
func (n *Object) Get(key string) (Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Unary wraps a single operand. A nil Op means a plain wrapper (a one-child
// expression or a parenthesised group) that only carries source text.
type Unary struct {
	Pos
	Op      *Operator
	Operand Node
	Text    string
}

// Binary applies an infix operator.
type Binary struct {
	Pos
	Op  *Operator
	LHS Node
	RHS Node
}

// Multi is an ordered sequence of nodes, in source order.
type Multi struct {
	Pos
	Nodes []Node
}

// Range produces the numbers from From to To.
type Range struct {
	Pos
	From Node
	To   Node
}

// Assign stores Value into an existing binding.
type Assign struct {
	Pos
	Name    string
	Binding *Binding
	Value   Node
}

// Current is the current input value (@).
type Current struct {
	Pos
}

// ValueRef references a binding by name, or computes the name when Computed
// is set.
type ValueRef struct {
	Pos
	Namespace string
	Name      string
	Computed  Node
	Binding   *Binding // statically resolved target, nil for computed refs
}

// ObjAccess reads a fixed key.
type ObjAccess struct {
	Pos
	Key string
}

// ObjDynamicAccess reads the key computed by Key.
type ObjDynamicAccess struct {
	Pos
	Key Node
}

// ObjDeepScan collects every value stored under Key at any depth.
type ObjDeepScan struct {
	Pos
	Key    string
	Config *Object
}

// Resolution records which source a function name resolved to.
type Resolution uint8

const (
	ResolvedBuiltin Resolution = iota
	ResolvedUser
	ResolvedModule
)

func (r Resolution) String() string {
	switch r {
	case ResolvedBuiltin:
		return "builtin"
	case ResolvedUser:
		return "user"
	case ResolvedModule:
		return "module"
	default:
		return "unknown"
	}
}

// FunctionCall invokes a named function.
type FunctionCall struct {
	Pos
	Namespace  string
	Name       string
	Args       []Node
	Key        string // resolved qualified key
	Resolution Resolution
	Def        *FunctionDef // nil for built-ins
	Module     string       // namespace of the defining module for ResolvedModule
}

// FunctionRef is a reference to a named function with optional curried
// arguments. A nil entry in Args is a placeholder.
type FunctionRef struct {
	Pos
	Namespace  string
	Name       string
	Args       []Node
	Key        string
	Resolution Resolution
	Def        *FunctionDef
	Module     string
}

// Placeholders returns the number of placeholder arguments.
func (n *FunctionRef) Placeholders() int {
	var c int
	for _, a := range n.Args {
		if a == nil {
			c++
		}
	}
	return c
}

// FunctionRefInvoke calls the function value held by a variable.
type FunctionRefInvoke struct {
	Pos
	Ref    *ValueRef
	Args   []Node
	Config *Object
}

// LambdaRef is an anonymous function value.
type LambdaRef struct {
	Pos
	Params     []*Binding
	Constraint *Constraint
	Body       Node
	Bindings   []*Binding
}

// LambdaCall is an anonymous function invoked immediately with Args.
type LambdaCall struct {
	Pos
	Params     []*Binding
	Args       []Node
	Constraint *Constraint
	Body       Node
	Bindings   []*Binding
}

// PathValue reads the value addressed by Path.
type PathValue struct {
	Pos
	Path Path
}

// PathMatches tests whether Path addresses at least one value.
type PathMatches struct {
	Pos
	Path Path
}

// FilterItem is one entry of a FilterList. To is set for slices (a:b).
type FilterItem struct {
	Expr Node
	To   Node
}

// FilterList is the bracketed selector list used by filters and paths.
type FilterList struct {
	Pos
	Items []FilterItem
}

// Filter applies a FilterList to the current value.
type Filter struct {
	Pos
	List   *FilterList
	Config *Object
}

// UpdatePair replaces the values addressed by Path with Value.
type UpdatePair struct {
	Path  Path
	Value Node
}

// Update modifies the current value, either pair by pair or as a whole.
type Update struct {
	Pos
	Pairs  []UpdatePair
	Whole  Node
	Config *Object
}

// Build constructs a new value from pairs or a whole-object template.
type Build struct {
	Pos
	Pairs  []UpdatePair
	Whole  Node
	Config *Object
}

// UpdateMode tells the evaluator how to apply an UpdateArray replacement.
type UpdateMode uint8

const (
	// UpdateSingle replaces every element with one value.
	UpdateSingle UpdateMode = iota
	// UpdateElements replaces elements pairwise from an array literal.
	UpdateElements
	// UpdateDynamic decides from the shape of the single evaluated result.
	UpdateDynamic
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateSingle:
		return "single"
	case UpdateElements:
		return "array"
	case UpdateDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// UpdateArray replaces the elements of the current array.
type UpdateArray struct {
	Pos
	Value  Node
	Mode   UpdateMode
	Config *Object
}

// ChoiceBranch is one When arm.
type ChoiceBranch struct {
	When Node
	Then Node
}

// Choice selects the first branch whose condition holds.
type Choice struct {
	Pos
	Branches  []ChoiceBranch
	Otherwise Node
}

// Loop iterates Over, binding each element to Var.
type Loop struct {
	Pos
	Var      *Binding
	Over     Node
	Body     Node
	Bindings []*Binding
	Config   *Object
}

// While repeats Body while Cond holds.
type While struct {
	Pos
	Cond     Node
	Body     Node
	Bindings []*Binding
	Config   *Object
}

// DoWhile runs Body once, then repeats it while Cond holds.
type DoWhile struct {
	Pos
	Cond     Node
	Body     Node
	Bindings []*Binding
	Config   *Object
}

// Map applies Body to every element of the current value.
type Map struct {
	Pos
	Body     Node
	Bindings []*Binding
	Config   *Object
}

// Where applies Body to every value matched by Pattern.
type Where struct {
	Pos
	Pattern  Path
	Body     Node
	Bindings []*Binding
	Config   *Object
}

// TryCatch runs Body and falls back to Handler on failure.
type TryCatch struct {
	Pos
	Body            Node
	Bindings        []*Binding
	ErrVar          *Binding
	Handler         Node
	HandlerBindings []*Binding
	Config          *Object
}

// Throw raises Value as an exception.
type Throw struct {
	Pos
	Value Node
}

// Aggregate is a stateful correlation/windowing operator.
type Aggregate struct {
	Pos
	Descriptor *AggregateDescriptor
}

// IOCall is a call site of an external component.
type IOCall struct {
	Pos
	Namespace  string
	Name       string
	Identifier string
	Config     *Object
}

// Key returns ns:name:identifier, or name:identifier without a namespace.
func (n *IOCall) Key() string {
	if n.Namespace == "" {
		return n.Name + ":" + n.Identifier
	}
	return n.Namespace + ":" + n.Name + ":" + n.Identifier
}

func (*Literal) Type() NodeType           { return NodeLiteral }
func (*Array) Type() NodeType             { return NodeArray }
func (*Object) Type() NodeType            { return NodeObject }
func (*Unary) Type() NodeType             { return NodeUnary }
func (*Binary) Type() NodeType            { return NodeBinary }
func (*Multi) Type() NodeType             { return NodeMulti }
func (*Range) Type() NodeType             { return NodeRange }
func (*Assign) Type() NodeType            { return NodeAssign }
func (*Current) Type() NodeType           { return NodeCurrent }
func (*ValueRef) Type() NodeType          { return NodeValueRef }
func (*ObjAccess) Type() NodeType         { return NodeObjAccess }
func (*ObjDynamicAccess) Type() NodeType  { return NodeObjDynamicAccess }
func (*ObjDeepScan) Type() NodeType       { return NodeObjDeepScan }
func (*FunctionCall) Type() NodeType      { return NodeFunctionCall }
func (*FunctionRef) Type() NodeType       { return NodeFunctionRef }
func (*FunctionRefInvoke) Type() NodeType { return NodeFunctionRefInvoke }
func (*LambdaRef) Type() NodeType         { return NodeLambdaRef }
func (*LambdaCall) Type() NodeType        { return NodeLambdaCall }
func (*PathValue) Type() NodeType         { return NodePathValue }
func (*PathMatches) Type() NodeType       { return NodePathMatches }
func (*Filter) Type() NodeType            { return NodeFilter }
func (*FilterList) Type() NodeType        { return NodeFilterList }
func (*Update) Type() NodeType            { return NodeUpdate }
func (*UpdateArray) Type() NodeType       { return NodeUpdateArray }
func (*Build) Type() NodeType             { return NodeBuild }
func (*Choice) Type() NodeType            { return NodeChoice }
func (*Loop) Type() NodeType              { return NodeLoop }
func (*While) Type() NodeType             { return NodeWhile }
func (*DoWhile) Type() NodeType           { return NodeDoWhile }
func (*Map) Type() NodeType               { return NodeMap }
func (*Where) Type() NodeType             { return NodeWhere }
func (*TryCatch) Type() NodeType          { return NodeTryCatch }
func (*Throw) Type() NodeType             { return NodeThrow }
func (*Aggregate) Type() NodeType         { return NodeAggregate }
func (*IOCall) Type() NodeType            { return NodeIOCall }

// Unwrap strips plain Unary wrappers and returns the innermost node.
func Unwrap(n Node) Node {
	for {
		u, ok := n.(*Unary)
		if !ok || u.Op != nil {
			return n
		}
		n = u.Operand
	}
}
