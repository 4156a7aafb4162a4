package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders a node as an s-expression. The format is meant for
// diagnostics and tests; it is not parseable source.
func Sprint(n Node) string {
	var sb strings.Builder
	printNode(&sb, n)
	return sb.String()
}

func printNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("_")
	case *Literal:
		printLiteral(sb, n)
	case *Array:
		list(sb, "array", n.Elements...)
	case *Object:
		sb.WriteString("(object")
		for _, p := range n.Pairs {
			sb.WriteString(" (")
			sb.WriteString(strconv.Quote(p.Key))
			sb.WriteByte(' ')
			printNode(sb, p.Value)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case *Unary:
		if n.Op == nil {
			list(sb, "unary", n.Operand)
		} else {
			list(sb, n.Op.Symbol, n.Operand)
		}
	case *Binary:
		list(sb, n.Op.Symbol, n.LHS, n.RHS)
	case *Multi:
		list(sb, "multi", n.Nodes...)
	case *Range:
		list(sb, "range", n.From, n.To)
	case *Assign:
		list(sb, "assign $"+n.Name, n.Value)
	case *Current:
		sb.WriteByte('@')
	case *ValueRef:
		switch {
		case n.Computed != nil:
			list(sb, "$", n.Computed)
		case n.Namespace != "":
			fmt.Fprintf(sb, "%s:$%s", n.Namespace, n.Name)
		default:
			sb.WriteString("$" + n.Name)
		}
	case *ObjAccess:
		sb.WriteString("." + n.Key)
	case *ObjDynamicAccess:
		list(sb, ".", n.Key)
	case *ObjDeepScan:
		sb.WriteString(".." + n.Key)
	case *FunctionCall:
		list(sb, "call "+callName(n.Key, n.Namespace, n.Name, len(n.Args), n.Resolution), n.Args...)
	case *FunctionRef:
		list(sb, "ref "+callName(n.Key, n.Namespace, n.Name, len(n.Args), n.Resolution), n.Args...)
	case *FunctionRefInvoke:
		list(sb, "invoke $"+n.Ref.Name, n.Args...)
	case *LambdaRef:
		sb.WriteString("(lambda " + params(n.Params) + " ")
		printNode(sb, n.Body)
		sb.WriteByte(')')
	case *LambdaCall:
		sb.WriteString("(lambdacall " + params(n.Params) + " ")
		list(sb, "args", n.Args...)
		sb.WriteByte(' ')
		printNode(sb, n.Body)
		sb.WriteByte(')')
	case *PathValue:
		printPath(sb, "path", n.Path)
	case *PathMatches:
		printPath(sb, "matches", n.Path)
	case *FilterList:
		printFilterList(sb, n)
	case *Filter:
		sb.WriteString("(filter ")
		printFilterList(sb, n.List)
		sb.WriteByte(')')
	case *Update:
		printPairs(sb, "update", n.Pairs, n.Whole)
	case *Build:
		printPairs(sb, "build", n.Pairs, n.Whole)
	case *UpdateArray:
		list(sb, "updatearray "+n.Mode.String(), n.Value)
	case *Choice:
		sb.WriteString("(choice")
		for _, b := range n.Branches {
			sb.WriteByte(' ')
			list(sb, "when", b.When, b.Then)
		}
		if n.Otherwise != nil {
			sb.WriteByte(' ')
			list(sb, "otherwise", n.Otherwise)
		}
		sb.WriteByte(')')
	case *Loop:
		list(sb, "loop $"+n.Var.Name, n.Over, n.Body)
	case *While:
		list(sb, "while", n.Cond, n.Body)
	case *DoWhile:
		list(sb, "do", n.Body, n.Cond)
	case *Map:
		list(sb, "map", n.Body)
	case *Where:
		sb.WriteString("(where ")
		printPath(sb, "path", n.Pattern)
		sb.WriteByte(' ')
		printNode(sb, n.Body)
		sb.WriteByte(')')
	case *TryCatch:
		name := "_"
		if n.ErrVar != nil {
			name = "$" + n.ErrVar.Name
		}
		sb.WriteString("(try ")
		printNode(sb, n.Body)
		sb.WriteString(" " + name + " ")
		printNode(sb, n.Handler)
		sb.WriteByte(')')
	case *Throw:
		list(sb, "throw", n.Value)
	case *Aggregate:
		sb.WriteString("(aggregate)")
	case *IOCall:
		sb.WriteString("(io " + n.Key() + ")")
	default:
		fmt.Fprintf(sb, "(%s)", n.Type())
	}
}

func list(sb *strings.Builder, head string, nodes ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, n := range nodes {
		sb.WriteByte(' ')
		printNode(sb, n)
	}
	sb.WriteByte(')')
}

func printLiteral(sb *strings.Builder, n *Literal) {
	switch n.Kind {
	case LitString:
		sb.WriteString(strconv.Quote(n.Str))
	case LitNumber:
		sb.WriteString(strconv.FormatFloat(n.Num, 'g', -1, 64))
	case LitBoolean:
		sb.WriteString(strconv.FormatBool(n.Bool))
	case LitBytes:
		fmt.Fprintf(sb, "b%q", n.Bytes)
	default:
		sb.WriteString(n.Kind.String())
	}
}

func callName(key, ns, name string, arity int, res Resolution) string {
	if key == "" {
		key = FunctionKey(ns, name, arity)
	}
	return key + "/" + res.String()
}

func params(ps []*Binding) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = "$" + p.Name
	}
	return "(" + strings.Join(names, " ") + ")"
}

func printPath(sb *strings.Builder, head string, p Path) {
	sb.WriteString("(" + head)
	for _, part := range p {
		sb.WriteByte(' ')
		switch part.Kind {
		case PartKey:
			sb.WriteString("." + part.Key)
		case PartDynamicKey:
			list(sb, ".", part.Expr)
		case PartFilter:
			printFilterList(sb, part.Filter)
		default:
			sb.WriteString(part.Kind.String())
		}
	}
	sb.WriteByte(')')
}

func printFilterList(sb *strings.Builder, fl *FilterList) {
	sb.WriteByte('[')
	for i, it := range fl.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printNode(sb, it.Expr)
		if it.To != nil {
			sb.WriteByte(':')
			printNode(sb, it.To)
		}
	}
	sb.WriteByte(']')
}

func printPairs(sb *strings.Builder, head string, pairs []UpdatePair, whole Node) {
	if whole != nil {
		list(sb, head, whole)
		return
	}
	sb.WriteString("(" + head)
	for _, p := range pairs {
		sb.WriteString(" (")
		printPath(sb, "path", p.Path)
		sb.WriteByte(' ')
		printNode(sb, p.Value)
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
}
