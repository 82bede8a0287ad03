package ast

// Walk traverses the tree starting from node in source order, calling fn
// for each node. If fn returns false, Walk skips that node's children.
func Walk(node Node, fn func(Node) bool) {
	if !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		walkStmts(n.Body, fn)

	case *Block:
		walkStmts(n.Stmts, fn)

	case *VarDecl:
		Walk(n.Name, fn)
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *AssignStmt:
		for _, target := range n.Targets {
			Walk(target, fn)
		}
		Walk(n.Value, fn)

	case *FuncDecl:
		Walk(n.Name, fn)
		for _, param := range n.Params {
			Walk(param, fn)
		}
		Walk(n.Body, fn)

	case *Param:
		Walk(n.Name, fn)
		if n.Default != nil {
			Walk(n.Default, fn)
		}

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *IfStmt:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}

	case *WhileStmt:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)

	case *ForStmt:
		Walk(n.Var, fn)
		Walk(n.Iter, fn)
		Walk(n.Body, fn)

	case *ClassDecl:
		Walk(n.Name, fn)
		if n.Super != nil {
			Walk(n.Super, fn)
		}
		walkStmts(n.Members, fn)

	case *ImportStmt:
		for _, part := range n.Module {
			Walk(part, fn)
		}
		if n.Alias != nil {
			Walk(n.Alias, fn)
		}
		for _, name := range n.Names {
			Walk(name, fn)
		}

	case *ImportName:
		Walk(n.Name, fn)
		if n.Alias != nil {
			Walk(n.Alias, fn)
		}

	case *TryStmt:
		Walk(n.Body, fn)
		if n.Catch != nil {
			Walk(n.Catch, fn)
		}
		if n.Finally != nil {
			Walk(n.Finally, fn)
		}

	case *CatchClause:
		if n.Var != nil {
			Walk(n.Var, fn)
		}
		Walk(n.Body, fn)

	case *ExprStmt:
		Walk(n.X, fn)

	case *InterpString:
		for _, part := range n.Parts {
			if part.X != nil {
				Walk(part.X, fn)
			}
		}

	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *UnaryExpr:
		Walk(n.X, fn)

	case *ConditionalExpr:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)

	case *CallExpr:
		Walk(n.Callee, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}

	case *MemberExpr:
		Walk(n.X, fn)

	case *IndexExpr:
		Walk(n.X, fn)
		Walk(n.Index, fn)

	case *ArrayLit:
		for _, elem := range n.Elems {
			Walk(elem, fn)
		}

	case *DictLit:
		for _, entry := range n.Entries {
			Walk(entry, fn)
		}

	case *DictEntry:
		Walk(n.Key, fn)
		Walk(n.Value, fn)

	case *NumberLit, *StringLit, *BoolLit, *NullLit, *Ident, *SuperExpr,
		*BreakStmt, *ContinueStmt:
		// leaves
	}
}

func walkStmts(stmts []Stmt, fn func(Node) bool) {
	for _, s := range stmts {
		Walk(s, fn)
	}
}

// Inspect calls fn for every node in the tree.
func Inspect(node Node, fn func(Node)) {
	Walk(node, func(n Node) bool {
		fn(n)
		return true
	})
}
