package parser

import (
	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/lexer"
)

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curr.Kind {
	case lexer.LET, lexer.CONST:
		return p.parseVarDecl()
	case lexer.FUNC:
		return p.parseFuncDecl(false)
	case lexer.CLASS:
		return p.parseClassDecl()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.BREAK, lexer.CONTINUE:
		return p.parseJumpStmt()
	case lexer.TRY:
		return p.parseTryStmt()
	case lexer.IMPORT:
		return p.parseImportStmt()
	case lexer.FROM:
		return p.parseFromImportStmt()
	case lexer.LBRACE:
		return p.parseBlock()
	}

	return p.parseSimpleStmt()
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(lexer.LBRACE).Pos()

	stmts := make([]ast.Stmt, 0)
	for {
		p.skipTerminators()
		if p.curr.Kind == lexer.RBRACE {
			break
		}
		if p.curr.Kind == lexer.EOF {
			p.fail(p.curr, lexer.RBRACE.Symbol(), "unexpected %s", p.curr.Describe())
		}

		stmts = append(stmts, p.parseStmt())
		p.endStmt()
	}
	p.read()

	return ast.NewBlock(p.spanFrom(start), stmts)
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	kw := p.expectAny(lexer.LET, lexer.CONST)
	isConst := kw.Kind == lexer.CONST
	name := p.parseIdent()

	var value ast.Expr
	if p.curr.Kind == lexer.ASSIGN {
		p.read()
		p.skipNewlines()
		value = p.parseExpr()
	} else if isConst {
		p.fail(p.curr, lexer.ASSIGN.Symbol(), "const declaration of '%s' requires an initializer", name.Name)
	}

	return ast.NewVarDecl(p.spanFrom(kw.Pos()), isConst, name, value)
}

func (p *Parser) parseFuncDecl(method bool) *ast.FuncDecl {
	start := p.expect(lexer.FUNC).Pos()
	name := p.parseIdent()
	params := p.parseParams()

	loopDepth := p.loopDepth
	p.funcDepth++
	p.loopDepth = 0
	body := p.parseBlock()
	p.funcDepth--
	p.loopDepth = loopDepth

	return ast.NewFuncDecl(p.spanFrom(start), name, params, body, method)
}

func (p *Parser) parseParams() []*ast.Param {
	p.expect(lexer.LPAREN)

	params := make([]*ast.Param, 0)
	seenDefault := false
	for p.curr.Kind != lexer.RPAREN {
		nameTok := p.curr
		name := p.parseIdent()

		var def ast.Expr
		if p.curr.Kind == lexer.ASSIGN {
			p.read()
			def = p.parseExpr()
			seenDefault = true
		} else if seenDefault {
			p.fail(nameTok, "default value", "parameter '%s' without a default follows a parameter with a default", name.Name)
		}
		params = append(params, ast.NewParam(p.spanFrom(nameTok.Pos()), name, def))

		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}
	p.expect(lexer.RPAREN)

	return params
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	start := p.expect(lexer.CLASS).Pos()
	name := p.parseIdent()

	var super *ast.Ident
	if p.curr.Kind == lexer.EXTENDS {
		p.read()
		super = p.parseIdent()
	}

	p.expect(lexer.LBRACE)
	members := make([]ast.Stmt, 0)
	for {
		p.skipTerminators()

		switch p.curr.Kind {
		case lexer.FUNC:
			members = append(members, p.parseFuncDecl(true))
		case lexer.LET, lexer.CONST:
			members = append(members, p.parseVarDecl())
		case lexer.RBRACE:
			p.read()
			return ast.NewClassDecl(p.spanFrom(start), name, super, members)
		default:
			p.fail(p.curr, "method or field declaration", "unexpected %s in class body", p.curr.Describe())
		}
		p.endStmt()
	}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.expect(lexer.IF).Pos()
	cond := p.parseExpr()
	then := p.parseBlock()

	var els ast.Stmt
	if p.nextSignificant().Kind == lexer.ELSE {
		p.skipNewlines()
		p.read()
		if p.curr.Kind == lexer.IF {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlock()
		}
	}

	return ast.NewIfStmt(p.spanFrom(start), cond, then, els)
}

func (p *Parser) parseLoopBody() *ast.Block {
	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--

	return body
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.expect(lexer.WHILE).Pos()
	cond := p.parseExpr()
	body := p.parseLoopBody()

	return ast.NewWhileStmt(p.spanFrom(start), cond, body)
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.expect(lexer.FOR).Pos()
	v := p.parseIdent()
	p.expect(lexer.IN)
	iter := p.parseExpr()
	body := p.parseLoopBody()

	return ast.NewForStmt(p.spanFrom(start), v, iter, body)
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	kw := p.expect(lexer.RETURN)
	if p.funcDepth == 0 {
		p.fail(kw, "", "'return' outside function")
	}

	var value ast.Expr
	if !p.isCurrAny(lexer.NEWLINE, lexer.SEMICOLON, lexer.RBRACE, lexer.EOF) {
		value = p.parseExpr()
	}

	return ast.NewReturnStmt(p.spanFrom(kw.Pos()), value)
}

func (p *Parser) parseJumpStmt() ast.Stmt {
	kw := p.expectAny(lexer.BREAK, lexer.CONTINUE)
	if p.loopDepth == 0 {
		p.fail(kw, "", "'%s' outside loop", kw.Value)
	}

	if kw.Kind == lexer.BREAK {
		return ast.NewBreakStmt(kw.Span())
	}
	return ast.NewContinueStmt(kw.Span())
}

func (p *Parser) parseTryStmt() *ast.TryStmt {
	start := p.expect(lexer.TRY).Pos()
	body := p.parseBlock()

	var catch *ast.CatchClause
	if p.nextSignificant().Kind == lexer.CATCH {
		p.skipNewlines()
		catchStart := p.read().Pos()

		var v *ast.Ident
		switch p.curr.Kind {
		case lexer.LPAREN:
			p.read()
			v = p.parseIdent()
			p.expect(lexer.RPAREN)
		case lexer.IDENT:
			v = p.parseIdent()
		}

		catchBody := p.parseBlock()
		catch = ast.NewCatchClause(p.spanFrom(catchStart), v, catchBody)
	}

	var finally *ast.Block
	if p.nextSignificant().Kind == lexer.FINALLY {
		p.skipNewlines()
		p.read()
		finally = p.parseBlock()
	}

	if catch == nil && finally == nil {
		p.fail(p.nextSignificant(), "'catch' or 'finally'", "try statement without catch or finally")
	}

	return ast.NewTryStmt(p.spanFrom(start), body, catch, finally)
}

func (p *Parser) parseModulePath() []*ast.Ident {
	path := []*ast.Ident{p.parseIdent()}
	for p.curr.Kind == lexer.DOT {
		p.read()
		path = append(path, p.parseIdent())
	}

	return path
}

func (p *Parser) parseImportStmt() *ast.ImportStmt {
	start := p.expect(lexer.IMPORT).Pos()
	module := p.parseModulePath()

	var alias *ast.Ident
	if p.curr.Kind == lexer.AS {
		p.read()
		alias = p.parseIdent()
	}

	return ast.NewImportStmt(p.spanFrom(start), module, alias, nil)
}

func (p *Parser) parseFromImportStmt() *ast.ImportStmt {
	start := p.expect(lexer.FROM).Pos()
	module := p.parseModulePath()
	p.expect(lexer.IMPORT)

	names := make([]*ast.ImportName, 0)
	for {
		nameStart := p.curr.Pos()
		name := p.parseIdent()

		var alias *ast.Ident
		if p.curr.Kind == lexer.AS {
			p.read()
			alias = p.parseIdent()
		}
		names = append(names, ast.NewImportName(p.spanFrom(nameStart), name, alias))

		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}

	return ast.NewImportStmt(p.spanFrom(start), module, nil, names)
}

// parseSimpleStmt parses an expression statement or an assignment.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.curr.Pos()
	x := p.parseExpr()

	if !isAssignOp(p.curr.Kind) {
		return ast.NewExprStmt(p.spanFrom(start), x)
	}

	op := p.curr.Kind
	targets := []ast.Expr{p.checkTarget(x)}
	p.read()
	p.skipNewlines()
	value := p.parseExpr()

	for op == lexer.ASSIGN && p.curr.Kind == lexer.ASSIGN {
		targets = append(targets, p.checkTarget(value))
		p.read()
		p.skipNewlines()
		value = p.parseExpr()
	}

	if isAssignOp(p.curr.Kind) {
		p.fail(p.curr, "end of statement", "compound assignment cannot be chained")
	}

	return ast.NewAssignStmt(p.spanFrom(start), targets, op, value)
}

func (p *Parser) checkTarget(x ast.Expr) ast.Expr {
	switch x.(type) {
	case *ast.Ident, *ast.MemberExpr, *ast.IndexExpr:
		return x
	}

	p.failAt(x, "identifier, member or index expression", "invalid assignment target")
	panic("unreachable")
}

func isAssignOp(kind lexer.TokenKind) bool {
	switch kind {
	case lexer.ASSIGN, lexer.ADD_ASSIGN, lexer.SUB_ASSIGN, lexer.MUL_ASSIGN, lexer.DIV_ASSIGN, lexer.MOD_ASSIGN:
		return true
	}
	return false
}
