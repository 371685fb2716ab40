// Package optimizer implements the optional AST-to-AST pass described
// in spec §4.3: bottom-up constant folding plus dead-branch
// elimination for `if`. Grounded on the fold/prune split tawago's
// sibling pack repo malphas-lang uses between constant_prop.go and
// dce.go, adapted to a single pass in which `if` is the only statement
// kind that can disappear (the teacher, tawago, has no optimizer at
// all — LLVM's own passes did that job downstream of its codegen).
package optimizer

import "github.com/nanoc-lang/nanoc/internal/ast"

// Optimize mutates prog in place, folding constant expressions and
// eliminating dead `if` branches, and also returns it for convenience.
func Optimize(prog ast.Program) ast.Program {
	for i := range prog.Functions {
		prog.Functions[i].Body = optimizeBlock(prog.Functions[i].Body)
	}
	return prog
}

func optimizeBlock(b ast.Block) ast.Block {
	var out []ast.Stmt
	for _, stmt := range b.Statements {
		out = append(out, optimizeStmtList(stmt)...)
	}
	return ast.Block{Statements: out}
}

// optimizeStmtList optimizes one statement and returns the statements
// that should replace it: normally a single-element slice, but an
// eliminated `if` contributes zero statements and a taken `if`
// contributes its inlined then-block's statements.
func optimizeStmtList(stmt ast.Stmt) []ast.Stmt {
	switch s := stmt.(type) {
	case ast.VarDecl:
		if s.Init != nil {
			s.Init = foldExpr(s.Init)
		}
		return []ast.Stmt{s}

	case ast.Assignment:
		s.Value = foldExpr(s.Value)
		return []ast.Stmt{s}

	case ast.ReturnStmt:
		s.Value = foldExpr(s.Value)
		return []ast.Stmt{s}

	case ast.ExprStmt:
		s.Expression = foldExpr(s.Expression)
		return []ast.Stmt{s}

	case ast.Block:
		return []ast.Stmt{optimizeBlock(s)}

	case ast.WhileStmt:
		s.Condition = foldExpr(s.Condition)
		s.Body = optimizeBlock(s.Body)
		return []ast.Stmt{s}

	case ast.IfStmt:
		cond := foldExpr(s.Condition)
		then := optimizeBlock(s.Then)

		lit, isConst := cond.(ast.IntLiteral)
		if !isConst {
			return []ast.Stmt{ast.IfStmt{Condition: cond, Then: then}}
		}
		if lit.Value == 0 {
			return nil
		}
		return then.Statements

	default:
		return []ast.Stmt{stmt}
	}
}

// foldExpr folds children first, then the node itself (bottom-up),
// per spec §4.3's ordering requirement.
func foldExpr(e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case ast.IntLiteral:
		return v

	case ast.Identifier:
		return v

	case ast.UnaryOp:
		v.Operand = foldExpr(v.Operand)
		if lit, ok := v.Operand.(ast.IntLiteral); ok {
			return ast.IntLiteral{Value: foldUnary(v.Op, lit.Value)}
		}
		return v

	case ast.BinaryOp:
		v.Left = foldExpr(v.Left)
		v.Right = foldExpr(v.Right)
		left, lok := v.Left.(ast.IntLiteral)
		right, rok := v.Right.(ast.IntLiteral)
		if !lok || !rok {
			return v
		}
		if v.Op == ast.Div && right.Value == 0 {
			// Division by a literal zero is preserved verbatim; it
			// traps at runtime instead of folding.
			return v
		}
		return ast.IntLiteral{Value: foldBinary(v.Op, left.Value, right.Value)}

	case ast.FuncCall:
		for i, arg := range v.Args {
			v.Args[i] = foldExpr(arg)
		}
		return v

	default:
		return e
	}
}

func foldUnary(op ast.UnOp, v int32) int32 {
	switch op {
	case ast.Negate:
		return -v
	case ast.Not:
		if v == 0 {
			return 1
		}
		return 0
	default:
		panic("unhandled unary operator")
	}
}

func foldBinary(op ast.BinOp, l, r int32) int32 {
	switch op {
	case ast.Add:
		return int32(int64(l) + int64(r))
	case ast.Sub:
		return int32(int64(l) - int64(r))
	case ast.Mul:
		return int32(int64(l) * int64(r))
	case ast.Div:
		return l / r
	case ast.Eq:
		return boolInt(l == r)
	case ast.Ne:
		return boolInt(l != r)
	case ast.Lt:
		return boolInt(l < r)
	case ast.Gt:
		return boolInt(l > r)
	case ast.And:
		return boolInt(l != 0 && r != 0)
	case ast.Or:
		return boolInt(l != 0 || r != 0)
	default:
		panic("unhandled binary operator")
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
