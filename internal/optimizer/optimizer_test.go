package optimizer

import (
	"reflect"
	"testing"

	"github.com/nanoc-lang/nanoc/internal/ast"
	"github.com/nanoc-lang/nanoc/internal/parser"
)

func mustParse(t *testing.T, src string) ast.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func TestFoldArithmetic(t *testing.T) {
	prog := mustParse(t, "int main () { return 2 + 3 * 4; }")
	prog = Optimize(prog)
	ret := prog.Functions[0].Body.Statements[0].(ast.ReturnStmt)
	lit, ok := ret.Value.(ast.IntLiteral)
	if !ok || lit.Value != 14 {
		t.Fatalf("expected folded literal 14, got %#v", ret.Value)
	}
}

func TestFoldComparisonAndLogic(t *testing.T) {
	prog := mustParse(t, "int main () { return 1 < 2 && 3 == 3; }")
	prog = Optimize(prog)
	ret := prog.Functions[0].Body.Statements[0].(ast.ReturnStmt)
	lit, ok := ret.Value.(ast.IntLiteral)
	if !ok || lit.Value != 1 {
		t.Fatalf("expected folded literal 1, got %#v", ret.Value)
	}
}

func TestFoldUnary(t *testing.T) {
	prog := mustParse(t, "int main () { return !0; }")
	prog = Optimize(prog)
	ret := prog.Functions[0].Body.Statements[0].(ast.ReturnStmt)
	lit, ok := ret.Value.(ast.IntLiteral)
	if !ok || lit.Value != 1 {
		t.Fatalf("expected folded literal 1, got %#v", ret.Value)
	}
}

func TestDivisionByLiteralZeroNotFolded(t *testing.T) {
	prog := mustParse(t, "int main () { return 5 / 0; }")
	prog = Optimize(prog)
	ret := prog.Functions[0].Body.Statements[0].(ast.ReturnStmt)
	bin, ok := ret.Value.(ast.BinaryOp)
	if !ok || bin.Op != ast.Div {
		t.Fatalf("expected the 5/0 subtree preserved verbatim, got %#v", ret.Value)
	}
}

func TestIdentifierSubtreeNotFolded(t *testing.T) {
	prog := mustParse(t, "int main () { int x = 0; return x + (1 + 2); }")
	prog = Optimize(prog)
	ret := prog.Functions[0].Body.Statements[1].(ast.ReturnStmt)
	bin, ok := ret.Value.(ast.BinaryOp)
	if !ok || bin.Op != ast.Add {
		t.Fatalf("expected top Add preserved (has an Identifier operand), got %#v", ret.Value)
	}
	if _, ok := bin.Left.(ast.Identifier); !ok {
		t.Fatalf("expected left operand still an Identifier, got %#v", bin.Left)
	}
	lit, ok := bin.Right.(ast.IntLiteral)
	if !ok || lit.Value != 3 {
		t.Fatalf("expected right constant subtree folded to 3, got %#v", bin.Right)
	}
}

func TestDeadBranchEliminationNonzeroInlinesThen(t *testing.T) {
	prog := mustParse(t, "int main () { if (1) { return 7; } return 9; }")
	prog = Optimize(prog)
	stmts := prog.Functions[0].Body.Statements
	for _, s := range stmts {
		if _, ok := s.(ast.IfStmt); ok {
			t.Fatalf("expected no IfStmt to survive, got %#v", stmts)
		}
	}
	ret, ok := stmts[0].(ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected the inlined then-block's return first, got %#v", stmts[0])
	}
	lit := ret.Value.(ast.IntLiteral)
	if lit.Value != 7 {
		t.Fatalf("expected inlined return 7, got %d", lit.Value)
	}
}

func TestDeadBranchEliminationZeroRemovesIf(t *testing.T) {
	prog := mustParse(t, "int main () { if (0) { return 7; } return 9; }")
	prog = Optimize(prog)
	stmts := prog.Functions[0].Body.Statements
	if len(stmts) != 1 {
		t.Fatalf("expected the if to be entirely removed, got %#v", stmts)
	}
	ret := stmts[0].(ast.ReturnStmt)
	if ret.Value.(ast.IntLiteral).Value != 9 {
		t.Fatalf("expected surviving return 9, got %#v", ret.Value)
	}
}

func TestWhileNeverEliminated(t *testing.T) {
	prog := mustParse(t, "int main () { while (0) { return 1; } return 0; }")
	prog = Optimize(prog)
	stmts := prog.Functions[0].Body.Statements
	if _, ok := stmts[0].(ast.WhileStmt); !ok {
		t.Fatalf("expected while(0) to survive folding untouched, got %#v", stmts[0])
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	prog := mustParse(t, "int main () { if (1 < 2) { return 2 * 3; } return 0; }")
	once := Optimize(prog)

	// Re-parse and optimize twice to compare against a single pass
	// without mutating the same tree through both calls.
	progA := mustParse(t, "int main () { if (1 < 2) { return 2 * 3; } return 0; }")
	onceMore := Optimize(progA)
	twice := Optimize(onceMore)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("optimize is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}
