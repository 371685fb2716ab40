// Package codegen implements the single-pass, syntax-directed
// translation from AST to x86-64 GAS Intel-syntax text described in
// spec §4.4. Grounded on tawago's codegen.go: a per-compilation ctx
// carrying scoped lookup state, panics for "could not find" failures
// recovered at a single package boundary (tawago's ctx.lookup panics
// "could not lookup "+id.Name; Codegen.lookupVar does the same for
// an unknown local). The emission target itself — a plain []string of
// assembly lines joined at the end — follows the direct-print style of
// benhoyt-mugo's single-pass text emitter, adapted from print() calls
// into an accumulating buffer since this package is a library, not a
// standalone filter program.
package codegen

import (
	"fmt"
	"strings"

	"github.com/nanoc-lang/nanoc/internal/ast"
)

const scratchSlotBytes = 8

// paramRegs32 are the System V AMD64 argument registers' 32-bit names,
// in order, for the first six integer parameters.
var paramRegs32 = [6]string{"edi", "esi", "edx", "ecx", "r8d", "r9d"}

// argRegs64 are the same registers' 64-bit names, used when popping
// call arguments off the stack in reverse order.
var argRegs64 = [6]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// Codegen translates one Program into assembly text. One instance is
// used for exactly one compilation; its internal state (label
// counter, per-function variable offsets, register pool, emitted
// lines) is not meant to be reused across programs.
type Codegen struct {
	lines        []string
	labelCounter int

	vars        map[string]int
	nextOffset  int
	pool        pool
	curEpilogue string
}

// Generate runs the full translation synchronously and returns the
// assembly text, or a GenError if main is absent or some function or
// call exceeds 6 parameters/arguments or references an unknown name.
func Generate(prog ast.Program) (asm string, err error) {
	if !hasMain(prog) {
		return "", errNoMain()
	}

	cg := &Codegen{labelCounter: 2}
	defer func() {
		if r := recover(); r != nil {
			if ge, ok := r.(GenError); ok {
				asm, err = "", ge
				return
			}
			panic(r)
		}
	}()

	cg.lines = []string{".intel_syntax noprefix", ".global main", ""}
	for i, fn := range prog.Functions {
		if i > 0 {
			cg.lines = append(cg.lines, "")
		}
		cg.genFunction(fn)
	}

	return strings.Join(cg.lines, "\n"), nil
}

func hasMain(prog ast.Program) bool {
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			return true
		}
	}
	return false
}

func (cg *Codegen) emit(format string, args ...interface{}) {
	cg.lines = append(cg.lines, "    "+fmt.Sprintf(format, args...))
}

func (cg *Codegen) emitRaw(s string) {
	cg.lines = append(cg.lines, s)
}

func (cg *Codegen) newLabel() string {
	n := cg.labelCounter
	cg.labelCounter++
	return fmt.Sprintf(".L%d", n)
}

func (cg *Codegen) newFuncLabel() string {
	n := cg.labelCounter
	cg.labelCounter++
	return fmt.Sprintf(".Lfunc_%d", n)
}

// allocVar homes a new parameter or local at the next stack slot and
// records its offset; next_var_offset starts at -24 (the three saved
// scratch registers occupy [-8, -24]) and is pre-decremented by 8
// before each allocation, per spec §4.4.1, so the first parameter or
// local lands at -32, never at the saved-r13 slot.
func (cg *Codegen) allocVar(name string) int {
	cg.nextOffset -= scratchSlotBytes
	off := cg.nextOffset
	cg.vars[name] = off
	return off
}

func (cg *Codegen) lookupVar(name string) int {
	off, ok := cg.vars[name]
	if !ok {
		panic(errUndefinedName(name))
	}
	return off
}

func (cg *Codegen) genFunction(fn ast.Function) {
	if len(fn.Params) > 6 {
		panic(errTooManyParams(fn.Name, len(fn.Params)))
	}

	cg.vars = make(map[string]int)
	cg.nextOffset = -24
	cg.pool = pool{}
	cg.curEpilogue = cg.newFuncLabel()

	cg.emitRaw(fn.Name + ":")
	cg.emit("push rbp")
	cg.emit("mov rbp, rsp")
	cg.emit("push rbx")
	cg.emit("push r12")
	cg.emit("push r13")

	for i, p := range fn.Params {
		off := cg.allocVar(p)
		cg.emit("sub rsp, 8")
		cg.emit("mov DWORD PTR [rbp + %d], %s", off, paramRegs32[i])
	}

	for _, stmt := range fn.Body.Statements {
		cg.genStmt(stmt)
	}

	cg.emitRaw(cg.curEpilogue + ":")
	cg.emit("lea rsp, [rbp - 24]")
	cg.emit("pop r13")
	cg.emit("pop r12")
	cg.emit("pop rbx")
	cg.emit("pop rbp")
	cg.emit("ret")
}

func (cg *Codegen) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case ast.VarDecl:
		cg.genVarDecl(s)
	case ast.Assignment:
		cg.genAssignment(s)
	case ast.ReturnStmt:
		cg.genReturn(s)
	case ast.IfStmt:
		cg.genIf(s)
	case ast.WhileStmt:
		cg.genWhile(s)
	case ast.ExprStmt:
		cg.genExprStmt(s)
	case ast.Block:
		cg.genBlock(s)
	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", stmt))
	}
}

func (cg *Codegen) genBlock(b ast.Block) {
	for _, stmt := range b.Statements {
		cg.genStmt(stmt)
	}
}

func (cg *Codegen) genVarDecl(s ast.VarDecl) {
	off := cg.allocVar(s.Name)
	cg.emit("sub rsp, 8")
	if s.Init == nil {
		return
	}
	v := cg.genExpr(s.Init)
	cg.storeTo(off, v)
}

func (cg *Codegen) genAssignment(s ast.Assignment) {
	off := cg.lookupVar(s.Name)
	v := cg.genExpr(s.Value)
	cg.storeTo(off, v)
}

// storeTo writes v (register-resident or spilled) into the DWORD home
// slot at rbp+off.
func (cg *Codegen) storeTo(off int, v value) {
	if !v.isSpilled() {
		cg.emit("mov DWORD PTR [rbp + %d], %s", off, reg32[v.Reg])
		cg.pool.free(v.Reg)
		return
	}
	cg.emit("pop rax")
	cg.emit("mov DWORD PTR [rbp + %d], eax", off)
}

func (cg *Codegen) genReturn(s ast.ReturnStmt) {
	v := cg.genExpr(s.Value)
	cg.moveToEax(v)
	cg.emit("jmp %s", cg.curEpilogue)
}

// moveToEax loads v into eax, freeing its pool slot if it held one.
func (cg *Codegen) moveToEax(v value) {
	if !v.isSpilled() {
		cg.emit("mov eax, %s", reg32[v.Reg])
		cg.pool.free(v.Reg)
		return
	}
	cg.emit("pop rax")
}

func (cg *Codegen) genIf(s ast.IfStmt) {
	elseLabel := cg.newLabel()
	endLabel := cg.newLabel()

	cg.genTestAndJumpIfZero(s.Condition, elseLabel)
	cg.genBlock(s.Then)
	cg.emit("jmp %s", endLabel)
	cg.emitRaw(elseLabel + ":")
	cg.emitRaw(endLabel + ":")
}

func (cg *Codegen) genWhile(s ast.WhileStmt) {
	loopLabel := cg.newLabel()
	endLabel := cg.newLabel()

	cg.emitRaw(loopLabel + ":")
	cg.genTestAndJumpIfZero(s.Condition, endLabel)
	cg.genBlock(s.Body)
	cg.emit("jmp %s", loopLabel)
	cg.emitRaw(endLabel + ":")
}

// genTestAndJumpIfZero evaluates cond, emits "test <val>, <val>", and
// jumps to label when it is zero.
func (cg *Codegen) genTestAndJumpIfZero(cond ast.Expr, label string) {
	v := cg.genExpr(cond)
	reg := "eax"
	if !v.isSpilled() {
		reg = reg32[v.Reg]
		cg.pool.free(v.Reg)
	} else {
		cg.emit("pop rax")
	}
	cg.emit("test %s, %s", reg, reg)
	cg.emit("je %s", label)
}

func (cg *Codegen) genExprStmt(s ast.ExprStmt) {
	v := cg.genExpr(s.Expression)
	if !v.isSpilled() {
		cg.pool.free(v.Reg)
		return
	}
	cg.emit("pop rax")
}

// materialize places the current eax result into a free pool slot, or
// spills it onto the stack if the pool is full.
func (cg *Codegen) materialize() value {
	if slot := cg.pool.alloc(); slot != spilled {
		cg.emit("mov %s, eax", reg32[slot])
		return registered(slot)
	}
	cg.emit("push rax")
	return onStack()
}

func (cg *Codegen) genExpr(e ast.Expr) value {
	switch v := e.(type) {
	case ast.IntLiteral:
		return cg.genIntLiteral(v)
	case ast.Identifier:
		return cg.genIdentifier(v)
	case ast.UnaryOp:
		return cg.genUnaryOp(v)
	case ast.BinaryOp:
		return cg.genBinaryOp(v)
	case ast.FuncCall:
		return cg.genFuncCall(v)
	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", e))
	}
}

func (cg *Codegen) genIntLiteral(v ast.IntLiteral) value {
	if slot := cg.pool.alloc(); slot != spilled {
		cg.emit("mov %s, %d", reg32[slot], v.Value)
		return registered(slot)
	}
	cg.emit("push %d", v.Value)
	return onStack()
}

func (cg *Codegen) genIdentifier(v ast.Identifier) value {
	off := cg.lookupVar(v.Name)
	if slot := cg.pool.alloc(); slot != spilled {
		cg.emit("mov %s, DWORD PTR [rbp + %d]", reg32[slot], off)
		return registered(slot)
	}
	cg.emit("mov eax, DWORD PTR [rbp + %d]", off)
	cg.emit("push rax")
	return onStack()
}

func (cg *Codegen) genUnaryOp(v ast.UnaryOp) value {
	operand := cg.genExpr(v.Operand)
	cg.moveToEax(operand)

	switch v.Op {
	case ast.Negate:
		cg.emit("neg eax")
	case ast.Not:
		cg.emit("test eax, eax")
		cg.emit("sete al")
		cg.emit("movzx eax, al")
	default:
		panic(fmt.Sprintf("codegen: unhandled unary operator %v", v.Op))
	}

	return cg.materialize()
}

func (cg *Codegen) genBinaryOp(v ast.BinaryOp) value {
	left := cg.genExpr(v.Left)
	right := cg.genExpr(v.Right)

	if !right.isSpilled() {
		cg.emit("mov ecx, %s", reg32[right.Reg])
		cg.pool.free(right.Reg)
	} else {
		cg.emit("pop rcx")
	}
	if !left.isSpilled() {
		cg.emit("mov eax, %s", reg32[left.Reg])
		cg.pool.free(left.Reg)
	} else {
		cg.emit("pop rax")
	}

	switch v.Op {
	case ast.Add:
		cg.emit("add eax, ecx")
	case ast.Sub:
		cg.emit("sub eax, ecx")
	case ast.Mul:
		cg.emit("imul eax, ecx")
	case ast.Div:
		cg.emit("cdq")
		cg.emit("idiv ecx")
	case ast.Eq:
		cg.emit("cmp eax, ecx")
		cg.emit("sete al")
		cg.emit("movzx eax, al")
	case ast.Ne:
		cg.emit("cmp eax, ecx")
		cg.emit("setne al")
		cg.emit("movzx eax, al")
	case ast.Lt:
		cg.emit("cmp eax, ecx")
		cg.emit("setl al")
		cg.emit("movzx eax, al")
	case ast.Gt:
		cg.emit("cmp eax, ecx")
		cg.emit("setg al")
		cg.emit("movzx eax, al")
	case ast.And:
		cg.emit("test eax, eax")
		cg.emit("setne al")
		cg.emit("test ecx, ecx")
		cg.emit("setne cl")
		cg.emit("and al, cl")
		cg.emit("movzx eax, al")
	case ast.Or:
		cg.emit("or eax, ecx")
		cg.emit("test eax, eax")
		cg.emit("setne al")
		cg.emit("movzx eax, al")
	default:
		panic(fmt.Sprintf("codegen: unhandled binary operator %v", v.Op))
	}

	return cg.materialize()
}

func (cg *Codegen) genFuncCall(v ast.FuncCall) value {
	if len(v.Args) > 6 {
		panic(errTooManyArgs(v.Name, len(v.Args)))
	}

	for _, arg := range v.Args {
		res := cg.genExpr(arg)
		if !res.isSpilled() {
			cg.emit("push %s", reg64[res.Reg])
			cg.pool.free(res.Reg)
		}
		// A spilled argument is already on the stack from genExpr.
	}

	for i := len(v.Args) - 1; i >= 0; i-- {
		cg.emit("pop %s", argRegs64[i])
	}
	cg.emit("call %s", v.Name)

	return cg.materialize()
}
