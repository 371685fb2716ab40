package lexer

import (
	"testing"

	"github.com/nanoc-lang/nanoc/internal/token"
)

func TestLexEmptySource(t *testing.T) {
	toks := Lex("")
	if len(toks) != 1 || toks[0].Kind != token.EndOfFile {
		t.Fatalf("expected single EOF token, got %#v", toks)
	}
}

func TestLexWhitespaceOnly(t *testing.T) {
	toks := Lex("  \t\n\r  ")
	if len(toks) != 1 || toks[0].Kind != token.EndOfFile {
		t.Fatalf("expected single EOF token, got %#v", toks)
	}
}

func TestLexTwoCharOperators(t *testing.T) {
	toks := Lex("== != && ||")

	expected := []token.Kind{token.EqCmp, token.NeCmp, token.AndCmp, token.OrCmp, token.EndOfFile}
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %#v", len(expected), len(toks), toks)
	}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Fatalf("tokens[%d]: expected kind %s, got %s", i, k, toks[i].Kind)
		}
	}
}

func TestLexUnknownByte(t *testing.T) {
	toks := Lex("@")
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %#v", toks)
	}
	if toks[0].Kind != token.Unknown || toks[0].Lexeme != "@" {
		t.Fatalf("expected Unknown token with lexeme %q, got %#v", "@", toks[0])
	}
	if toks[1].Kind != token.EndOfFile {
		t.Fatalf("expected EOF after Unknown token, got %#v", toks[1])
	}
}

func TestLexLocations(t *testing.T) {
	toks := Lex("int x\nreturn")

	want := []struct {
		kind token.Kind
		loc  token.Position
	}{
		{token.IntType, token.Position{Line: 1, Column: 1}},
		{token.Identifier, token.Position{Line: 1, Column: 5}},
		{token.Return, token.Position{Line: 2, Column: 1}},
		{token.EndOfFile, token.Position{Line: 2, Column: 7}},
	}

	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %#v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind {
			t.Fatalf("tokens[%d]: expected kind %s, got %s", i, w.kind, toks[i].Kind)
		}
		if toks[i].Location != w.loc {
			t.Fatalf("tokens[%d]: expected location %s, got %s", i, w.loc, toks[i].Location)
		}
	}
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks := Lex("int if while return foobar_123")
	expected := []token.Kind{token.IntType, token.If, token.While, token.Return, token.Identifier, token.EndOfFile}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Fatalf("tokens[%d]: expected kind %s, got %s", i, k, toks[i].Kind)
		}
	}
	if toks[4].Lexeme != "foobar_123" {
		t.Fatalf("expected lexeme %q, got %q", "foobar_123", toks[4].Lexeme)
	}
}

func TestLexIntLiteral(t *testing.T) {
	toks := Lex("42")
	if toks[0].Kind != token.IntLiteral || toks[0].Lexeme != "42" {
		t.Fatalf("expected IntLiteral %q, got %#v", "42", toks[0])
	}
}

func TestLexPunctuation(t *testing.T) {
	toks := Lex("(){};,")
	expected := []token.Kind{token.LParen, token.RParen, token.LBrace, token.RBrace, token.Semicolon, token.Comma, token.EndOfFile}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Fatalf("tokens[%d]: expected kind %s, got %s", i, k, toks[i].Kind)
		}
	}
}
