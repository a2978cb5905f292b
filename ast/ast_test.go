package ast_test

import (
	"testing"

	"github.com/tsl-lang/tsl/ast"
)

func TestLexerTokenizesShaderDecl(t *testing.T) {
	tokens, err := ast.NewLexer(`shader f(out float v){ v = 5.0f; }`).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) == 0 {
		t.Fatal("tokenize returned no tokens")
	}
	if tokens[len(tokens)-1].Kind != ast.TokenEOF {
		t.Fatalf("last token = %v, want TokenEOF", tokens[len(tokens)-1].Kind)
	}
}

func TestLexerDistinguishesFloatAndDoubleLiterals(t *testing.T) {
	tokens, err := ast.NewLexer(`1.5f 1.5 2d`).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	kinds := []ast.TokenKind{}
	for _, tok := range tokens {
		if tok.Kind != ast.TokenEOF {
			kinds = append(kinds, tok.Kind)
		}
	}
	want := []ast.TokenKind{ast.TokenFloatLiteral, ast.TokenFloatLiteral, ast.TokenDoubleLiteral}
	if len(kinds) != len(want) {
		t.Fatalf("got %d literal tokens, want %d", len(kinds), len(want))
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("token %d kind = %v, want %v", i, kinds[i], k)
		}
	}
}

func TestParserParsesShaderRoot(t *testing.T) {
	tokens, err := ast.NewLexer(`shader f(out float v){ v = 5.0f; }`).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	mod, err := ast.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(mod.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(mod.Functions))
	}
	fn := mod.Functions[0]
	if !fn.IsShader {
		t.Error("f.IsShader = false, want true")
	}
	if fn.Name != "f" {
		t.Errorf("f.Name = %q, want %q", fn.Name, "f")
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "v" {
		t.Fatalf("f.Params = %+v, want one param named v", fn.Params)
	}
}

func TestParserRejectsUnterminatedBlock(t *testing.T) {
	tokens, err := ast.NewLexer(`shader f(out float v){ v = 5.0f; `).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if _, err := ast.NewParser(tokens).Parse(); err == nil {
		t.Fatal("parse succeeded on an unterminated block, want an error")
	}
}

func TestParserParsesFloat3Constructor(t *testing.T) {
	tokens, err := ast.NewLexer(`shader f(out float3 v){ v = float3(1.0f, 2.0f, 3.0f); }`).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if _, err := ast.NewParser(tokens).Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
}
