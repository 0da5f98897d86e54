package langlex

import "testing"

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func scan(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScanner(src)
	tokens := s.ScanTokens()
	if len(s.Errors) > 0 {
		t.Fatalf("scan %q: %v", src, s.Errors)
	}
	return tokens
}

func TestScanBasicExpression(t *testing.T) {
	tokens := scan(t, "Plus[1, 2, 3]")
	want := []TokenType{TokenIdent, TokenLBracket, TokenNumber, TokenComma,
		TokenNumber, TokenComma, TokenNumber, TokenRBracket, TokenEOF}
	got := types(tokens)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanPatternShorthands(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x_", "x_"},
		{"x_Integer", "x_Integer"},
		{"_", "_"},
		{"__", "__"},
		{"___", "___"},
		{"_Real", "_Real"},
		{"x__h", "x__h"},
		{"x_.", "x_."},
	}
	for _, tt := range tests {
		tokens := scan(t, tt.src)
		if tokens[0].Type != TokenPattern || tokens[0].Lexeme != tt.want {
			t.Errorf("scan %q = %v, want PATTERN %q", tt.src, tokens[0], tt.want)
		}
	}
}

func TestScanOperators(t *testing.T) {
	tokens := scan(t, "a := b -> c /. d === e =!= f /; g")
	want := []TokenType{TokenIdent, TokenColonEqual, TokenIdent, TokenRuleArrow,
		TokenIdent, TokenReplaceAll, TokenIdent, TokenTripleEqual, TokenIdent,
		TokenUnsameEqual, TokenIdent, TokenCondition, TokenIdent, TokenEOF}
	got := types(tokens)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		src, lexeme string
	}{
		{"42", "42"},
		{"1.5", "1.5"},
		{"6.", "6."},
		{".25", ".25"},
	}
	for _, tt := range tests {
		tokens := scan(t, tt.src)
		if tokens[0].Type != TokenNumber || tokens[0].Lexeme != tt.lexeme {
			t.Errorf("scan %q = %v, want NUMBER %q", tt.src, tokens[0], tt.lexeme)
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	tokens := scan(t, `"a\nb\"c"`)
	if tokens[0].Type != TokenString || tokens[0].Lexeme != "a\nb\"c" {
		t.Fatalf("string token = %v", tokens[0])
	}
}

func TestScanNestedComments(t *testing.T) {
	tokens := scan(t, "a (* outer (* inner *) still out *) b")
	got := types(tokens)
	want := []TokenType{TokenIdent, TokenIdent, TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want ident ident EOF", got)
	}
}

func TestScanContextName(t *testing.T) {
	tokens := scan(t, "System`Plus")
	if tokens[0].Type != TokenIdent || tokens[0].Lexeme != "System`Plus" {
		t.Fatalf("context name token = %v", tokens[0])
	}
}
