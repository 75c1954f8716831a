package token

import "testing"

func TestIsKeyword(t *testing.T) {
	cases := map[string]bool{
		"mut": true, "let": true, "endif": true, "assert": true,
		"foo": false, "": false, "Mut": false,
	}
	for word, want := range cases {
		if got := IsKeyword(word); got != want {
			t.Errorf("IsKeyword(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	if got := Plus.String(); got != "+" {
		t.Errorf("Plus.String() = %q, want %q", got, "+")
	}
	if got := Kind(-1).String(); got != "unknown" {
		t.Errorf("Kind(-1).String() = %q, want %q", got, "unknown")
	}
}

func TestTokenIsAndIsAny(t *testing.T) {
	tok := New(Identifier, "x", Position{Line: 1})
	if !tok.Is(Identifier) {
		t.Error("expected Is(Identifier) to be true")
	}
	if tok.Is(Keyword) {
		t.Error("expected Is(Keyword) to be false")
	}
	if !tok.IsAny(Keyword, Identifier) {
		t.Error("expected IsAny(Keyword, Identifier) to be true")
	}
	if tok.IsAny(Keyword, Macro) {
		t.Error("expected IsAny(Keyword, Macro) to be false")
	}
}

func TestIsSeparator(t *testing.T) {
	sep := Token{Kind: Newline, Lexeme: SeparatorLexeme}
	if !sep.IsSeparator() {
		t.Error("expected sentinel newline to report IsSeparator")
	}
	plain := Token{Kind: Newline, Lexeme: "\n"}
	if plain.IsSeparator() {
		t.Error("expected an ordinary newline to not report IsSeparator")
	}
}
