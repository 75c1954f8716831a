package preprocessor

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/lexer"
	"github.com/nodeware/lumen/internal/source"
	"github.com/nodeware/lumen/internal/token"
)

func lexTokens(t *testing.T, src string) []token.Token {
	t.Helper()
	diag := diagnostics.New()
	toks := lexer.New(src, "test", diag).Tokenize()
	if !diag.Empty() {
		t.Fatalf("lexing %q produced diagnostics: %v", src, diag.Messages())
	}
	return toks
}

func lexemes(toks []token.Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == token.Eof {
			continue
		}
		out = append(out, tok.Lexeme)
	}
	return out
}

func process(t *testing.T, src string, opts ...Option) ([]token.Token, *diagnostics.Collector) {
	t.Helper()
	diag := diagnostics.New()
	toks := lexTokens(t, src)
	opts = append([]Option{WithoutBuiltins()}, opts...)
	pp := New(diag, toks, "test", opts...)
	return pp.Process(), diag
}

func TestSimpleMacroExpansion(t *testing.T) {
	out, diag := process(t, `#def FOO = 1 + 2; mut int x = FOO;`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", "+", "2", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDeclarationOnlyMacroUsedAsCondition(t *testing.T) {
	out, diag := process(t, "#def FLAG;\n#if FLAG\nmut int x = 1;\n#endif\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDeclarationOnlyMacroCannotBeCalled(t *testing.T) {
	_, diag := process(t, "#def FLAG;\nmut int x = FLAG;\n")
	if diag.Empty() {
		t.Fatal("expected a called-empty-macro diagnostic")
	}
}

func TestParameterizedMacroExpansion(t *testing.T) {
	out, diag := process(t, `#def ADD(a, b) = a + b; mut int x = ADD(1, 2);`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", "+", "2", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParameterizedMacroWrongArgCount(t *testing.T) {
	_, diag := process(t, `#def ADD(a, b) = a + b; mut int x = ADD(1);`)
	if diag.Empty() {
		t.Fatal("expected an invalid-arg-count diagnostic")
	}
}

func TestVariadicMacroAbsorbsExtraArgs(t *testing.T) {
	out, diag := process(t, `#def SUM(first, ...) = first; mut int x = SUM(1, 2, 3);`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUndefRemovesMacro(t *testing.T) {
	out, diag := process(t, "#def FOO = 1;\n#undef FOO;\nmut int x = FOO;\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "FOO", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v (FOO should survive literally once undefined)", got, want)
	}
}

func TestUndefOfUnknownMacroIsError(t *testing.T) {
	_, diag := process(t, "#undef NEVER_DEFINED;\n")
	if diag.Empty() {
		t.Fatal("expected an invalid-undefine diagnostic")
	}
}

func TestRedefiningMacroIsError(t *testing.T) {
	_, diag := process(t, `#def FOO = 1; #def FOO = 2;`)
	if diag.Empty() {
		t.Fatal("expected a macro-already-exists diagnostic")
	}
}

func TestConditionalElseBranch(t *testing.T) {
	out, diag := process(t, "#if 0\nmut int a = 1;\n#else\nmut int b = 2;\n#endif\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "b", "=", "2", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConditionalElifChain(t *testing.T) {
	out, diag := process(t, "#if 0\nmut int a = 1;\n#elif 1\nmut int b = 2;\n#else\nmut int c = 3;\n#endif\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "b", "=", "2", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConditionalNestedOpaqueToOuterBoundary(t *testing.T) {
	src := "#if 1\n#if 0\nmut int inner = 1;\n#endif\nmut int outer = 2;\n#endif\n"
	out, diag := process(t, src)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "outer", "=", "2", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConditionalNegationAndParens(t *testing.T) {
	out, diag := process(t, "#if !0 && (1 || 0)\nmut int x = 1;\n#endif\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConditionalMismatchedParens(t *testing.T) {
	_, diag := process(t, "#if (1\nmut int x = 1;\n#endif\n")
	if diag.Empty() {
		t.Fatal("expected a mismatched-parentheses diagnostic")
	}
}

func TestConditionalComparisonAndLogical(t *testing.T) {
	out, diag := process(t, "#if 1 < 2 && 3 > 2\nmut int x = 1;\n#endif\n")
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	if len(lexemes(out)) == 0 {
		t.Fatal("expected the taken branch to survive")
	}
}

func TestConcatenationOperator(t *testing.T) {
	out, diag := process(t, `mut int foo bar ## = 1;`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "foobar", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, tok := range out {
		if tok.Lexeme == "foobar" && tok.Kind != token.String {
			t.Errorf("concatenation result has kind %v, want token.String", tok.Kind)
		}
	}
}

func TestEqualityMacroOperator(t *testing.T) {
	out, diag := process(t, `mut int x = a a #== ;`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInequalityMacroOperator(t *testing.T) {
	out, diag := process(t, `mut int x = a b #!= ;`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestErrorDirectiveHalts(t *testing.T) {
	_, diag := process(t, `#error "boom";`)
	if diag.Empty() || diag.Messages()[0] != "boom" {
		t.Fatalf("got diagnostics %v, want [\"boom\"]", diag.Messages())
	}
}

func TestAssertDirectivePassesSilently(t *testing.T) {
	_, diag := process(t, `#assert 1 == 1, "unreachable"; mut int x = 1;`)
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
}

func TestAssertDirectiveFailsWithMessage(t *testing.T) {
	_, diag := process(t, `#assert 1 == 2, "mismatch";`)
	if diag.Empty() || diag.Messages()[0] != "mismatch" {
		t.Fatalf("got diagnostics %v, want [\"mismatch\"]", diag.Messages())
	}
}

func TestLogDirectiveWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	_, diag := process(t, `#log "hi";`, WithOutput(&buf))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	if buf.String() != "hi\n" {
		t.Errorf("got %q, want %q", buf.String(), "hi\n")
	}
}

func TestLogLineDirectiveDoesNotRequireSemicolon(t *testing.T) {
	var buf bytes.Buffer
	_, diag := process(t, "#logl \"hi\"\nmut int x = 1;", WithOutput(&buf))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	if buf.String() != "hi\n" {
		t.Errorf("got %q, want %q", buf.String(), "hi\n")
	}
}

func TestLogDirectiveExpandsAndConcatenatesTokens(t *testing.T) {
	var buf bytes.Buffer
	_, diag := process(t, "#def FOO = 42;\n#log \"x=\", FOO;\n", WithOutput(&buf))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	if buf.String() != "x=,42\n" {
		t.Errorf("got %q, want %q", buf.String(), "x=,42\n")
	}
}

func TestImportGuardsAgainstDoubleInclusion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shared.lum"), []byte(`#def FOO = 1;`), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `#import "shared.lum"; #import "shared.lum"; mut int x = FOO;`
	out, diag := process(t, src, WithReader(source.NewReader(dir)))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "x", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestImportAcceptsCommaSeparatedFileList(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.lum"), []byte(`mut int a = 1;`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.lum"), []byte(`mut int b = 2;`), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `#import "a.lum", "b.lum"; mut int c = 3;`
	out, diag := process(t, src, WithReader(source.NewReader(dir)))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{
		"mut", "int", "a", "=", "1", ";",
		"mut", "int", "b", "=", "2", ";",
		"mut", "int", "c", "=", "3", ";",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIncludeAlwaysReReads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "shared.lum"), []byte(`mut int a = 1;`), 0o644); err != nil {
		t.Fatal(err)
	}
	src := `#include "shared.lum"; #include "shared.lum";`
	out, diag := process(t, src, WithReader(source.NewReader(dir)))
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	got := lexemes(out)
	want := []string{"mut", "int", "a", "=", "1", ";", "mut", "int", "a", "=", "1", ";"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestImportMissingFileIsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	_, diag := process(t, `#import "nope.lum";`, WithReader(source.NewReader(dir)))
	if diag.Empty() {
		t.Fatal("expected an import-invalid-file diagnostic")
	}
}

func TestMacroDepthGuardCatchesSelfReference(t *testing.T) {
	_, diag := process(t, `#def LOOP = LOOP; mut int x = LOOP;`, WithMaxMacroDepth(4))
	if diag.Empty() {
		t.Fatal("expected an infinite-macro-loop diagnostic")
	}
}

func TestBuiltinsInstallFile(t *testing.T) {
	diag := diagnostics.New()
	toks := lexTokens(t, `mut string f = __FILE__;`)
	pp := New(diag, toks, "main.lum")
	out := pp.Process()
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	var found string
	for _, tok := range out {
		if tok.Kind == token.String {
			found = tok.Lexeme
		}
	}
	if found != "main.lum" {
		t.Errorf("__FILE__ expanded to %q, want %q", found, "main.lum")
	}
}

func TestBuiltinClockDrivesEpoch(t *testing.T) {
	fixed := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	diag := diagnostics.New()
	toks := lexTokens(t, `mut int e = __EPOCH__;`)
	pp := New(diag, toks, "main.lum", WithClock(func() time.Time { return fixed }))
	out := pp.Process()
	if !diag.Empty() {
		t.Fatalf("unexpected diagnostics: %v", diag.Messages())
	}
	var found string
	for _, tok := range out {
		if tok.Kind == token.Integer {
			found = tok.Lexeme
		}
	}
	want := strconv.FormatInt(fixed.Unix(), 10)
	if found != want {
		t.Errorf("__EPOCH__ expanded to %q, want %q", found, want)
	}
}
