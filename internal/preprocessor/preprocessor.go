// Package preprocessor rewrites a token vector in place: expanding macros,
// resolving conditional-compilation blocks, splicing in included files, and
// evaluating the concatenation/equality/log/error directives, before
// handing the cleaned vector to the parser.
package preprocessor

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/lexer"
	"github.com/nodeware/lumen/internal/source"
	"github.com/nodeware/lumen/internal/token"
)

const defaultMaxMacroDepth = 32

// Preprocessor is an in-place token-vector rewriter: a running cursor i
// walks tokens while insertions and erasures happen ahead of and behind
// it, with totalSize refreshed after every splice.
type Preprocessor struct {
	diag   *diagnostics.Collector
	tokens []token.Token

	i         int
	totalSize int

	macros     map[string]*Macro
	includeSet map[string]bool
	condStack  []*condFrame

	currentFile   string
	reader        *source.Reader
	out           io.Writer
	clock         func() time.Time
	macroDepth    int
	maxMacroDepth int
	skipBuiltins  bool
	log           *slog.Logger
}

// Option configures a Preprocessor at construction time.
type Option func(*Preprocessor)

// WithMaxMacroDepth overrides the default self-recursion guard (32).
func WithMaxMacroDepth(n int) Option {
	return func(p *Preprocessor) { p.maxMacroDepth = n }
}

// WithReader supplies the file-reader collaborator used by #import/#include.
func WithReader(r *source.Reader) Option {
	return func(p *Preprocessor) { p.reader = r }
}

// WithOutput redirects #log/#logl output (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(p *Preprocessor) { p.out = w }
}

// WithClock overrides the time source behind the built-in date/epoch
// macros, letting tests pin a deterministic instant.
func WithClock(clock func() time.Time) Option {
	return func(p *Preprocessor) { p.clock = clock }
}

// WithoutBuiltins suppresses installation of the __FILE__/__VERSION__/...
// built-in macro family.
func WithoutBuiltins() Option {
	return func(p *Preprocessor) { p.skipBuiltins = true }
}

// WithLogger overrides the operational-tracing logger used for macro
// expansion depth warnings, include resolution, and #log/#logl output
// (default slog.Default()). This is separate from the diagnostics
// collector: diag carries user-facing compiler diagnostics, log carries
// tracing for whoever is operating the pipeline.
func WithLogger(log *slog.Logger) Option {
	return func(p *Preprocessor) { p.log = log }
}

// New returns a Preprocessor over tokens, attributing __FILE__ to file (an
// empty file is rendered as "REPL").
func New(diag *diagnostics.Collector, tokens []token.Token, file string, opts ...Option) *Preprocessor {
	if file == "" {
		file = "REPL"
	}
	p := &Preprocessor{
		diag:          diag,
		tokens:        append([]token.Token{}, tokens...),
		macros:        make(map[string]*Macro),
		includeSet:    make(map[string]bool),
		currentFile:   file,
		reader:        source.NewReader(""),
		out:           os.Stdout,
		clock:         time.Now,
		maxMacroDepth: defaultMaxMacroDepth,
		log:           slog.Default(),
	}
	p.totalSize = len(p.tokens)
	for _, opt := range opts {
		opt(p)
	}
	if !p.skipBuiltins {
		p.installBuiltins()
	}
	return p
}

// SpecifyMaxMacroDepth overrides the self-recursion guard after construction.
func (p *Preprocessor) SpecifyMaxMacroDepth(n int) {
	p.maxMacroDepth = n
}

// Process runs the dispatch loop to completion (or to the first
// diagnostic) and returns the cleaned token vector: no skip, newline, or
// eoi tokens remain.
func (p *Preprocessor) Process() []token.Token {
	for p.i < p.totalSize && p.diag.Empty() {
		p.step()
	}
	return p.cleanup()
}

func (p *Preprocessor) step() {
	tok := p.tokens[p.i]
	usedMacro := false

	switch {
	case tok.Kind == token.Eoi:
		p.currentFile = tok.Lexeme
		p.refreshFileBuiltin()
		p.i++
	case tok.Kind == token.Macro:
		usedMacro = p.dispatchDirective(tok.Lexeme)
	case tok.Kind == token.HashHash:
		p.handlePostfixOp(tok.Kind)
	case tok.Kind == token.HashEquals:
		p.handlePostfixOp(tok.Kind)
	case tok.Kind == token.HashNotEquals:
		p.handlePostfixOp(tok.Kind)
	case tok.Kind == token.Identifier:
		if _, ok := p.macros[tok.Lexeme]; ok {
			usedMacro = p.handleUse(tok.Lexeme)
		} else {
			p.i++
		}
	default:
		p.i++
	}

	if !usedMacro {
		p.macroDepth = 0
	}
	p.totalSize = len(p.tokens)
}

func (p *Preprocessor) dispatchDirective(lexeme string) (usedMacro bool) {
	switch lexeme {
	case "import":
		p.handleInclude(true)
	case "include":
		p.handleInclude(false)
	case "def":
		p.handleDef(false)
	case "defl":
		p.handleDef(true)
	case "undef":
		p.handleUndef()
	case "if":
		p.handleIf()
	case "elif":
		p.handleElifOrElse(true)
	case "else":
		p.handleElifOrElse(false)
	case "endif":
		p.handleEndif()
	case "error":
		p.handleError()
	case "log":
		p.handleLog(false)
	case "logl":
		p.handleLog(true)
	case "assert":
		p.handleAssert()
	default:
		p.i++
	}
	return false
}

// markSkip converts the token at idx to Skip in place, the in-place
// counterpart of erasing it: consumed directive tokens become Skip rather
// than being spliced out individually, which would otherwise shift every
// later index on every single-token consumption.
func (p *Preprocessor) markSkip(idx int) {
	p.tokens[idx].Kind = token.Skip
}

// splice erases count tokens starting at start and inserts newToks in
// their place, refreshing totalSize. It is the one operation that
// actually changes the vector's length.
func (p *Preprocessor) splice(start, count int, newToks []token.Token) {
	out := make([]token.Token, 0, len(p.tokens)-count+len(newToks))
	out = append(out, p.tokens[:start]...)
	out = append(out, newToks...)
	out = append(out, p.tokens[start+count:]...)
	p.tokens = out
	p.totalSize = len(p.tokens)
}

func (p *Preprocessor) cleanup() []token.Token {
	out := make([]token.Token, 0, len(p.tokens))
	for _, t := range p.tokens {
		if t.Kind == token.Skip || t.Kind == token.Newline || t.Kind == token.Eoi {
			continue
		}
		out = append(out, t)
	}
	return out
}

// relex tokenizes text as if it were a fresh top-level source, sharing
// this preprocessor's diagnostics collector.
func (p *Preprocessor) relex(text, file string) []token.Token {
	return lexer.New(text, file, p.diag).Tokenize()
}
