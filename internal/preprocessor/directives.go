package preprocessor

import (
	"fmt"
	"strings"

	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/source"
	"github.com/nodeware/lumen/internal/token"
)

// handleInclude implements both #import (guarded against double
// inclusion via includeSet) and #include (always re-read), accepting a
// comma-separated sequence of targets in a single directive. Each
// target is taken from a string literal, or resolved from a macro that
// expands to one.
func (p *Preprocessor) handleInclude(guarded bool) {
	p.markSkip(p.i)
	p.i++

	outerFile := p.currentFile
	pathStart := p.i

	var paths []token.Token
	for {
		pathTok, ok := p.resolvePathToken()
		if !ok {
			p.diag.Insert(diagnostics.ExpectedFile)
			return
		}
		paths = append(paths, pathTok)
		p.markSkip(p.i)
		p.i++

		if p.cur().Kind != token.Comma {
			break
		}
		p.markSkip(p.i)
		p.i++
	}

	if p.cur().Kind == token.Semicolon {
		p.markSkip(p.i)
		p.i++
	} else {
		p.diag.Insert(diagnostics.StatementSemicolon)
	}

	var included []token.Token
	for _, pathTok := range paths {
		chunk, ok := p.resolveInclude(pathTok, guarded, outerFile)
		if !ok {
			return
		}
		included = append(included, chunk...)
	}

	p.splice(pathStart, 0, included)
	p.i = pathStart
}

// resolveInclude reads and relexes a single include target into a
// self-contained chunk: a leading eoi switches __FILE__ to path once
// the main dispatch loop reaches it, and a trailing eoi restores
// outerFile once the target's own tokens are exhausted, so a run of
// chunks spliced back to back (one per comma-separated path) switches
// identity correctly across all of them. A guarded path already
// present in the include set contributes no tokens.
func (p *Preprocessor) resolveInclude(pathTok token.Token, guarded bool, outerFile string) ([]token.Token, bool) {
	if !p.reader.IsFile(pathTok.Lexeme) {
		p.diag.Insert(diagnostics.ImportInvalidFile)
		return nil, false
	}

	key := source.Normalize(pathTok.Lexeme)
	if guarded && p.includeSet[key] {
		p.log.Debug("include already satisfied, skipping", "path", pathTok.Lexeme, "from", outerFile)
		return nil, true
	}
	p.includeSet[key] = true
	p.log.Debug("resolving include", "path", pathTok.Lexeme, "guarded", guarded, "from", outerFile)

	text := p.reader.ReadFile(p.diag, pathTok.Lexeme)
	if !p.diag.Empty() {
		return nil, false
	}

	tokens := p.relex(text, pathTok.Lexeme)
	if n := len(tokens); n > 0 && tokens[n-1].Kind == token.Eof {
		tokens = tokens[:n-1]
	}

	chunk := make([]token.Token, 0, len(tokens)+2)
	chunk = append(chunk, token.Token{Kind: token.Eoi, Lexeme: pathTok.Lexeme})
	chunk = append(chunk, tokens...)
	chunk = append(chunk, token.Token{Kind: token.Eoi, Lexeme: outerFile})
	return chunk, true
}

// resolvePathToken returns the string token naming the include target,
// resolving through a macro reference when the directive names one
// instead of writing the string literal directly.
func (p *Preprocessor) resolvePathToken() (token.Token, bool) {
	tok := p.cur()
	switch tok.Kind {
	case token.String:
		return tok, true
	case token.Identifier:
		if mac, ok := p.macros[tok.Lexeme]; ok && !mac.IsDeclaration && len(mac.Body) == 1 && mac.Body[0].Kind == token.String {
			return mac.Body[0], true
		}
	}
	return token.Token{}, false
}

// handlePostfixOp implements the `##` (token concatenation), `#==`
// (string equality) and `#!=` (inequality) operators: each is postfix
// on the two tokens immediately preceding its own position, so
// `a b ##`/`a b #==`/`a b #!=` act on a and b, and the merge result
// lands where the left operand was, giving a chain like
// `a b ## c ##` its left-associativity once the main dispatch loop
// steps onto the merged token and finds the next operator already
// sitting right after it.
func (p *Preprocessor) handlePostfixOp(kind token.Kind) {
	opIdx := p.i
	lhsIdx, rhsIdx := opIdx-2, opIdx-1
	if lhsIdx < 0 {
		if kind == token.HashHash {
			p.diag.Insert(diagnostics.InvalidConcatenationMacro)
		} else {
			p.diag.Insert(diagnostics.InvalidEqualityMacro)
		}
		p.markSkip(opIdx)
		p.i++
		return
	}
	lhs, rhs := p.tokens[lhsIdx], p.tokens[rhsIdx]

	var result token.Token
	switch kind {
	case token.HashHash:
		result = token.Token{Kind: token.String, Lexeme: lhs.Lexeme + rhs.Lexeme, Pos: lhs.Pos}
	case token.HashEquals, token.HashNotEquals:
		eq := lhs.Lexeme == rhs.Lexeme
		if kind == token.HashNotEquals {
			eq = !eq
		}
		lexeme := "0"
		if eq {
			lexeme = "1"
		}
		result = token.Token{Kind: token.Integer, Lexeme: lexeme, Pos: lhs.Pos}
	default:
		p.diag.Insert(diagnostics.InvalidEqualityMacro)
		return
	}

	p.splice(lhsIdx, 3, []token.Token{result})
	p.i = lhsIdx
}

// handleError emits a collector diagnostic built from a string literal
// and halts further processing (Process stops once diag is non-empty).
func (p *Preprocessor) handleError() {
	p.markSkip(p.i)
	p.i++
	if p.cur().Kind != token.String {
		p.diag.Insert(diagnostics.ExpectedStringAfterError)
		return
	}
	msg := p.cur().Lexeme
	p.markSkip(p.i)
	p.i++
	if p.cur().Kind == token.Semicolon {
		p.markSkip(p.i)
		p.i++
	}
	p.diag.Insert(msg)
}

// handleLog collects the tokens following #log/#logl up to a
// terminating ';' or newline respectively, expanding each macro use it
// finds along the way exactly as handleUse/handlePostfixOp would
// expand it anywhere else in the stream, then concatenates the
// surviving lexemes and writes them to the configured output stream.
// #log requires the ';'; #logl does not require a trailing newline.
func (p *Preprocessor) handleLog(isLine bool) {
	end := token.Semicolon
	if isLine {
		end = token.Newline
	}
	p.markSkip(p.i)
	p.i++

	var log strings.Builder
	for p.i < p.totalSize && p.diag.Empty() {
		tok := p.tokens[p.i]
		if tok.Kind == end || tok.Kind == token.Eof {
			break
		}

		if tok.Kind == token.Identifier {
			if _, ok := p.macros[tok.Lexeme]; ok {
				p.handleUse(tok.Lexeme)
				continue
			}
		} else if tok.Kind == token.HashHash || tok.Kind == token.HashEquals || tok.Kind == token.HashNotEquals {
			p.handlePostfixOp(tok.Kind)
			continue
		}

		p.macroDepth = 0
		if tok.Kind != token.Skip && tok.Kind != token.Newline {
			log.WriteString(tok.Lexeme)
		}
		p.markSkip(p.i)
		p.i++
	}

	if !p.diag.Empty() {
		return
	}
	if end == token.Semicolon && (p.i >= p.totalSize || p.tokens[p.i].Kind != token.Semicolon) {
		p.diag.Insert(diagnostics.StatementSemicolon)
		return
	}
	if p.i < p.totalSize && p.tokens[p.i].Kind != token.Eof {
		p.markSkip(p.i)
		p.i++
	}

	p.log.Debug("log directive", "directive", map[bool]string{true: "#logl", false: "#log"}[isLine], "output", log.String())
	fmt.Fprintln(p.out, log.String())
}

// handleAssert implements the supplemented `#assert <bool-expr>, "msg";`
// directive: it reuses the conditional engine's shunting-yard/evalRPN
// pipeline and raises msg as a diagnostic when the expression is false.
func (p *Preprocessor) handleAssert() {
	p.markSkip(p.i)
	p.i++

	start := p.i
	for p.i < p.totalSize && p.tokens[p.i].Kind != token.Comma && p.tokens[p.i].Kind != token.Semicolon && p.tokens[p.i].Kind != token.Eof {
		p.i++
	}
	exprToks := cloneTokens(p.tokens[start:p.i])
	for k := start; k < p.i; k++ {
		p.markSkip(k)
	}

	msg := "assertion failed"
	if p.cur().Kind == token.Comma {
		p.markSkip(p.i)
		p.i++
		if p.cur().Kind == token.String {
			msg = p.cur().Lexeme
			p.markSkip(p.i)
			p.i++
		} else {
			p.diag.Insert(diagnostics.ExpectedStringAfterAssert)
			return
		}
	}

	if p.cur().Kind == token.Semicolon {
		p.markSkip(p.i)
		p.i++
	} else {
		p.diag.Insert(diagnostics.StatementSemicolon)
	}

	rpn, ok := p.shuntingYard(exprToks)
	if !ok {
		return
	}
	if p.evalRPN(rpn) == 0 {
		p.diag.Insert(msg)
	}
}
