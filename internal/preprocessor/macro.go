package preprocessor

import (
	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/token"
)

// Macro is a stored definition. Rather than encoding the parameter list as
// sentinel-bracketed prefix tokens inside Body (the original representation
// this was modeled on), parameters are split into their own field; Body
// holds only the substitutable definition tokens, and IsDeclaration
// records a "defined with no body" macro without needing a placeholder
// token. Observable behaviour is unchanged.
type Macro struct {
	HasParens     bool
	Params        []string
	Variadic      bool
	Body          []token.Token
	IsDeclaration bool
}

func cloneTokens(ts []token.Token) []token.Token {
	out := make([]token.Token, len(ts))
	copy(out, ts)
	return out
}

// handleDef parses `#def name[(params)] = body;` (isLine selects the
// `#defl` form, whose body terminates at end-of-line instead of `;`).
func (p *Preprocessor) handleDef(isLine bool) {
	p.markSkip(p.i)
	p.i++

	if p.cur().Kind != token.Identifier {
		p.diag.Insert(diagnostics.ExpectedIdentMacroDef)
		return
	}
	name := p.cur().Lexeme
	if _, exists := p.macros[name]; exists {
		p.diag.Insert(diagnostics.MacroExists)
		return
	}
	p.markSkip(p.i)
	p.i++

	var params []string
	variadic := false
	hasParens := false

	if p.cur().Kind == token.LParen {
		hasParens = true
		p.markSkip(p.i)
		p.i++
		for {
			switch p.cur().Kind {
			case token.RParen:
				p.markSkip(p.i)
				p.i++
				goto paramsDone
			case token.DotDotDot:
				if variadic {
					p.diag.Insert(diagnostics.InvalidVariadicMacro)
					return
				}
				variadic = true
				p.markSkip(p.i)
				p.i++
			case token.Identifier:
				if variadic {
					// A variadic marker must be the last parameter.
					p.diag.Insert(diagnostics.InvalidVariadicMacro)
					return
				}
				params = append(params, p.cur().Lexeme)
				p.markSkip(p.i)
				p.i++
			default:
				p.diag.Insert(diagnostics.ExpectedCommaOrRParen)
				return
			}
			switch p.cur().Kind {
			case token.Comma:
				p.markSkip(p.i)
				p.i++
				continue
			case token.RParen:
				p.markSkip(p.i)
				p.i++
				goto paramsDone
			default:
				p.diag.Insert(diagnostics.ExpectedCommaOrRParen)
				return
			}
		}
	}
paramsDone:

	if !hasParens && p.cur().Kind == token.Semicolon {
		p.markSkip(p.i)
		p.i++
		p.macros[name] = &Macro{HasParens: false, IsDeclaration: true}
		return
	}

	if p.cur().Kind != token.Equals {
		p.diag.Insert(diagnostics.ExpectedEqualsMacroDef)
		return
	}
	p.markSkip(p.i)
	p.i++

	terminator := token.Semicolon
	if isLine {
		terminator = token.Newline
	}
	bodyStart := p.i
	for p.i < p.totalSize && p.tokens[p.i].Kind != terminator && p.tokens[p.i].Kind != token.Eof {
		p.i++
	}
	bodyEnd := p.i
	if bodyEnd == bodyStart {
		p.diag.Insert(diagnostics.InvalidMacroBody)
		return
	}
	body := cloneTokens(p.tokens[bodyStart:bodyEnd])
	for k := bodyStart; k < bodyEnd; k++ {
		p.markSkip(k)
	}

	if p.tokens[p.i].Kind == terminator {
		p.markSkip(p.i)
		p.i++
	} else if !isLine {
		p.diag.Insert(diagnostics.StatementSemicolon)
	}

	p.macros[name] = &Macro{HasParens: hasParens, Params: params, Variadic: variadic, Body: body}
}

func (p *Preprocessor) handleUndef() {
	p.markSkip(p.i)
	p.i++

	if p.cur().Kind != token.Identifier {
		p.diag.Insert(diagnostics.InvalidUndefine)
		return
	}
	name := p.cur().Lexeme
	p.markSkip(p.i)
	p.i++

	if p.cur().Kind == token.Semicolon {
		p.markSkip(p.i)
		p.i++
	} else {
		p.diag.Insert(diagnostics.StatementSemicolon)
	}

	if _, ok := p.macros[name]; ok {
		delete(p.macros, name)
	} else {
		p.diag.Insert(diagnostics.InvalidUndefine)
	}
}

func (p *Preprocessor) cur() token.Token {
	if p.i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.i]
}

func (p *Preprocessor) at(idx int) token.Token {
	if idx < 0 || idx >= len(p.tokens) {
		return token.Token{Kind: token.Eof}
	}
	return p.tokens[idx]
}

// handleUse dispatches a macro invocation found at the current cursor. It
// returns whether this step counted as an expansion for the depth guard.
func (p *Preprocessor) handleUse(name string) bool {
	mac := p.macros[name]
	nameIdx := p.i

	p.macroDepth++
	if p.macroDepth > p.maxMacroDepth {
		p.log.Warn("macro expansion depth exceeded", "name", name, "depth", p.macroDepth, "max", p.maxMacroDepth)
		p.diag.Insert(diagnostics.InfiniteMacroLoop)
		return false
	}
	if p.macroDepth == p.maxMacroDepth/2 {
		p.log.Debug("macro expansion depth past halfway", "name", name, "depth", p.macroDepth, "max", p.maxMacroDepth)
	}

	calledWithParens := p.at(nameIdx+1).Kind == token.LParen

	if !calledWithParens {
		if mac.HasParens {
			p.diag.Insert(diagnostics.InvalidArgCount)
			return false
		}
		if mac.IsDeclaration {
			p.diag.Insert(diagnostics.CalledEmptyMacro)
			return false
		}
		p.splice(nameIdx, 1, cloneTokens(mac.Body))
		p.i = nameIdx
		return true
	}

	argGroups, closeParen, ok := p.collectArgGroups(nameIdx + 1)
	if !ok {
		p.diag.Insert(diagnostics.InvalidMacroCall)
		return false
	}

	fixed := len(mac.Params)
	if mac.Variadic {
		if len(argGroups) < fixed {
			p.diag.Insert(diagnostics.InvalidArgCount)
			return false
		}
	} else if len(argGroups) != fixed {
		p.diag.Insert(diagnostics.InvalidArgCount)
		return false
	}

	translations := map[string][]token.Token{}
	for idx, pname := range mac.Params {
		translations[pname] = argGroups[idx]
	}
	var variadicArgs []token.Token
	if mac.Variadic {
		extra := argGroups[fixed:]
		for i, group := range extra {
			if i > 0 {
				variadicArgs = append(variadicArgs, token.Token{Kind: token.Comma, Lexeme: ","})
			}
			variadicArgs = append(variadicArgs, group...)
		}
	}

	newBody := p.substitute(mac.Body, translations, variadicArgs, mac.Variadic)
	p.splice(nameIdx, closeParen-nameIdx+1, newBody)
	p.i = nameIdx
	return true
}

// collectArgGroups walks the parenthesised argument list starting at
// lparen (the '(' token), splitting on top-level commas and tracking
// paren depth so nested calls nest. It returns the argument groups and
// the index of the matching ')'.
func (p *Preprocessor) collectArgGroups(lparen int) ([][]token.Token, int, bool) {
	depth := 0
	var groups [][]token.Token
	var cur []token.Token
	started := false

	i := lparen
	for i < p.totalSize {
		t := p.tokens[i]
		switch t.Kind {
		case token.LParen:
			depth++
			if depth > 1 {
				cur = append(cur, t)
			}
			started = true
		case token.RParen:
			depth--
			if depth == 0 {
				if started && (len(cur) > 0 || len(groups) > 0) {
					groups = append(groups, cur)
				}
				return groups, i, true
			}
			cur = append(cur, t)
		case token.Comma:
			if depth == 1 {
				groups = append(groups, cur)
				cur = nil
			} else {
				cur = append(cur, t)
			}
		default:
			cur = append(cur, t)
		}
		i++
	}
	return nil, 0, false
}

// substitute rewrites body, replacing parameter-name identifiers with
// their argument tokens, stringizing parameter-name string tokens, and
// expanding the variadic marker (`...` and the stringized `"..."`).
func (p *Preprocessor) substitute(body []token.Token, translations map[string][]token.Token, variadicArgs []token.Token, variadic bool) []token.Token {
	var out []token.Token
	for _, t := range body {
		switch {
		case t.Kind == token.Identifier && translations[t.Lexeme] != nil:
			out = append(out, translations[t.Lexeme]...)
		case t.Kind == token.String && translations[t.Lexeme] != nil:
			out = append(out, token.Token{Kind: token.String, Lexeme: joinLexemes(translations[t.Lexeme]), Pos: t.Pos})
		case variadic && t.Kind == token.DotDotDot:
			out = append(out, variadicArgs...)
		case variadic && t.Kind == token.String && t.Lexeme == "...":
			out = append(out, token.Token{Kind: token.String, Lexeme: joinLexemes(variadicArgs), Pos: t.Pos})
		default:
			out = append(out, t)
		}
	}
	return out
}

func joinLexemes(ts []token.Token) string {
	var b []byte
	for i, t := range ts {
		if t.Kind == token.Comma {
			continue
		}
		if i > 0 && len(b) > 0 {
			b = append(b, ' ')
		}
		b = append(b, t.Lexeme...)
	}
	return string(b)
}
