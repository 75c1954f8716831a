package preprocessor

import (
	"math"

	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/token"
)

// condFrame tracks one open #if...#endif construct: whether a branch has
// already been taken, so a later #elif/#else in the same construct knows
// to discard itself instead of being evaluated again.
type condFrame struct {
	taken bool
}

// handleIf opens a new conditional construct. If its expression is true,
// the cursor is left at the branch body so the main dispatch loop
// processes it exactly as it would any other token run — nested
// directives and macro expansions included. If false, the body is
// discarded opaquely (nested #if/#endif pairs are skipped as a unit,
// without being evaluated) up to the next same-level marker.
func (p *Preprocessor) handleIf() {
	p.markSkip(p.i)
	p.i++

	frame := &condFrame{}
	p.condStack = append(p.condStack, frame)

	if p.evalConditionExpr() {
		frame.taken = true
		return
	}
	p.skipToNextConditionalMarker()
}

// handleElifOrElse handles a bare #elif/#else marker reached by the main
// dispatch loop, either because the preceding branch ran to completion
// (normal, processed body) or because skipToNextConditionalMarker
// stopped here while discarding a dead branch.
func (p *Preprocessor) handleElifOrElse(isElif bool) {
	if len(p.condStack) == 0 {
		p.diag.Insert(diagnostics.InvalidMcondStart)
		p.markSkip(p.i)
		p.i++
		return
	}
	frame := p.condStack[len(p.condStack)-1]
	p.markSkip(p.i)
	p.i++

	if frame.taken {
		// A previous branch already ran; this one is always discarded.
		if isElif {
			p.discardConditionExpr()
		}
		p.skipToNextConditionalMarker()
		return
	}

	if !isElif {
		frame.taken = true
		return
	}
	if p.evalConditionExpr() {
		frame.taken = true
		return
	}
	p.skipToNextConditionalMarker()
}

// handleEndif closes the innermost open conditional construct.
func (p *Preprocessor) handleEndif() {
	if len(p.condStack) == 0 {
		p.diag.Insert(diagnostics.InvalidMcondStart)
		p.markSkip(p.i)
		p.i++
		return
	}
	p.condStack = p.condStack[:len(p.condStack)-1]
	p.markSkip(p.i)
	p.i++
}

// skipToNextConditionalMarker converts every token from the cursor up to
// (but not including) the next depth-0 #elif/#else/#endif into Skip,
// treating nested #if...#endif pairs opaquely so a dead branch's own
// nested conditionals are never evaluated.
func (p *Preprocessor) skipToNextConditionalMarker() {
	depth := 0
	for p.i < p.totalSize {
		t := p.tokens[p.i]
		if t.Kind == token.Macro {
			switch t.Lexeme {
			case "if":
				depth++
			case "elif", "else", "endif":
				if depth == 0 {
					return
				}
				if t.Lexeme == "endif" {
					depth--
				}
			}
		}
		p.markSkip(p.i)
		p.i++
	}
	p.diag.Insert(diagnostics.McondEndif)
}

// discardConditionExpr consumes an #elif's boolean expression without
// evaluating it, converting every token up to and including the
// terminating newline into Skip.
func (p *Preprocessor) discardConditionExpr() {
	for p.i < p.totalSize && p.tokens[p.i].Kind != token.Newline && p.tokens[p.i].Kind != token.Eof {
		p.markSkip(p.i)
		p.i++
	}
	if p.i < p.totalSize && p.tokens[p.i].Kind == token.Newline {
		p.markSkip(p.i)
		p.i++
	}
}

// evalConditionExpr consumes the boolean expression following the
// current directive token (#if/#elif), up to (and including) the
// terminating newline, and returns its truth value. Every consumed
// token is converted to Skip.
func (p *Preprocessor) evalConditionExpr() bool {
	start := p.i
	for p.i < p.totalSize && p.tokens[p.i].Kind != token.Newline && p.tokens[p.i].Kind != token.Eof {
		p.i++
	}
	exprToks := cloneTokens(p.tokens[start:p.i])
	for k := start; k < p.i; k++ {
		p.markSkip(k)
	}
	if p.i < p.totalSize && p.tokens[p.i].Kind == token.Newline {
		p.markSkip(p.i)
		p.i++
	} else {
		p.diag.Insert(diagnostics.InvalidMcond)
	}

	rpn, ok := p.shuntingYard(exprToks)
	if !ok {
		return false
	}
	return p.evalRPN(rpn) != 0
}

var condPrecedence = map[token.Kind]int{
	token.LogicalNot:    5,
	token.Smaller:       4,
	token.SmallerEquals: 4,
	token.Bigger:        4,
	token.BiggerEquals:  4,
	token.EqualsEquals:  3,
	token.NotEquals:     3,
	token.LogicalAnd:    2,
	token.LogicalOr:     1,
}

// shuntingYard converts a macro conditional's infix boolean expression
// to RPN. Only comparison/logical operators, parentheses, identifiers
// and numeric literals are legal; anything else is a diagnostic.
func (p *Preprocessor) shuntingYard(exprToks []token.Token) ([]token.Token, bool) {
	var output, opStack []token.Token

	popTo := func(prec int, rightAssoc bool) {
		for len(opStack) > 0 {
			top := opStack[len(opStack)-1]
			if top.Kind == token.LParen {
				break
			}
			topPrec := condPrecedence[top.Kind]
			if rightAssoc {
				if topPrec <= prec {
					break
				}
			} else {
				if topPrec < prec {
					break
				}
			}
			output = append(output, top)
			opStack = opStack[:len(opStack)-1]
		}
	}

	for _, t := range exprToks {
		switch {
		case t.Kind == token.Integer || t.Kind == token.Real || t.Kind == token.Identifier:
			output = append(output, t)
		case t.Kind == token.LParen:
			opStack = append(opStack, t)
		case t.Kind == token.RParen:
			found := false
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				opStack = opStack[:len(opStack)-1]
				if top.Kind == token.LParen {
					found = true
					break
				}
				output = append(output, top)
			}
			if !found {
				p.diag.Insert(diagnostics.McondMismatchedParens)
				return nil, false
			}
		case condPrecedence[t.Kind] != 0:
			rightAssoc := t.Kind == token.LogicalNot
			popTo(condPrecedence[t.Kind], rightAssoc)
			opStack = append(opStack, t)
		default:
			p.diag.Insert(diagnostics.UnexpectedTokenMcond)
			return nil, false
		}
	}
	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if top.Kind == token.LParen {
			p.diag.Insert(diagnostics.McondMismatchedParens)
			return nil, false
		}
		output = append(output, top)
	}
	return output, true
}

// evalRPN evaluates an RPN boolean-expression token list numerically.
// An identifier absent from the macro table evaluates to 0; a
// pure-declaration macro evaluates to 1; any other macro name has its
// body tokens pushed directly onto the evaluation stack without
// re-shunting, treating the stored body as if it were already in RPN
// (a documented, deliberately retained limitation rather than a bug:
// a macro body containing infix operators will not evaluate the way a
// user might expect inside a conditional).
func (p *Preprocessor) evalRPN(tokens []token.Token) float64 {
	var stack []float64
	push := func(v float64) { stack = append(stack, v) }
	pop := func() float64 {
		if len(stack) == 0 {
			return 0
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for _, t := range tokens {
		switch t.Kind {
		case token.Integer, token.Real:
			push(parseNumber(t.Lexeme))
		case token.Identifier:
			mac, ok := p.macros[t.Lexeme]
			switch {
			case !ok:
				push(0)
			case mac.IsDeclaration:
				push(1)
			default:
				push(p.evalRPN(mac.Body))
			}
		case token.LogicalNot:
			v := pop()
			if v == 0 {
				push(1)
			} else {
				push(0)
			}
		case token.Smaller, token.SmallerEquals, token.Bigger, token.BiggerEquals,
			token.EqualsEquals, token.NotEquals, token.LogicalAnd, token.LogicalOr:
			b := pop()
			a := pop()
			push(boolToFloat(applyCondOp(t.Kind, a, b)))
		default:
			p.diag.Insert(diagnostics.CouldNotConvertNumber)
		}
	}
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1]
}

func applyCondOp(k token.Kind, a, b float64) bool {
	switch k {
	case token.Smaller:
		return a < b
	case token.SmallerEquals:
		return a <= b
	case token.Bigger:
		return a > b
	case token.BiggerEquals:
		return a >= b
	case token.EqualsEquals:
		return a == b
	case token.NotEquals:
		return a != b
	case token.LogicalAnd:
		return a != 0 && b != 0
	case token.LogicalOr:
		return a != 0 || b != 0
	}
	return false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func parseNumber(lexeme string) float64 {
	var v float64
	var frac float64 = 0.1
	inFrac := false
	for _, c := range lexeme {
		switch {
		case c >= '0' && c <= '9':
			if !inFrac {
				v = v*10 + float64(c-'0')
			} else {
				v += float64(c-'0') * frac
				frac /= 10
			}
		case c == '.':
			inFrac = true
		case c == '_':
			continue
		default:
			return math.NaN()
		}
	}
	return v
}
