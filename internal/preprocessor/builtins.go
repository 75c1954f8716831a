package preprocessor

import (
	"math/bits"
	"runtime"
	"strconv"

	"github.com/nodeware/lumen/internal/token"
	"github.com/nodeware/lumen/internal/version"
)

// installBuiltins registers the configurable built-in macro family.
// Each is a plain entry in p.macros, indistinguishable from a
// user-defined macro once installed, so #undef and shadowing checks
// apply to them uniformly.
func (p *Preprocessor) installBuiltins() {
	p.defineString("__FILE__", p.currentFile)

	p.defineInt("__VERSION__", version.Numeric())
	p.defineInt("__VERSION_MAJOR__", int64(version.Major))
	p.defineInt("__VERSION_MINOR__", int64(version.Minor))
	p.defineInt("__VERSION_PATCH__", int64(version.Patch))
	p.defineString("__VERSION_STR__", version.String())

	now := p.clock()
	p.defineInt("__EPOCH__", now.Unix())
	p.defineInt("__EPOCH_NS__", now.UnixNano())
	p.defineString("__DATE__", now.Format("2006-01-02"))
	p.defineString("__TIME__", now.Format("15:04:05"))
	p.defineString("__DATETIME__", now.Format("2006-01-02 15:04:05"))

	switch runtime.GOOS {
	case "windows":
		p.declare("__WIN__")
	case "darwin":
		p.declare("__MACOS__")
	default:
		p.declare("__LINUX__")
	}
	p.defineString("__OS__", runtime.GOOS)

	if bits.UintSize == 64 {
		p.declare("__64BIT__")
	} else {
		p.declare("__32BIT__")
	}
}

func (p *Preprocessor) defineString(name, value string) {
	p.macros[name] = &Macro{Body: []token.Token{{Kind: token.String, Lexeme: value}}}
}

func (p *Preprocessor) defineInt(name string, value int64) {
	p.macros[name] = &Macro{Body: []token.Token{{Kind: token.Integer, Lexeme: strconv.FormatInt(value, 10)}}}
}

func (p *Preprocessor) declare(name string) {
	p.macros[name] = &Macro{IsDeclaration: true}
}

// refreshFileBuiltin re-points __FILE__ at the current file, called
// whenever an Eoi marker switches the current file: into an included
// file at its leading marker, and back to the including file at its
// trailing one.
func (p *Preprocessor) refreshFileBuiltin() {
	if p.skipBuiltins {
		return
	}
	p.defineString("__FILE__", p.currentFile)
}
