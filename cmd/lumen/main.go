// Command lumen drives a single source file through the lexer,
// preprocessor, and parser, printing the resulting syntax tree or any
// diagnostics raised along the way.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/lexer"
	"github.com/nodeware/lumen/internal/logger"
	"github.com/nodeware/lumen/internal/parser"
	"github.com/nodeware/lumen/internal/preprocessor"
	"github.com/nodeware/lumen/internal/source"
)

func main() {
	maxDepth := flag.Int("max-macro-depth", 0, "override the macro self-recursion guard (0 keeps the default)")
	printTokens := flag.Bool("tokens", false, "print the preprocessed token vector instead of the syntax tree")
	logLevel := flag.String("log-level", "warn", "operational tracing level: debug, info, warn, error")
	flag.Parse()

	if err := logger.InitLogger(*logLevel); err != nil {
		log.Fatalf("%v", err)
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: lumen <input.lum>")
		os.Exit(1)
	}

	entryPath := args[0]
	raw, err := os.ReadFile(entryPath)
	if err != nil {
		log.Fatalf("could not read %s: %v", entryPath, err)
	}

	diag := diagnostics.New()

	tokens := lexer.New(string(raw), entryPath, diag).Tokenize()
	if diag.Display(os.Stderr) {
		os.Exit(1)
	}

	var opts []preprocessor.Option
	opts = append(opts, preprocessor.WithReader(source.NewReader(filepath.Dir(entryPath))))
	opts = append(opts, preprocessor.WithLogger(logger.GetLogger()))
	if *maxDepth > 0 {
		opts = append(opts, preprocessor.WithMaxMacroDepth(*maxDepth))
	}

	pp := preprocessor.New(diag, tokens, entryPath, opts...)
	processed := pp.Process()
	if diag.Display(os.Stderr) {
		os.Exit(1)
	}

	if *printTokens {
		for _, t := range processed {
			fmt.Printf("%-12s %q\n", t.Kind, t.Lexeme)
		}
		return
	}

	program := parser.New(processed, diag).Parse()
	if diag.Display(os.Stderr) {
		os.Exit(1)
	}

	fmt.Print(program.Print(0))
}
