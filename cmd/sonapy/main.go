package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kievzenit/sonapy"
	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
)

func main() {
	showTokens := flag.Bool("tokens", false, "print the token stream and stop")
	showAst := flag.Bool("ast", false, "dump the syntax tree and stop")
	mapFile := flag.String("map", "", "write a Source Map v3 file")
	outFile := flag.String("o", "", "write Python code to this file instead of stdout")
	indent := flag.Int("indent", 4, "spaces per indentation level")
	header := flag.String("header", "", "comment line written before the generated code")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: sonapy [flags] file.sona")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	fileName := flag.Arg(0)
	fileData, err := os.ReadFile(fileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	src := string(fileData)

	if *showTokens || *showAst {
		os.Exit(dump(fileName, src, *showTokens, *showAst))
	}

	cfg := sonapy.DefaultConfig()
	cfg.IndentWidth = *indent
	if *header != "" {
		cfg.Header = "# " + strings.TrimPrefix(*header, "# ")
	}
	cfg.SourceMap = *mapFile != ""

	res := sonapy.Transpile(src, fileName, cfg)
	if res.Failed() {
		report(res.Diagnostics, src)
		os.Exit(1)
	}

	if *outFile == "" {
		fmt.Print(res.Code)
	} else if err := os.WriteFile(*outFile, []byte(res.Code), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *mapFile != "" {
		generated := filepath.Base(*outFile)
		if *outFile == "" {
			generated = ""
		}
		data, err := res.SourceMap.V3(generated, fileName, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(*mapFile, data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func dump(fileName, src string, showTokens, showAst bool) int {
	tokens, err := sonapy.Tokenize(src, fileName)
	if err != nil {
		report(compiler_errors.AsList(err), src)
		return 1
	}

	if showTokens {
		for _, token := range tokens {
			fmt.Println(token.String())
		}
	}
	if !showAst {
		return 0
	}

	prog, err := sonapy.Parse(tokens, fileName)
	if err != nil {
		report(compiler_errors.AsList(err), src)
		return 1
	}
	if err := ast.Dump(os.Stdout, prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func report(diagnostics compiler_errors.List, src string) {
	eh := compiler_errors.NewErrorHandler(os.Stderr)
	for _, d := range diagnostics {
		eh.AddError(d)
	}
	eh.Report(src)
}
