// Package sonapy transpiles Sona programs to Python source.
//
// The pipeline is tokenize, parse, resolve and emit. Lexing and parsing stop
// at the first error; name resolution reports every scope error of the
// program at once. A transpilation never writes anywhere: the generated
// code, its source map and the diagnostics are all part of the Result.
package sonapy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/builtins"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/emitter"
	"github.com/kievzenit/sonapy/internal/environment"
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/parser"
	"github.com/kievzenit/sonapy/internal/sourcemap"
)

type (
	Token       = lexer.Token
	Program     = ast.Program
	Info        = environment.Info
	Diagnostic  = compiler_errors.Diagnostic
	Diagnostics = compiler_errors.List
	SourceMap   = sourcemap.Map
	Builtin     = builtins.Builtin
	Registry    = builtins.Registry
)

// DefaultBuiltins returns the builtins every Sona program can use.
func DefaultBuiltins() *Registry {
	return builtins.Default()
}

// Config is passed by value into every call; there is no package state.
type Config struct {
	// Builtins are always bound. Nil selects DefaultBuiltins.
	Builtins *Registry
	// IndentWidth is the number of spaces per indentation level; zero
	// selects 4.
	IndentWidth int
	// Header is written before the generated program and is not mapped.
	Header string
	// SourceMap enables the source map in the Result.
	SourceMap bool
}

func DefaultConfig() Config {
	return Config{
		Builtins:    builtins.Default(),
		IndentWidth: emitter.DefaultIndentWidth,
		SourceMap:   true,
	}
}

type Result struct {
	// Code is empty whenever Diagnostics is not.
	Code      string
	SourceMap *SourceMap
	// Diagnostics is nil on success.
	Diagnostics Diagnostics
}

func (r Result) Failed() bool {
	return len(r.Diagnostics) != 0
}

// Err returns the diagnostics as an error, or nil on success.
func (r Result) Err() error {
	if !r.Failed() {
		return nil
	}
	return r.Diagnostics
}

func Tokenize(src, label string) ([]Token, error) {
	return lexer.NewLexer(label, src).Tokenize()
}

func Parse(tokens []Token, label string) (*Program, error) {
	return parser.ParseTokens(label, tokens)
}

// Resolve builds the environment side table. It returns the table even when
// scope errors were found.
func Resolve(prog *Program, cfg Config) (*Info, error) {
	return environment.Resolve(prog, cfg.Builtins)
}

// Transpile runs the whole pipeline on one source text. label names the
// source in diagnostics and in the source map.
func Transpile(src, label string, cfg Config) Result {
	tokens, err := Tokenize(src, label)
	if err != nil {
		return failed(err)
	}

	prog, err := Parse(tokens, label)
	if err != nil {
		return failed(err)
	}

	info, err := Resolve(prog, cfg)
	if err != nil {
		return failed(err)
	}

	e := emitter.NewEmitter(label, info, emitter.Options{
		IndentWidth: cfg.IndentWidth,
		Header:      cfg.Header,
	})
	code, srcMap, err := e.Emit(prog)
	if err != nil {
		return failed(err)
	}

	res := Result{Code: code}
	if cfg.SourceMap {
		res.SourceMap = srcMap
	}
	return res
}

func failed(err error) Result {
	return Result{Diagnostics: compiler_errors.AsList(err)}
}

// Unit is one source text of a batch.
type Unit struct {
	Label  string
	Source string
}

// TranspileAll transpiles independent units concurrently, running at most
// limit of them at a time (no bound when limit <= 0). Results are in unit
// order. Diagnostics stay in each Result; the returned error is only set
// when ctx is done before every unit was transpiled.
func TranspileAll(ctx context.Context, units []Unit, cfg Config, limit int) ([]Result, error) {
	results := make([]Result, len(units))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	started := 0
	for i, unit := range units {
		if ctx.Err() != nil {
			break
		}
		started++

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Transpile(unit.Source, unit.Label, cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if started < len(units) {
		return results, ctx.Err()
	}
	return results, nil
}
