package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stork-lang/stork/internal/compiler"
	"github.com/stork-lang/stork/internal/stdlib"
	"github.com/stork-lang/stork/internal/store"
)

// Ext is the extension of stork source files.
const Ext = ".stork"

var errCompile = errors.New("compilation failed")

// program is a set of source files compiled together with the standard
// library and any host types.
type program struct {
	ix       *compiler.Index
	builtins store.Builtins
	paths    []string
}

// compile loads every file, registering each under its base name without
// extension. Diagnostics are printed to diagOut.
func (g *globals) compile(files []string, host store.Builtins, out, diagOut io.Writer) (*program, error) {
	p := &program{
		ix:       compiler.New(compiler.WithLogger(g.log)),
		builtins: stdlib.Builtins(out).Merge(host),
	}
	if _, err := p.ix.AddBuiltins(stdlib.Path, p.builtins); err != nil {
		return nil, err
	}
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		path := moduleName(file)
		if _, err := p.ix.AddModule(path, string(src)); err != nil {
			return nil, errors.Wrapf(err, "loading %s", file)
		}
		g.log.Debug("Loaded source", zap.String("file", file), zap.String("module", path))
		p.paths = append(p.paths, path)
	}
	p.ix.Compile()

	diags := p.ix.Diagnostics()
	if len(diags) > 0 {
		f := p.ix.Formatter(diagOut)
		switch g.color {
		case "always":
			f.SetColor(true)
		case "never":
			f.SetColor(false)
		}
		f.FormatAll(diags)
	}
	if diags.HasErrors() {
		return p, errCompile
	}
	return p, nil
}

func moduleName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// findSources expands directories in args into the source files beneath them.
func findSources(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			// Skip hidden directories
			if info.IsDir() && path != arg && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			if !info.IsDir() && strings.HasSuffix(path, Ext) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no %s files found in %s", Ext, strings.Join(args, ", "))
	}
	return files, nil
}
