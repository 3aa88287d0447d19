// Package source lowers a real Go package tree on disk into the ir.Module
// interface the core engines consume. This is an optional adapter used
// only by cmd/npaflow — no core package (npa, icfg, ifds, pdg, slice,
// taint) imports it.
//
// Grounded on inspector/golang/inspector_tree_sitter.go's TreeSitterInspector
// (sitter.NewParser/SetLanguage(golang.GetLanguage())/ParseCtx, then walking
// the parse tree via ChildByFieldName) for parsing, and
// analyzer/package.go's AnalyzeDir/analyzePackages (afs.Service.Walk to
// discover files, afs.Service.DownloadWithURL to read them) for directory
// traversal — both teacher patterns, applied here to build ir.Function
// bodies instead of the teacher's own linage.PackageModel.
// inspector/repository/detector.go's extractGoModuleName is the model for
// ModulePath's modfile.Parse call.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"golang.org/x/mod/modfile"

	"github.com/viant/npaflow/ir"
)

// Load walks every .go file under dir (skipping _test.go files, matching
// the CLI's "analyze the program, not its tests" scope) and lowers every
// function/method declaration found into one ir.Module.
func Load(ctx context.Context, dir string) (ir.Module, error) {
	fs := afs.New()

	type sourceFile struct {
		url  string
		data []byte
	}
	var files []sourceFile

	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		if !strings.HasSuffix(info.Name(), ".go") || strings.HasSuffix(info.Name(), "_test.go") {
			return true, nil
		}
		fileURL := url.Join(url.Join(baseURL, parent), info.Name())
		data, err := fs.DownloadWithURL(ctx, fileURL)
		if err != nil {
			return false, err
		}
		files = append(files, sourceFile{url: fileURL, data: data})
		return true, nil
	}
	if err := fs.Walk(ctx, dir, visitor); err != nil {
		return nil, &ir.ErrMalformed{Reason: fmt.Sprintf("walking %s: %v", dir, err)}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	type parsed struct {
		root *sitter.Node
		src  []byte
	}
	var trees []parsed
	for _, f := range files {
		tree, err := parser.ParseCtx(ctx, nil, f.data)
		if err != nil {
			return nil, &ir.ErrMalformed{Reason: fmt.Sprintf("parsing %s: %v", f.url, err)}
		}
		trees = append(trees, parsed{root: tree.RootNode(), src: f.data})
	}

	m := newModule()
	l := &lowerer{module: m, nextHandle: 1}
	for _, t := range trees {
		l.declareFuncs(t.root, t.src)
	}
	for _, t := range trees {
		l.lowerFile(t.root, t.src)
	}
	return m, nil
}

// ModulePath reads the module path declared in dir's go.mod, per
// inspector/repository/detector.go's extractGoModuleName.
func ModulePath(ctx context.Context, dir string) (string, error) {
	fs := afs.New()
	goModURL := filepath.Join(dir, "go.mod")
	data, err := fs.DownloadWithURL(ctx, goModURL)
	if err != nil {
		return "", &ir.ErrMalformed{Reason: fmt.Sprintf("reading %s: %v", goModURL, err)}
	}
	mod, err := modfile.Parse(goModURL, data, nil)
	if err != nil || mod.Module == nil {
		return "", &ir.ErrMalformed{Reason: fmt.Sprintf("parsing %s: %v", goModURL, err)}
	}
	return mod.Module.Mod.Path, nil
}
