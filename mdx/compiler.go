package mdx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/yuin/goldmark"
)

const entryFile = "_mdx_bundler_entry_point.mdx"

var globalIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// Options configures a Compiler. They are fixed for the compiler's lifetime.
type Options struct {
	// ResolveDir is where bare and relative imports not found in Source.Files
	// are looked up. Defaults to the working directory.
	ResolveDir string
	// Globals maps import paths to variables provided when the bundle is
	// evaluated. Defaults to DefaultGlobals.
	Globals        map[string]string
	Minify         bool
	SanitizeErrors bool
	// Extensions names goldmark extensions: gfm, table, strikethrough, linkify, tasklist.
	Extensions []string
	Timeout    time.Duration
}

// DefaultGlobals are the variables a client provides when evaluating the bundle.
var DefaultGlobals = map[string]string{
	"react":             "React",
	"react-dom":         "ReactDOM",
	"react/jsx-runtime": "_jsx_runtime",
}

// Source is a document to compile plus the modules it may import.
type Source struct {
	Content string
	Files   map[string]string
}

// Result is the compiled module and the document's frontmatter.
type Result struct {
	Code        string         `json:"code"`
	Frontmatter map[string]any `json:"frontmatter"`
}

// Compiler turns MDX into a bundled module. It keeps no per-call state and is
// safe for concurrent use.
type Compiler struct {
	opts       Options
	extensions []goldmark.Extender
	// plugins run after the built-in ones.
	plugins []api.Plugin
}

func NewCompiler(opts Options) (*Compiler, error) {
	exts, err := collectExtensions(opts.Extensions)
	if err != nil {
		return nil, err
	}
	if opts.ResolveDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve dir: %w", err)
		}
		opts.ResolveDir = wd
	}
	if opts.Globals == nil {
		opts.Globals = DefaultGlobals
	}
	for name, global := range opts.Globals {
		if !globalIdentifier.MatchString(global) {
			return nil, fmt.Errorf("global for %q is not a valid identifier: %q", name, global)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Compiler{opts: opts, extensions: exts}, nil
}

// Compile bundles src. Failures caused by the document are returned as
// *CompileError; a timeout wraps ErrTimeout.
func (c *Compiler) Compile(ctx context.Context, src Source) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic while compiling MDX: %v", r)
			res, err = nil, newCompileError("internal compiler error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := transform(entryFile, []byte(src.Content), c.extensions)
	if err != nil {
		return nil, c.shape(err)
	}

	start := time.Now()
	result, err := c.build(ctx, string(doc.Module), newFileSet(src.Files))
	if err != nil {
		return nil, c.shape(err)
	}
	log.Debugf("esbuild finished in %s (%d warnings)", time.Since(start), len(result.Warnings))

	if len(result.OutputFiles) == 0 {
		return nil, newCompileError("bundler produced no output")
	}
	return &Result{
		Code:        string(result.OutputFiles[0].Contents) + ";return Component;",
		Frontmatter: doc.Frontmatter,
	}, nil
}

// build runs esbuild on the generated entry module, cancelling it when ctx
// ends or the timeout passes.
func (c *Compiler) build(ctx context.Context, entry string, files fileSet) (api.BuildResult, error) {
	plugins := []api.Plugin{filesPlugin(files, c.extensions, c.opts.ResolveDir)}
	if len(c.opts.Globals) > 0 {
		plugins = append([]api.Plugin{globalsPlugin(c.opts.Globals)}, plugins...)
	}
	plugins = append(plugins, c.plugins...)

	bctx, ctxErr := api.Context(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entry,
			Sourcefile: entryFile,
			ResolveDir: c.opts.ResolveDir,
			Loader:     api.LoaderJSX,
		},
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		GlobalName:        "Component",
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Charset:           api.CharsetUTF8,
		JSX:               api.JSXAutomatic,
		JSXImportSource:   "react",
		MinifyWhitespace:  c.opts.Minify,
		MinifyIdentifiers: c.opts.Minify,
		MinifySyntax:      c.opts.Minify,
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
		Loader: map[string]api.Loader{
			".js": api.LoaderJSX,
		},
		Plugins:  plugins,
		LogLevel: api.LogLevelSilent,
	})
	if ctxErr != nil {
		return api.BuildResult{}, fromBuildMessages(ctxErr.Errors)
	}
	defer bctx.Dispose()

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	done := make(chan api.BuildResult, 1)
	go func() {
		done <- bctx.Rebuild()
	}()

	select {
	case result := <-done:
		if len(result.Errors) > 0 {
			return result, fromBuildMessages(result.Errors)
		}
		return result, nil
	case <-timer.C:
		bctx.Cancel()
		<-done
		return api.BuildResult{}, fmt.Errorf("%w after %s", ErrTimeout, c.opts.Timeout)
	case <-ctx.Done():
		bctx.Cancel()
		<-done
		return api.BuildResult{}, ctx.Err()
	}
}

func (c *Compiler) shape(err error) error {
	var ce *CompileError
	if c.opts.SanitizeErrors && errors.As(err, &ce) {
		return ce.Sanitized()
	}
	return err
}
