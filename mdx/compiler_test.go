package mdx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/evanw/esbuild/pkg/api"
)

func newTestCompiler(t *testing.T, opts Options) *Compiler {
	t.Helper()
	if opts.ResolveDir == "" {
		opts.ResolveDir = t.TempDir()
	}
	c, err := NewCompiler(opts)
	if err != nil {
		t.Fatalf("NewCompiler: %v", err)
	}
	return c
}

func TestCompileMarkdown(t *testing.T) {
	c := newTestCompiler(t, Options{})

	res, err := c.Compile(context.Background(), Source{Content: "# Hello\n\nWorld"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, want := range []string{"var Component", `"Hello"`, `"World"`} {
		if !strings.Contains(res.Code, want) {
			t.Fatalf("expected code to contain %q, got:\n%s", want, res.Code)
		}
	}
	if !strings.HasSuffix(res.Code, ";return Component;") {
		t.Fatalf("expected code to end with the component return, got:\n%s", res.Code)
	}
	if res.Frontmatter == nil || len(res.Frontmatter) != 0 {
		t.Fatalf("expected empty non-nil frontmatter, got %#v", res.Frontmatter)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	c := newTestCompiler(t, Options{})
	src := Source{Content: "---\ntitle: Same\n---\n# Same input\n\n<Box>twice</Box>\n\nexport function Box(props) { return <div>{props.children}</div> }\n"}

	first, err := c.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := c.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if first.Code != second.Code {
		t.Fatalf("expected identical output for identical input")
	}
	if first.Frontmatter["title"] != "Same" || second.Frontmatter["title"] != "Same" {
		t.Fatalf("unexpected frontmatter: %#v / %#v", first.Frontmatter, second.Frontmatter)
	}
}

func TestCompileMissingImport(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), Source{Content: "import {Nope} from './missing'"})
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if !strings.Contains(ce.Error(), `Could not resolve "./missing"`) {
		t.Fatalf("unexpected error text: %s", ce.Error())
	}
	if ce.Messages[0].File == "" {
		t.Fatalf("expected a file location in %#v", ce.Messages[0])
	}
}

func TestCompileSanitizedErrors(t *testing.T) {
	c := newTestCompiler(t, Options{SanitizeErrors: true})

	_, err := c.Compile(context.Background(), Source{Content: "import {Nope} from './missing'"})
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	for _, m := range ce.Messages {
		if m.File != "" || m.Line != 0 {
			t.Fatalf("expected locations stripped, got %#v", m)
		}
	}
	if !strings.Contains(ce.Error(), "Could not resolve") {
		t.Fatalf("expected message text kept, got %s", ce.Error())
	}
}

func TestCompileSyntaxError(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), Source{Content: "<Open>\n\nnever closed"})
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Error() == "" {
		t.Fatalf("expected non-empty details")
	}
}

func TestCompileWithFiles(t *testing.T) {
	c := newTestCompiler(t, Options{})

	res, err := c.Compile(context.Background(), Source{
		Content: "import Chart from './components/Chart'\nimport Intro from './intro.mdx'\n\n<Intro />\n\n<Chart />\n",
		Files: map[string]string{
			"./components/Chart.jsx": "import {label} from '../labels'\nexport default function Chart() { return <figure>{label}</figure> }\n",
			"labels.ts":              "export const label: string = 'chart-label'\n",
			"intro.mdx":              "## Intro section\n",
		},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, want := range []string{"chart-label", "Intro section"} {
		if !strings.Contains(res.Code, want) {
			t.Fatalf("expected %q in bundled code, got:\n%s", want, res.Code)
		}
	}
}

func TestCompileNestedMDXErrorNamesFile(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), Source{
		Content: "import Part from './part.mdx'\n\n<Part />\n",
		Files:   map[string]string{"part.mdx": "broken { brace"},
	})
	if err == nil || !strings.Contains(err.Error(), "part.mdx") {
		t.Fatalf("expected error mentioning part.mdx, got %v", err)
	}
}

func TestCompileGlobalsAreNotBundled(t *testing.T) {
	c := newTestCompiler(t, Options{})

	res, err := c.Compile(context.Background(), Source{Content: "import {useState} from 'react'\n\nexport const Counter = () => { useState(0); return null }\n\n# Counter\n"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, want := range []string{"module.exports = React", "module.exports = _jsx_runtime"} {
		if !strings.Contains(res.Code, want) {
			t.Fatalf("expected %q in code, got:\n%s", want, res.Code)
		}
	}
}

func TestCompileMinify(t *testing.T) {
	plain := newTestCompiler(t, Options{})
	minified := newTestCompiler(t, Options{Minify: true})
	src := Source{Content: "# Title\n\nSome paragraph text that is long enough.\n"}

	a, err := plain.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b, err := minified.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(b.Code) >= len(a.Code) {
		t.Fatalf("expected minified output to be shorter (%d >= %d)", len(b.Code), len(a.Code))
	}
}

func TestCompileCancelledContext(t *testing.T) {
	c := newTestCompiler(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Compile(ctx, Source{Content: "# Hi"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// slowModule serves the bare import "slow-module" after delay.
func slowModule(delay time.Duration) api.Plugin {
	return api.Plugin{
		Name: "slow-module",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^slow-module$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: "slow"}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "slow"},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					time.Sleep(delay)
					contents := "export default 1"
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

const slowDocument = "import slow from 'slow-module'\n\nValue {slow}"

func TestCompileTimeout(t *testing.T) {
	c := newTestCompiler(t, Options{Timeout: 20 * time.Millisecond})
	c.plugins = []api.Plugin{slowModule(500 * time.Millisecond)}

	_, err := c.Compile(context.Background(), Source{Content: slowDocument})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 20ms") {
		t.Fatalf("expected timeout duration in error, got %q", err.Error())
	}
}

func TestCompileCancelledDuringBuild(t *testing.T) {
	c := newTestCompiler(t, Options{Timeout: 10 * time.Second})
	c.plugins = []api.Plugin{slowModule(500 * time.Millisecond)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Compile(ctx, Source{Content: slowDocument})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestCompileSlowModuleWithinTimeout(t *testing.T) {
	c := newTestCompiler(t, Options{Timeout: 10 * time.Second})
	c.plugins = []api.Plugin{slowModule(10 * time.Millisecond)}

	res, err := c.Compile(context.Background(), Source{Content: slowDocument})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasSuffix(res.Code, ";return Component;") {
		t.Fatalf("unexpected code tail: %q", res.Code)
	}
}

func TestNewCompilerValidation(t *testing.T) {
	if _, err := NewCompiler(Options{Extensions: []string{"nope"}}); err == nil {
		t.Fatalf("expected unknown extension error")
	}
	if _, err := NewCompiler(Options{Globals: map[string]string{"react": "not valid"}}); err == nil {
		t.Fatalf("expected invalid global error")
	}

	c, err := NewCompiler(Options{})
	if err != nil {
		t.Fatalf("NewCompiler: %v", err)
	}
	if c.opts.ResolveDir == "" || c.opts.Timeout != 30*time.Second || c.opts.Globals["react"] != "React" {
		t.Fatalf("expected defaults to be filled in, got %#v", c.opts)
	}
}

func TestFileSetLookup(t *testing.T) {
	files := newFileSet(map[string]string{
		"./a.js":          "",
		"lib/index.ts":    "",
		"docs\\guide.mdx": "",
	})

	cases := map[string]string{
		"a":          "a.js",
		"./a.js":     "a.js",
		"lib":        "lib/index.ts",
		"docs/guide": "docs/guide.mdx",
	}
	for input, want := range cases {
		got, ok := files.lookup(input)
		if !ok || got != want {
			t.Fatalf("lookup(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}
	if _, ok := files.lookup("missing"); ok {
		t.Fatalf("expected missing lookup to fail")
	}
}
