package mdx

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/yuin/goldmark"
)

const (
	globalsNamespace = "mdx-globals"
	filesNamespace   = "mdx-files"
)

var resolveExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".mdx", ".md", ".json"}

// globalsPlugin maps bare imports such as "react" onto variables the caller
// provides in scope when evaluating the bundle.
func globalsPlugin(globals map[string]string) api.Plugin {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	filter := "^(" + strings.Join(names, "|") + ")$"

	return api.Plugin{
		Name: "globals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				return api.OnResolveResult{Path: args.Path, Namespace: globalsNamespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalsNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				name, ok := globals[args.Path]
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("no global configured for %q", args.Path)
				}
				contents := fmt.Sprintf("module.exports = %s;", name)
				return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
			})
		},
	}
}

// fileSet holds the in-memory modules a request may import, keyed by clean
// relative path ("components/chart.jsx").
type fileSet map[string]string

func newFileSet(files map[string]string) fileSet {
	set := make(fileSet, len(files))
	for name, contents := range files {
		set[cleanModulePath(name)] = contents
	}
	return set
}

func cleanModulePath(name string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
}

// lookup resolves an import path the way a bundler would: exact match, then
// known extensions, then an index file in the directory.
func (s fileSet) lookup(name string) (string, bool) {
	name = cleanModulePath(name)
	if _, ok := s[name]; ok {
		return name, true
	}
	for _, ext := range resolveExtensions {
		if _, ok := s[name+ext]; ok {
			return name + ext, true
		}
	}
	for _, ext := range resolveExtensions {
		candidate := path.Join(name, "index"+ext)
		if _, ok := s[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// filesPlugin serves relative imports from the request's files. Paths it does
// not know fall through to esbuild's own resolver, which reports them as
// unresolvable unless they exist under the resolve directory.
func filesPlugin(files fileSet, exts []goldmark.Extender, resolveDir string) api.Plugin {
	return api.Plugin{
		Name: "files",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^\.\.?(/|$)`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				base := "."
				if args.Namespace == filesNamespace {
					base = path.Dir(args.Importer)
				}
				resolved, ok := files.lookup(path.Join(base, args.Path))
				if !ok {
					return api.OnResolveResult{}, nil
				}
				return api.OnResolveResult{Path: resolved, Namespace: filesNamespace}, nil
			})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: filesNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents, ok := files[args.Path]
				if !ok {
					return api.OnLoadResult{}, fmt.Errorf("file %q not found", args.Path)
				}
				loader, err := loaderFor(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				if loader == api.LoaderJSX && isMarkdownFile(args.Path) {
					doc, err := transform(args.Path, []byte(contents), exts)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents = string(doc.Module)
				}
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     loader,
					ResolveDir: resolveDir,
				}, nil
			})
		},
	}
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".mdx", ".md":
		return true
	}
	return false
}

func loaderFor(name string) (api.Loader, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".js", ".mjs", ".cjs", ".jsx", ".mdx", ".md":
		return api.LoaderJSX, nil
	case ".ts", ".mts", ".cts":
		return api.LoaderTS, nil
	case ".tsx":
		return api.LoaderTSX, nil
	case ".json":
		return api.LoaderJSON, nil
	default:
		return api.LoaderNone, fmt.Errorf("unsupported file type %q for %s", ext, name)
	}
}
