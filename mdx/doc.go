// Package mdx compiles MDX documents into a single loadable module.
//
// A document goes through four stages: frontmatter extraction, splitting of
// top-level import/export statements, markdown to JSX rendering with goldmark,
// and bundling with esbuild. The bundled output follows the mdx-bundler
// contract: an IIFE assigned to Component followed by "return Component;",
// meant to be evaluated with React, ReactDOM and _jsx_runtime in scope.
package mdx
