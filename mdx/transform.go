package mdx

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// document is an MDX file turned into a JSX module.
type document struct {
	Module      []byte
	Frontmatter map[string]any
}

// transform converts MDX source into a JSX module exporting frontmatter and a
// default MDXContent component.
func transform(file string, source []byte, exts []goldmark.Extender) (*document, error) {
	meta, body, err := parseFrontmatter(source)
	if err != nil {
		return nil, &CompileError{Messages: []Message{{Text: err.Error(), File: file, Line: 1}}}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, &CompileError{Messages: []Message{{Text: fmt.Sprintf("frontmatter is not JSON encodable: %v", err), File: file, Line: 1}}}
	}

	esm, markdown := splitESM(body)

	md := newMarkdown(exts)
	root := md.Parser().Parse(text.NewReader(markdown))

	r := newJSXRenderer(file, markdown, lineOffset(source, body))
	if err := r.render(root); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Write(esm)
	fmt.Fprintf(&b, "export const frontmatter = %s;\n", metaJSON)
	b.WriteString("function _createMdxContent(props) {\n")
	b.WriteString("  const _components = {\n")
	for _, name := range r.componentNames() {
		fmt.Fprintf(&b, "    %s: %s,\n", name, jsString(name))
	}
	b.WriteString("    ...props.components\n  };\n")
	b.WriteString("  return <>\n")
	b.Write(r.buf.Bytes())
	b.WriteString("\n  </>;\n}\n")
	b.WriteString("export default function MDXContent(props = {}) {\n")
	b.WriteString("  const {wrapper: MDXLayout} = props.components || {};\n")
	b.WriteString("  return MDXLayout ? <MDXLayout {...props}><_createMdxContent {...props} /></MDXLayout> : _createMdxContent(props);\n")
	b.WriteString("}\n")

	return &document{
		Module:      b.Bytes(),
		Frontmatter: meta,
	}, nil
}
