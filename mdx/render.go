package mdx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"
)

// jsxRenderer writes a goldmark document as JSX children. Intrinsic markdown
// elements go through the _components map so callers can override them.
type jsxRenderer struct {
	file       string
	source     []byte
	lineOffset int

	buf        bytes.Buffer
	literal    bytes.Buffer
	components map[string]struct{}
	err        *CompileError
}

func newJSXRenderer(file string, source []byte, lineOffset int) *jsxRenderer {
	return &jsxRenderer{
		file:       file,
		source:     source,
		lineOffset: lineOffset,
		components: map[string]struct{}{},
	}
}

func (r *jsxRenderer) render(doc ast.Node) error {
	r.children(doc)
	r.flush()
	if r.err != nil {
		return r.err
	}
	return nil
}

// componentNames lists the intrinsic elements used, sorted for stable output.
func (r *jsxRenderer) componentNames() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *jsxRenderer) children(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.node(c)
	}
}

func (r *jsxRenderer) node(n ast.Node) {
	if r.err != nil {
		return
	}
	switch node := n.(type) {
	case *ast.Document:
		r.children(node)
	case *ast.Heading:
		r.element("h"+strconv.Itoa(node.Level), node)
	case *ast.Paragraph:
		r.element("p", node)
	case *ast.TextBlock:
		r.children(node)
	case *ast.ThematicBreak:
		r.void("hr")
	case *ast.Blockquote:
		r.element("blockquote", node)
	case *ast.List:
		if node.IsOrdered() {
			var attrs []string
			if node.Start != 1 {
				attrs = append(attrs, exprAttr("start", strconv.Itoa(node.Start)))
			}
			r.element("ol", node, attrs...)
		} else {
			r.element("ul", node)
		}
	case *ast.ListItem:
		r.element("li", node)
	case *ast.FencedCodeBlock:
		var attrs []string
		if lang := node.Language(r.source); len(lang) > 0 {
			attrs = append(attrs, stringAttr("className", "language-"+string(lang)))
		}
		r.codeBlock(segmentsValue(node.Lines(), r.source), attrs)
	case *ast.HTMLBlock:
		raw := segmentsValue(node.Lines(), r.source)
		if node.HasClosure() {
			raw = append(raw, node.ClosureLine.Value(r.source)...)
		}
		r.raw(raw)
	case *ast.RawHTML:
		r.raw(segmentsValue(node.Segments, r.source))
	case *ast.Text:
		if node.IsRaw() {
			r.verbatim(node.Segment.Value(r.source))
		} else {
			r.text(node.Segment.Value(r.source), node.Segment.Start)
		}
		switch {
		case node.HardLineBreak():
			r.void("br")
			r.literal.WriteByte('\n')
		case node.SoftLineBreak():
			r.literal.WriteByte('\n')
		}
	case *ast.String:
		r.verbatim(node.Value)
	case *ast.CodeSpan:
		r.open("code")
		r.verbatim(codeSpanValue(node, r.source))
		r.close("code")
	case *ast.Emphasis:
		if node.Level >= 2 {
			r.element("strong", node)
		} else {
			r.element("em", node)
		}
	case *ast.Link:
		attrs := []string{stringAttr("href", string(node.Destination))}
		if len(node.Title) > 0 {
			attrs = append(attrs, stringAttr("title", string(node.Title)))
		}
		r.element("a", node, attrs...)
	case *ast.Image:
		attrs := []string{
			stringAttr("src", string(node.Destination)),
			stringAttr("alt", plainText(node, r.source)),
		}
		if len(node.Title) > 0 {
			attrs = append(attrs, stringAttr("title", string(node.Title)))
		}
		r.void("img", attrs...)
	case *ast.AutoLink:
		url := string(node.URL(r.source))
		href := url
		if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			href = "mailto:" + url
		}
		r.open("a", stringAttr("href", href))
		r.verbatim(node.Label(r.source))
		r.close("a")
	case *east.Strikethrough:
		r.element("del", node)
	case *east.TaskCheckBox:
		attrs := []string{stringAttr("type", "checkbox"), exprAttr("disabled", "true")}
		if node.IsChecked {
			attrs = append(attrs, exprAttr("checked", "true"))
		}
		r.void("input", attrs...)
	case *east.Table:
		r.table(node)
	default:
		r.children(node)
	}
}

func (r *jsxRenderer) table(table *east.Table) {
	r.open("table")
	inBody := false
	for c := table.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *east.TableHeader:
			r.open("thead")
			r.open("tr")
			r.cells(row, "th")
			r.close("tr")
			r.close("thead")
		case *east.TableRow:
			if !inBody {
				r.open("tbody")
				inBody = true
			}
			r.open("tr")
			r.cells(row, "td")
			r.close("tr")
		}
	}
	if inBody {
		r.close("tbody")
	}
	r.close("table")
}

func (r *jsxRenderer) cells(row ast.Node, tag string) {
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			continue
		}
		var attrs []string
		if cell.Alignment != east.AlignNone {
			attrs = append(attrs, exprAttr("style", fmt.Sprintf("{textAlign: %s}", jsString(cell.Alignment.String()))))
		}
		r.element(tag, cell, attrs...)
	}
}

func (r *jsxRenderer) codeBlock(content []byte, attrs []string) {
	r.open("pre")
	r.open("code", attrs...)
	r.verbatim(content)
	r.close("code")
	r.close("pre")
}

func (r *jsxRenderer) element(name string, n ast.Node, attrs ...string) {
	r.open(name, attrs...)
	r.children(n)
	r.close(name)
}

func (r *jsxRenderer) open(name string, attrs ...string) {
	r.flush()
	r.components[name] = struct{}{}
	r.buf.WriteString("<_components.")
	r.buf.WriteString(name)
	for _, attr := range attrs {
		r.buf.WriteByte(' ')
		r.buf.WriteString(attr)
	}
	r.buf.WriteByte('>')
}

func (r *jsxRenderer) close(name string) {
	r.flush()
	r.buf.WriteString("</_components.")
	r.buf.WriteString(name)
	r.buf.WriteString(">")
	if isBlockElement(name) {
		r.buf.WriteByte('\n')
	}
}

func (r *jsxRenderer) void(name string, attrs ...string) {
	r.flush()
	r.components[name] = struct{}{}
	r.buf.WriteString("<_components.")
	r.buf.WriteString(name)
	for _, attr := range attrs {
		r.buf.WriteByte(' ')
		r.buf.WriteString(attr)
	}
	r.buf.WriteString(" />")
}

// raw writes JSX that the parsers matched verbatim. HTML comments are not
// valid JSX and are dropped.
func (r *jsxRenderer) raw(b []byte) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.HasPrefix(trimmed, []byte("<!--")) {
		return
	}
	r.flush()
	r.buf.Write(trimmed)
	if bytes.IndexByte(trimmed, '\n') >= 0 || bytes.HasSuffix(b, []byte("\n")) {
		r.buf.WriteByte('\n')
	}
}

// text appends markdown text to the pending literal, resolving backslash
// escapes and entities. A bare brace here means an expression that the
// parsers could not close.
func (r *jsxRenderer) text(b []byte, offset int) {
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\\' && i+1 < len(b) && util.IsPunct(b[i+1]):
			r.literal.WriteByte(b[i+1])
			i++
		case c == '{' || c == '}':
			line, col := r.position(offset + i)
			r.fail(line, col, fmt.Sprintf("Unexpected character `%c` in text: the expression is not balanced, escape it as `\\%c` for a literal brace", c, c))
			return
		default:
			r.literal.WriteByte(c)
		}
	}
}

// verbatim writes b as a string child without escape or entity processing.
func (r *jsxRenderer) verbatim(b []byte) {
	r.flush()
	if len(b) == 0 {
		return
	}
	r.buf.WriteByte('{')
	r.buf.WriteString(jsString(string(b)))
	r.buf.WriteByte('}')
}

func (r *jsxRenderer) flush() {
	if r.literal.Len() == 0 {
		return
	}
	value := util.ResolveNumericReferences(util.ResolveEntityNames(r.literal.Bytes()))
	r.buf.WriteByte('{')
	r.buf.WriteString(jsString(string(value)))
	r.buf.WriteByte('}')
	r.literal.Reset()
}

func (r *jsxRenderer) fail(line, col int, text string) {
	if r.err != nil {
		return
	}
	r.err = &CompileError{Messages: []Message{{
		Text:   text,
		File:   r.file,
		Line:   line,
		Column: col,
	}}}
}

// position converts a byte offset in the body into a 1-based line and 0-based
// column in the original document.
func (r *jsxRenderer) position(offset int) (int, int) {
	if offset > len(r.source) {
		offset = len(r.source)
	}
	before := r.source[:offset]
	line := bytes.Count(before, []byte("\n")) + 1 + r.lineOffset
	col := offset - (bytes.LastIndexByte(before, '\n') + 1)
	return line, col
}

func codeSpanValue(n ast.Node, source []byte) []byte {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			out = append(out, t.Segment.Value(source)...)
		case *ast.String:
			out = append(out, t.Value...)
		}
	}
	return out
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func isBlockElement(name string) bool {
	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "ul", "ol", "li", "pre", "table", "thead", "tbody", "tr":
		return true
	}
	return false
}

func stringAttr(name, value string) string {
	return name + "={" + jsString(value) + "}"
}

func exprAttr(name, expr string) string {
	return name + "={" + expr + "}"
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
