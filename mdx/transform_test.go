package mdx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustTransform(t *testing.T, source string) *document {
	t.Helper()
	doc, err := transform("test.mdx", []byte(source), nil)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	return doc
}

func TestTransformHeadingAndParagraph(t *testing.T) {
	doc := mustTransform(t, "# Hello\n\nWorld")
	module := string(doc.Module)

	for _, want := range []string{
		`<_components.h1>{"Hello"}</_components.h1>`,
		`<_components.p>{"World"}</_components.p>`,
		`h1: "h1",`,
		`p: "p",`,
		"export const frontmatter = {};",
		"export default function MDXContent(props = {})",
	} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected module to contain %q, got:\n%s", want, module)
		}
	}
	if len(doc.Frontmatter) != 0 {
		t.Fatalf("expected empty frontmatter, got %#v", doc.Frontmatter)
	}
}

func TestTransformYAMLFrontmatter(t *testing.T) {
	source := strings.Join([]string{
		"---",
		"title: Getting started",
		"tags: [intro, docs]",
		"meta:",
		"  author:",
		"    name: Ada",
		"---",
		"# Body",
	}, "\n")
	doc := mustTransform(t, source)

	if doc.Frontmatter["title"] != "Getting started" {
		t.Fatalf("unexpected title: %#v", doc.Frontmatter["title"])
	}
	meta, ok := doc.Frontmatter["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", doc.Frontmatter["meta"])
	}
	if _, ok := meta["author"].(map[string]any); !ok {
		t.Fatalf("expected nested author map, got %T", meta["author"])
	}
	if _, err := json.Marshal(doc.Frontmatter); err != nil {
		t.Fatalf("frontmatter should be JSON encodable: %v", err)
	}
	if !bytes.Contains(doc.Module, []byte(`"title":"Getting started"`)) {
		t.Fatalf("expected frontmatter export in module:\n%s", doc.Module)
	}
	if bytes.Contains(doc.Module, []byte("tags: [intro")) {
		t.Fatalf("frontmatter block leaked into the body:\n%s", doc.Module)
	}
}

func TestTransformTOMLFrontmatter(t *testing.T) {
	doc := mustTransform(t, "+++\ntitle = \"Config\"\ndraft = true\n+++\nBody")
	if doc.Frontmatter["title"] != "Config" || doc.Frontmatter["draft"] != true {
		t.Fatalf("unexpected frontmatter: %#v", doc.Frontmatter)
	}
}

func TestTransformInvalidFrontmatter(t *testing.T) {
	_, err := transform("test.mdx", []byte("---\ntitle: [unclosed\n---\nBody"), nil)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
}

func TestTransformKeepsESM(t *testing.T) {
	doc := mustTransform(t, "import Chart from './chart'\nimport {a} from './a'\n\n# Title\n\nexport const year = 2024\n")
	module := string(doc.Module)

	if !strings.HasPrefix(module, "import Chart from './chart'\nimport {a} from './a'\nexport const year = 2024\n") {
		t.Fatalf("expected ESM at the top of the module, got:\n%s", module)
	}
	if strings.Contains(module, `"import Chart`) {
		t.Fatalf("ESM rendered as text:\n%s", module)
	}
}

func TestTransformJSXBlocks(t *testing.T) {
	doc := mustTransform(t, "<Chart data={[1, 2]} />\n\nText after")
	module := string(doc.Module)

	if !strings.Contains(module, "<Chart data={[1, 2]} />") {
		t.Fatalf("expected JSX block verbatim, got:\n%s", module)
	}
	if !strings.Contains(module, `<_components.p>{"Text after"}</_components.p>`) {
		t.Fatalf("expected paragraph after JSX, got:\n%s", module)
	}
}

func TestTransformMultilineJSXWrapsMarkdown(t *testing.T) {
	doc := mustTransform(t, "<Note\n  kind=\"info\"\n>\n\nInside\n\n</Note>\n")
	module := string(doc.Module)

	open := strings.Index(module, "<Note\n  kind=\"info\"\n>")
	inner := strings.Index(module, `<_components.p>{"Inside"}</_components.p>`)
	closing := strings.Index(module, "</Note>")
	if open < 0 || inner < 0 || closing < 0 || !(open < inner && inner < closing) {
		t.Fatalf("expected Note to wrap the paragraph, got:\n%s", module)
	}
}

func TestTransformInlineExpressionsAndTags(t *testing.T) {
	doc := mustTransform(t, "Sum is {1 + 1} and <Badge color=\"red\">new</Badge> here")
	module := string(doc.Module)

	for _, want := range []string{"{1 + 1}", `<Badge color="red">`, "</Badge>"} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestTransformEscapedBraces(t *testing.T) {
	doc := mustTransform(t, "Literal \\{ brace \\}")
	if !strings.Contains(string(doc.Module), `{"Literal { brace }"}`) {
		t.Fatalf("expected escaped braces as text, got:\n%s", doc.Module)
	}
}

func TestTransformUnbalancedExpression(t *testing.T) {
	_, err := transform("test.mdx", []byte("---\ntitle: x\n---\n\nBroken { here"), nil)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	msg := ce.Messages[0]
	if msg.File != "test.mdx" || msg.Line != 5 || msg.Column != 7 {
		t.Fatalf("unexpected position %s:%d:%d", msg.File, msg.Line, msg.Column)
	}
}

func TestTransformCodeIsNotInterpreted(t *testing.T) {
	doc := mustTransform(t, "Use `{x}` and `&amp;`\n\n```js\nconst a = {b: 1}\n```\n")
	module := string(doc.Module)

	for _, want := range []string{
		`<_components.code>{"{x}"}</_components.code>`,
		`<_components.code>{"&amp;"}</_components.code>`,
		`<_components.code className={"language-js"}>{"const a = {b: 1}\n"}</_components.code>`,
	} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestTransformDropsHTMLComments(t *testing.T) {
	doc := mustTransform(t, "<!-- hidden -->\n\nVisible")
	if strings.Contains(string(doc.Module), "hidden") {
		t.Fatalf("expected comment to be dropped, got:\n%s", doc.Module)
	}
}

func TestTransformLinksListsAndEmphasis(t *testing.T) {
	doc := mustTransform(t, "3. *one* **two** [docs](https://example.com \"Docs\")\n4. ![logo](/logo.png)\n")
	module := string(doc.Module)

	for _, want := range []string{
		"<_components.ol start={3}>",
		`<_components.em>{"one"}</_components.em>`,
		`<_components.strong>{"two"}</_components.strong>`,
		`<_components.a href={"https://example.com"} title={"Docs"}>{"docs"}</_components.a>`,
		`<_components.img src={"/logo.png"} alt={"logo"} />`,
	} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestTransformGFMTable(t *testing.T) {
	exts, err := collectExtensions([]string{"gfm"})
	if err != nil {
		t.Fatalf("collectExtensions: %v", err)
	}
	doc, err := transform("test.mdx", []byte("| a | b |\n|:--|--:|\n| 1 | 2 |\n\n~~old~~\n"), exts)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	module := string(doc.Module)

	for _, want := range []string{
		"<_components.table>",
		"<_components.thead>",
		"<_components.tbody>",
		`<_components.th style={{textAlign: "left"}}>{"a"}</_components.th>`,
		`<_components.td style={{textAlign: "right"}}>{"2"}</_components.td>`,
		`<_components.del>{"old"}</_components.del>`,
	} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestCollectExtensionsRejectsUnknown(t *testing.T) {
	if _, err := collectExtensions([]string{"gfm", "mermaid"}); err == nil {
		t.Fatalf("expected unknown extension error")
	}
	exts, err := collectExtensions([]string{" GFM ", "gfm", ""})
	if err != nil {
		t.Fatalf("collectExtensions: %v", err)
	}
	if len(exts) != 1 {
		t.Fatalf("expected duplicates collapsed, got %d", len(exts))
	}
}

func TestTransformExpressionAcrossLines(t *testing.T) {
	doc := mustTransform(t, "a {\n1} b")
	module := string(doc.Module)

	for _, want := range []string{"<_components.p>", "{\n1}", `" b"`} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestTransformInlineTagAcrossLines(t *testing.T) {
	doc := mustTransform(t, "Click <Badge\n  color=\"red\">new</Badge> now")
	module := string(doc.Module)

	for _, want := range []string{"<Badge\ncolor=\"red\">", "</Badge>"} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}

func TestTransformUnclosedExpressionAcrossLines(t *testing.T) {
	_, err := transform("test.mdx", []byte("Broken {\nstill open"), nil)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if msg := ce.Messages[0]; msg.Line != 1 || msg.Column != 7 {
		t.Fatalf("unexpected position %d:%d", msg.Line, msg.Column)
	}
}

func TestTransformIndentedLinesAreNotCode(t *testing.T) {
	doc := mustTransform(t, "    text {x}\n\n    <Note />\n")
	module := string(doc.Module)

	if strings.Contains(module, "_components.pre") {
		t.Fatalf("expected no code block, got:\n%s", module)
	}
	for _, want := range []string{`<_components.p>{"text `, "{x}</_components.p>", "<Note />"} {
		if !strings.Contains(module, want) {
			t.Fatalf("expected %q in module, got:\n%s", want, module)
		}
	}
}
