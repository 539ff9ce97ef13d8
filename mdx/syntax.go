package mdx

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type scanStatus int

const (
	scanInvalid scanStatus = iota
	scanIncomplete
	scanComplete
)

// scanFlow reports whether b holds nothing but JSX tags, {expressions} and
// whitespace. scanIncomplete means the input stops inside a tag or expression.
func scanFlow(b []byte) scanStatus {
	i := 0
	for {
		i = skipSpace(b, i)
		if i >= len(b) {
			return scanComplete
		}
		var (
			end    int
			status scanStatus
		)
		switch b[i] {
		case '<':
			end, status = scanTag(b[i:])
		case '{':
			end, status = scanBraces(b[i:])
		default:
			return scanInvalid
		}
		if status != scanComplete {
			return status
		}
		i += end
	}
}

// scanTag matches one JSX opening, closing, self-closing or fragment tag at
// the start of b and returns its length.
func scanTag(b []byte) (int, scanStatus) {
	if len(b) < 2 || b[0] != '<' {
		return 0, scanInvalid
	}
	i := 1
	closing := false
	if b[i] == '/' {
		closing = true
		i++
	}
	if i >= len(b) {
		return 0, scanIncomplete
	}
	if b[i] == '>' {
		return i + 1, scanComplete
	}
	if !isNameStart(b[i]) {
		return 0, scanInvalid
	}
	for i < len(b) && isNameChar(b[i]) {
		i++
	}

	for {
		i = skipSpace(b, i)
		if i >= len(b) {
			return 0, scanIncomplete
		}
		c := b[i]
		switch {
		case c == '>':
			return i + 1, scanComplete
		case closing:
			return 0, scanInvalid
		case c == '/':
			if i+1 >= len(b) {
				return 0, scanIncomplete
			}
			if b[i+1] != '>' {
				return 0, scanInvalid
			}
			return i + 2, scanComplete
		case c == '{':
			end, status := scanBraces(b[i:])
			if status != scanComplete {
				return 0, status
			}
			i += end
		case isNameStart(c):
			for i < len(b) && isAttrChar(b[i]) {
				i++
			}
			j := skipSpace(b, i)
			if j >= len(b) {
				return 0, scanIncomplete
			}
			if b[j] != '=' {
				continue
			}
			j = skipSpace(b, j+1)
			if j >= len(b) {
				return 0, scanIncomplete
			}
			switch b[j] {
			case '"', '\'':
				end := indexByteFrom(b, j+1, b[j])
				if end < 0 {
					return 0, scanIncomplete
				}
				i = end + 1
			case '{':
				end, status := scanBraces(b[j:])
				if status != scanComplete {
					return 0, status
				}
				i = j + end
			default:
				return 0, scanInvalid
			}
		default:
			return 0, scanInvalid
		}
	}
}

// scanBraces matches a balanced {...} expression at the start of b. String
// literals and comments inside the expression may contain braces.
func scanBraces(b []byte) (int, scanStatus) {
	if len(b) == 0 || b[0] != '{' {
		return 0, scanInvalid
	}
	depth := 0
	for i := 0; i < len(b); i++ {
		switch c := b[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, scanComplete
			}
		case '"', '\'', '`':
			end := skipString(b, i)
			if end < 0 {
				return 0, scanIncomplete
			}
			i = end
		case '/':
			if i+1 < len(b) && b[i+1] == '*' {
				end := indexFrom(b, i+2, "*/")
				if end < 0 {
					return 0, scanIncomplete
				}
				i = end + 1
			} else if i+1 < len(b) && b[i+1] == '/' {
				end := indexByteFrom(b, i+2, '\n')
				if end < 0 {
					return 0, scanIncomplete
				}
				i = end
			}
		}
	}
	return 0, scanIncomplete
}

// skipString returns the index of the quote closing the literal opened at b[start].
func skipString(b []byte, start int) int {
	quote := b[start]
	for i := start + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case quote:
			return i
		case '\n':
			if quote != '`' {
				return -1
			}
		}
	}
	return -1
}

func skipSpace(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}

func indexByteFrom(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

func indexFrom(b []byte, from int, s string) int {
	for i := from; i+len(s) <= len(b); i++ {
		if string(b[i:i+len(s)]) == s {
			return i
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '.' || c == ':' || c == '-'
}

func isAttrChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == ':' || c == '-'
}

// jsxBlockParser claims lines that consist only of JSX tags and expressions.
// The block stays open while a tag or expression spans several lines. Its
// content is emitted verbatim.
type jsxBlockParser struct{}

func (b *jsxBlockParser) Trigger() []byte {
	return []byte{'<', '{'}
}

func (b *jsxBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) {
		return nil, parser.NoChildren
	}
	rest := line[pos:]
	if rest[0] != '<' && rest[0] != '{' {
		return nil, parser.NoChildren
	}
	if len(rest) > 1 && rest[0] == '<' && rest[1] == '!' {
		return nil, parser.NoChildren
	}
	if scanFlow(rest) == scanInvalid {
		return nil, parser.NoChildren
	}
	node := ast.NewHTMLBlock(ast.HTMLBlockType7)
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - util.TrimRightSpaceLength(line))
	return node, parser.NoChildren
}

func (b *jsxBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	if scanFlow(segmentsValue(node.Lines(), reader.Source())) != scanIncomplete {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - util.TrimRightSpaceLength(line))
	return parser.Continue | parser.NoChildren
}

func (b *jsxBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *jsxBlockParser) CanInterruptParagraph() bool {
	return true
}

func (b *jsxBlockParser) CanAcceptIndentedLine() bool {
	return true
}

// jsxInlineParser turns a complete tag or expression inside a paragraph into
// a raw node. A tag or expression may continue on the paragraph's following
// lines; each line becomes one segment of the node.
type jsxInlineParser struct{}

func (p *jsxInlineParser) Trigger() []byte {
	return []byte{'<', '{'}
}

func (p *jsxInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if len(line) == 0 {
		return nil
	}
	var scan func([]byte) (int, scanStatus)
	switch line[0] {
	case '<':
		scan = scanTag
	case '{':
		scan = scanBraces
	default:
		return nil
	}

	savedLine, savedSegment := block.Position()
	node := ast.NewRawHTML()
	var consumed []byte
	for line != nil {
		joined := append(consumed[:len(consumed):len(consumed)], line...)
		n, status := scan(joined)
		switch status {
		case scanComplete:
			end := n - len(consumed)
			node.Segments.Append(segment.WithStop(segment.Start + end))
			block.Advance(end)
			return node
		case scanInvalid:
			block.SetPosition(savedLine, savedSegment)
			return nil
		}
		node.Segments.Append(segment)
		consumed = joined
		block.AdvanceLine()
		line, segment = block.PeekLine()
	}
	block.SetPosition(savedLine, savedSegment)
	return nil
}

func segmentsValue(lines *text.Segments, source []byte) []byte {
	var out []byte
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}
