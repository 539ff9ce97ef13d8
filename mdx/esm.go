package mdx

import (
	"bytes"
	"regexp"
)

var esmStart = regexp.MustCompile(`^(import|export)[\s{*]`)

// splitESM pulls top-level import/export blocks out of body. A block starts
// at the beginning of a paragraph and runs to the next blank line. The
// returned markdown keeps one empty line per removed line so positions stay
// stable. Fenced code is never treated as module code.
func splitESM(body []byte) (esm []byte, markdown []byte) {
	var esmBuf, mdBuf bytes.Buffer
	var fence []byte
	blockStart := true
	inESM := false

	for _, line := range bytes.SplitAfter(body, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		content := bytes.TrimRight(line, "\r\n")
		blank := len(bytes.TrimSpace(content)) == 0

		switch {
		case inESM && blank:
			inESM = false
			blockStart = true
			mdBuf.Write(line)
		case inESM:
			esmBuf.Write(content)
			esmBuf.WriteByte('\n')
			mdBuf.Write(lineEnding(line))
		case fence != nil:
			if closesFence(content, fence) {
				fence = nil
				blockStart = true
			}
			mdBuf.Write(line)
		case openingFence(content) != nil:
			fence = openingFence(content)
			mdBuf.Write(line)
		case blockStart && esmStart.Match(content):
			inESM = true
			esmBuf.Write(content)
			esmBuf.WriteByte('\n')
			mdBuf.Write(lineEnding(line))
		default:
			blockStart = blank
			mdBuf.Write(line)
		}
	}
	return esmBuf.Bytes(), mdBuf.Bytes()
}

func lineEnding(line []byte) []byte {
	if bytes.HasSuffix(line, []byte("\n")) {
		return []byte("\n")
	}
	return nil
}

// openingFence returns the fence marker (``` or ~~~, possibly longer) that
// opens a fenced code block on this line, or nil.
func openingFence(line []byte) []byte {
	trimmed := trimIndent(line)
	if trimmed == nil || len(trimmed) < 3 {
		return nil
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return nil
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return nil
	}
	if c == '`' && bytes.IndexByte(trimmed[n:], '`') >= 0 {
		return nil
	}
	return trimmed[:n]
}

func closesFence(line, fence []byte) bool {
	trimmed := trimIndent(line)
	if trimmed == nil {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == fence[0] {
		n++
	}
	return n >= len(fence) && len(bytes.TrimSpace(trimmed[n:])) == 0
}

// trimIndent strips up to three leading spaces. Deeper indentation is an
// indented code block, so nil is returned.
func trimIndent(line []byte) []byte {
	i := 0
	for i < len(line) && i < 4 && line[i] == ' ' {
		i++
	}
	if i > 3 {
		return nil
	}
	return line[i:]
}
