package mdx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrTimeout is returned when a build outlives the configured timeout.
var ErrTimeout = errors.New("compilation timed out")

// Message is a single diagnostic produced while compiling.
type Message struct {
	Text   string
	File   string
	Line   int
	Column int
}

func (m Message) String() string {
	if m.File == "" || m.Line == 0 {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// CompileError reports why a document could not be compiled.
type CompileError struct {
	Messages []Message
}

func (e *CompileError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		parts = append(parts, m.String())
	}
	if len(parts) == 0 {
		return "compilation failed"
	}
	return strings.Join(parts, "\n")
}

// Sanitized returns a copy without file locations.
func (e *CompileError) Sanitized() *CompileError {
	out := &CompileError{Messages: make([]Message, len(e.Messages))}
	for i, m := range e.Messages {
		out.Messages[i] = Message{Text: m.Text}
	}
	return out
}

func newCompileError(format string, args ...any) *CompileError {
	return &CompileError{Messages: []Message{{Text: fmt.Sprintf(format, args...)}}}
}

func fromBuildMessages(msgs []api.Message) *CompileError {
	out := &CompileError{Messages: make([]Message, 0, len(msgs))}
	for _, msg := range msgs {
		text := msg.Text
		if msg.PluginName != "" {
			text = fmt.Sprintf("[plugin %s] %s", msg.PluginName, text)
		}
		m := Message{Text: text}
		if msg.Location != nil {
			m.File = msg.Location.File
			m.Line = msg.Location.Line
			m.Column = msg.Location.Column
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}
