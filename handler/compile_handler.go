package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"mdxserver/mdx"
)

const previewLength = 120

// Compiler turns an MDX document into a bundled module.
type Compiler interface {
	Compile(ctx context.Context, src mdx.Source) (*mdx.Result, error)
}

// Limiter bounds how many compiles run at once.
type Limiter interface {
	Acquire(ctx context.Context) (func(), error)
}

// CompileHandler serves POST /api/compile-mdx.
type CompileHandler struct {
	Compiler  Compiler
	Limiter   Limiter
	BodyLimit int64
}

// NewCompileHandler creates a new instance of CompileHandler. A nil limiter
// lets every request compile immediately.
func NewCompileHandler(c Compiler, l Limiter, bodyLimit int64) *CompileHandler {
	return &CompileHandler{
		Compiler:  c,
		Limiter:   l,
		BodyLimit: bodyLimit,
	}
}

func (h *CompileHandler) ServeHTTP(w http.ResponseWriter, callingRequest *http.Request) {
	ctx := callingRequest.Context()

	var payload CompileRequest
	if err := h.decode(w, callingRequest, &payload); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			logAndReturnError(w, callingRequest, http.StatusRequestEntityTooLarge, ErrorResponse{Error: msgBodyTooLarge}, err)
		case errors.Is(err, io.EOF):
			// An empty body carries no mdxContent.
			respondError(w, callingRequest, wrapValidationError(err), "")
		default:
			logAndReturnError(w, callingRequest, http.StatusBadRequest, ErrorResponse{Error: msgInvalidJSON}, err)
		}
		return
	}

	if err := payload.Validate(); err != nil {
		respondError(w, callingRequest, wrapValidationError(err), "")
		return
	}

	entry := log.WithField("request_id", requestID(ctx))
	entry.Infof("Received MDX content for compilation (%d characters)", utf8.RuneCountInString(payload.MDXContent))

	if h.Limiter != nil {
		release, err := h.Limiter.Acquire(ctx)
		if err != nil {
			respondError(w, callingRequest, wrapCompileError(err), errorDetails(err))
			return
		}
		defer release()
	}

	res, err := h.Compiler.Compile(ctx, mdx.Source{
		Content: payload.MDXContent,
		Files:   payload.Files,
	})
	if err != nil {
		respondError(w, callingRequest, wrapCompileError(err), errorDetails(err))
		return
	}

	frontmatter := res.Frontmatter
	if frontmatter == nil {
		frontmatter = map[string]any{}
	}

	entry.WithFields(logrus.Fields{
		"frontmatter": frontmatter,
		"code":        preview(res.Code),
	}).Info("MDX compiled successfully")

	writeJSON(w, http.StatusOK, CompileResponse{
		Code:        res.Code,
		Frontmatter: frontmatter,
	})
}

func (h *CompileHandler) decode(w http.ResponseWriter, req *http.Request, v any) error {
	body := req.Body
	if h.BodyLimit > 0 {
		body = http.MaxBytesReader(w, req.Body, h.BodyLimit)
	}
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Reject trailing data after the object.
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func preview(code string) string {
	if utf8.RuneCountInString(code) <= previewLength {
		return code
	}
	return string([]rune(code)[:previewLength]) + "..."
}
