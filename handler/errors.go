package handler

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"mdxserver/manager"
	"mdxserver/mdx"
)

const (
	msgContentRequired   = "mdxContent field is required in the request body."
	msgCompilationFailed = "Compilation failed"
	msgInvalidJSON       = "Bad Request: invalid JSON body"
	msgBodyTooLarge      = "Request body too large"
	msgOriginNotAllowed  = "Origin not allowed"

	codeContentRequired   = "MDX_CONTENT_REQUIRED"
	codeCompilationFailed = "MDX_COMPILATION_FAILED"
	codeCompileTimeout    = "MDX_COMPILATION_TIMEOUT"
	codeCompileCanceled   = "MDX_COMPILATION_CANCELED"
	codeQueueFull         = "MDX_QUEUE_FULL"
)

func wrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, msgContentRequired).
		WithTextCode(codeContentRequired)
}

func wrapCompileError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	code := codeCompilationFailed
	switch {
	case errors.Is(err, manager.ErrQueueFull):
		code = codeQueueFull
	case errors.Is(err, mdx.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		code = codeCompileTimeout
	case errors.Is(err, context.Canceled):
		code = codeCompileCanceled
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msgCompilationFailed).
		WithTextCode(code)
}

// errorDetails is the message handed back to the caller for a failed compile.
func errorDetails(err error) string {
	if errors.Is(err, context.Canceled) {
		return "compilation cancelled"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}
