package handler

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CompileRequest is the JSON body of POST /api/compile-mdx.
type CompileRequest struct {
	MDXContent string `json:"mdxContent"`
	// Files maps relative module paths to source the document may import.
	Files map[string]string `json:"files,omitempty"`
}

func (r CompileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MDXContent, validation.Required),
	)
}

// CompileResponse carries the bundled module and the document's frontmatter.
type CompileResponse struct {
	Code        string         `json:"code"`
	Frontmatter map[string]any `json:"frontmatter"`
}

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
