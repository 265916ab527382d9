// Package errors renders failures as RFC 7807 Problem Details
// (https://www.rfc-editor.org/rfc/rfc7807) for the orderflow HTTP API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the application/problem+json body. It also satisfies error
// so handlers can return it through ordinary error paths.
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy carrying the occurrence-specific message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's
// map is never mutated.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Problem type URIs, relative to the responder's base URI.
const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeConflict     = "/problems/conflict"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeForbidden    = "/problems/forbidden"
	TypeBadRequest   = "/problems/bad-request"
	TypeUpstream     = "/problems/upstream-error"
)

func template(typ, title string, status int) ProblemDetail {
	return ProblemDetail{Type: typ, Title: title, Status: status}
}

// Templates for the order API. Handlers attach a detail with WithDetail.
var (
	ErrNotFound     = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	ErrValidation   = template(TypeValidation, "Validation Error", http.StatusBadRequest)
	ErrBadRequest   = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	ErrConflict     = template(TypeConflict, "Conflict", http.StatusConflict)
	ErrInternal     = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)
	ErrUnauthorized = template(TypeUnauthorized, "Missing Or Invalid Identity", http.StatusUnauthorized)
	ErrForbidden    = template(TypeForbidden, "Forbidden", http.StatusForbidden)
	// ErrUpstream covers blob store failures during uploads.
	ErrUpstream = template(TypeUpstream, "Upstream Failure", http.StatusBadGateway)
)

// NewValidationProblem lists field errors keyed by JSON path under "fields".
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}
