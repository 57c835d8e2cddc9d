package readsnap

import (
	"context"
	"encoding/json"
	"errors"
)

// Error codes carried by a failed Response.
const (
	CodeNoContent     = "no_content"
	CodeExtraction    = "extraction_fault"
	CodeNilScope      = "nil_scope"
	CodeInvalid       = "invalid_options"
	CodeBrowser       = "browser"
	CodeCanceled      = "canceled"
	CodeTimeout       = "timeout"
	CodeUnknown       = "unknown"
	CodePartialImages = "partial_images"
)

// Response is the plain result record returned to callers across a process
// boundary: the result object on success, {"error", "code"} otherwise.
type Response struct {
	Result any
	Err    error
}

// NewResponse pairs the outcome of an entry operation.
func NewResponse(v any, err error) Response {
	return Response{Result: v, Err: err}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(errorBody{Error: r.Err.Error(), Code: ErrorCode(r.Err)})
	}
	return json.Marshal(r.Result)
}

// ErrorCode maps err to a stable code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoContentFound):
		return CodeNoContent
	case errors.Is(err, ErrNilScope), errors.Is(err, ErrNilResult):
		return CodeNilScope
	case errors.Is(err, ErrInvalidOptions), errors.Is(err, ErrInvalidSelector):
		return CodeInvalid
	case errors.Is(err, ErrBrowserConnect), errors.Is(err, ErrPageCreate),
		errors.Is(err, ErrPageLoad), errors.Is(err, ErrPDFGeneration):
		return CodeBrowser
	case errors.Is(err, ErrPartialAssetFailure):
		return CodePartialImages
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeoutExceeded):
		return CodeTimeout
	case errors.Is(err, ErrExtractionFault):
		return CodeExtraction
	}
	return CodeUnknown
}
