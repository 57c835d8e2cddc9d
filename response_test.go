package readsnap_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alnah/go-readsnap"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("locating: %w", readsnap.ErrNoContentFound), readsnap.CodeNoContent},
		{fmt.Errorf("%w: boom", readsnap.ErrExtractionFault), readsnap.CodeExtraction},
		{readsnap.ErrNilScope, readsnap.CodeNilScope},
		{fmt.Errorf("%w: bad", readsnap.ErrInvalidOptions), readsnap.CodeInvalid},
		{fmt.Errorf("%w: refused", readsnap.ErrBrowserConnect), readsnap.CodeBrowser},
		{readsnap.ErrPageLoad, readsnap.CodeBrowser},
		{fmt.Errorf("%w: 1 of 3", readsnap.ErrPartialAssetFailure), readsnap.CodePartialImages},
		{context.Canceled, readsnap.CodeCanceled},
		{context.DeadlineExceeded, readsnap.CodeTimeout},
		{readsnap.ErrTimeoutExceeded, readsnap.CodeTimeout},
		{errors.New("other"), readsnap.CodeUnknown},
	}
	for _, tt := range tests {
		if got := readsnap.ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestResponse_MarshalJSON(t *testing.T) {
	t.Parallel()

	ok, err := json.Marshal(readsnap.NewResponse(&readsnap.ExtractionResult{
		BodyMarkup: "plain body",
		Title:      "T",
		Styles:     []readsnap.StyleRecord{{Kind: readsnap.StyleInline, CSSText: "p{}", BaseURI: "https://r.test/"}},
		Scrolled:   true,
	}, nil))
	if err != nil {
		t.Fatalf("Marshal(result) error = %v", err)
	}
	for _, s := range []string{`"bodyMarkup":"plain body"`, `"kind":"inline"`, `"scrolled":true`, `"baseURI":""`} {
		if !strings.Contains(string(ok), s) {
			t.Errorf("result JSON missing %s: %s", s, ok)
		}
	}
	if strings.Contains(string(ok), `"error"`) || strings.Contains(string(ok), `"strategy"`) {
		t.Errorf("result JSON = %s", ok)
	}

	failed, err := json.Marshal(readsnap.NewResponse(nil, fmt.Errorf("outer: %w", readsnap.ErrNoContentFound)))
	if err != nil {
		t.Fatalf("Marshal(error) error = %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(failed, &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "outer: no content found" || body["code"] != readsnap.CodeNoContent {
		t.Errorf("error JSON = %s", failed)
	}
}
