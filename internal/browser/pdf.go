package browser

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-readsnap/internal/fileutil"
)

// PDF page dimensions in inches (US Letter format).
const (
	paperWidthInches       = 8.5
	paperHeightInches      = 11
	marginInches           = 0.5
	marginBottomWithFooter = 0.75
)

// PDFOptions configures printing.
type PDFOptions struct {
	// Footer is printed at the bottom of each page next to the page number.
	// Empty prints no footer.
	Footer  string
	Timeout time.Duration
}

// PrintPDF loads a standalone HTML document from a temporary file and prints
// it with Chrome.
func (b *Browser) PrintPDF(ctx context.Context, document string, opts PDFOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpPath, cleanup, err := fileutil.WriteTempFile(document, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := b.rod.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.Context(ctx).PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// buildPDFOptions constructs proto.PagePrintToPDF with an optional footer.
func buildPDFOptions(opts PDFOptions) *proto.PagePrintToPDF {
	marginBottom := marginInches
	if opts.Footer != "" {
		marginBottom = marginBottomWithFooter
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	}
	if opts.Footer != "" {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = "<span></span>"
		pdfOpts.FooterTemplate = footerTemplate(opts.Footer)
	}
	return pdfOpts
}

// footerTemplate uses Chrome's pageNumber and totalPages classes.
func footerTemplate(text string) string {
	return fmt.Sprintf(`<div style="font-size: 9px; color: #888; width: 100%%; padding: 0 0.5in; display: flex; justify-content: space-between;"><span>%s</span><span><span class="pageNumber"></span>/<span class="totalPages"></span></span></div>`,
		html.EscapeString(text))
}

func floatPtr(v float64) *float64 {
	return &v
}
