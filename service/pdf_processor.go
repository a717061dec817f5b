package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// TextExtractor pulls the embedded text layer out of a PDF.
type TextExtractor interface {
	// ExtractText returns the text of the first pageLimit pages (0 = all)
	// and the number of pages in the document.
	ExtractText(ctx context.Context, path string, pageLimit int) (string, int, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() TextExtractor {
	return &pdfProcessor{}
}

func (p *pdfProcessor) ExtractText(ctx context.Context, path string, pageLimit int) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	totalPage := r.NumPage()
	last := totalPage
	if pageLimit > 0 && pageLimit < last {
		last = pageLimit
	}

	var textBuilder strings.Builder
	for pageIndex := 1; pageIndex <= last; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return "", totalPage, err
		}
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		writePageText(&textBuilder, page.Content().Text)
	}
	return textBuilder.String(), totalPage, nil
}

// writePageText lays glyphs out in reading order: a new line when the
// baseline moves, a space when the horizontal gap is wider than a glyph
// spacing would be.
func writePageText(sb *strings.Builder, texts []pdf.Text) {
	if len(texts) == 0 {
		return
	}
	prev := texts[0]
	sb.WriteString(prev.S)
	for _, t := range texts[1:] {
		switch {
		case math.Abs(t.Y-prev.Y) > lineTolerance(prev):
			sb.WriteString("\n")
		case prev.W > 0 && t.X-(prev.X+prev.W) > prev.FontSize*0.25 && !endsWithSpace(sb) && t.S != " ":
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		prev = t
	}
	sb.WriteString("\n")
}

func lineTolerance(t pdf.Text) float64 {
	if tol := t.FontSize * 0.5; tol > 1 {
		return tol
	}
	return 1
}

func endsWithSpace(sb *strings.Builder) bool {
	s := sb.String()
	return s != "" && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n')
}

// PageCount reads the page count with pdfcpu, which tolerates files the
// text extractor rejects.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}
