package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Aashish23092/pdf-reconciliation/config"
	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/rs/zerolog"
)

// Rasterizer renders the first maxPages pages of a PDF (0 = all).
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error)
}

// Recognizer turns a page image into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// CodeScanner decodes barcodes and QR codes printed on a page.
type CodeScanner interface {
	Scan(img image.Image) []string
}

type ReaderOptions struct {
	MinTextChars  int
	TextPageLimit int
	OCRPageLimit  int
	OCRDPI        int
	ScanCodes     bool
}

func ReaderOptionsFromConfig(cfg *config.Config) ReaderOptions {
	return ReaderOptions{
		MinTextChars:  cfg.MinTextChars,
		TextPageLimit: cfg.TextPageLimit,
		OCRPageLimit:  cfg.OCRPageLimit,
		OCRDPI:        cfg.OCRDPI,
		ScanCodes:     cfg.PaymentCodes,
	}
}

// DocumentReader gets the text of a PDF, from its text layer when there is
// one and through recognition of the rendered pages otherwise.
type DocumentReader struct {
	text       TextExtractor
	rasterizer Rasterizer
	recognizer Recognizer
	scanner    CodeScanner
	opts       ReaderOptions
	log        zerolog.Logger
}

// NewDocumentReader builds a reader. recognizer, rasterizer and scanner may
// be nil; without a recognizer only digital text is read.
func NewDocumentReader(
	text TextExtractor,
	rasterizer Rasterizer,
	recognizer Recognizer,
	scanner CodeScanner,
	opts ReaderOptions,
	log zerolog.Logger,
) *DocumentReader {
	if opts.OCRDPI <= 0 {
		opts.OCRDPI = 300
	}
	return &DocumentReader{
		text:       text,
		rasterizer: rasterizer,
		recognizer: recognizer,
		scanner:    scanner,
		opts:       opts,
		log:        log.With().Str("component", "reader").Logger(),
	}
}

// CanRecognize reports whether scanned documents can be read.
func (r *DocumentReader) CanRecognize() bool {
	return r.recognizer != nil && r.rasterizer != nil
}

// Read never fails: problems are reported as a Failure result.
func (r *DocumentReader) Read(ctx context.Context, path string) (res dto.ReadResult) {
	log := r.log.With().Str("file", filepath.Base(path)).Logger()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("reader panicked")
			res = failure(fmt.Errorf("panic: %v", p), res.Pages)
		}
	}()

	if err := ctx.Err(); err != nil {
		return failure(err, 0)
	}

	text, pages, err := r.text.ExtractText(ctx, path, r.opts.TextPageLimit)
	if err != nil {
		if ctx.Err() != nil {
			return failure(ctx.Err(), pages)
		}
		n, countErr := PageCount(path)
		if countErr != nil {
			log.Warn().Err(err).Msg("unreadable pdf")
			return failure(err, 0)
		}
		log.Debug().Err(err).Msg("text layer unreadable, trying recognition")
		text, pages = "", n
	}
	if pages == 0 {
		return failure(dto.ErrNoPages, 0)
	}

	if n := nonSpaceLen(text); n > r.opts.MinTextChars {
		log.Debug().Int("chars", n).Int("pages", pages).Msg("digital text found")
		return dto.ReadResult{Text: text, Provenance: dto.ProvenanceDigitalText, Pages: pages}
	}

	if !r.CanRecognize() {
		log.Debug().Msg("no text layer and recognition is not configured")
		return failure(dto.ErrRecognitionUnavailable, pages)
	}

	images, err := r.rasterizer.Rasterize(ctx, path, r.opts.OCRDPI, r.opts.OCRPageLimit)
	if err != nil {
		log.Warn().Err(err).Msg("rasterization failed")
		return failure(fmt.Errorf("rasterize: %w", err), pages)
	}

	var codes []string
	var sb strings.Builder
	for i, img := range images {
		if r.opts.ScanCodes && r.scanner != nil {
			codes = append(codes, r.scanner.Scan(img)...)
		}
		pageText, err := r.recognizer.Recognize(ctx, img)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Str("engine", r.recognizer.Name()).Msg("recognition failed")
			return failure(fmt.Errorf("%s: %w", r.recognizer.Name(), err), pages)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		log.Debug().Int("pages", len(images)).Msg("recognition produced no text")
		return failure(dto.ErrNoTextRecognized, pages)
	}

	log.Debug().Int("pages", len(images)).Int("codes", len(codes)).Str("engine", r.recognizer.Name()).Msg("pages recognized")
	return dto.ReadResult{
		Text:       sb.String(),
		Provenance: dto.ProvenanceRecognizedImage,
		Pages:      pages,
		Codes:      codes,
	}
}

func failure(err error, pages int) dto.ReadResult {
	diag := err.Error()
	if errors.Is(err, context.Canceled) {
		diag = "cancelled"
	}
	return dto.ReadResult{
		Provenance: dto.ProvenanceFailure,
		Diagnostic: diag,
		Pages:      pages,
	}
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
