package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// writePDF renders each line on its own row of a single A4 page. No lines
// gives a blank page, which stands in for a scan without a text layer.
func writePDF(t *testing.T, name string, lines ...string) string {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(10)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

type fakeText struct {
	text  string
	pages int
	err   error
}

func (f fakeText) ExtractText(ctx context.Context, path string, pageLimit int) (string, int, error) {
	return f.text, f.pages, f.err
}

type fakeRasterizer struct {
	pages    int
	err      error
	maxPages int
	dpi      int
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi, maxPages int) ([]image.Image, error) {
	f.dpi, f.maxPages = dpi, maxPages
	if f.err != nil {
		return nil, f.err
	}
	images := make([]image.Image, f.pages)
	for i := range images {
		images[i] = imaging.New(100, 100, color.White)
	}
	return images, nil
}

type fakeRecognizer struct {
	mu    sync.Mutex
	texts []string
	err   error
	panic bool
	calls int
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("engine crashed")
	}
	if f.err != nil {
		return "", f.err
	}
	i := f.calls
	f.calls++
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", nil
}

type fakeScanner struct {
	codes []string
}

func (f fakeScanner) Scan(img image.Image) []string { return f.codes }

// fakeReader returns canned results keyed by path.
type fakeReader struct {
	results map[string]dto.ReadResult
	panics  map[string]bool
}

func (f fakeReader) Read(ctx context.Context, path string) dto.ReadResult {
	if f.panics[path] {
		panic(errors.New("corrupt xref table"))
	}
	if res, ok := f.results[path]; ok {
		return res
	}
	return dto.ReadResult{Provenance: dto.ProvenanceFailure, Diagnostic: "not found"}
}
