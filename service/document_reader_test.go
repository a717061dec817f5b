package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/Aashish23092/pdf-reconciliation/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var digitalInvoice = strings.Join([]string{
	"PRESTACAO DE SERVICOS DE CONSULTORIA",
	"Cliente: Mercado Central Ltda",
	"Competencia: 03/2025",
	"Valor Total: R$ 1.234,56",
}, "\n")

func TestReadDigitalText(t *testing.T) {
	rec := &fakeRecognizer{}
	r := NewDocumentReader(fakeText{text: digitalInvoice, pages: 1}, &fakeRasterizer{pages: 1}, rec, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "invoice.pdf")

	assert.Equal(t, dto.ProvenanceDigitalText, res.Provenance)
	assert.Equal(t, digitalInvoice, res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Zero(t, rec.calls, "recognition must not run when a text layer exists")
}

func TestReadShortTextFallsBackToRecognition(t *testing.T) {
	raster := &fakeRasterizer{pages: 2}
	rec := &fakeRecognizer{texts: []string{"NOTA FISCAL", "TOTAL = R$ 980,00"}}
	r := NewDocumentReader(fakeText{text: "  pagina 1 \n\n ", pages: 2}, raster, rec, nil,
		ReaderOptions{MinTextChars: 50, OCRPageLimit: 0, OCRDPI: 300}, zerolog.Nop())

	res := r.Read(context.Background(), "scan.pdf")

	assert.Equal(t, dto.ProvenanceRecognizedImage, res.Provenance)
	assert.Equal(t, "NOTA FISCAL\nTOTAL = R$ 980,00\n", res.Text)
	assert.Equal(t, 300, raster.dpi)
	assert.Equal(t, 0, raster.maxPages)
	assert.Equal(t, 2, rec.calls)
}

func TestReadThresholdCountsNonWhitespace(t *testing.T) {
	// 50 visible characters spread over many blanks stays below the threshold.
	text := strings.Repeat("ab   \n", 25)
	r := NewDocumentReader(fakeText{text: text, pages: 1}, nil, nil, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "short.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)

	text += "c"
	r = NewDocumentReader(fakeText{text: text, pages: 1}, nil, nil, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())
	res = r.Read(context.Background(), "long.pdf")

	assert.Equal(t, dto.ProvenanceDigitalText, res.Provenance)
}

func TestReadWithoutRecognizer(t *testing.T) {
	r := NewDocumentReader(fakeText{text: "", pages: 1}, &fakeRasterizer{pages: 1}, nil, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "scan.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Equal(t, "recognition unavailable", res.Diagnostic)
	assert.Empty(t, res.Text)
	assert.True(t, res.Failed())
}

func TestReadRecognitionError(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("tessdata missing")}
	r := NewDocumentReader(fakeText{pages: 1}, &fakeRasterizer{pages: 1}, rec, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "scan.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Contains(t, res.Diagnostic, "tessdata missing")
	assert.Empty(t, res.Text)
}

func TestReadRasterizeError(t *testing.T) {
	r := NewDocumentReader(fakeText{pages: 1}, &fakeRasterizer{err: errors.New("pdftoppm failed")}, &fakeRecognizer{}, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "scan.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Contains(t, res.Diagnostic, "rasterize")
}

func TestReadRecoversFromPanic(t *testing.T) {
	r := NewDocumentReader(fakeText{pages: 1}, &fakeRasterizer{pages: 1}, &fakeRecognizer{panic: true}, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	var res dto.ReadResult
	require.NotPanics(t, func() { res = r.Read(context.Background(), "scan.pdf") })

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Contains(t, res.Diagnostic, "engine crashed")
}

func TestReadUnreadableFile(t *testing.T) {
	r := NewDocumentReader(fakeText{err: errors.New("not a PDF file")}, nil, nil, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "/does/not/exist.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Contains(t, res.Diagnostic, "not a PDF file")
}

func TestReadNoPages(t *testing.T) {
	r := NewDocumentReader(fakeText{pages: 0}, nil, nil, nil, ReaderOptions{}, zerolog.Nop())

	res := r.Read(context.Background(), "empty.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Equal(t, dto.ErrNoPages.Error(), res.Diagnostic)
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewDocumentReader(fakeText{text: digitalInvoice, pages: 1}, nil, nil, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(ctx, "invoice.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Equal(t, "cancelled", res.Diagnostic)
}

func TestReadCollectsCodes(t *testing.T) {
	scanner := fakeScanner{codes: []string{"00195987600001234560000002796388900001234518"}}
	r := NewDocumentReader(fakeText{pages: 1}, &fakeRasterizer{pages: 1}, &fakeRecognizer{texts: []string{"boleto"}}, scanner,
		ReaderOptions{MinTextChars: 50, ScanCodes: true}, zerolog.Nop())

	res := r.Read(context.Background(), "boleto.pdf")

	assert.Equal(t, dto.ProvenanceRecognizedImage, res.Provenance)
	assert.Equal(t, scanner.codes, res.Codes)
}

func TestReadRealPDFTextLayer(t *testing.T) {
	path := writePDF(t, "invoice.pdf",
		"PRESTACAO DE SERVICOS DE CONSULTORIA EMPRESARIAL",
		"Cliente Mercado Central Ltda",
		"Valor Total R$ 1.234,56",
	)
	r := NewDocumentReader(NewPDFProcessor(), nil, nil, nil, ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), path)

	require.Equal(t, dto.ProvenanceDigitalText, res.Provenance, res.Diagnostic)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "Cliente Mercado Central Ltda\nValor Total R$ 1.234,56\n")
}

func TestReadRealPDFKeepsLinesApart(t *testing.T) {
	path := writePDF(t, "itens.pdf",
		"PRESTACAO DE SERVICOS DE CONSULTORIA EMPRESARIAL",
		"Itens 3",
		"45,00",
	)
	r := NewDocumentReader(NewPDFProcessor(), nil, nil, nil, ReaderOptions{MinTextChars: 20}, zerolog.Nop())

	res := r.Read(context.Background(), path)
	require.Equal(t, dto.ProvenanceDigitalText, res.Provenance, res.Diagnostic)
	assert.Contains(t, res.Text, "Itens 3\n45,00")

	ext := utils.NewAmountExtractor(utils.DefaultExtractorOptions()).Extract(res.Text)
	assert.Equal(t, dto.RationaleNotIdentified, ext.Rationale)
	assert.Zero(t, ext.Amount)
}

func TestReadRealBlankPDFWithoutRecognizer(t *testing.T) {
	path := writePDF(t, "scan.pdf")
	r := NewDocumentReader(NewPDFProcessor(), nil, nil, nil, ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), path)

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Equal(t, "recognition unavailable", res.Diagnostic)
	assert.Empty(t, res.Text)
}

func TestReadBlankRecognitionIsFailure(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"  \n", ""}}
	r := NewDocumentReader(fakeText{pages: 2}, &fakeRasterizer{pages: 2}, rec, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "blank.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Equal(t, dto.ErrNoTextRecognized.Error(), res.Diagnostic)
	assert.Empty(t, res.Text)
}

func TestReadSkipsBlankPages(t *testing.T) {
	rec := &fakeRecognizer{texts: []string{"\n\n", "  TOTAL = R$ 75,00  \n"}}
	r := NewDocumentReader(fakeText{pages: 2}, &fakeRasterizer{pages: 2}, rec, nil,
		ReaderOptions{MinTextChars: 50}, zerolog.Nop())

	res := r.Read(context.Background(), "scan.pdf")

	assert.Equal(t, dto.ProvenanceRecognizedImage, res.Provenance)
	assert.Equal(t, "TOTAL = R$ 75,00\n", res.Text)
}

func TestReadFailureDropsScannedCodes(t *testing.T) {
	scanner := fakeScanner{codes: []string{"00195987600001234560000002796388900001234518"}}
	r := NewDocumentReader(fakeText{pages: 1}, &fakeRasterizer{pages: 1}, &fakeRecognizer{err: errors.New("engine crashed")}, scanner,
		ReaderOptions{MinTextChars: 50, ScanCodes: true}, zerolog.Nop())

	res := r.Read(context.Background(), "boleto.pdf")

	assert.Equal(t, dto.ProvenanceFailure, res.Provenance)
	assert.Empty(t, res.Codes)
}
