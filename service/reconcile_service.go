package service

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Aashish23092/pdf-reconciliation/dto"
	"github.com/Aashish23092/pdf-reconciliation/metrics"
	"github.com/Aashish23092/pdf-reconciliation/utils"
	"github.com/Aashish23092/pdf-reconciliation/utils/paycode"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Reader interface {
	Read(ctx context.Context, path string) dto.ReadResult
}

type Extractor interface {
	Extract(text string) dto.ExtractionResult
}

type ReconcileOptions struct {
	Workers      int
	PaymentCodes bool
}

// ReconcileService turns PDF paths into per-document records.
type ReconcileService struct {
	reader    Reader
	extractor Extractor
	opts      ReconcileOptions
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewReconcileService builds the service. m may be nil.
func NewReconcileService(reader Reader, extractor Extractor, opts ReconcileOptions, m *metrics.Metrics, log zerolog.Logger) *ReconcileService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &ReconcileService{
		reader:    reader,
		extractor: extractor,
		opts:      opts,
		metrics:   m,
		log:       log.With().Str("component", "reconciler").Logger(),
	}
}

// Process reads and extracts every file, returning one record per file in
// input order. A failing file never stops the batch.
func (s *ReconcileService) Process(ctx context.Context, files []string, category dto.Category) []dto.DocumentRecord {
	records := make([]dto.DocumentRecord, len(files))
	if len(files) == 0 {
		return records
	}

	workers := s.opts.Workers
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = s.ProcessFile(ctx, files[i], category)
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return records
}

// ProcessFile produces the record for a single document.
func (s *ReconcileService) ProcessFile(ctx context.Context, path string, category dto.Category) dto.DocumentRecord {
	rec, _ := s.Inspect(ctx, path, category)
	return rec
}

// Inspect is ProcessFile that also hands back what the reader produced.
func (s *ReconcileService) Inspect(ctx context.Context, path string, category dto.Category) (rec dto.DocumentRecord, read dto.ReadResult) {
	start := time.Now()
	rec = dto.DocumentRecord{
		FileName: filepath.Base(path),
		FilePath: path,
		Category: category,
	}

	defer func() {
		if p := recover(); p != nil {
			rec = errorRecord(rec, fmt.Sprint(p))
		}
		s.observe(rec, time.Since(start))
	}()

	if ctx.Err() != nil {
		return errorRecord(rec, "cancelled"), read
	}

	read = s.reader.Read(ctx, path)
	if read.Failed() && ctx.Err() != nil {
		return errorRecord(rec, "cancelled"), read
	}
	rec.Provenance = read.Provenance
	rec.Diagnostic = read.Diagnostic

	// A failed read never yields an amount, whatever it partially collected.
	if read.Failed() {
		rec.Rationale = dto.RationaleNotIdentified
		rec.Status = dto.StatusNeedsReview
		rec.Method = read.Method()
		return rec, read
	}

	ext := s.extractor.Extract(read.Text)
	if !ext.Found() && s.opts.PaymentCodes {
		if fallback, ok := paymentCodeAmount(read); ok {
			ext = fallback
		}
	}
	rec.Rationale = ext.Rationale

	if ext.Found() {
		rec.Amount = ext.Amount
		rec.Status = dto.StatusOK
		rec.Method = fmt.Sprintf("%s -> %s", read.Method(), ext.Rationale.Label())
	} else {
		rec.Status = dto.StatusNeedsReview
		rec.Method = fmt.Sprintf("%s -> Texto lido, mas sem valor claro.", read.Method())
	}
	return rec, read
}

func (s *ReconcileService) observe(rec dto.DocumentRecord, elapsed time.Duration) {
	s.metrics.ObserveDocument(string(rec.Category), string(rec.Status), string(rec.Provenance), rec.Amount, elapsed)

	ev := s.log.Info()
	if rec.Status == dto.StatusError {
		ev = s.log.Warn()
	}
	ev.Str("file", rec.FileName).
		Str("category", string(rec.Category)).
		Str("provenance", string(rec.Provenance)).
		Str("rationale", string(rec.Rationale)).
		Float64("amount", rec.Amount).
		Str("status", string(rec.Status)).
		Dur("elapsed", elapsed).
		Msg("document processed")
}

func errorRecord(rec dto.DocumentRecord, diag string) dto.DocumentRecord {
	rec.Amount = 0
	rec.Status = dto.StatusError
	rec.Rationale = ""
	rec.Diagnostic = diag
	rec.Method = diag
	return rec
}

// paymentCodeAmount looks for a typed boleto line in the text, then for
// codes decoded from the page images.
func paymentCodeAmount(read dto.ReadResult) (dto.ExtractionResult, bool) {
	if v, ok := paycode.FindBoletoLine(read.Text); ok {
		return dto.ExtractionResult{Amount: v, Rationale: dto.RationaleBoletoLine}, true
	}
	for _, code := range read.Codes {
		if v, err := paycode.Amount(code); err == nil && v > 0 {
			return dto.ExtractionResult{Amount: v, Rationale: dto.RationalePaymentCode}, true
		}
	}
	return dto.ExtractionResult{}, false
}

// Summarize sums OK amounts per category and counts the records that are
// not OK.
func Summarize(records []dto.DocumentRecord) dto.Totals {
	t := dto.Totals{Revenue: decimal.Zero, Expense: decimal.Zero}
	for _, r := range records {
		if r.Status != dto.StatusOK {
			t.Pending++
			continue
		}
		amount := decimal.NewFromFloat(r.Amount)
		switch r.Category {
		case dto.CategoryRevenue:
			t.Revenue = t.Revenue.Add(amount)
		case dto.CategoryExpense:
			t.Expense = t.Expense.Add(amount)
		}
	}
	return t
}

// TotalsResponse renders totals for JSON and reports.
func TotalsResponse(t dto.Totals) dto.TotalsResponse {
	revenue, _ := t.Revenue.Float64()
	expense, _ := t.Expense.Float64()
	balance, _ := t.Balance().Float64()
	return dto.TotalsResponse{
		Revenue: revenue,
		Expense: expense,
		Balance: balance,
		Pending: t.Pending,
		Formatted: map[string]string{
			"revenue": utils.FormatAmount(revenue),
			"expense": utils.FormatAmount(expense),
			"balance": utils.FormatAmount(balance),
		},
	}
}

// DiscoverPDFs lists the PDF files under dir, recursively, sorted by path.
func DiscoverPDFs(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsPDF(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
