package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryRevenue Category = "revenue"
	CategoryExpense Category = "expense"
)

// Label returns the name used in reports.
func (c Category) Label() string {
	switch c {
	case CategoryRevenue:
		return "Receita"
	case CategoryExpense:
		return "Despesa"
	}
	return string(c)
}

// ParseCategory accepts the API names and the report labels.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "revenue", "receita", "Receita":
		return CategoryRevenue, nil
	case "expense", "despesa", "Despesa":
		return CategoryExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

type Status string

const (
	StatusOK          Status = "ok"
	StatusNeedsReview Status = "needs_review"
	StatusError       Status = "error"
)

func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNeedsReview:
		return "REVISAR"
	case StatusError:
		return "ERRO"
	}
	return string(s)
}

// Provenance tells how the text of a document was obtained.
type Provenance string

const (
	ProvenanceDigitalText     Provenance = "digital_text"
	ProvenanceRecognizedImage Provenance = "recognized_image"
	ProvenanceFailure         Provenance = "failure"
)

func (p Provenance) Label() string {
	switch p {
	case ProvenanceDigitalText:
		return "TEXTO_DIGITAL"
	case ProvenanceRecognizedImage:
		return "OCR"
	case ProvenanceFailure:
		return "FALHA"
	}
	return string(p)
}

// Rationale names the rule that selected (or failed to select) an amount.
type Rationale string

const (
	RationaleAnchorTotalEquals  Rationale = "anchor_total_equals"
	RationaleAnchorNetTotal     Rationale = "anchor_net_total"
	RationaleSensitiveSelection Rationale = "sensitive_selection"
	RationaleThresholdSelection Rationale = "threshold_selection"
	RationaleBoletoLine         Rationale = "boleto_line"
	RationalePaymentCode        Rationale = "payment_code"
	RationaleNotIdentified      Rationale = "not_identified"
)

func (r Rationale) Label() string {
	switch r {
	case RationaleAnchorTotalEquals:
		return "Padrão 'Total ... ='"
	case RationaleAnchorNetTotal:
		return "Padrão 'Valor Total/Líquido'"
	case RationaleSensitiveSelection:
		return "Maior Valor (Documento Oficial)"
	case RationaleThresholdSelection:
		return "Maior Valor Encontrado (Automático)"
	case RationaleBoletoLine:
		return "Linha Digitável do Boleto"
	case RationalePaymentCode:
		return "Código de Pagamento (Imagem)"
	case RationaleNotIdentified:
		return "Valor não identificado"
	}
	return string(r)
}

// ReadResult is what the document reader hands to the extractor.
// Text is empty whenever Provenance is ProvenanceFailure.
type ReadResult struct {
	Text       string     `json:"-"`
	Provenance Provenance `json:"provenance"`
	Diagnostic string     `json:"diagnostic,omitempty"`
	Pages      int        `json:"pages"`
	// Codes holds raw barcode/QR payloads decoded from rasterized pages.
	Codes []string `json:"codes,omitempty"`
}

// Failed reports whether the read produced no usable text.
func (r ReadResult) Failed() bool {
	return r.Provenance == ProvenanceFailure || r.Text == ""
}

func (r ReadResult) Method() string {
	if r.Provenance == ProvenanceFailure && r.Diagnostic != "" {
		return fmt.Sprintf("%s: %s", r.Provenance.Label(), r.Diagnostic)
	}
	return r.Provenance.Label()
}

type ExtractionResult struct {
	Amount    float64   `json:"amount"`
	Rationale Rationale `json:"rationale"`
}

// Found reports whether an amount was selected.
func (e ExtractionResult) Found() bool {
	return e.Amount > 0 && e.Rationale != RationaleNotIdentified
}

// DocumentRecord is the per-file outcome of a reconciliation run.
type DocumentRecord struct {
	FileName   string     `json:"file_name"`
	FilePath   string     `json:"file_path"`
	Category   Category   `json:"category"`
	Amount     float64    `json:"amount"`
	Status     Status     `json:"status"`
	Method     string     `json:"method"`
	Provenance Provenance `json:"provenance,omitempty"`
	Rationale  Rationale  `json:"rationale,omitempty"`
	Diagnostic string     `json:"diagnostic,omitempty"`
}

type Totals struct {
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Pending int             `json:"pending"`
}

func (t Totals) Balance() decimal.Decimal {
	return t.Revenue.Sub(t.Expense)
}
