package dto

import "errors"

// Custom errors
var (
	ErrRecognitionUnavailable = errors.New("recognition unavailable")
	ErrNoPages                = errors.New("document has no pages")
	ErrUnknownCategory        = errors.New("unknown category")
	ErrNoDocuments            = errors.New("no documents provided")
	ErrNoTextRecognized       = errors.New("no text recognized")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type TotalsResponse struct {
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
	Pending int     `json:"pending"`
	// Formatted holds the pt-BR renderings shown in reports.
	Formatted map[string]string `json:"formatted"`
}

// ReconcileResponse is the final response structure
type ReconcileResponse struct {
	RunID       string           `json:"run_id"`
	Records     []DocumentRecord `json:"records"`
	Totals      TotalsResponse   `json:"totals"`
	ProcessedAt string           `json:"processed_at"`
}
