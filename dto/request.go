package dto

import (
	"mime/multipart"
)

// ReconcileRequest represents the incoming multipart upload
type ReconcileRequest struct {
	Revenue []*multipart.FileHeader `form:"revenue[]"`
	Expense []*multipart.FileHeader `form:"expense[]"`
}

// Validate performs basic validation on the request
func (r *ReconcileRequest) Validate() error {
	if len(r.Revenue) == 0 && len(r.Expense) == 0 {
		return ErrNoDocuments
	}
	return nil
}
