package entity

import (
	"context"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
)

// Document is the base type for business documents (purchase orders, GRNs).
type Document struct {
	BaseEntity

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Remarks is an optional free-text comment
	Remarks string `db:"remarks" json:"remarks,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseEntity: NewBaseEntity(),
		Date:       time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
