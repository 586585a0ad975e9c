package dto

import (
	"encoding/json"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

// AuditEntryResponse is one recorded posting of a document. The payload is
// returned decompressed regardless of how it was stored.
type AuditEntryResponse struct {
	ID             string          `json:"id"`
	DocumentType   string          `json:"documentType"`
	DocumentNumber string          `json:"documentNumber"`
	Actor          string          `json:"actor"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      string          `json:"createdAt"`
}

// FromAuditEntries converts audit entries, newest first.
func FromAuditEntries(entries []postgres.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			ID:             e.ID.String(),
			DocumentType:   e.DocumentType,
			DocumentNumber: e.DocumentNumber,
			Actor:          e.Actor,
			Payload:        e.Payload,
			CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}
