package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/infrastructure/storage/postgres"
)

type stubAuditReader struct {
	entries []postgres.AuditEntry
	number  string
	limit   int
}

func (s *stubAuditReader) GetHistory(_ context.Context, number string, limit int) ([]postgres.AuditEntry, error) {
	s.number = number
	s.limit = limit
	return s.entries, nil
}

func TestGetDocumentHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &stubAuditReader{entries: []postgres.AuditEntry{{
		ID:             id.New(),
		DocumentType:   "stock_adjustment",
		DocumentNumber: "ADJ2603000001",
		Actor:          "storekeeper",
		Payload:        json.RawMessage(`{"lines":1}`),
		CreatedAt:      time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}}}
	h := NewStockHandler(NewBaseHandler(), nil, stub)

	router := gin.New()
	router.GET("/stock/documents/:number/history", h.GetDocumentHistory)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stock/documents/ADJ2603000001/history?limit=10", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADJ2603000001", stub.number)
	assert.Equal(t, 10, stub.limit)

	var body struct {
		Entries []struct {
			DocumentNumber string          `json:"documentNumber"`
			Actor          string          `json:"actor"`
			Payload        json.RawMessage `json:"payload"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "ADJ2603000001", body.Entries[0].DocumentNumber)
	assert.Equal(t, "storekeeper", body.Entries[0].Actor)
	assert.JSONEq(t, `{"lines":1}`, string(body.Entries[0].Payload))
}
