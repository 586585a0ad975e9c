package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	mu   sync.Mutex
	seqs map[string]int64
}

// GetNextNumber implements Generator. Without an override it produces
// sequential numbers per prefix+period in the production format.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	key := fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	m.seqs[key]++

	pad := cfg.PadWidth
	if pad == 0 {
		pad = 6
	}
	return fmt.Sprintf("%s%s%0*d", cfg.Prefix, period.Format("0601"), pad, m.seqs[key]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
