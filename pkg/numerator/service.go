// Package numerator implements document auto-numbering on PostgreSQL.
//
// Numbers follow {PREFIX}{YY}{MM}{sequence} and the sequence is scoped per
// (prefix, year, month). The strict strategy allocates each number with one
// atomic UPSERT increment-and-read, so "read last number, then insert" races
// cannot produce duplicates: the row in sys_sequences is the serialization
// point for all concurrent callers of the same period.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/numerator"
)

// Querier is the minimal database access the numerator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierProvider resolves the querier for a call. Wiring passes the
// transaction manager's querier lookup here, so a number requested inside a
// posting transaction is allocated on that same transaction and rolls back
// with it.
type QuerierProvider func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering backed by the sys_sequences table.
type Service struct {
	provider QuerierProvider

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// New creates a numerator service.
func New(provider QuerierProvider) *Service {
	return &Service{
		provider: provider,
		ranges:   make(map[string]*cachedRange),
	}
}

// NewStatic creates a numerator service bound to a fixed querier.
// Use for tests and tooling.
func NewStatic(querier Querier) *Service {
	return New(func(context.Context) Querier { return querier })
}

// GetNextNumber generates the next document number for the prefix within
// the period's year+month scope.
func (s *Service) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = numerator.DefaultOptions()
	}

	var num int64
	var err error

	switch opts.Strategy {
	case numerator.StrategyCached:
		num, err = s.getNextCached(ctx, cfg, period, opts)
	case numerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, cfg, period)
	}

	if err != nil {
		return "", err
	}

	return formatNumber(cfg, period, num), nil
}

// getNextStrict allocates one number with a single atomic statement.
func (s *Service) getNextStrict(ctx context.Context, cfg numerator.Config, period time.Time) (int64, error) {
	querier := s.provider(ctx)

	var num int64
	err := querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (prefix, year, month, current_val)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (prefix, year, month)
		DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, cfg.Prefix, period.Year(), int(period.Month())).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}

	return num, nil
}

// getNextCached serves numbers from a reserved in-memory range, refilling
// from the store when exhausted. current_val tracks the last value of the
// most recent reservation, so a range bump of N claims (old+1 .. old+N).
func (s *Service) getNextCached(ctx context.Context, cfg numerator.Config, period time.Time, opts *numerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	key := buildKey(cfg, period)
	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		querier := s.provider(ctx)
		var newMax int64
		err := querier.QueryRow(ctx, `
			INSERT INTO sys_sequences (prefix, year, month, current_val)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (prefix, year, month)
			DO UPDATE SET current_val = sys_sequences.current_val + $4
			RETURNING current_val
		`, cfg.Prefix, period.Year(), int(period.Month()), size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// buildKey creates the in-memory range key for a prefix+period.
func buildKey(cfg numerator.Config, period time.Time) string {
	return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
}

// formatNumber renders {PREFIX}{YY}{MM}{sequence:0Nd}.
func formatNumber(cfg numerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 6
	}
	return fmt.Sprintf("%s%s%0*d", cfg.Prefix, period.Format("0601"), padWidth, num)
}

// Ensure compile-time interface compliance.
var _ numerator.Generator = (*Service)(nil)
