// Package numerator defines the document numbering contract.
// Numbers are strictly increasing and never reused within a
// (prefix, year, month) scope, even under concurrent posting.
package numerator

import (
	"context"
	"time"
)

// Generator produces document numbers.
type Generator interface {
	// GetNextNumber generates the next number for the prefix, scoped to
	// the period's year+month. Implementations must allocate the number
	// atomically so two concurrent callers never observe the same value.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "ADJ", "TRF", "GRN", "PO")
	Prefix string

	// PadWidth is the minimum sequence width (default 6)
	PadWidth int
}

// DefaultConfig returns the standard {PREFIX}{YY}{MM}{sequence:06d} layout.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 6,
	}
}

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict allocates every number with a single atomic
	// increment-and-read in the store. Gapless; required for stock
	// documents and GRNs.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory. Faster, but a
	// restart abandons the unused remainder of a range, leaving a gap.
	// Only for internal documents where gaps are acceptable.
	StrategyCached
)

// Options configures number generation.
type Options struct {
	Strategy Strategy

	// RangeSize is the number of values reserved at once in Cached
	// strategy. Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}
