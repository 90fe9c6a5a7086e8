package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Domain services depend on this contract; Service is the pgx-backed
// implementation.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., SM-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}

var _ Generator = (*Service)(nil)
