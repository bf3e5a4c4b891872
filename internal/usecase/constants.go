package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyProcessingMarker is stored under an idempotency key while the
	// first request carrying it is still running
	IdempotencyProcessingMarker = "processing"

	// SourceRefCacheTTL is how long resolved source references are remembered
	SourceRefCacheTTL = 7 * 24 * time.Hour

	// DefaultPageSize is the number of rows fetched per round trip when
	// streaming a wallet's history
	DefaultPageSize = 100

	// MaxPageSize bounds a single history page
	MaxPageSize = 1000
)
