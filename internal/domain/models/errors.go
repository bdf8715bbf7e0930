package models

import "errors"

// Pipeline error taxonomy. Each condition aborts the tick that hit it and
// leaves stored state unchanged, except where documented on the orchestrator.
var (
	// ErrNoData means the bar source returned nothing.
	ErrNoData = errors.New("no data available from source")

	// ErrInsufficientData means the bar window is too short to satisfy the
	// longest indicator lookback, so no complete feature row exists. This is
	// distinct from a transient gap: more bars are required, not a retry.
	ErrInsufficientData = errors.New("insufficient data for feature lookback")

	// ErrModelUnavailable means a predictor is not loaded or unreachable.
	ErrModelUnavailable = errors.New("prediction model unavailable")

	// ErrStoreUnavailable means a persistence operation failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTickInFlight means another tick is already running for the symbol.
	ErrTickInFlight = errors.New("tick already in flight for symbol")
)
