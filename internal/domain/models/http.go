package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

// Symbol is optional on both requests; handlers substitute the configured
// engine symbol when it is absent.

type HistoricalRequest struct {
	Symbol string `query:"symbol" validate:"omitempty,min=1,max=32"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PredictRequest struct {
	Symbol string `query:"symbol" validate:"omitempty,min=1,max=32"`
}
