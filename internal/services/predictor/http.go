package predictor

import (
	"context"
	"fmt"

	"IntraCast/internal/domain/models"
	domsvc "IntraCast/internal/domain/service"
	"IntraCast/pkg/config"
)

// HTTPPredictor adapts the two fitted models behind the model service:
// a regressor for the next-bar close and a classifier for P(up). Both are
// loaded once by the service at startup and held read-only; this adapter
// carries no state beyond the HTTP client.
type HTTPPredictor struct {
	base *HTTPServiceBase
}

func NewHTTPPredictor(cfg *config.Config) *HTTPPredictor {
	return &HTTPPredictor{base: NewHTTPServiceBase(cfg)}
}

type predictReq struct {
	Features []float64 `json:"features"`
	Columns  []string  `json:"columns"`
}

type priceResp struct {
	Price float64 `json:"price"`
}

type directionResp struct {
	ProbaUp float64 `json:"proba_up"`
}

type healthResp struct {
	Status string `json:"status"`
	Models int    `json:"models_loaded"`
}

// PredictPrice returns the regressor's next-bar close for the vector.
func (p *HTTPPredictor) PredictPrice(ctx context.Context, v models.FeatureVector) (float64, error) {
	var pr priceResp
	if err := p.base.PostJSON(ctx, "/predict/price", newPredictReq(v), &pr); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	return pr.Price, nil
}

// ProbabilityUp returns the classifier's P(next close > current close).
func (p *HTTPPredictor) ProbabilityUp(ctx context.Context, v models.FeatureVector) (float64, error) {
	var dr directionResp
	if err := p.base.PostJSON(ctx, "/predict/direction", newPredictReq(v), &dr); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if dr.ProbaUp < 0 || dr.ProbaUp > 1 {
		return 0, fmt.Errorf("classifier returned probability %v outside [0,1]", dr.ProbaUp)
	}
	return dr.ProbaUp, nil
}

// Health probes the model service. Called once at startup; a failure there
// is fatal, per-tick failures only abort the tick.
func (p *HTTPPredictor) Health(ctx context.Context) error {
	var hr healthResp
	if err := p.base.GetJSON(ctx, "/health", &hr); err != nil {
		return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if hr.Models < 2 {
		return fmt.Errorf("%w: %d of 2 models loaded", models.ErrModelUnavailable, hr.Models)
	}
	return nil
}

func newPredictReq(v models.FeatureVector) predictReq {
	return predictReq{Features: v.Values[:], Columns: models.FeatureNames}
}

var (
	_ domsvc.PricePredictor      = (*HTTPPredictor)(nil)
	_ domsvc.DirectionClassifier = (*HTTPPredictor)(nil)
)
