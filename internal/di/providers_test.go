package di

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"IntraCast/internal/domain/models"
	"IntraCast/pkg/config"
)

func modelCfg(url string) *config.Config {
	cfg := &config.Config{}
	cfg.Models.ServiceURL = url
	cfg.Models.Timeout = 5 * time.Second
	return cfg
}

func TestProvidePredictorFailsWithoutModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"degraded","models_loaded":0}`))
	}))
	defer srv.Close()

	_, err := ProvidePredictor(modelCfg(srv.URL))
	if err == nil {
		t.Fatal("expected startup failure when no models are loaded")
	}
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestProvidePredictorFailsWhenServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if _, err := ProvidePredictor(modelCfg(srv.URL)); err == nil {
		t.Fatal("expected startup failure when the model service is unreachable")
	}
}

func TestProvidePredictorHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","models_loaded":2}`))
	}))
	defer srv.Close()

	pred, err := ProvidePredictor(modelCfg(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred == nil {
		t.Fatal("expected a predictor")
	}
}
