// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/domain/features"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Predict(ctx context.Context, raw string) (service.Prediction, error)
	PredictValues(ctx context.Context, vals []float64) (service.Prediction, error)
	Info() service.Info
	CheckReadiness(ctx context.Context) error
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	healthHandler  *HealthHandler
	readyHandler   *ReadyHandler
	predictHandler *PredictHandler
	modelHandler   *ModelHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		readyHandler:   NewReadyHandler(deps),
		predictHandler: NewPredictHandler(deps),
		modelHandler:   NewModelHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/model", MetricsMiddleware(s.modelHandler.HandleModel, "model"))
}

type errorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected *int   `json:"expected,omitempty"`
	Actual   *int   `json:"actual,omitempty"`
	Token    string `json:"token,omitempty"`
	Position int    `json:"position,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeParseError reports a rejected observation with the details a form
// needs to point at the offending token or count.
func writeParseError(w http.ResponseWriter, pe *features.ParseError) {
	resp := errorResponse{Code: pe.Kind.String(), Message: pe.Error()}
	switch pe.Kind {
	case features.WrongArity:
		expected, actual := pe.Expected, pe.Actual
		resp.Expected, resp.Actual = &expected, &actual
	case features.NonNumeric:
		resp.Token, resp.Position = pe.Token, pe.Position
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func asParseError(err error) (*features.ParseError, bool) {
	var pe *features.ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
