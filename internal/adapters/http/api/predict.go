package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/domain/advisory"
	"github.com/okian/halo/internal/domain/scoring"
)

// maxPredictBody caps POST /predict bodies; one observation is well under 1 KiB.
const maxPredictBody = 64 << 10

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest mirrors the OpenAPI schema for POST /predict.
type predictRequest struct {
	Input  *string   `json:"input,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

func (p predictRequest) validate() error {
	if (p.Input == nil) == (p.Values == nil) {
		return ErrAmbiguousInput
	}
	return nil
}

type predictResponse struct {
	RequestID       string            `json:"request_id"`
	Probability     float64           `json:"probability"`
	ProbabilityText string            `json:"probability_text"`
	Tier            scoring.Tier      `json:"tier"`
	Policy          scoring.Policy    `json:"policy"`
	Threshold       float64           `json:"threshold"`
	Advisory        advisory.Advisory `json:"advisory"`
}

func newPredictResponse(p service.Prediction) predictResponse {
	return predictResponse{
		RequestID:       p.RequestID,
		Probability:     p.Result.Probability,
		ProbabilityText: p.Advisory.ProbabilityText,
		Tier:            p.Result.Tier,
		Policy:          p.Result.Policy,
		Threshold:       p.Result.Threshold.Float64(),
		Advisory:        p.Advisory,
	}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", fmt.Errorf("%s: %w", op, ErrMethodNotAllowed))
		return
	}

	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, ErrTrailingData))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	var (
		pred service.Prediction
		err  error
	)
	if req.Input != nil {
		pred, err = h.deps.Predict(r.Context(), *req.Input)
	} else {
		pred, err = h.deps.PredictValues(r.Context(), req.Values)
	}
	if err != nil {
		if pe, ok := asParseError(err); ok {
			writeParseError(w, pe)
			return
		}
		writeError(w, http.StatusInternalServerError, "classifier_error", err)
		return
	}

	writeJSON(w, http.StatusOK, newPredictResponse(pred))
}
