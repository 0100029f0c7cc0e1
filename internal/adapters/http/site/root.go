// Package site serves the interactive prediction form.
package site

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/domain/advisory"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Predictor runs one observation through the pipeline.
type Predictor interface {
	Predict(ctx context.Context, raw string) (service.Prediction, error)
}

type page struct {
	FeatureCount int
	FeatureNames []string
	Input        string
	Error        string
	Advisory     *advisory.Advisory
}

// RootHandler handles the form at /.
type RootHandler struct {
	predictor Predictor
	logger    logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(p Predictor, l logger.Logger) *RootHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &RootHandler{predictor: p, logger: l}
}

// Register attaches the form routes to mux.
func Register(_ context.Context, mux *http.ServeMux, p Predictor, l logger.Logger) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler(p, l).HandleRoot)
}

// HandleRoot renders the form on GET and the prediction on POST.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	pg := page{
		FeatureCount: features.Count,
		FeatureNames: features.Names[:],
		Input:        features.ExampleCSV,
	}
	status := http.StatusOK

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodPost:
		pg.Input = r.PostFormValue("features")
		pred, err := h.predictor.Predict(r.Context(), pg.Input)
		switch {
		case err == nil:
			pg.Advisory = &pred.Advisory
		case errors.As(err, new(*features.ParseError)):
			pg.Error = err.Error()
			status = http.StatusBadRequest
		default:
			h.logger.Error(r.Context(), "form prediction failed", logger.Error(err))
			pg.Error = "The model could not score this observation."
			status = http.StatusInternalServerError
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, pg); err != nil {
		h.logger.Error(r.Context(), "render form", logger.Error(errors.Join(ErrRender, err)))
	}
}
