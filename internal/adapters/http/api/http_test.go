package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/halo/internal/adapters/http/api"
	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type predictBody struct {
	RequestID       string  `json:"request_id"`
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
	Tier            string  `json:"tier"`
	Policy          string  `json:"policy"`
	Threshold       float64 `json:"threshold"`
	Advisory        struct {
		Headline    string   `json:"headline"`
		Level       string   `json:"level"`
		Precautions []string `json:"precautions"`
	} `json:"advisory"`
}

type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Token    string `json:"token"`
	Position int    `json:"position"`
}

func newService(clf scoring.ClassifierFunc, start bool) *service.Service {
	svc, err := service.New(
		service.WithClassifier(clf),
		service.WithThreshold(0.5),
		service.WithIDGenerator(func() string { return "req-42" }),
	)
	So(err, ShouldBeNil)
	if start {
		So(svc.Start(context.Background()), ShouldBeNil)
	}
	return svc
}

func fixed(p float64) scoring.ClassifierFunc {
	return func(context.Context, features.Vector) (float64, error) { return p, nil }
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newService(fixed(0.92), true))

		Convey("Then /healthz should expose Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "halo_detector_")
		})

		Convey("Then /readyz should report ready", func() {
			w := do(mux, http.MethodGet, "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ready"`)
		})

		Convey("Then /model should describe the decision configuration", func() {
			w := do(mux, http.MethodGet, "/model", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var info service.Info
			So(json.NewDecoder(w.Body).Decode(&info), ShouldBeNil)
			So(info.Threshold, ShouldEqual, 0.5)
			So(info.Policy, ShouldEqual, scoring.PolicyThreeTier)
			So(info.Features, ShouldHaveLength, features.Count)
		})

		Convey("Then unknown routes should 404", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then a nil mux should panic", func() {
			So(func() { api.NewServer(nil).Register(context.Background(), nil) }, ShouldPanic)
		})
	})

	Convey("Given a service that has not started", t, func() {
		mux := newMux(newService(fixed(0.1), false))

		w := do(mux, http.MethodGet, "/readyz", "")
		So(w.Code, ShouldEqual, http.StatusServiceUnavailable)

		var body errorBody
		So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
		So(body.Code, ShouldEqual, "not_ready")
	})
}

func TestPredictHandler(t *testing.T) {
	Convey("Given the predict endpoint", t, func() {
		mux := newMux(newService(fixed(0.92), true))

		Convey("When posting the example as CSV", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "`+features.ExampleCSV+`"}`)

			Convey("Then an ALERT should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body predictBody
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.RequestID, ShouldEqual, "req-42")
				So(body.Probability, ShouldEqual, 0.92)
				So(body.ProbabilityText, ShouldEqual, "0.9200")
				So(body.Tier, ShouldEqual, "ALERT")
				So(body.Policy, ShouldEqual, "three_tier")
				So(body.Threshold, ShouldEqual, 0.5)
				So(body.Advisory.Headline, ShouldEqual, "ALERT: Halo CME Event Detected!")
				So(body.Advisory.Level, ShouldEqual, "warning")
				So(body.Advisory.Precautions, ShouldHaveLength, 5)
			})
		})

		Convey("When posting numeric values", func() {
			v, err := features.Parse(features.ExampleCSV)
			So(err, ShouldBeNil)
			raw, err := json.Marshal(map[string]any{"values": v.Values()})
			So(err, ShouldBeNil)

			w := do(mux, http.MethodPost, "/predict", string(raw))
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When a token is not numeric", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "1,2,3,4,abc"}`)

			Convey("Then the token and position should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "non_numeric")
				So(body.Token, ShouldEqual, "abc")
				So(body.Position, ShouldEqual, 5)
			})
		})

		Convey("When there are too few values", func() {
			w := do(mux, http.MethodPost, "/predict", `{"values": [1, 2, 3]}`)

			Convey("Then the expected and actual counts should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "wrong_arity")
				So(body.Message, ShouldEqual, "expected 18 values, but got 3")
				So(body.Expected, ShouldEqual, 18)
				So(body.Actual, ShouldEqual, 3)
			})
		})

		Convey("When values is an empty array", func() {
			w := do(mux, http.MethodPost, "/predict", `{"values": []}`)

			Convey("Then an actual count of zero should still be reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"expected":18`)
				So(w.Body.String(), ShouldContainSubstring, `"actual":0`)
			})
		})

		Convey("When a token is not numeric the counts should be omitted", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldNotContainSubstring, `"expected"`)
			So(w.Body.String(), ShouldNotContainSubstring, `"actual"`)
		})

		Convey("When data follows the JSON body", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "`+features.ExampleCSV+`"} garbage`)

			Convey("Then the request should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, api.ErrTrailingData.Error())
			})
		})

		Convey("When a second JSON value follows the body", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "`+features.ExampleCSV+`"}{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When only whitespace follows the JSON body", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "`+features.ExampleCSV+`"}`+"\n  ")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/predict", `{oops`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "bad_request")
		})

		Convey("When both input and values are given", func() {
			w := do(mux, http.MethodPost, "/predict", `{"input": "1", "values": [1]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, api.ErrAmbiguousInput.Error())
		})

		Convey("When neither input nor values are given", func() {
			w := do(mux, http.MethodPost, "/predict", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is GET", func() {
			w := do(mux, http.MethodGet, "/predict", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
		})
	})

	Convey("Given a failing classifier", t, func() {
		mux := newMux(newService(func(context.Context, features.Vector) (float64, error) {
			return 0, errors.New("model exploded")
		}, true))

		w := do(mux, http.MethodPost, "/predict", `{"input": "`+features.ExampleCSV+`"}`)

		Convey("Then a 500 should be returned", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var body errorBody
			So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
			So(body.Code, ShouldEqual, "classifier_error")
			So(body.Message, ShouldContainSubstring, "model exploded")
		})
	})
}
