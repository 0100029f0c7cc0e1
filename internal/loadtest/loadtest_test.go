package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/halo/internal/adapters/http/api"
	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// speedClassifier maps solar wind speed onto all three tiers around the example.
func speedClassifier(_ context.Context, v features.Vector) (float64, error) {
	switch {
	case v.SpeedBulkProton > 340:
		return 0.9, nil
	case v.SpeedBulkProton > 300:
		return 0.3, nil
	default:
		return 0.001, nil
	}
}

func newTestServer(start bool) *httptest.Server {
	svc, err := service.New(
		service.WithClassifier(scoring.ClassifierFunc(speedClassifier)),
		service.WithThreshold(0.5),
	)
	So(err, ShouldBeNil)
	if start {
		So(svc.Start(context.Background()), ShouldBeNil)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestGenerateSamples(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		cfg := &Config{Samples: 12, Jitter: 0.2, InvalidEvery: 3, Seed: 7}

		samples, err := generateSamples(cfg)
		So(err, ShouldBeNil)
		So(samples, ShouldHaveLength, 12)

		Convey("Then every third sample should be malformed", func() {
			for i, s := range samples {
				So(s.Valid, ShouldEqual, (i+1)%3 != 0)
				_, perr := features.Parse(s.Input)
				So(perr == nil, ShouldEqual, s.Valid)
			}
		})

		Convey("Then malformed samples should cover both error kinds", func() {
			_, e1 := features.Parse(samples[2].Input)
			_, e2 := features.Parse(samples[5].Input)
			So(errors.Is(e1, features.ErrWrongArity), ShouldBeTrue)
			So(errors.Is(e2, features.ErrNonNumeric), ShouldBeTrue)
		})

		Convey("Then the same seed should reproduce the samples", func() {
			again, err := generateSamples(cfg)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, samples)
		})

		Convey("Then zero jitter should reproduce the example", func() {
			flat, err := generateSamples(&Config{Samples: 1})
			So(err, ShouldBeNil)
			v, err := features.Parse(flat[0].Input)
			So(err, ShouldBeNil)
			want, _ := features.Parse(features.ExampleCSV)
			So(v, ShouldResemble, want)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running detector", t, func() {
		srv := newTestServer(true)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "runs", "samples.json")
		cfg := &Config{
			BaseURL:      srv.URL,
			Samples:      60,
			Workers:      4,
			Timeout:      5 * time.Second,
			Jitter:       0.3,
			InvalidEvery: 10,
			Seed:         42,
			OutputFile:   out,
		}

		Convey("When the load test runs", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every response should be consistent", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 60)
				So(stats.Submitted, ShouldEqual, 60)
				So(stats.InvalidSent, ShouldEqual, 6)
				So(stats.Rejected, ShouldEqual, 6)
				So(stats.Accepted(), ShouldEqual, 54)
				So(stats.Failed, ShouldEqual, 0)
			})

			Convey("Then the samples should be saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []Sample
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 60)
			})
		})
	})

	Convey("Given a detector that is not ready", t, func() {
		srv := newTestServer(false)
		defer srv.Close()

		_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Samples: 1, Workers: 1, Timeout: time.Second})
		So(errors.Is(err, ErrNotReady), ShouldBeTrue)
	})

	Convey("Given an invalid configuration", t, func() {
		_, err := Run(context.Background(), &Config{Samples: 0, Workers: 1})
		So(errors.Is(err, ErrInvalidRun), ShouldBeTrue)
	})
}

func TestVerify(t *testing.T) {
	Convey("Given run statistics", t, func() {
		So(verify(&Stats{Generated: 3, Submitted: 3, Alerts: 2, Rejected: 1, InvalidSent: 1}), ShouldBeNil)
		So(errors.Is(verify(&Stats{Generated: 3, Submitted: 3, Failed: 1}), ErrInconsistent), ShouldBeTrue)
		So(errors.Is(verify(&Stats{Generated: 3, Submitted: 3, Rejected: 0, InvalidSent: 1}), ErrInconsistent), ShouldBeTrue)
		So(errors.Is(verify(&Stats{Generated: 3, Submitted: 2}), ErrInconsistent), ShouldBeTrue)
	})
}
