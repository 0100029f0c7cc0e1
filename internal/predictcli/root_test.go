package predictcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/okian/halo/internal/config"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// writeArtifacts writes a one-split model: Speed_bulk_proton > 300 gives
// p ~ 0.9526, otherwise p ~ 0.0474.
func writeArtifacts(t *testing.T, threshold string) (string, string) {
	dir := t.TempDir()
	model := `{"oblivious_trees":[{"leaf_values":[-3,3],"splits":[{"float_feature_index":0,"border":300}]}]}`
	modelPath := filepath.Join(dir, "catboost_final.json")
	thresholdPath := filepath.Join(dir, "optimal_threshold.txt")
	if err := os.WriteFile(modelPath, []byte(model), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(thresholdPath, []byte(threshold), 0o600); err != nil {
		t.Fatal(err)
	}
	return modelPath, thresholdPath
}

func execute(stdin string, args ...string) (string, error) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	Convey("Given model artifacts", t, func() {
		model, threshold := writeArtifacts(t, "0.5")
		base := []string{"--model", model, "--threshold-file", threshold}

		Convey("When scoring the example", func() {
			out, err := execute("", append(base, "--example")...)

			Convey("Then the alert advisory should be printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "Predicted Probability of CME: 0.9526\n")
				So(out, ShouldContainSubstring, "[ALERT] ALERT: Halo CME Event Detected!")
				So(out, ShouldContainSubstring, "  - Move astronauts to shielded areas.")
			})
		})

		Convey("When a low-speed observation is scored", func() {
			v, err := features.Parse(features.ExampleCSV)
			So(err, ShouldBeNil)
			v.SpeedBulkProton = 250
			tokens := make([]string, 0, features.Count)
			for _, x := range v.Values() {
				tokens = append(tokens, strconv.FormatFloat(x, 'g', -1, 64))
			}
			csv := strings.Join(tokens, features.Separator)

			Convey("Then three_tier should WATCH", func() {
				out, err := execute("", append(base, "--input", csv)...)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "[WATCH] CME Possible")
			})

			Convey("Then two_tier should CLEAR", func() {
				out, err := execute("", append(base, "--input", csv, "--policy", "two_tier")...)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "[CLEAR] No CME Event Detected")
			})
		})

		Convey("When the observation is piped on stdin", func() {
			out, err := execute(features.ExampleCSV+"\n", base...)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "0.9526")
		})

		Convey("When JSON output is requested", func() {
			out, err := execute("", append(base, "--example", "--json")...)
			So(err, ShouldBeNil)

			var body struct {
				Threshold float64 `json:"threshold"`
				Policy    string  `json:"policy"`
				Advisory  struct {
					Tier string `json:"tier"`
				} `json:"advisory"`
			}
			So(json.Unmarshal([]byte(out), &body), ShouldBeNil)
			So(body.Threshold, ShouldEqual, 0.5)
			So(body.Policy, ShouldEqual, "three_tier")
			So(body.Advisory.Tier, ShouldEqual, "ALERT")
		})

		Convey("When the input has the wrong arity", func() {
			_, err := execute("", append(base, "--input", "1,2,3")...)
			So(errors.Is(err, features.ErrWrongArity), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "expected 18 values, but got 3")
		})

		Convey("When the input is not numeric", func() {
			_, err := execute("", append(base, "--input", "1,x")...)
			So(errors.Is(err, features.ErrNonNumeric), ShouldBeTrue)
		})

		Convey("When no observation is given", func() {
			_, err := execute("", base...)
			So(errors.Is(err, ErrNoInput), ShouldBeTrue)
		})

		Convey("When the environment names an unknown policy", func() {
			t.Setenv("HALO_POLICY", "always_alert")

			Convey("Then the --policy flag should take precedence", func() {
				out, err := execute("", append(base, "--example", "--policy", "two_tier")...)
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "0.9526")
			})

			Convey("Then without the flag the config should be rejected", func() {
				_, err := execute("", append(base, "--example")...)
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the threshold file is invalid", func() {
			_, bad := writeArtifacts(t, "not a number")
			_, err := execute("", "--model", model, "--threshold-file", bad, "--example")
			So(errors.Is(err, scoring.ErrLoadThreshold), ShouldBeTrue)
		})
	})
}

func TestInfoAndFeaturesCommands(t *testing.T) {
	Convey("Given model artifacts", t, func() {
		model, threshold := writeArtifacts(t, "0.37")

		Convey("When running info", func() {
			out, err := execute("", "info", "--model", model, "--threshold-file", threshold)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"threshold": 0.37`)
			So(out, ShouldContainSubstring, `"format": "catboost_json"`)
		})

		Convey("When running features", func() {
			out, err := execute("", "features")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			So(lines, ShouldHaveLength, features.Count)
			So(lines[0], ShouldEqual, " 1  Speed_bulk_proton")
		})
	})
}
