package advisory_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/okian/halo/internal/domain/advisory"
	"github.com/okian/halo/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatProbability(t *testing.T) {
	Convey("Given probabilities to display", t, func() {
		So(advisory.FormatProbability(0.92), ShouldEqual, "0.9200")
		So(advisory.FormatProbability(0.3), ShouldEqual, "0.3000")
		So(advisory.FormatProbability(0.005), ShouldEqual, "0.0050")
		So(advisory.FormatProbability(0.123456), ShouldEqual, "0.1235")
		So(advisory.FormatProbability(1), ShouldEqual, "1.0000")
	})
}

func TestFor(t *testing.T) {
	Convey("Given an ALERT result", t, func() {
		a := advisory.For(scoring.Result{Probability: 0.92, Tier: scoring.TierAlert})

		Convey("Then it should carry the precaution checklist", func() {
			So(a.Tier, ShouldEqual, scoring.TierAlert)
			So(a.Level, ShouldEqual, advisory.LevelWarning)
			So(a.ProbabilityText, ShouldEqual, "0.9200")
			So(a.Headline, ShouldContainSubstring, "Halo CME Event Detected")
			So(len(a.Precautions), ShouldEqual, 5)
			So(a.Precautions[0], ShouldContainSubstring, "satellites")
			So(a.Precautions[4], ShouldContainSubstring, "launching spacecraft")
		})

		Convey("And mutating it should not affect the shared checklist", func() {
			a.Precautions[0] = "changed"
			So(advisory.Precautions[0], ShouldNotEqual, "changed")
		})
	})

	Convey("Given a WATCH result", t, func() {
		a := advisory.For(scoring.Result{Probability: 0.3, Tier: scoring.TierWatch})

		Convey("Then it should advise monitoring", func() {
			So(a.Level, ShouldEqual, advisory.LevelInfo)
			So(a.Body, ShouldContainSubstring, "Monitor solar activity")
			So(a.Precautions, ShouldBeEmpty)
			So(a.ProbabilityText, ShouldEqual, "0.3000")
		})
	})

	Convey("Given a CLEAR result", t, func() {
		a := advisory.For(scoring.Result{Probability: 0.005, Tier: scoring.TierClear})

		Convey("Then it should confirm no event and still show the probability", func() {
			So(a.Level, ShouldEqual, advisory.LevelSuccess)
			So(a.Headline, ShouldEqual, "No CME Event Detected")
			So(a.ProbabilityText, ShouldEqual, "0.0050")
		})
	})
}

func TestAdvisory_Render(t *testing.T) {
	Convey("Given an ALERT advisory", t, func() {
		a := advisory.For(scoring.Result{Probability: 0.92, Tier: scoring.TierAlert})

		Convey("When rendering as text", func() {
			var buf bytes.Buffer
			err := a.Render(&buf)

			Convey("Then it should print probability, tier, and precautions", func() {
				So(err, ShouldBeNil)
				out := buf.String()
				So(out, ShouldStartWith, "Predicted Probability of CME: 0.9200\n")
				So(out, ShouldContainSubstring, "[ALERT]")
				So(strings.Count(out, "  - "), ShouldEqual, 5)
			})
		})
	})

	Convey("Given a CLEAR advisory", t, func() {
		a := advisory.For(scoring.Result{Probability: 0.001, Tier: scoring.TierClear})
		var buf bytes.Buffer
		So(a.Render(&buf), ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "[CLEAR] No CME Event Detected")
		So(buf.String(), ShouldNotContainSubstring, "  - ")
	})
}
