// Package advisory renders the user-facing message for a scored sample.
package advisory

import (
	"fmt"
	"io"
	"strconv"

	"github.com/okian/halo/internal/domain/scoring"
)

// Level is the display severity of an advisory.
type Level string

// Display levels, mirroring warning/info/success banners.
const (
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// ProbabilityDecimals is the fixed precision used when displaying probabilities.
const ProbabilityDecimals = 4

// Precautions shown with every ALERT.
var Precautions = []string{
	"Secure communication and navigation satellites.",
	"Move astronauts to shielded areas.",
	"Protect sensitive electronics from geomagnetic currents.",
	"Monitor solar activity and space weather forecasts.",
	"Avoid launching spacecraft during this period.",
}

// Advisory is the message set for one scoring result.
type Advisory struct {
	Tier            scoring.Tier `json:"tier"`
	Level           Level        `json:"level"`
	Probability     float64      `json:"probability"`
	ProbabilityText string       `json:"probability_text"`
	Headline        string       `json:"headline"`
	Body            string       `json:"body"`
	Precautions     []string     `json:"precautions,omitempty"`
}

// FormatProbability renders p with ProbabilityDecimals places, e.g. 0.92 -> "0.9200".
func FormatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', ProbabilityDecimals, 64)
}

// For builds the advisory for r. The probability is always included.
func For(r scoring.Result) Advisory {
	a := Advisory{
		Tier:            r.Tier,
		Probability:     r.Probability,
		ProbabilityText: FormatProbability(r.Probability),
	}

	switch r.Tier {
	case scoring.TierAlert:
		a.Level = LevelWarning
		a.Headline = "ALERT: Halo CME Event Detected!"
		a.Body = "A Halo CME event is likely occurring. Take the following precautions:"
		a.Precautions = append([]string(nil), Precautions...)
	case scoring.TierWatch:
		a.Level = LevelInfo
		a.Headline = "CME Possible"
		a.Body = "Monitor solar activity closely."
	default:
		a.Level = LevelSuccess
		a.Headline = "No CME Event Detected"
		a.Body = "No CME event detected based on current input."
	}

	return a
}

// Render writes the advisory as plain text.
func (a Advisory) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Predicted Probability of CME: %s\n", a.ProbabilityText); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[%s] %s\n%s\n", a.Tier, a.Headline, a.Body); err != nil {
		return err
	}
	for _, p := range a.Precautions {
		if _, err := fmt.Fprintf(w, "  - %s\n", p); err != nil {
			return err
		}
	}
	return nil
}
