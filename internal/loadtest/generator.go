package loadtest

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/okian/halo/internal/domain/features"
)

// generateSamples perturbs the example observation. Malformed samples
// alternate between a dropped value and a non-numeric token.
func generateSamples(cfg *Config) ([]Sample, error) {
	base, err := features.Parse(features.ExampleCSV)
	if err != nil {
		return nil, err
	}
	vals := base.Values()

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	samples := make([]Sample, cfg.Samples)
	invalid := 0

	for i := range samples {
		tokens := make([]string, len(vals))
		for j, v := range vals {
			scale := 1 + cfg.Jitter*(2*rng.Float64()-1)
			tokens[j] = strconv.FormatFloat(v*scale, 'g', -1, 64)
		}

		valid := true
		if cfg.InvalidEvery > 0 && (i+1)%cfg.InvalidEvery == 0 {
			valid = false
			if invalid%2 == 0 {
				tokens = tokens[:len(tokens)-1]
			} else {
				tokens[rng.IntN(len(tokens))] = "n/a"
			}
			invalid++
		}

		samples[i] = Sample{Index: i, Input: strings.Join(tokens, features.Separator), Valid: valid}
	}
	return samples, nil
}
