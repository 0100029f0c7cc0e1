package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/okian/halo/internal/domain/features"
)

// catboostModel mirrors the parts of CatBoost's JSON export
// (save_model(format="json")) needed to apply a binary classifier.
type catboostModel struct {
	FeaturesInfo struct {
		FloatFeatures []catboostFloatFeature `json:"float_features"`
	} `json:"features_info"`
	ObliviousTrees []catboostTree `json:"oblivious_trees"`
	// ScaleAndBias is encoded as [scale, [bias...]].
	ScaleAndBias []json.RawMessage `json:"scale_and_bias"`
}

type catboostFloatFeature struct {
	FeatureIndex      int    `json:"feature_index"`
	FlatFeatureIndex  int    `json:"flat_feature_index"`
	FeatureID         string `json:"feature_id"`
	NanValueTreatment string `json:"nan_value_treatment"`
}

type catboostTree struct {
	LeafValues []float64       `json:"leaf_values"`
	Splits     []catboostSplit `json:"splits"`
}

type catboostSplit struct {
	FloatFeatureIndex int     `json:"float_feature_index"`
	Border            float64 `json:"border"`
	SplitType         string  `json:"split_type"`
}

// split is a resolved tree condition: value[column] > border.
type split struct {
	column  int
	border  float64
	nanTrue bool
}

type tree struct {
	splits []split
	leaves []float64
}

// CatBoost applies an oblivious-tree ensemble exported as CatBoost JSON.
// It is read-only after construction and safe for concurrent use.
type CatBoost struct {
	trees []tree
	scale float64
	bias  float64
	info  Info
}

// ParseCatBoost decodes a CatBoost JSON model and checks that its float
// features line up with the classifier column order.
func ParseCatBoost(r io.Reader) (*CatBoost, error) {
	var m catboostModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode catboost json: %w", ErrInvalidModel, err)
	}
	if len(m.ObliviousTrees) == 0 {
		return nil, fmt.Errorf("%w: no oblivious_trees", ErrInvalidModel)
	}

	columns, nanTrue, err := resolveColumns(m.FeaturesInfo.FloatFeatures)
	if err != nil {
		return nil, err
	}

	cb := &CatBoost{scale: 1, trees: make([]tree, 0, len(m.ObliviousTrees))}
	for ti, t := range m.ObliviousTrees {
		if want := 1 << len(t.Splits); len(t.LeafValues) != want {
			return nil, fmt.Errorf("%w: tree %d has %d leaves, want %d (only binary models are supported)",
				ErrInvalidModel, ti, len(t.LeafValues), want)
		}
		resolved := make([]split, len(t.Splits))
		for si, s := range t.Splits {
			if s.SplitType != "" && s.SplitType != "FloatFeature" {
				return nil, fmt.Errorf("%w: tree %d uses unsupported split type %q", ErrInvalidModel, ti, s.SplitType)
			}
			if s.FloatFeatureIndex < 0 || s.FloatFeatureIndex >= len(columns) {
				return nil, fmt.Errorf("%w: tree %d references float feature %d", ErrInvalidModel, ti, s.FloatFeatureIndex)
			}
			resolved[si] = split{
				column:  columns[s.FloatFeatureIndex],
				border:  s.Border,
				nanTrue: nanTrue[s.FloatFeatureIndex],
			}
		}
		cb.trees = append(cb.trees, tree{splits: resolved, leaves: t.LeafValues})
	}

	if err := cb.decodeScaleAndBias(m.ScaleAndBias); err != nil {
		return nil, err
	}

	cb.info = Info{Format: FormatCatBoostJSON, Trees: len(cb.trees), Features: features.Count}
	return cb, nil
}

// resolveColumns maps CatBoost float feature indexes to classifier columns.
// A model without features_info is assumed to use classifier order.
func resolveColumns(ff []catboostFloatFeature) ([]int, []bool, error) {
	if len(ff) == 0 {
		columns := make([]int, features.Count)
		for i := range columns {
			columns[i] = i
		}
		return columns, make([]bool, features.Count), nil
	}

	columns := make([]int, len(ff))
	nanTrue := make([]bool, len(ff))
	for i, f := range ff {
		col := f.FlatFeatureIndex
		if col < 0 || col >= features.Count {
			return nil, nil, fmt.Errorf("%w: float feature %d maps to column %d of %d",
				ErrInvalidModel, i, col, features.Count)
		}
		if f.FeatureID != "" && f.FeatureID != features.Names[col] {
			return nil, nil, fmt.Errorf("%w: column %d is %q in the model but %q in the schema",
				ErrFeatureMismatch, col, f.FeatureID, features.Names[col])
		}
		columns[i] = col
		nanTrue[i] = f.NanValueTreatment == "AsTrue"
	}
	return columns, nanTrue, nil
}

func (c *CatBoost) decodeScaleAndBias(raw []json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw[0], &c.scale); err != nil {
		return fmt.Errorf("%w: scale_and_bias scale: %w", ErrInvalidModel, err)
	}
	if len(raw) < 2 {
		return nil
	}
	var bias []float64
	if err := json.Unmarshal(raw[1], &bias); err != nil {
		// Older exports store a scalar bias.
		var scalar float64
		if err2 := json.Unmarshal(raw[1], &scalar); err2 != nil {
			return fmt.Errorf("%w: scale_and_bias bias: %w", ErrInvalidModel, err)
		}
		bias = []float64{scalar}
	}
	if len(bias) > 1 {
		return fmt.Errorf("%w: %d bias values (only binary models are supported)", ErrInvalidModel, len(bias))
	}
	if len(bias) == 1 {
		c.bias = bias[0]
	}
	return nil
}

// RawScore returns the ensemble margin before the logistic link.
func (c *CatBoost) RawScore(v features.Vector) float64 {
	vals := v.Values()
	var sum float64
	for _, t := range c.trees {
		idx := 0
		for depth, s := range t.splits {
			x := vals[s.column]
			var bit bool
			if math.IsNaN(x) {
				bit = s.nanTrue
			} else {
				bit = x > s.border
			}
			if bit {
				idx |= 1 << depth
			}
		}
		sum += t.leaves[idx]
	}
	return c.scale*sum + c.bias
}

// PredictProba returns the positive-class probability for v.
func (c *CatBoost) PredictProba(ctx context.Context, v features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return sigmoid(c.RawScore(v)), nil
}

// Info describes the loaded model.
func (c *CatBoost) Info() Info { return c.info }

// Close is a no-op; the model holds no external resources.
func (c *CatBoost) Close() error { return nil }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
