// Package predictcli implements the halo-predict command line.
package predictcli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/halo/internal/app"
	"github.com/okian/halo/internal/config"
	"github.com/okian/halo/internal/domain/features"
	"github.com/okian/halo/pkg/logger"
)

// ErrNoInput is returned when neither --input, --example, nor stdin supply an observation.
var ErrNoInput = errors.New("no observation given; use --input, --example, or pipe one line on stdin")

// NewRootCommand builds the halo-predict command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "halo-predict",
		Short: "Score one observation for a Halo CME",
		Long: "halo-predict reads " + fmt.Sprint(features.Count) + " comma-separated feature values, " +
			"scores them with the trained classifier, and prints the advisory.",
		SilenceUsage: true,
		RunE:         runPredict,
	}

	pf := root.PersistentFlags()
	pf.String("model", "", "Path to the model artifact (overrides HALO_MODEL_PATH)")
	pf.String("model-format", "", "Model format: catboost_json or onnx (default: infer from extension)")
	pf.String("onnx-library", "", "Path to the onnxruntime shared library")
	pf.String("threshold-file", "", "Path to the calibrated threshold (overrides HALO_THRESHOLD_PATH)")
	pf.String("policy", "", "Decision policy: three_tier or two_tier")

	f := root.Flags()
	f.String("input", "", "Comma-separated feature values")
	f.Bool("example", false, "Score the built-in example observation")
	f.Bool("json", false, "Print the result as JSON")

	root.AddCommand(newInfoCommand())
	root.AddCommand(newFeaturesCommand())
	return root
}

// Execute runs the command tree with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadService resolves configuration from HALO_* and flags, validates the
// merged result once, then loads the model.
func loadService(cmd *cobra.Command) (*service.Service, error) {
	cfg, err := config.Read(cmd.Context())
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"model":          &cfg.ModelPath,
		"model-format":   &cfg.ModelFormat,
		"onnx-library":   &cfg.ONNXLibraryPath,
		"threshold-file": &cfg.ThresholdPath,
		"policy":         &cfg.Policy,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return service.FromConfig(cmd.Context(), cfg, service.WithLogger(logger.Nop()))
}

func runPredict(cmd *cobra.Command, _ []string) error {
	raw, err := readObservation(cmd)
	if err != nil {
		return err
	}

	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Stop() }()

	pred, err := svc.Predict(cmd.Context(), raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RequestID string  `json:"request_id"`
			Threshold float64 `json:"threshold"`
			Policy    string  `json:"policy"`
			Advisory  any     `json:"advisory"`
		}{pred.RequestID, pred.Result.Threshold.Float64(), string(pred.Result.Policy), pred.Advisory})
	}
	return pred.Advisory.Render(out)
}

func readObservation(cmd *cobra.Command) (string, error) {
	if ex, _ := cmd.Flags().GetBool("example"); ex {
		return features.ExampleCSV, nil
	}
	if cmd.Flags().Changed("input") {
		return cmd.Flags().GetString("input")
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrNoInput
	}
	return line, nil
}
