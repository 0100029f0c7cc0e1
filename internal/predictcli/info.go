package predictcli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/halo/internal/domain/features"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the loaded model and decision configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Stop() }()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.Info())
		},
	}
}

func newFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the expected feature columns in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for i, name := range features.Names {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
