package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"llamachat/internal/modelstore"
	"llamachat/pkg/types"
)

func newModelsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models in the models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			store, err := modelstore.New(cfg.ModelsDir, cfg.AssetsDir)
			if err != nil {
				return err
			}
			models, err := store.List()
			if err != nil {
				return err
			}
			return printModels(cmd.OutOrStdout(), models, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printModels(w io.Writer, models []types.Model, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types.ModelsResponse{Models: models})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUANT\tSIZE")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", m.ID, m.Quant, m.SizeBytes)
	}
	return tw.Flush()
}
