package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rembgd/internal/catalog"
	"rembgd/pkg/types"
)

func newAlgorithmsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List supported algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAlgorithms(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printAlgorithms(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types.AlgorithmsResponse{Default: catalog.DefaultID, Algorithms: catalog.Algorithms()})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFAMILY\tVARIANT\tACCELERATED")
	for _, a := range catalog.Algorithms() {
		id := a.ID
		if id == catalog.DefaultID {
			id += " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", id, a.Family, a.Variant, a.Accelerated)
	}
	return tw.Flush()
}
