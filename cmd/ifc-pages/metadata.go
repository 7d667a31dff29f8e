package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/metadata"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <model.ifc> [metadata.json]",
	Short: "Extract element metadata from an IFC file",
	Long: `Metadata writes the JSON object the viewer loads next to model.glb: one
entry per IfcProduct keyed by GlobalId with type, name, tag, storey and
property sets. Without an output path the JSON is written to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().Bool("summary", false, "print element counts per IFC type instead of JSON")

	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	md, model, err := metadata.ExtractFile(args[0])
	if err != nil {
		return err
	}

	if model.Truncated() {
		fmt.Fprintf(os.Stderr, "warning: %s is truncated, %d complete instances read\n", args[0], model.Len())
	}

	summary, _ := cmd.Flags().GetBool("summary")
	if summary {
		fmt.Fprintf(os.Stdout, "%s: %s, %d entities, %d elements\n",
			args[0], model.Schema(), model.Len(), len(md))
		for _, tc := range metadata.CountByType(md) {
			fmt.Fprintf(os.Stdout, "  %-32s %d\n", tc.Type, tc.Count)
		}
		return nil
	}

	if len(args) == 1 {
		return metadata.Encode(os.Stdout, md)
	}
	if err := metadata.Write(args[1], md); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote: %s (%d elements)\n", args[1], len(md))
	return nil
}
