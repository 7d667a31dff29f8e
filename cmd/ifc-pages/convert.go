package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert <model.ifc> [model.glb]",
	Short: "Convert a single IFC file to GLB",
	Long: `Convert runs IfcConvert on one file and validates the GLB it produces.
The output defaults to the input path with a .glb extension. Element
GlobalIds are written as node names; if IfcConvert rejects that option the
conversion is retried without it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	addConversionFlags(convertCmd)

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"backend":         "conversion.backend",
		"ifcconvert":      "conversion.binary",
		"image":           "conversion.image",
		"convert-arg":     "conversion.extra_args",
		"convert-timeout": "conversion.timeout",
	}); err != nil {
		return err
	}

	in := args[0]
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("input %s: %w", in, err)
	}
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".glb"
	if len(args) == 2 {
		out = args[1]
	}

	conv, err := convert.New(cmd.Context(), conversionConfig(), os.Stdout)
	if err != nil {
		return err
	}
	if err := conv.Convert(cmd.Context(), in, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "converted: %s -> %s\n", in, out)
	return nil
}
