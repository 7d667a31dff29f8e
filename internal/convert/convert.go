// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns IFC files into GLB scenes by running IfcConvert,
// either from the host or from a container image.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ifc-pages/internal/container"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

const (
	flagCenter = "--center-model-geometry"
	// flagGUIDs names scene nodes after element GlobalIds so the viewer can
	// join picked meshes with metadata.json.
	flagGUIDs = "--use-element-guids"
)

// Converter transforms an IFC file into a GLB file.
type Converter interface {
	// Name identifies the backend in status output.
	Name() string

	// Convert reads ifcPath and writes a GLB scene to glbPath, replacing
	// any existing file.
	Convert(ctx context.Context, ifcPath, glbPath string) error
}

// New builds the converter selected by cfg. Status lines, including the
// commands being run, are written to w.
func New(ctx context.Context, cfg types.ConversionConfig, w io.Writer) (Converter, error) {
	switch cfg.Backend {
	case types.BackendLocal, "":
		bin, err := FindIfcConvert(cfg.Binary)
		if err != nil {
			return nil, err
		}
		return NewIfcConvert(bin, cfg, w), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewContainerConverter(ctx, rt, cfg, w)
	}
	return nil, fmt.Errorf("unknown conversion backend %q: use local or container", cfg.Backend)
}

// invoke runs one IfcConvert command line.
type invoke func(ctx context.Context, args []string) error

// convertWithFallback runs IfcConvert with GUID node names and, if that
// fails, once more without them. Some IfcConvert builds reject the flag
// for glTF output.
func convertWithFallback(ctx context.Context, run invoke, cfg types.ConversionConfig, in, out string, w io.Writer) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale %s: %w", out, err)
	}

	args := buildArgs(cfg.ExtraArgs, true, in, out)
	err := run(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("IfcConvert: %w", ctx.Err())
		}
		fmt.Fprintf(w, "warning: IfcConvert failed with %s (%v), retrying without it\n", flagGUIDs, err)
		os.Remove(out)
		if err := run(ctx, buildArgs(cfg.ExtraArgs, false, in, out)); err != nil {
			return fmt.Errorf("IfcConvert: %w", err)
		}
	}
	return ValidateGLB(out)
}

func buildArgs(extra []string, guids bool, in, out string) []string {
	args := []string{flagCenter}
	if guids {
		args = append(args, flagGUIDs)
	}
	args = append(args, extra...)
	return append(args, in, out)
}

func quoteArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
