// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pdiddy/ifc-pages/internal/container"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

const (
	mountIn  = "/ifc-in"
	mountOut = "/ifc-out"
)

// ContainerConverter runs IfcConvert inside a container image. The input
// directory is mounted read-only and the output directory read-write.
type ContainerConverter struct {
	runtime container.Runtime
	cfg     types.ConversionConfig
	w       io.Writer
}

// NewContainerConverter verifies that cfg.Image exists locally in rt and
// returns a converter that uses it.
func NewContainerConverter(ctx context.Context, rt container.Runtime, cfg types.ConversionConfig, w io.Writer) (*ContainerConverter, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("container backend needs conversion.image")
	}
	if err := rt.ImageExists(ctx, cfg.Image); err != nil {
		return nil, fmt.Errorf("IfcConvert image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt, cfg: cfg, w: w}, nil
}

// Name implements Converter.
func (c *ContainerConverter) Name() string {
	return fmt.Sprintf("IfcConvert (%s %s)", c.runtime.Name(), c.cfg.Image)
}

// Convert implements Converter.
func (c *ContainerConverter) Convert(ctx context.Context, ifcPath, glbPath string) error {
	inDir, err := filepath.Abs(filepath.Dir(ifcPath))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", ifcPath, err)
	}
	outDir, err := filepath.Abs(filepath.Dir(glbPath))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", glbPath, err)
	}
	inside := func(dir, p string) string { return dir + "/" + filepath.Base(p) }

	run := func(ctx context.Context, args []string) error {
		// The last two operands are host paths; rewrite them to mount paths.
		n := len(args)
		cargs := append([]string{}, args[:n-2]...)
		cargs = append(cargs, inside(mountIn, args[n-2]), inside(mountOut, args[n-1]))

		fmt.Fprintf(c.w, "$ %s run %s IfcConvert %s\n", c.runtime.Name(), c.cfg.Image, quoteArgs(cargs))
		return c.runtime.Run(ctx, container.RunSpec{
			Image: c.cfg.Image,
			Mounts: []container.Mount{
				{Source: inDir, Target: mountIn, ReadOnly: true},
				{Source: outDir, Target: mountOut},
			},
			// IfcConvert writes temporary files next to its cwd, and the
			// image's default workdir is not writable for the host user.
			Workdir:    mountOut,
			User:       hostUser(),
			Entrypoint: "IfcConvert",
			Args:       cargs,
			Stdout:     c.w,
			Stderr:     c.w,
		})
	}
	if err := convertWithFallback(ctx, run, c.cfg, ifcPath, glbPath, c.w); err != nil {
		return fmt.Errorf("converting %s: %w", ifcPath, err)
	}
	return nil
}

// hostUser returns "uid:gid" on Unix so files written to the output mount
// belong to the caller rather than root.
func hostUser() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return strconv.Itoa(os.Getuid()) + ":" + strconv.Itoa(os.Getgid())
}
