// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

// EnvBinary names the environment variable consulted for the IfcConvert path.
const EnvBinary = "IFCCONVERT_BIN"

// binaryCandidates are the executable names searched on PATH.
var binaryCandidates = []string{"IfcConvert", "ifcconvert", "IfcConvert.exe", "ifcconvert.exe"}

// ErrNotFound is returned when no IfcConvert binary can be located.
var ErrNotFound = errors.New("IfcConvert not found: set --ifcconvert or " + EnvBinary)

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// FindIfcConvert locates the IfcConvert binary: the explicit path if it
// exists, then $IFCCONVERT_BIN if it exists, then the usual executable
// names on PATH.
func FindIfcConvert(explicit string) (string, error) {
	return findIfcConvert(explicit, os.Getenv, osExecutor{})
}

func findIfcConvert(explicit string, getenv func(string) string, ex executor) (string, error) {
	if explicit != "" && fileExists(explicit) {
		return explicit, nil
	}
	if env := getenv(EnvBinary); env != "" && fileExists(env) {
		return env, nil
	}
	for _, cand := range binaryCandidates {
		if p, err := ex.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IfcConvert runs a host IfcConvert binary.
type IfcConvert struct {
	bin  string
	cfg  types.ConversionConfig
	exec executor
	w    io.Writer
}

// NewIfcConvert creates a converter for the binary at bin.
func NewIfcConvert(bin string, cfg types.ConversionConfig, w io.Writer) *IfcConvert {
	return &IfcConvert{bin: bin, cfg: cfg, exec: osExecutor{}, w: w}
}

// Name implements Converter.
func (c *IfcConvert) Name() string { return "IfcConvert (" + c.bin + ")" }

// Convert implements Converter.
func (c *IfcConvert) Convert(ctx context.Context, ifcPath, glbPath string) error {
	run := func(ctx context.Context, args []string) error {
		fmt.Fprintf(c.w, "$ %s %s\n", c.bin, quoteArgs(args))
		return c.exec.Run(ctx, c.bin, args, c.w, c.w)
	}
	if err := convertWithFallback(ctx, run, c.cfg, ifcPath, glbPath, c.w); err != nil {
		return fmt.Errorf("converting %s: %w", ifcPath, err)
	}
	return nil
}
