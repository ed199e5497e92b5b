// Package converter defines the external document-to-PDF conversion
// contract (spec §1, out of scope: "the core calls a Convert(inPath,
// outPath) contract") and a process-exec-based implementation standing in
// for the real engine.
package converter

import (
	"context"
	"os/exec"
	"time"

	"github.com/innohassle/printhub/internal/apperr"
)

// Converter turns an arbitrary input file into a PDF at outPath.
type Converter interface {
	Convert(ctx context.Context, inPath, outPath string) error
}

// Timeout is the conversion budget (spec §5: "file upload/conversion/
// download: 5 min").
const Timeout = 5 * time.Minute

// ExecConverter shells out to a configured converter binary, passing the
// input and output paths as its last two arguments. This is the minimal
// process-exec adapter the external engine's real RPC/CLI would sit behind.
type ExecConverter struct {
	Binary string
	Args   []string // extra args placed before inPath/outPath
}

// NewExecConverter returns an ExecConverter invoking binary.
func NewExecConverter(binary string, args ...string) *ExecConverter {
	return &ExecConverter{Binary: binary, Args: args}
}

// Convert runs the configured binary against inPath/outPath within Timeout.
func (c *ExecConverter) Convert(ctx context.Context, inPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	args := append(append([]string{}, c.Args...), inPath, outPath)
	cmd := exec.CommandContext(ctx, c.Binary, args...)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return apperr.New(apperr.Timeout, err)
		}
		return apperr.New(apperr.ConversionFailed, err)
	}

	return nil
}
