package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	errs "github.com/matzehuels/foodweb/pkg/errors"
)

// converter is the librsvg command line tool used for raster and PDF output.
const converter = "rsvg-convert"

// ToPDF converts an SVG document to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, FormatPDF)
}

// ToPNG converts an SVG document to PNG. zoom scales the SVG's own size;
// 2 doubles the resolution.
func ToPNG(ctx context.Context, svg []byte, zoom float64) ([]byte, error) {
	return convert(ctx, svg, FormatPNG, "--zoom", strconv.FormatFloat(zoom, 'f', 2, 64))
}

// Available reports whether PDF and PNG conversion can run on this host.
func Available() bool {
	_, err := exec.LookPath(converter)
	return err == nil
}

func convert(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	if !Available() {
		return nil, errs.New(errs.ErrCodeUnsupported,
			"%s output needs %s (macOS: brew install librsvg, Linux: apt install librsvg2-bin)", format, converter)
	}

	cmd := exec.CommandContext(ctx, converter, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "%s: %s", converter, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
