package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		flags      analysisFlags
		draw       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [web]",
		Short: "Render a food web with Graphviz",
		Long: `Render a food web as DOT, SVG, PNG, PDF or analysis JSON.

Nodes are pinned at their stress layout positions and colored by trophic
level; the longest cycle is drawn in red and removable links are dashed.
PNG and PDF need rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], output, formats, flags, draw)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, json (comma-separated)")
	cmd.Flags().Float64Var(&draw.Scale, "scale", pipeline.DefaultScale, "inches per layout unit")
	cmd.Flags().BoolVar(&draw.Labels, "labels", false, "show species labels instead of IDs")
	cmd.Flags().BoolVar(&draw.Detailed, "detailed", false, "add trophic level and height to each node")
	cmd.Flags().BoolVar(&draw.NoHighlight, "no-highlight", false, "do not highlight the longest cycle")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, flags analysisFlags, draw pipeline.Options) error {
	opts, err := c.baseOptions()
	if err != nil {
		return err
	}
	flags.apply(&opts)
	opts.Input = input
	opts.Formats = formats
	opts.Scale = draw.Scale
	opts.Labels = draw.Labels
	opts.Detailed = draw.Detailed
	opts.NoHighlight = draw.NoHighlight

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := c.newSpinner(ctx, "Rendering web...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths := outputPaths(input, output, formats)
	for _, format := range formats {
		if err := os.WriteFile(paths[format], result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess("Render complete")
	for _, format := range formats {
		printFile(paths[format])
	}
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.AnalyzeHit && result.CacheInfo.RenderHit)
	return nil
}

// outputPaths maps each format to a file. A single format honors output
// verbatim; several formats share its base path.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}
