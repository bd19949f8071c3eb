package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/graph"
	fwio "github.com/matzehuels/foodweb/pkg/io"
	"github.com/matzehuels/foodweb/pkg/pipeline"
)

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert between JSON graphs and edge lists",
		Long: `Convert a web between the JSON graph format and the edge-list format.
The output format follows the output extension: .json writes JSON, anything
else writes an edge list. Edge lists drop positions, flags and the archive.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) runConvert(ctx context.Context, input, output string) error {
	g, err := pipeline.Load(ctx, pipeline.Options{Input: input, Logger: c.Logger})
	if err != nil {
		return err
	}
	// Reject webs the engine could not load.
	if _, err := graph.ToStore(g); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(output), ".json") {
		err = graph.WriteGraphFile(g, output)
	} else {
		err = fwio.ExportEdgeList(g, output)
	}
	if err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Converted %s", input)
	printFile(output)
	return nil
}
