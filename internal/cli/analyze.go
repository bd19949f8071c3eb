package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/pipeline"
)

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		output string
		flags  analysisFlags
	)

	cmd := &cobra.Command{
		Use:   "analyze [web]",
		Short: "Compute trophic levels, longest cycle and components",
		Long: `Analyze a food web given as a JSON graph or an edge list (path or URL).

The analysis holds the component partition, the tallest feeding chain, the
longest simple cycle, per-node trophic levels and heights, and the stress
layout positions. It is written as JSON (default: <web>.analysis.json).

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <web>.analysis.json, - for stdout)")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input, output string, flags analysisFlags) error {
	g, a, hit, err := c.analyze(ctx, input, flags)
	if err != nil {
		return err
	}

	if output == "-" {
		data, err := graph.MarshalAnalysis(a)
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(append(data, '\n'))
		return err
	}
	if output == "" {
		output = basePath("", input) + ".analysis.json"
	}
	if err := graph.WriteAnalysisFile(a, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Analysis complete")
	printFile(output)
	printStats(a.Nodes, a.Links, hit)
	printNewline()
	printAnalysis(a, g.Labels())
	return nil
}

// analyze loads input and runs the cached analysis behind a spinner.
func (c *CLI) analyze(ctx context.Context, input string, flags analysisFlags) (graph.Graph, graph.Analysis, bool, error) {
	opts, err := c.baseOptions()
	if err != nil {
		return graph.Graph{}, graph.Analysis{}, false, err
	}
	flags.apply(&opts)
	opts.Input = input

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return graph.Graph{}, graph.Analysis{}, false, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, err := pipeline.Load(ctx, opts)
	if err != nil {
		return graph.Graph{}, graph.Analysis{}, false, err
	}
	c.Logger.Debug("loaded web", "nodes", len(g.Nodes), "links", len(g.Links))

	spinner := c.newSpinner(ctx, "Analyzing web...")
	spinner.Start()
	a, hit, err := runner.AnalyzeWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return graph.Graph{}, graph.Analysis{}, false, err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return graph.Graph{}, graph.Analysis{}, false, ctx.Err()
	}
	prog.done("Analyzed web")
	return pipeline.WithPositions(g, a), a, hit, nil
}
