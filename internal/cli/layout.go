package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/graph"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  analysisFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [web]",
		Short: "Compute stress layout positions for a food web",
		Long: `Compute a stress layout and write the web back as a JSON graph whose nodes
carry their positions (default: <web>.layout.json).

The output can be fed to any command again; loaded positions anchor the
orientation of later layouts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <web>.layout.json)")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, flags analysisFlags) error {
	g, a, hit, err := c.analyze(ctx, input, flags)
	if err != nil {
		return err
	}

	if output == "" {
		output = basePath("", input) + ".layout.json"
	}
	if err := graph.WriteGraphFile(g, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(a.Nodes, a.Links, hit)
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}
