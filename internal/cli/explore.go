package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/foodweb/pkg/core/web"
	"github.com/matzehuels/foodweb/pkg/engine"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/pipeline"
)

// frameInterval is the engine tick period of the explorer.
const frameInterval = 50 * time.Millisecond

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		output string
		flags  analysisFlags
	)

	cmd := &cobra.Command{
		Use:   "explore [web]",
		Short: "Edit a food web interactively while the layout settles",
		Long: `Open a food web in a terminal explorer. The engine runs in the background:
heavy analyses are dispatched off the UI loop and one node is refined per
frame in between.

Keys: ↑/↓ select, a archive, r restore, s save, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "save target (default: <web>.layout.json)")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input, output string, flags analysisFlags) error {
	opts, err := c.baseOptions()
	if err != nil {
		return err
	}
	flags.apply(&opts)
	opts.Input = input

	g, err := pipeline.Load(ctx, opts)
	if err != nil {
		return err
	}
	store, err := graph.ToStore(g)
	if err != nil {
		return err
	}

	if output == "" {
		output = basePath("", input) + ".layout.json"
	}

	engOpts := opts.EngineOptions()
	engOpts.Background = true
	engOpts.Logger = nil // the TUI owns the terminal
	eng := engine.New(store, engOpts)
	defer eng.Close()

	m := newExploreModel(eng, g.Labels(), output)
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	if fm, ok := final.(exploreModel); ok && fm.saved != "" {
		printSuccess("Saved web")
		printFile(fm.saved)
	}
	return nil
}

// =============================================================================
// exploreModel - Interactive web editing
// =============================================================================

type (
	frameMsg   time.Time
	settledMsg engine.Settled
)

// exploreModel is the bubbletea model of the explorer. Update runs on a
// single goroutine, which is the only user of the engine.
type exploreModel struct {
	eng     *engine.Engine
	events  <-chan engine.Settled
	labels  map[int]string
	output  string
	cursor  int
	height  int
	offset  int
	last    engine.Settled
	settles int
	status  string
	saved   string
}

func newExploreModel(eng *engine.Engine, labels map[int]string, output string) exploreModel {
	return exploreModel{
		eng:    eng,
		events: eng.Subscribe(),
		labels: labels,
		output: output,
		height: 15,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return tea.Batch(nextFrame(), waitSettled(m.events))
}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func waitSettled(ch <-chan engine.Settled) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return settledMsg(ev)
	}
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.eng.Tick()
		return m, nextFrame()
	case settledMsg:
		m.last = engine.Settled(msg)
		m.settles++
		return m, waitSettled(m.events)
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nodes := m.nodes()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.offset = min(m.offset, m.cursor)
		}
	case "down", "j":
		if m.cursor < len(nodes)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "a":
		if n, ok := m.selected(nodes); ok && n.State == web.Active {
			m.eng.Store().ArchiveNode(n.ID)
			m.status = fmt.Sprintf("archived %s", m.name(n.ID))
		}
	case "r":
		if n, ok := m.selected(nodes); ok && n.State == web.Archived {
			m.eng.Store().RestoreNode(n.ID)
			m.status = fmt.Sprintf("restored %s", m.name(n.ID))
		}
	case "s":
		g := graph.FromStore(m.eng.Store(), m.labels)
		if err := graph.WriteGraphFile(g, m.output); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.saved = m.output
			m.status = "saved " + m.output
		}
	}
	return m, nil
}

// nodes lists active and archived nodes by ID.
func (m exploreModel) nodes() []web.Node {
	s := m.eng.Store()
	nodes := append(s.Nodes(), s.ArchivedNodes()...)
	slices.SortFunc(nodes, func(a, b web.Node) int { return cmp.Compare(a.ID, b.ID) })
	return nodes
}

func (m exploreModel) selected(nodes []web.Node) (web.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return web.Node{}, false
	}
	return nodes[m.cursor], true
}

func (m exploreModel) name(id int) string {
	if l := m.labels[id]; l != "" {
		return l
	}
	return strconv.Itoa(id)
}

func (m exploreModel) View() string {
	var b strings.Builder
	a := m.eng.Analysis()
	s := m.eng.Store()

	b.WriteString(StyleTitle.Render("Food Web Explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ select  a archive  r restore  s save  q quit"))
	b.WriteString("\n\n")

	state := styleCached.Render("settled")
	if m.eng.Busy() {
		state = StyleWarning.Render("computing")
	}
	fmt.Fprintf(&b, "%s  %s %d  %s %d  %s %d  %s %d  %s %d\n",
		state,
		StyleDim.Render("nodes"), s.NodeCount(),
		StyleDim.Render("links"), s.LinkCount(),
		StyleDim.Render("components"), a.ComponentCount,
		StyleDim.Render("chain"), a.MaxChainHeight,
		StyleDim.Render("cycle"), a.MaxCycleLength)
	if m.settles > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("v%d settled in %s (%d runs)",
			m.last.Version, m.last.Duration.Round(time.Millisecond), m.eng.Runs())))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	nodes := m.nodes()
	end := min(m.offset+m.height, len(nodes))
	onCycle := make(map[int]bool, len(a.Cycle))
	for _, id := range a.Cycle {
		onCycle[id] = true
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		level, height := "—", "—"
		if n.State == web.Active {
			if l, ok := a.Levels[n.ID]; ok {
				level = strconv.FormatFloat(l, 'f', 2, 64)
			}
			if h, ok := a.Heights[n.ID]; ok && h != web.Unreachable {
				height = strconv.Itoa(h)
			}
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(n.ID),
			m.labels[n.ID],
			level,
			height,
			strconv.FormatFloat(n.Pos.X, 'f', 2, 64),
			strconv.FormatFloat(n.Pos.Y, 'f', 2, 64),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Species", "Level", "Height", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(nodes) {
				return lipgloss.NewStyle()
			}
			n := nodes[idx]
			base := lipgloss.NewStyle()
			switch {
			case n.State == web.Archived:
				base = base.Foreground(colorDim)
			case onCycle[n.ID]:
				base = StyleCycle
			}
			if idx == m.cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(nodes)), len(nodes))))
	if m.status != "" {
		b.WriteString("  ")
		b.WriteString(StyleValue.Render(m.status))
	}
	return b.String()
}
