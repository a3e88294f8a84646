package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/force"
	"github.com/matzehuels/entitygraph/pkg/graph"
	"github.com/matzehuels/entitygraph/pkg/interaction"
	"github.com/matzehuels/entitygraph/pkg/pipeline"
)

// exploreCommand creates the explore command, an interactive terminal view.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		noCache bool
		in      inputFlags
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "explore [data.json]",
		Short: "Explore the graph interactively in the terminal",
		Long: `Explore the graph interactively in the terminal.

The cursor hovers one node at a time: its neighbours are highlighted and the
rest of the graph fades. Enter pins the highlight, esc clears it. Grab a
node with g and move it with H/J/K/L while the simulation reacts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.readInputs(&opts, argOrEmpty(args), in); err != nil {
				return err
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			result, err := runner.Layout(ctx, opts)
			if err != nil {
				return err
			}
			if len(result.Layout.Nodes) == 0 {
				printWarning(c.stdout, "Nothing to explore: the graph has no nodes")
				return nil
			}
			p := tea.NewProgram(newExploreModel(result.Layout, opts), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addOptionFlags(cmd, &opts, &in)

	return cmd
}

// =============================================================================
// Explore Model
// =============================================================================

const (
	exploreFrame         = 33 * time.Millisecond
	exploreTicksPerFrame = 3
	exploreNudge         = 20.0
	exploreListRows      = 7

	defaultCanvasCols = 72
	defaultCanvasRows = 18
)

type exploreTickMsg struct{}

type exploreKeyMap struct {
	Up, Down                  key.Binding
	Select, Clear             key.Binding
	Grab                      key.Binding
	Left, Right, Raise, Lower key.Binding
	Help, Quit                key.Binding
}

var exploreKeys = exploreKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev node")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next node")),
	Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "select")),
	Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Grab:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "grab/release")),
	Left:   key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move left")),
	Right:  key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move right")),
	Raise:  key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
	Lower:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
	Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Clear, k.Grab, k.Help, k.Quit}
}

func (k exploreKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Clear},
		{k.Grab, k.Left, k.Right, k.Raise, k.Lower},
		{k.Help, k.Quit},
	}
}

// exploreModel drives an interaction controller with keyboard events. The
// cursor stands in for the pointer: moving it leaves one node and hovers
// the next.
type exploreModel struct {
	layout graph.Layout
	sim    *force.Simulation
	ctrl   *interaction.Controller
	view   interaction.View
	help   help.Model

	cursor  int
	grabbed string
	ticking bool
	ticks   int

	// grabX and grabY are where the grabbed node is pinned.
	grabX, grabY float64

	cols, rows int
}

func newExploreModel(l graph.Layout, opts pipeline.Options) *exploreModel {
	sim := pipeline.Resume(l, opts)
	m := &exploreModel{
		layout: l,
		sim:    sim,
		ctrl:   pipeline.NewController(l, opts, sim),
		help:   help.New(),
		cols:   defaultCanvasCols,
		rows:   defaultCanvasRows,
	}
	m.view = m.ctrl.View()
	if len(l.Nodes) > 0 {
		m.hover()
	}
	return m
}

func (m *exploreModel) Init() tea.Cmd { return nil }

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.cols = max(20, msg.Width-2)
		m.rows = max(6, msg.Height-exploreListRows-8)
	case exploreTickMsg:
		return m, m.step()
	}
	return m, nil
}

func (m *exploreModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, exploreKeys.Quit):
		return tea.Quit
	case key.Matches(msg, exploreKeys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, exploreKeys.Down):
		m.moveCursor(1)
	case key.Matches(msg, exploreKeys.Select):
		m.view = m.ctrl.Click(m.currentID())
	case key.Matches(msg, exploreKeys.Clear):
		m.view = m.ctrl.ClickOutside()
	case key.Matches(msg, exploreKeys.Grab):
		return m.toggleGrab()
	case key.Matches(msg, exploreKeys.Left):
		m.nudge(-exploreNudge, 0)
	case key.Matches(msg, exploreKeys.Right):
		m.nudge(exploreNudge, 0)
	case key.Matches(msg, exploreKeys.Raise):
		m.nudge(0, -exploreNudge)
	case key.Matches(msg, exploreKeys.Lower):
		m.nudge(0, exploreNudge)
	case key.Matches(msg, exploreKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *exploreModel) currentID() string { return m.layout.Nodes[m.cursor].ID }

func (m *exploreModel) hover() {
	id := m.currentID()
	x, y, _ := m.sim.Position(id)
	m.view = m.ctrl.Hover(id, interaction.Point{X: x, Y: y})
}

func (m *exploreModel) moveCursor(delta int) {
	n := len(m.layout.Nodes)
	if n == 0 {
		return
	}
	m.view = m.ctrl.Leave(m.currentID())
	m.cursor = ((m.cursor+delta)%n + n) % n
	m.hover()
}

func (m *exploreModel) toggleGrab() tea.Cmd {
	if m.grabbed != "" {
		m.ctrl.DragEnd(m.grabbed)
		m.grabbed = ""
		return nil
	}
	m.grabbed = m.currentID()
	m.grabX, m.grabY, _ = m.sim.Position(m.grabbed)
	m.ctrl.DragStart(m.grabbed)
	return m.startTicking()
}

func (m *exploreModel) nudge(dx, dy float64) {
	if m.grabbed == "" {
		return
	}
	m.grabX = math.Max(0, math.Min(m.layout.Width, m.grabX+dx))
	m.grabY = math.Max(0, math.Min(m.layout.Height, m.grabY+dy))
	m.ctrl.DragMove(m.grabbed, interaction.Point{X: m.grabX, Y: m.grabY})
}

func (m *exploreModel) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return exploreTick()
}

// step advances the simulation while it is warm or a node is grabbed.
func (m *exploreModel) step() tea.Cmd {
	if m.sim.Settled() && m.grabbed == "" {
		m.ticking = false
		return nil
	}
	for range exploreTicksPerFrame {
		m.sim.Tick()
		m.ticks++
	}
	return exploreTick()
}

func exploreTick() tea.Cmd {
	return tea.Tick(exploreFrame, func(time.Time) tea.Msg { return exploreTickMsg{} })
}

// =============================================================================
// View
// =============================================================================

var (
	styleCanvas = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	styleCursor = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

func (m *exploreModel) View() string {
	var b strings.Builder

	primary, attrs, _ := m.layout.Graph().Counts()
	b.WriteString(StyleTitle.Render("entitygraph explore"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d primary · %d attributes · %d links", primary, attrs, len(m.layout.Links))))
	b.WriteString("\n")
	b.WriteString(styleCanvas.Render(m.canvas()))
	b.WriteString("\n")
	b.WriteString(m.list())
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(m.help.View(exploreKeys))
	return b.String()
}

// canvas plots every node into a cols x rows character grid. Faded nodes
// are drawn faint, the cursor node last.
func (m *exploreModel) canvas() string {
	grid := make([][]string, m.rows)
	for r := range grid {
		grid[r] = make([]string, m.cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	bodies := m.sim.Bodies()
	plot := func(i int) {
		n := m.layout.Nodes[i]
		col, row := m.cell(bodies[i].X, bodies[i].Y)
		grid[row][col] = m.glyph(i, n)
	}
	for i := range m.layout.Nodes {
		if i != m.cursor {
			plot(i)
		}
	}
	if len(m.layout.Nodes) > 0 {
		plot(m.cursor)
	}

	lines := make([]string, m.rows)
	for r, row := range grid {
		lines[r] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

func (m *exploreModel) cell(x, y float64) (col, row int) {
	w, h := math.Max(m.layout.Width, 1), math.Max(m.layout.Height, 1)
	col = int(math.Round(x / w * float64(m.cols-1)))
	row = int(math.Round(y / h * float64(m.rows-1)))
	return min(max(col, 0), m.cols-1), min(max(row, 0), m.rows-1)
}

func (m *exploreModel) glyph(i int, n graph.PlacedNode) string {
	g := "•"
	if n.IsPrimary() {
		g = "●"
	}
	nv := m.view.Nodes[i]
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color))
	switch {
	case n.ID == m.grabbed:
		return styleCursor.Render("✥")
	case i == m.cursor:
		return styleCursor.Render("◉")
	case nv.Highlighted:
		style = style.Bold(true)
	case nv.Opacity < 1:
		style = style.Faint(true)
	}
	return style.Render(g)
}

// list shows the nodes around the cursor with their interaction state.
func (m *exploreModel) list() string {
	var b strings.Builder
	n := len(m.layout.Nodes)
	start := max(0, min(m.cursor-exploreListRows/2, n-exploreListRows))
	end := min(n, start+exploreListRows)
	for i := start; i < end; i++ {
		node := m.layout.Nodes[i]
		nv := m.view.Nodes[i]
		marker := "  "
		if i == m.cursor {
			marker = styleCursor.Render("▸ ")
		}
		kind := "entity"
		if node.IsAttribute() {
			kind = node.Key
		}
		line := fmt.Sprintf("%-28s %-14s r=%-4.0f", truncate(node.DisplayLabel(), 28), truncate(kind, 14), nv.Radius)
		switch {
		case node.ID == m.ctrl.Selected():
			line = StyleTitle.Render(line + " selected")
		case nv.Opacity < 1:
			line = StyleDim.Render(line)
		default:
			line = StyleValue.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}
	return b.String()
}

func (m *exploreModel) status() string {
	var parts []string
	if t := m.view.Tooltip; t.Visible {
		parts = append(parts, fmt.Sprintf("tooltip %q at (%.0f, %.0f)", t.Text, t.X, t.Y))
	}
	if m.grabbed != "" {
		parts = append(parts, fmt.Sprintf("dragging %s at (%.0f, %.0f)", m.grabbed, m.grabX, m.grabY))
	}
	if !m.sim.Settled() {
		parts = append(parts, fmt.Sprintf("alpha %.3f after %d ticks", m.sim.Alpha(), m.ticks))
	}
	if len(parts) == 0 {
		return ""
	}
	return StyleDim.Render(strings.Join(parts, " · "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
