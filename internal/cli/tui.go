package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TreePickerModel - Interactive genome selection
// =============================================================================

type treeRow struct {
	id    int
	depth int
}

// TreePickerModel is the bubbletea model for selecting genomes from a
// phylogenetic tree. Toggling an ancestor toggles its whole subtree.
type TreePickerModel struct {
	Tree      *newick.Tree
	Cursor    int
	Offset    int
	Height    int
	Confirmed bool

	rows []treeRow
}

// NewTreePickerModel creates a picker over t. Existing selections are kept.
func NewTreePickerModel(t *newick.Tree) TreePickerModel {
	m := TreePickerModel{Tree: t, Height: 15}
	var visit func(id, depth int)
	visit = func(id, depth int) {
		n, ok := t.Node(id)
		if !ok {
			return
		}
		m.rows = append(m.rows, treeRow{id: id, depth: depth})
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(t.Root(), 0)
	return m
}

func (m TreePickerModel) Init() tea.Cmd {
	return nil
}

func (m TreePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.rows) > 0 {
				_ = m.Tree.Toggle(m.rows[m.Cursor].id)
			}
		case "a":
			if len(m.rows) > 0 {
				_ = m.Tree.Toggle(m.Tree.Root())
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m TreePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Genomes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		row := m.rows[i]
		n, _ := m.Tree.Node(row.id)

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		label := n.Name
		if !n.IsLeaf() {
			label = fmt.Sprintf("%s (%d)", strings.TrimSpace("· "+n.Name), m.Tree.Sources(row.id).Len())
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", row.depth), checkbox(n.Selection), label)

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case n.Selection == newick.None:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	selected := m.Tree.SelectedSources().Len()
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d of %d genomes selected", selected, len(m.Tree.Leaves()))))

	return b.String()
}

func checkbox(s newick.Selection) string {
	switch s {
	case newick.All:
		return StyleSuccess.Render("[x]")
	case newick.Partial:
		return StyleWarning.Render("[~]")
	default:
		return "[ ]"
	}
}

// =============================================================================
// Helpers
// =============================================================================

// selectionTable renders the selected genomes with the number of graph
// nodes each traverses. Genomes absent from g are flagged.
func selectionTable(g *seqgraph.Graph, sources []string) string {
	counts := make(map[string]int, len(sources))
	for _, n := range g.Nodes() {
		for _, s := range sources {
			if n.Sources.Has(s) {
				counts[s]++
			}
		}
	}

	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		nodes := "-"
		if c, ok := counts[s]; ok {
			nodes = humanize.Comma(int64(c))
		}
		rows = append(rows, []string{s, nodes})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Genome", "Nodes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if _, ok := counts[sources[row]]; !ok {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}
