package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	opsPerTick = 20
	maxLogOps  = 200
)

type monitorModel struct {
	w        *workload
	ops      int
	done     int
	finished bool
	recent   []string
	vp       viewport.Model
	ready    bool
}

type tickMsg time.Time

func runInteractive(out string, budget int, heapSize uint32, ops int, seed int64) error {
	w := newWorkload(out, budget, heapSize, seed, false, zap.NewNop())
	m := &monitorModel{w: w, ops: ops}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	if cerr := w.trc.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m *monitorModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		headerHeight := 7
		m.vp = viewport.New(msg.Width, msg.Height-headerHeight)
		m.ready = true
		m.vp.SetContent(strings.Join(m.recent, "\n"))
		return m, nil

	case tickMsg:
		if m.finished {
			return m, nil
		}
		for i := 0; i < opsPerTick && m.done < m.ops; i++ {
			line := m.w.step()
			if strings.Contains(line, "failed") {
				line = failStyle.Render(line)
			} else {
				line = opStyle.Render(line)
			}
			m.recent = append(m.recent, line)
			m.done++
		}
		if len(m.recent) > maxLogOps {
			m.recent = m.recent[len(m.recent)-maxLogOps:]
		}
		if m.ready {
			m.vp.SetContent(strings.Join(m.recent, "\n"))
			m.vp.GotoBottom()
		}
		if m.done >= m.ops {
			m.finished = true
			m.w.trc.Flush()
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("heap-trace monitor"))
	b.WriteString("\n\n")

	trc := m.w.trc
	b.WriteString(statStyle.Render(fmt.Sprintf(
		"buffer %3d/%3d records   trace ops %d/%d",
		trc.BufferCount(), trc.BufferCapacity(), m.done, m.ops)))
	b.WriteString("\n")
	b.WriteString(statStyle.Render(fmt.Sprintf(
		"heap   %d bytes in %d live blocks   mallocs %d  frees %d  reallocs %d  failures %d",
		m.w.heap.Used(), m.w.heap.LiveBlocks(),
		m.w.mallocs, m.w.frees, m.w.reallocs, m.w.failures)))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.vp.View())
	}
	b.WriteString("\n")
	if m.finished {
		b.WriteString(helpStyle.Render("workload complete, trace flushed • q to quit"))
	} else {
		b.WriteString(helpStyle.Render("q to quit (flushes trace)"))
	}
	return b.String()
}
