// ABOUTME: Top-level Bubble Tea model for watching one node run inside a live flow.
// ABOUTME: Composes graph, detail, log, and status bar panels and routes bus events between them.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litai12/Tanva-sub008/flow"
)

// FocusTarget indicates which panel currently has keyboard focus.
type FocusTarget int

const (
	FocusGraph FocusTarget = iota
	FocusLog
)

// tickInterval drives the spinner and elapsed timer.
const tickInterval = 100 * time.Millisecond

// AppModel is the top-level Bubble Tea model for the run viewer.
type AppModel struct {
	graph     GraphPanelModel
	detail    DetailPanelModel
	log       LogPanelModel
	statusBar StatusBarModel

	runtime *flow.Runtime
	target  string // node being run
	ctx     context.Context

	focus  FocusTarget
	done   bool
	err    error
	width  int
	height int
}

// NewAppModel creates an AppModel watching the given runtime, set up to run
// the target node.
func NewAppModel(ctx context.Context, rt *flow.Runtime, flowName, target string) AppModel {
	m := AppModel{
		graph:     NewGraphPanelModel(rt.Graph()),
		detail:    NewDetailPanelModel(),
		log:       NewLogPanelModel(200),
		statusBar: NewStatusBarModel(flowName, rt.Graph().Len()),
		runtime:   rt,
		target:    target,
		ctx:       ctx,
		focus:     FocusGraph,
	}
	m.refreshDetail()
	// Started here rather than in Init: Init runs on a value receiver, so a
	// mutation there would be discarded.
	m.statusBar.Start()
	return m
}

// Init implements tea.Model. Starts the run and the tick loop.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		RunNodeCmd(m.ctx, m.runtime, m.target),
		TickCmd(tickInterval),
	)
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case FlowEventMsg:
		return m.handleFlowEvent(msg)

	case RunResultMsg:
		m.done = true
		m.err = msg.Err
		m.statusBar.SetActiveNode("")
		m.refreshDetail()
		return m, nil

	case TickMsg:
		m.graph.AdvanceSpinner()
		if m.done {
			return m, nil
		}
		return m, TickCmd(tickInterval)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// View implements tea.Model. Renders the full viewer layout.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.width < 40 || m.height < 10 {
		return fmt.Sprintf("Terminal too small (%dx%d). Minimum: 40x10.", m.width, m.height)
	}

	statusBarHeight := 1
	graphHeight := (m.height - statusBarHeight) * 40 / 100
	if graphHeight < 3 {
		graphHeight = 3
	}
	bottomHeight := m.height - statusBarHeight - graphHeight
	if bottomHeight < 3 {
		bottomHeight = 3
	}

	detailWidth := m.width * 40 / 100
	if detailWidth < 10 {
		detailWidth = 10
	}
	logWidth := m.width - detailWidth
	if logWidth < 10 {
		logWidth = 10
	}

	m.graph.SetWidth(m.width)
	m.detail.SetSize(detailWidth, bottomHeight)
	m.log.SetSize(logWidth, bottomHeight)
	m.statusBar.SetWidth(m.width)

	bottomView := lipgloss.JoinHorizontal(lipgloss.Top, m.detail.View(), m.log.View())

	statusView := m.statusBar.View()
	if m.done {
		if m.err != nil {
			statusView += " " + FailedStyle.Render(fmt.Sprintf("FAILED: %v", m.err))
		} else {
			statusView += " " + SucceededStyle.Render("DONE")
		}
	}

	var b strings.Builder
	b.WriteString(m.graph.View())
	b.WriteString("\n")
	b.WriteString(bottomView)
	b.WriteString("\n")
	b.WriteString(statusView)
	return b.String()
}

// handleFlowEvent feeds a bus event into the log, the graph states, and the
// detail panel.
func (m AppModel) handleFlowEvent(msg FlowEventMsg) (tea.Model, tea.Cmd) {
	m.log.Append(msg.Time, msg.Event)

	if raw, ok := msg.Event.Patch["status"]; ok {
		state := StateOf(flow.Status(fmt.Sprint(raw)))
		m.graph.SetNodeState(msg.Event.NodeID, state)
		if state == StateRunning {
			kind, _, _ := m.runtime.Graph().Snapshot(msg.Event.NodeID)
			m.statusBar.SetActiveNode(nodeLabel(msg.Event.NodeID, kind))
		}
	}

	succeeded, failed := 0, 0
	for _, state := range m.graph.states {
		switch state {
		case StateSucceeded:
			succeeded++
		case StateFailed:
			failed++
		}
	}
	m.statusBar.SetCounts(succeeded, failed)

	if msg.Event.NodeID == m.target {
		m.refreshDetail()
	}
	return m, nil
}

// handleKeyMsg processes app-level key bindings.
func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == FocusGraph {
			m.focus = FocusLog
		} else {
			m.focus = FocusGraph
		}
		m.log.SetFocused(m.focus == FocusLog)
		return m, nil
	}
	return m, nil
}

// refreshDetail re-reads the watched node's snapshot into the detail panel.
func (m *AppModel) refreshDetail() {
	kind, data, ok := m.runtime.Graph().Snapshot(m.target)
	if !ok {
		m.detail.Clear()
		return
	}
	m.detail.SetNode(DetailFromSnapshot(m.target, kind, data))
}
