// ABOUTME: Side panel showing the watched node's kind, status, inputs, and run outputs.
package tui

import (
	"strings"

	"github.com/litai12/Tanva-sub008/flow"
)

// NodeDetail is the snapshot of one node the detail panel renders.
type NodeDetail struct {
	ID      string
	Kind    flow.NodeKind
	State   NodeState
	Error   string
	Prompt  string
	Text    string
	Outputs []string
}

// DetailFromSnapshot builds a NodeDetail from a graph snapshot.
func DetailFromSnapshot(nodeID string, kind flow.NodeKind, data *flow.NodeData) NodeDetail {
	d := NodeDetail{
		ID:     nodeID,
		Kind:   kind,
		State:  StateOf(data.Status),
		Error:  data.Error,
		Prompt: data.Prompt,
		Text:   data.Text,
	}
	d.Outputs = append(d.Outputs, data.Images...)
	if data.VideoURL != "" {
		d.Outputs = append(d.Outputs, data.VideoURL)
	}
	if data.ModelURL != "" {
		d.Outputs = append(d.Outputs, data.ModelURL)
	}
	return d
}

// DetailPanelModel renders the watched node's detail.
type DetailPanelModel struct {
	detail NodeDetail
	active bool
	width  int
	height int
}

// NewDetailPanelModel creates an empty detail panel.
func NewDetailPanelModel() DetailPanelModel {
	return DetailPanelModel{}
}

// SetNode sets the node detail to display.
func (m *DetailPanelModel) SetNode(d NodeDetail) {
	m.detail = d
	m.active = true
}

// Clear removes the displayed node.
func (m *DetailPanelModel) Clear() {
	m.detail = NodeDetail{}
	m.active = false
}

// SetSize sets the available dimensions.
func (m *DetailPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the detail panel.
func (m DetailPanelModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("NODE"))
	b.WriteString("\n")

	if !m.active {
		b.WriteString(IdleStyle.Render("No node selected"))
	} else {
		d := m.detail
		row := func(label, value string) {
			if value == "" {
				return
			}
			b.WriteString(LabelStyle.Render(label))
			b.WriteString(ValueStyle.Render(truncate(value, m.width-12)))
			b.WriteString("\n")
		}
		row("id", d.ID)
		row("kind", string(d.Kind))
		b.WriteString(LabelStyle.Render("status"))
		b.WriteString(StyleForState(d.State).Render(d.State.String()))
		b.WriteString("\n")
		row("prompt", d.Prompt)
		row("text", d.Text)
		for _, out := range d.Outputs {
			row("out", out)
		}
		if d.Error != "" {
			b.WriteString(LabelStyle.Render("error"))
			b.WriteString(FailedStyle.Render(truncate(d.Error, m.width-12)))
			b.WriteString("\n")
		}
	}

	width := m.width - 2
	if width < 1 {
		width = 1
	}
	height := m.height - 2
	if height < 1 {
		height = 1
	}
	return BorderStyle.Width(width).Height(height).Render(b.String())
}

// truncate shortens a value to fit the panel, marking the cut with an
// ellipsis.
func truncate(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
