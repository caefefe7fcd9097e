package main

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sendFunc delivers one IPC event to the daemon.
type sendFunc func(typ string, data any) error

type frameMsg struct{ frame any }

type connMsg struct {
	connected bool
	err       error
}

type sentMsg struct{ err error }

const (
	gaugeTop       = 2 // title + blank line
	chromeRows     = 5 // rows outside the gauge
	minGaugeRows   = 5
	defaultRows    = 16
	gaugeWidth     = 8
	dragPhaseBegan = "began"
	dragPhaseMoved = "changed"
	dragPhaseEnded = "ended"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ec4b6"))
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ec4b6"))
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3a3f4b"))
	markerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5f5f5"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808591"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5484d"))
)

// model is the potwatch TUI: a vertical gauge mirroring the daemon's dial.
// Dragging on the gauge with the left button sends drag samples over IPC,
// mapped into the daemon's view coordinates.
type model struct {
	send sendFunc

	known      bool
	value      float64
	angle      float64
	variant    string
	viewWidth  float64
	viewHeight float64

	rows     int
	dragging bool

	connected bool
	status    string
	lastErr   error
}

func newModel(send sendFunc) model {
	return model{send: send, rows: defaultRows, status: "connecting"}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.rows = max(minGaugeRows, msg.Height-chromeRows)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "+":
			return m, m.turn(1)
		case "down", "j", "-":
			return m, m.turn(-1)
		case "pgup":
			return m, m.turn(5)
		case "pgdown":
			return m, m.turn(-5)
		}

	case tea.MouseMsg:
		return m.mouse(msg)

	case frameMsg:
		m.apply(msg.frame)

	case connMsg:
		m.connected = msg.connected
		m.lastErr = msg.err
		if msg.connected {
			m.status = "connected"
		} else {
			m.status = "disconnected"
		}

	case sentMsg:
		m.lastErr = msg.err
	}
	return m, nil
}

func (m *model) apply(frame any) {
	switch f := frame.(type) {
	case stateInit:
		m.known = true
		m.value, m.angle = f.Value, f.Angle
		m.variant = f.Variant
		m.viewWidth, m.viewHeight = f.Width, f.Height
	case valueChanged:
		m.value, m.angle = f.Value, f.Angle
	case layoutChanged:
		m.viewWidth, m.viewHeight = f.Width, f.Height
	}
}

func (m model) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.known {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.inGauge(msg.Y) {
			return m, nil
		}
		m.dragging = true
		y := m.localY(msg.Y)
		return m, tea.Sequence(m.drag(y, dragPhaseBegan), m.drag(y, dragPhaseMoved))

	case tea.MouseActionMotion:
		if !m.dragging {
			return m, nil
		}
		return m, m.drag(m.localY(msg.Y), dragPhaseMoved)

	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		return m, m.drag(m.localY(msg.Y), dragPhaseEnded)
	}
	return m, nil
}

func (m model) inGauge(row int) bool {
	return row >= gaugeTop && row < gaugeTop+m.rows
}

// localY maps a terminal row to a y coordinate in the daemon's view, using
// the row center. Rows above or below the gauge clamp to its ends.
func (m model) localY(row int) float64 {
	i := math.Max(0, math.Min(float64(m.rows-1), float64(row-gaugeTop)))
	return m.viewHeight * (i + 0.5) / float64(m.rows)
}

func (m model) drag(y float64, phase string) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		return sentMsg{err: send("drag", map[string]any{"x": 0, "y": y, "phase": phase})}
	}
}

func (m model) turn(steps int) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		return sentMsg{err: send("rotary_turn", map[string]int{"steps": steps})}
	}
}

// filled reports whether gauge row i (0 at the top) is lit for value.
func (m model) filled(i int) bool {
	level := (float64(m.rows-i) - 0.5) / float64(m.rows)
	return m.value >= level
}

// markerRow is the gauge row holding the current value.
func (m model) markerRow() int {
	i := int(math.Round((1-m.value)*float64(m.rows) - 0.5))
	return max(0, min(m.rows-1, i))
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("potwatch"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.status))
	b.WriteString("\n\n")

	marker := m.markerRow()
	for i := 0; i < m.rows; i++ {
		bar := strings.Repeat("█", gaugeWidth)
		if m.filled(i) {
			b.WriteString(filledStyle.Render(bar))
		} else {
			b.WriteString(trackStyle.Render(bar))
		}
		if m.known && i == marker {
			b.WriteString(markerStyle.Render(fmt.Sprintf(" ◀ %.3f", m.value)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.known {
		b.WriteString(dimStyle.Render(fmt.Sprintf("variant %s  view %gx%g  angle %.3f rad",
			m.variant, m.viewWidth, m.viewHeight, m.angle)))
	} else {
		b.WriteString(dimStyle.Render("waiting for state"))
	}
	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(errStyle.Render(m.lastErr.Error()))
	} else {
		b.WriteString(dimStyle.Render("drag the gauge, ↑/↓ to turn, q to quit"))
	}
	return b.String()
}
