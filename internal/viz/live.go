package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hardsim/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	maxPerFrame     = 1 << 14
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory builds a fresh driver. It is called at start and on every restart.
type Factory func() (*sim.Driver, error)

// Model is the live view: it resolves a batch of collisions per frame and
// redraws the box.
type Model struct {
	name       string
	factory    Factory
	driver     *sim.Driver
	xMax, yMax float64
	canvas     *Canvas
	running    bool
	perFrame   int
	energy     []float64
	err        error
}

func NewModel(name string, xMax, yMax float64, factory Factory) (Model, error) {
	m := Model{
		name:     name,
		factory:  factory,
		xMax:     xMax,
		yMax:     yMax,
		canvas:   NewCanvas(width, height),
		running:  true,
		perFrame: 1,
	}
	if err := m.reset(); err != nil {
		return m, err
	}
	return m, nil
}

func (m *Model) reset() error {
	d, err := m.factory()
	if err != nil {
		return err
	}
	m.driver = d
	m.energy = make([]float64, 0, historyCapacity)
	m.err = nil
	m.draw()
	return nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "+", "=":
			m.perFrame = min(m.perFrame*2, maxPerFrame)
		case "-", "_":
			m.perFrame = max(m.perFrame/2, 1)
		case "t":
			NextTheme()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

// step resolves up to perFrame collisions.
func (m *Model) step() {
	d := m.driver
	target := d.Resolved() + m.perFrame
	for d.State() == sim.Running && d.Resolved() < target {
		if _, err := d.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
	}

	frac := 0.0
	if e0 := d.InitialEnergy(); e0 > 0 {
		frac = d.Store().KineticEnergy() / e0
	}
	m.energy = append(m.energy, frac)
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	DrawBox(m.canvas, m.driver.Store(), m.xMax, m.yMax)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusStopped.Render("FAILED")
	case m.driver.State() == sim.Terminated:
		return StatusStopped.Render("DONE (" + m.driver.StopReason().String() + ")")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

func (m Model) View() string {
	theme := CurrentTheme
	canvasView := canvasStyle.Foreground(theme.Primary).Render(m.canvas.String())
	d := m.driver

	var s strings.Builder
	s.WriteString(HeaderStyle.Foreground(theme.Accent).Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	frac := 1.0
	if n := len(m.energy); n > 0 {
		frac = m.energy[n-1]
	}
	s.WriteString(labelStyle.Render("Time") + MetricValue.Render(fmt.Sprintf("%.4g", d.Time())) + "\n")
	s.WriteString(labelStyle.Render("Events") + MetricValue.Render(fmt.Sprintf("%d", d.Resolved())) + "\n")
	s.WriteString(labelStyle.Render("Discarded") + MetricValue.Render(fmt.Sprintf("%d", d.Discarded())) + "\n")
	s.WriteString(labelStyle.Render("TC events") + MetricValue.Render(fmt.Sprintf("%d", d.TCEvents())) + "\n")
	s.WriteString(labelStyle.Render("Per frame") + MetricValue.Render(fmt.Sprintf("%d", m.perFrame)) + "\n")
	s.WriteString(labelStyle.Render("Energy") + ProgressBar(frac, 20) + MetricValue.Render(fmt.Sprintf(" %.1f%%", 100*frac)) + "\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("E/E0"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Width(40).Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Separator(30) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause R:Restart Q:Quit\n+/-:Speed T:Theme"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Picker lists presets and hands over to a live Model once one is chosen.
type Picker struct {
	names  []string
	cursor int
	open   func(name string) (Model, error)
	err    error
}

func NewPicker(names []string, open func(name string) (Model, error)) Picker {
	return Picker{names: names, open: open}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.names) == 0 {
			return p, nil
		}
		m, err := p.open(p.names[p.cursor])
		if err != nil {
			p.err = err
			return p, nil
		}
		return m, m.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("HARDSIM PRESETS") + "\n\n")
	for i, name := range p.names {
		if i == p.cursor {
			s.WriteString(Selected.Render("> "+name) + "\n")
		} else {
			s.WriteString("  " + Subtle.Render(name) + "\n")
		}
	}
	if p.err != nil {
		s.WriteString("\n" + StatusStopped.Render(p.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("↑↓:Select Enter:Run Q:Quit"))
	return Panel.Render(s.String())
}
