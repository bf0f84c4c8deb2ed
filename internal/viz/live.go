package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 600
	trailCapacity   = 400
	frameInterval   = time.Second / 60
)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State  dynamo.State
	Time   float64
	Energy float64
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// LiveOptions configures the live view.
type LiveOptions struct {
	Name       string
	Integrator string
	Dt         float64
	// StepsPerFrame is how many steps run between redraws.
	StepsPerFrame int
	Theme         string
	// OnStep, if set, is called with every new state.
	OnStep func(s dynamo.State, t float64)
}

// Model is the bubbletea model of the live view. It owns the current state;
// each frame replaces it with the step function's result.
type Model struct {
	opts    LiveOptions
	step    integrators.Relation
	gravity physics.Gravity

	initial dynamo.State
	state   dynamo.State
	t       float64
	e0      float64

	running  bool
	failed   bool
	showHelp bool

	canvas *Canvas
	camera *Camera
	theme  Theme

	trails        [][]dynamo.Vec3
	energyHistory []float64
	history       []Snapshot
	playHead      int
}

func NewModel(step integrators.Relation, g physics.Gravity, s0 dynamo.State, opts LiveOptions) Model {
	if opts.StepsPerFrame < 1 {
		opts.StepsPerFrame = 1
	}
	m := Model{
		opts:     opts,
		step:     step,
		gravity:  g,
		initial:  s0,
		running:  true,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		theme:    GetTheme(opts.Theme),
		playHead: -1,
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
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
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case ">", ".":
			m.opts.StepsPerFrame = min(m.opts.StepsPerFrame*2, 1024)
		case "<", ",":
			m.opts.StepsPerFrame = max(m.opts.StepsPerFrame/2, 1)
		case "t":
			m.theme = NextTheme(m.theme.Name)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "c":
			m.camera.Reset()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.failed {
			if m.playHead == -1 {
				for i := 0; i < m.opts.StepsPerFrame && !m.failed; i++ {
					m.advance()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// advance takes one step and records it.
func (m *Model) advance() {
	next := m.step(m.state, m.opts.Dt)
	if !next.IsValid() {
		m.failed = true
		m.running = false
		return
	}
	m.state = next
	m.t += m.opts.Dt
	m.record()
	if m.opts.OnStep != nil {
		m.opts.OnStep(m.state, m.t)
	}
}

func (m *Model) record() {
	energy := m.gravity.TotalEnergy(m.state)
	m.energyHistory = appendCapped(m.energyHistory, physics.RelativeEnergyError(m.e0, energy), historyCapacity)

	for k, p := range m.state.Positions() {
		m.trails[k] = appendCapped(m.trails[k], p, trailCapacity)
	}

	m.history = appendCapped(m.history, Snapshot{State: m.state, Time: m.t, Energy: energy}, historyCapacity)
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[1:]
	}
	return s
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state and clears all recorded history.
func (m *Model) reset() {
	m.state = m.initial
	m.t = 0
	m.e0 = m.gravity.TotalEnergy(m.initial)
	m.failed = false
	m.playHead = -1
	m.trails = make([][]dynamo.Vec3, m.initial.Len())
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.history = append(m.history, Snapshot{State: m.state, Time: 0, Energy: m.e0})
	for k, p := range m.state.Positions() {
		m.trails[k] = append(m.trails[k], p)
	}
}

// State is the state currently on screen, which differs from the latest
// state while replaying.
func (m Model) State() (dynamo.State, float64) {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		return snap.State, snap.Time
	}
	return m.state, m.t
}

func (m Model) draw(s dynamo.State) {
	m.canvas.Clear()

	centre := physics.CenterOfMass(s)
	all := make([]dynamo.Vec3, 0, trailCapacity*len(m.trails))
	for _, trail := range m.trails {
		all = append(all, m.camera.View(trail, centre)...)
	}
	current := m.camera.View(s.Positions(), centre)
	all = append(all, current...)
	vp := FitViewport(m.canvas, all)
	vp.Scale *= m.camera.Zoom

	for k, trail := range m.trails {
		for _, p := range m.camera.View(trail, centre) {
			x, y := vp.Project(m.canvas, p)
			m.canvas.SetBody(x, y, k)
		}
	}
	for k, p := range current {
		x, y := vp.Project(m.canvas, p)
		m.canvas.DrawDisc(x, y, 1, k)
	}
}

func (m Model) View() string {
	s, t := m.State()
	m.draw(s)

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.failed:
		status = StatusFailed.Render("DIVERGED")
	case m.playHead != -1:
		status = StatusPaused.Render(fmt.Sprintf("REPLAY (%.2f)", t-m.t))
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(m.opts.Name)) + "\n")
	b.WriteString(status + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("|ΔE/E0|"))
		b.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	energy := m.gravity.TotalEnergy(s)
	row := func(label, value string) {
		b.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Integrator", m.opts.Integrator)
	row("Bodies", fmt.Sprintf("%d", s.Len()))
	row("Time", fmt.Sprintf("%.3f", t))
	row("dt", fmt.Sprintf("%g x%d", m.opts.Dt, m.opts.StepsPerFrame))
	row("Energy", fmt.Sprintf("%.6f", energy))
	row("Rel. error", fmt.Sprintf("%.2e", physics.RelativeEnergyError(m.e0, energy)))
	p := physics.Momentum(s)
	row("|P|", fmt.Sprintf("%.2e", p.Norm()))
	row("|L|", fmt.Sprintf("%.6f", physics.AngularMomentum(s).Norm()))

	b.WriteString(KeyHint.Render("\nSP:Pause R:Reset Q:Quit\n[ ]:Replay </>:Speed ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.Render(m.theme)),
		statsStyle.Render(b.String()))
	if m.showHelp {
		return GlassPanel.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `Space    pause / resume
R        reset to the initial state
[ ]      step back / forward through history
< >      halve / double steps per frame
x y z    rotate the view (shift reverses)
+ -      zoom
C        reset the view
T        cycle colour themes
Q        quit`

// Energies returns the relative energy error history, oldest first.
func (m Model) Energies() []float64 {
	out := make([]float64, len(m.energyHistory))
	copy(out, m.energyHistory)
	return out
}

// Run starts the live view and blocks until the user quits.
func Run(step integrators.Relation, g physics.Gravity, s0 dynamo.State, opts LiveOptions) error {
	_, err := tea.NewProgram(NewModel(step, g, s0, opts), tea.WithAltScreen()).Run()
	return err
}
