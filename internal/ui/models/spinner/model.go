package spinner

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ignitionstack/polytree/internal/ui"
)

type Model struct {
	spinner   spinner.Model
	step      string
	err       error
	done      bool
	hasResult bool
	result    interface{}
}

func (m Model) HasError() bool {
	return m.err != nil
}

func (m Model) HasResult() bool {
	return m.hasResult
}

func (m Model) GetResult() interface{} {
	return m.result
}

func (m Model) GetError() error {
	return m.err
}

func NewModel(message string) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.InfoColor))
	return Model{
		spinner: s,
		step:    message,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// ResultMsg ends the spinner with a result.
type ResultMsg struct {
	Result interface{}
}

// StepMsg replaces the text shown next to the spinner.
type StepMsg string

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.Type == tea.KeyCtrlC {
			m.err = fmt.Errorf("interrupted")
			m.done = true
			return m, tea.Quit
		}
	case error:
		m.err = msg
		m.done = true
		// the caller reports the error once the program has exited
		return m, tea.Quit
	case ResultMsg:
		m.result = msg.Result
		m.hasResult = true
		m.done = true
		return m, tea.Quit
	case StepMsg:
		m.step = string(msg)
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.step)
}
