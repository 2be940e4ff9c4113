package ui

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned by RunWithSpinner when the user presses ctrl+c
// before the work finishes.
var ErrInterrupted = errors.New("interrupted")

type workDoneMsg struct{ err error }

// spinnerModel runs one unit of work as a command and spins until it reports back.
type spinnerModel struct {
	spin     spinner.Model
	label    string
	work     func() error
	err      error
	finished bool
}

func newSpinnerModel(label string, work func() error) spinnerModel {
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	spin.Style = lipgloss.NewStyle().Foreground(Current().Palette.Primary)
	return spinnerModel{spin: spin, label: label, work: work}
}

func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return workDoneMsg{err: work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workDoneMsg:
		m.err = msg.err
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err = ErrInterrupted
			m.finished = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if !m.finished {
		return m.spin.View() + " " + m.label + "\n"
	}
	return spinnerResult(m.label, m.err, 0) + "\n"
}

func spinnerResult(label string, err error, elapsed time.Duration) string {
	s := Current()
	took := ""
	if elapsed > 0 {
		took = " (" + elapsed.Round(time.Millisecond).String() + ")"
	}
	if err != nil {
		return s.ErrorStyle.Render(fmt.Sprintf("✗ %s%s: %v", label, took, err))
	}
	return s.SuccessStyle.Render("✓ " + label + took)
}

// RunWithSpinner runs fn while a spinner is shown. Without a terminal it
// prints one result line to stderr instead.
func RunWithSpinner(label string, fn func() error) error {
	if !IsInteractiveTerminal() {
		start := time.Now()
		err := fn()
		fmt.Fprintln(os.Stderr, spinnerResult(label, err, time.Since(start)))
		return err
	}

	final, err := tea.NewProgram(newSpinnerModel(label, fn), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("running spinner: %w", err)
	}
	return final.(spinnerModel).err
}
