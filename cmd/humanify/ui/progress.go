// Package ui renders engine progress as a terminal progress bar.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var labelStyle = lipgloss.NewStyle().Bold(true)

// ProgressMsg carries the engine's completion fraction.
type ProgressMsg float64

// DoneMsg tells the UI to exit.
type DoneMsg struct{}

// Model is a bubbletea model showing a single progress bar for one file.
type Model struct {
	label    string
	bar      progress.Model
	fraction float64
}

// New creates a progress model labelled with the file being processed.
func New(label string) Model {
	return Model{
		label: label,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - len(m.label) - 12
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.bar.Width = width
		}
		return m, nil
	case ProgressMsg:
		m.fraction = float64(msg)
		return m, m.bar.SetPercent(m.fraction)
	case DoneMsg:
		return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	return fmt.Sprintf("%s %s %3.0f%%\n", labelStyle.Render(m.label), m.bar.View(), m.fraction*100)
}
