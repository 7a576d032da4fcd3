// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gazelab/pursuit/lib/operator"
)

// keyMap is the console's key bindings. It implements help.KeyMap.
type keyMap struct {
	Select     key.Binding
	Stimulus   key.Binding
	Streams    key.Binding
	Disconnect key.Binding
	Reload     key.Binding
	Quit       key.Binding
}

var defaultKeys = keyMap{
	Select: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "select preset"),
	),
	Stimulus: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start/stop stimulus"),
	),
	Streams: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "start/stop streams"),
	),
	Disconnect: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "disconnect"),
	),
	Reload: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "reload presets"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Stimulus, k.Streams, k.Disconnect, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// consoleTheme is the console palette, in ANSI 256-color codes.
type consoleTheme struct {
	NormalText       lipgloss.Color
	FaintText        lipgloss.Color
	HeaderForeground lipgloss.Color
	Running          lipgloss.Color
	Pending          lipgloss.Color
	ErrorText        lipgloss.Color
	SelectedMarker   lipgloss.Color
}

var defaultTheme = consoleTheme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("245"),
	HeaderForeground: lipgloss.Color("255"),
	Running:          lipgloss.Color("114"), // green
	Pending:          lipgloss.Color("220"), // amber
	ErrorText:        lipgloss.Color("196"), // red
	SelectedMarker:   lipgloss.Color("75"),  // blue
}

// updateMsg reports that the operator snapshot changed.
type updateMsg struct{}

type consoleModel struct {
	operator *operator.Operator
	reload   func() error
	keys     keyMap
	help     help.Model
	theme    consoleTheme

	snapshot operator.Snapshot
	presets  []operator.Preset

	// notice is the outcome of the last key press, cleared by the next.
	notice string
}

func newConsoleModel(op *operator.Operator, reload func() error) consoleModel {
	model := consoleModel{
		operator: op,
		reload:   reload,
		keys:     defaultKeys,
		help:     help.New(),
		theme:    defaultTheme,
	}
	model.refresh()
	return model
}

func runConsole(ctx context.Context, op *operator.Operator, reload func() error) error {
	program := tea.NewProgram(newConsoleModel(op, reload), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (model consoleModel) Init() tea.Cmd {
	return waitForUpdate(model.operator.Updates())
}

// waitForUpdate blocks until the operator signals a change.
func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return updateMsg{}
	}
}

func (model *consoleModel) refresh() {
	model.snapshot = model.operator.Snapshot()
	model.presets = model.operator.Presets()
}

func (model consoleModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case updateMsg:
		model.refresh()
		return model, waitForUpdate(model.operator.Updates())

	case tea.WindowSizeMsg:
		model.help.Width = message.Width
		return model, nil

	case tea.KeyMsg:
		model.notice = ""
		var err error
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Select):
			index := int(message.String()[0] - '1')
			if index >= len(model.presets) {
				err = fmt.Errorf("no preset %d", index+1)
				break
			}
			err = model.operator.ChangeStimulus(model.presets[index])
		case key.Matches(message, model.keys.Stimulus):
			if model.snapshot.StimulusRunning {
				err = model.operator.StopStimulus()
			} else {
				err = model.operator.StartStimulus()
			}
		case key.Matches(message, model.keys.Streams):
			if model.snapshot.StreamsRunning {
				err = model.operator.StopStreams()
			} else {
				err = model.operator.StartStreams()
			}
		case key.Matches(message, model.keys.Disconnect):
			model.operator.Disconnect()
		case key.Matches(message, model.keys.Reload):
			if err = model.reload(); err == nil {
				model.notice = "presets reloaded"
			}
		}
		if err != nil {
			model.notice = err.Error()
		}
		model.refresh()
		return model, nil
	}
	return model, nil
}

func (model consoleModel) View() string {
	theme := model.theme
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	label := lipgloss.NewStyle().Foreground(theme.FaintText).Width(11)
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	running := lipgloss.NewStyle().Foreground(theme.Running)
	pending := lipgloss.NewStyle().Foreground(theme.Pending)
	failure := lipgloss.NewStyle().Foreground(theme.ErrorText)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	var builder strings.Builder
	row := func(name, value string) {
		builder.WriteString(label.Render(name) + value + "\n")
	}

	builder.WriteString(header.Render("pursuit operator") + "\n\n")

	snapshot := model.snapshot
	if snapshot.Connected {
		row("presenter", running.Render("connected")+" "+faint.Render(snapshot.Remote))
	} else {
		row("presenter", pending.Render("waiting for presenter"))
	}

	switch {
	case snapshot.Stimulus == "":
		row("stimulus", faint.Render("none"))
	case snapshot.Confirmed:
		row("stimulus", normal.Render(snapshot.Stimulus))
	default:
		row("stimulus", normal.Render(snapshot.Stimulus)+" "+pending.Render("(pending)"))
	}

	if snapshot.StimulusRunning {
		row("run", running.Render("running"))
	} else {
		row("run", faint.Render("stopped"))
	}
	if snapshot.StreamsRunning {
		row("streams", running.Render("on"))
	} else {
		row("streams", faint.Render("off"))
	}
	row("step", normal.Render(fmt.Sprintf("%d/%d", snapshot.Step, snapshot.Total)))
	if snapshot.LastError != "" {
		row("error", failure.Render(snapshot.LastError))
	}

	builder.WriteString("\n" + header.Render("presets") + "\n")
	if len(model.presets) == 0 {
		builder.WriteString(faint.Render("  none configured") + "\n")
	}
	marker := lipgloss.NewStyle().Foreground(theme.SelectedMarker)
	for i, preset := range model.presets {
		prefix := "  "
		if preset.Kind.Name == snapshot.Stimulus {
			prefix = marker.Render("▸ ")
		}
		line := fmt.Sprintf("%d  %-24s %s", i+1, preset.Kind.Name,
			faint.Render(fmt.Sprintf("%d %s", preset.Len, preset.Kind.SequenceKey())))
		builder.WriteString(prefix + line + "\n")
	}

	if model.notice != "" {
		builder.WriteString("\n" + pending.Render(model.notice) + "\n")
	}
	builder.WriteString("\n" + model.help.View(model.keys))
	return builder.String()
}
