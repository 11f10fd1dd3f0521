package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ylingtech/updatewatch/internal/updater"
)

// Controller is the part of the coordinator the prompt drives.
type Controller interface {
	State() updater.State
	CheckForUpdate(ctx context.Context, minDisplay time.Duration) bool
	Apply(ctx context.Context) error
	Snooze(ctx context.Context) error
	Dismiss(ctx context.Context) error
	SetVisible(visible bool)
}

// Options configures the prompt.
type Options struct {
	Context    context.Context
	Controller Controller
	// Updates delivers state changes published by the coordinator.
	Updates    <-chan updater.State
	MinDisplay time.Duration
}

type stateMsg updater.State

// updatesClosedMsg is sent once the Updates channel is closed.
type updatesClosedMsg struct{}

type actionMsg struct {
	action string
	err    error
	found  bool
}

// Model is the Bubble Tea model for the update prompt.
type Model struct {
	ctx        context.Context
	ctrl       Controller
	updates    <-chan updater.State
	minDisplay time.Duration

	keys    keyMap
	spinner spinner.Model
	state   updater.State
	notice  string
	width   int
	focused bool
}

// New creates the prompt model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctx:        ctx,
		ctrl:       opts.Controller,
		updates:    opts.Updates,
		minDisplay: opts.MinDisplay,
		keys:       defaultKeyMap(),
		spinner:    sp,
		state:      opts.Controller.State(),
		focused:    true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForState(m.updates))
}

func waitForState(ch <-chan updater.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return stateMsg(s)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.FocusMsg:
		m.focused = true
		m.ctrl.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.focused = false
		m.ctrl.SetVisible(false)
		return m, nil

	case stateMsg:
		m.state = updater.State(msg)
		return m, waitForState(m.updates)

	case updatesClosedMsg:
		return m, tea.Quit

	case actionMsg:
		m.notice = describeAction(msg)
		m.state = m.ctrl.State()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Check):
		if m.state.IsChecking() {
			return m, nil
		}
		m.notice = ""
		ctx, ctrl, minDisplay := m.ctx, m.ctrl, m.minDisplay
		return m, func() tea.Msg {
			found := ctrl.CheckForUpdate(ctx, minDisplay)
			return actionMsg{action: "check", found: found}
		}

	case key.Matches(msg, m.keys.Apply):
		if !m.state.HasUpdate() {
			m.notice = "No update pending."
			return m, nil
		}
		return m, m.run("apply", m.ctrl.Apply)

	case key.Matches(msg, m.keys.Snooze):
		if !m.state.HasUpdate() {
			m.notice = "No update pending."
			return m, nil
		}
		return m, m.run("snooze", m.ctrl.Snooze)

	case key.Matches(msg, m.keys.Dismiss):
		if !m.state.HasUpdate() {
			m.notice = "No update pending."
			return m, nil
		}
		return m, m.run("dismiss", m.ctrl.Dismiss)
	}
	return m, nil
}

func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{action: action, err: fn(ctx)}
	}
}

func describeAction(msg actionMsg) string {
	if msg.err != nil {
		if errors.Is(msg.err, updater.ErrInvalidVersion) {
			return "Nothing to " + msg.action + ": latest version unknown."
		}
		return msg.action + " failed: " + msg.err.Error()
	}
	switch msg.action {
	case "check":
		if msg.found {
			return "A new version is available."
		}
		return "You are up to date."
	case "apply":
		return "Update applied."
	case "snooze":
		return "Snoozed. You will be reminded later."
	case "dismiss":
		return "Dismissed. This version will not be offered again."
	}
	return ""
}
