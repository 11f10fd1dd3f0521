package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ylingtech/updatewatch/internal/branding"
	"github.com/ylingtech/updatewatch/internal/updater"
	"github.com/ylingtech/updatewatch/internal/version"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Width(10)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	noticeStyle  = lipgloss.NewStyle().Italic(true)
	bannerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#50FA7B")).Padding(0, 2)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(branding.DisplayName()))
	b.WriteString("\n\n")

	s := m.state
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Current"), s.CurrentVersion)
	latest := s.LatestVersion
	if latest == "" {
		latest = "-"
	}
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Latest"), latest)
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Status"), m.statusLine())
	if !s.LastChecked.IsZero() {
		fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("Checked"), s.LastChecked.Local().Format(time.TimeOnly))
	}
	if s.LastError != nil {
		b.WriteString(errorStyle.Render("Last check failed: "+s.LastError.Error()) + "\n")
	}

	if s.HasUpdate() && s.Pending != nil {
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render(bannerText(s)))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) statusLine() string {
	switch m.state.Phase {
	case updater.PhaseChecking:
		return m.spinner.View() + " checking"
	case updater.PhaseApplying:
		return m.spinner.View() + " applying"
	case updater.PhaseUpdateAvailable:
		return "update available"
	}
	if !m.focused {
		return "paused"
	}
	return "up to date"
}

func bannerText(s updater.State) string {
	head := "New version available: " + s.Pending.String()
	if s.CurrentVersion != version.Unknown {
		if change := version.Classify(version.Descriptor{Version: s.CurrentVersion}, *s.Pending); change != version.ChangeUnknown {
			head += " [" + change.String() + "]"
		}
	}
	return head + "\nApply to reload, snooze for later or dismiss this version."
}

func (m Model) helpLine() string {
	var parts []string
	for _, kb := range m.keys.bindings() {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
