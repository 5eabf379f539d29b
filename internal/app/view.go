package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/ui"
)

const progressWidth = 30

// View renders the whole screen.
func (m Model) View() string {
	t := m.theme
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(t.DividerLine(width))
	b.WriteString("\n")
	b.WriteString(m.renderRecorder())
	b.WriteString("\n")
	b.WriteString(t.DividerLine(width))
	b.WriteString("\n")

	switch {
	case m.alert != "":
		b.WriteString(t.Panel.BorderForeground(t.Error.GetForeground()).Render(
			t.Error.Render("Error") + "\n\n" + m.alert + "\n\n" + t.Dim.Render("press enter to dismiss"),
		))
		b.WriteString("\n")
	case m.mode == modeCustom && m.custom != nil:
		b.WriteString(m.renderCustom())
		b.WriteString("\n")
	default:
		b.WriteString(m.renderHistory(width))
	}

	b.WriteString(t.DividerLine(width))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	t := m.theme
	ctxFlag := "off"
	if m.settings.UseContext {
		ctxFlag = "on"
	}

	parts := []string{
		t.Title.Render("walkie-talkie"),
		t.Status.Render("memory ") + t.Message.Render(m.settings.Label()),
		t.Status.Render("context ") + t.Message.Render(ctxFlag),
	}
	if line := m.view.StatsLine(); line != "" {
		parts = append(parts, t.Status.Render("stored ")+t.Message.Render(line))
	}
	return strings.Join(parts, t.Dim.Render("  │  "))
}

func (m Model) renderRecorder() string {
	t := m.theme

	var line string
	switch m.recStatus {
	case audio.StatusCapturing:
		line = fmt.Sprintf("%s %s %s",
			t.Recording.Render("● REC"),
			t.ProgressBar(m.recording.Progress(), progressWidth),
			t.Message.Render(fmt.Sprintf("%2ds left", m.recording.Remaining())),
		)
	case audio.StatusStopping:
		line = t.Recording.Render("■ stopping...")
	default:
		line = fmt.Sprintf("%s %s %s",
			t.Idle.Render("○"),
			t.ProgressBar(0, progressWidth),
			t.Dim.Render("press space to talk"),
		)
	}

	if label := m.phase.Label(); label != "" {
		line += "  " + t.Hint.Render(label)
	}
	if s, ok := m.svc.Playback.Current(); ok && s.Handle == "" && s.Playing {
		line += "  " + t.Playing.Render("♪ playing reply")
	}
	return line
}

func (m Model) renderHistory(width int) string {
	t := m.theme
	if m.view.Empty() {
		placeholder := m.view.Placeholder
		if placeholder == "" {
			placeholder = history.EmptyPlaceholder
		}
		return t.Dim.Render(placeholder) + "\n"
	}

	var lines []string
	selectedLine := 0
	for i, blk := range m.view.Blocks() {
		if i == m.selected {
			selectedLine = len(lines)
		}
		lines = append(lines, m.renderBlock(blk, i == m.selected, width)...)
		if blk.Role == history.RoleAssistant {
			lines = append(lines, "")
		}
	}

	return strings.Join(window(lines, selectedLine, m.historyHeight()), "\n") + "\n"
}

func (m Model) renderBlock(blk history.Block, selected bool, width int) []string {
	t := m.theme

	cursor := "  "
	if selected {
		cursor = t.Selected.Render("▸ ")
	}

	icon := t.Dim.Render("▶")
	if m.svc.Playback.Playing(blk.Handle) {
		icon = t.Playing.Render("⏸")
	}

	label := t.UserLabel.Render("You")
	if blk.Role == history.RoleAssistant {
		label = t.AILabel.Render("AI ")
	}

	textWidth := width - 8
	if textWidth < 20 {
		textWidth = 20
	}
	wrapped := lipgloss.NewStyle().Width(textWidth).Render(blk.Text)

	out := []string{}
	for i, l := range strings.Split(wrapped, "\n") {
		if i == 0 {
			out = append(out, cursor+icon+" "+label+" "+t.Message.Render(l))
			continue
		}
		out = append(out, "        "+t.Message.Render(l))
	}
	return out
}

func (m Model) historyHeight() int {
	// header, dividers, recorder, status, footer
	const chrome = 7
	if m.height <= chrome {
		return 0
	}
	return m.height - chrome
}

// window returns at most height lines that keep focus visible. A height
// of 0 means unlimited.
func window(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := focus - height/3
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func (m Model) renderCustom() string {
	t := m.theme
	f := m.custom

	label := func(field int, text string) string {
		if f.focus == field {
			return t.Selected.Render(text)
		}
		return t.Status.Render(text)
	}

	var b strings.Builder
	b.WriteString(t.Title.Render("Custom memory size"))
	b.WriteString("\n\n")
	b.WriteString(label(fieldSize, "Size:    ") + f.sizeInput.View() + "\n")
	b.WriteString(label(fieldKey, "API key: ") + f.keyInput.View() + "\n")
	if f.errMsg != "" {
		b.WriteString("\n" + t.Error.Render(f.errMsg) + "\n")
	}
	if f.infoMsg != "" {
		b.WriteString("\n" + t.Info.Render(f.infoMsg) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(t.Footer(
		ui.FooterItem{Key: "enter", Desc: "validate"},
		ui.FooterItem{Key: "tab", Desc: "next field"},
		ui.FooterItem{Key: "ctrl+r", Desc: "reset key"},
		ui.FooterItem{Key: "esc", Desc: "close"},
	))
	return t.Panel.Render(b.String())
}

func (m Model) renderStatusLine() string {
	t := m.theme
	switch {
	case m.mode == modeConfirmClear:
		return t.Hint.Render("Delete all conversations? press y to confirm, any other key to cancel")
	case m.errMsg != "":
		return t.Error.Render(m.errMsg)
	case m.status != "":
		return t.Info.Render(m.status)
	}
	return ""
}

func (m Model) renderFooter() string {
	return m.theme.Footer(
		ui.FooterItem{Key: "space", Desc: "talk"},
		ui.FooterItem{Key: "↑↓", Desc: "select"},
		ui.FooterItem{Key: "enter", Desc: "play/pause"},
		ui.FooterItem{Key: "s", Desc: "stop audio"},
		ui.FooterItem{Key: "1-3", Desc: "memory 5/10/20"},
		ui.FooterItem{Key: "c", Desc: "custom"},
		ui.FooterItem{Key: "u", Desc: "context"},
		ui.FooterItem{Key: "t", Desc: "theme"},
		ui.FooterItem{Key: "D", Desc: "clear"},
		ui.FooterItem{Key: "q", Desc: "quit"},
	)
}
