package ui

import (
	"strings"
)

// ProgressBar renders a width-cell bar filled to progress in [0, 1].
func (t Theme) ProgressBar(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress*float64(width) + 0.5)
	return t.ProgressOn.Render(strings.Repeat("█", filled)) +
		t.ProgressOff.Render(strings.Repeat("░", width-filled))
}

// FooterItem is one key hint in the footer.
type FooterItem struct {
	Key  string
	Desc string
}

// Footer renders key hints separated by two spaces.
func (t Theme) Footer(items ...FooterItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, t.FooterKey.Render(it.Key)+" "+t.FooterDesc.Render(it.Desc))
	}
	return strings.Join(parts, "  ")
}

// DividerLine is a horizontal rule of the given width.
func (t Theme) DividerLine(width int) string {
	if width <= 0 {
		width = 40
	}
	return t.Divider.Render(strings.Repeat("─", width))
}
