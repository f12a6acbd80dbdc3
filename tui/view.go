package tui

import (
	"fmt"
	"strings"

	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/render"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(TextTitle))
	b.WriteString("\n")

	if status := m.statusText(); status != "" {
		b.WriteString(status)
		b.WriteString("\n\n")
	}

	switch m.Screen {
	case ScreenList:
		b.WriteString(m.listView())
	default:
		b.WriteString(m.currentView())
	}
	b.WriteString("\n")

	if m.State == StateConfirmDelete {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf(TextConfirmDelete, m.PendingDelete)))
		b.WriteString("\n")
	}
	b.WriteString(InfoStyle.Render(m.footer()))
	return b.String()
}

func (m Model) statusText() string {
	msg := m.Status.Message
	if msg == "" {
		return ""
	}
	switch m.Status.Kind {
	case models.StatusBusy:
		return StatusStyle.Render("⏳ " + msg)
	case models.StatusError:
		return ErrorStyle.Render("❌ " + msg)
	case models.StatusReported:
		return HighlightStyle.Render(msg)
	default:
		return StatusStyle.Render(msg)
	}
}

func (m Model) currentView() string {
	if m.Current == nil {
		if m.State == StateLoading {
			return ""
		}
		return InfoStyle.Render(TextNoSummary) + "\n"
	}

	var b strings.Builder
	b.WriteString(HighlightStyle.Render(models.MsgRecipeSummaryH3))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(m.Current.GeneratedText, "\n"))
	return BoxStyle.Render(b.String()) + "\n"
}

// listView renders the accordion: one header per entry, with the panel
// of an expanded entry below its header.
func (m Model) listView() string {
	if len(m.Entries) == 0 {
		return InfoStyle.Render(models.MsgNoSavedRecipes) + "\n"
	}

	var b strings.Builder
	for i, e := range m.Entries {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := "+ "
		if m.Expanded[e.Key] {
			marker = "- "
		}
		header := truncate(e.DisplayName(), m.headerWidth())
		if i == m.Cursor {
			b.WriteString(cursor + HighlightStyle.Render(marker+header))
		} else {
			b.WriteString(cursor + HeaderStyle.Render(marker+header))
		}
		b.WriteString("\n")

		if m.Expanded[e.Key] {
			panel := strings.TrimRight(e.GeneratedText, "\n") +
				"\n\n" + InfoStyle.Render("Saved on: "+render.SavedOn(e, m.loc)) +
				"\n" + InfoStyle.Render("[d] Delete Recipe")
			b.WriteString(PanelStyle.Render(panel))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) footer() string {
	switch {
	case m.State == StateBusy || m.State == StateLoading:
		return TextFooterBusy
	case m.Screen == ScreenList:
		return TextFooterList
	default:
		return TextFooterCurrent
	}
}
