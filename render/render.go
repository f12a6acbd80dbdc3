// Package render turns stored summaries into HTML, Markdown and terminal
// text for the front-ends.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/use-agent/recipebox/models"
)

// SavedOnLayout formats the "Saved on:" line.
const SavedOnLayout = "Jan 2, 2006 3:04 PM"

// textToHTML escapes s and turns newlines into <br>.
func textToHTML(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

// HTML renders one summary as the popup shows it.
func HTML(s *models.StoredSummary) string {
	if s == nil {
		return ""
	}
	return "<h3>" + models.MsgRecipeSummaryH3 + "</h3><p>" + textToHTML(s.GeneratedText) + "</p>"
}

// HTMLList renders saved entries as an accordion: one .recipe block per
// entry with a header and a collapsible panel holding the text, the save
// time in loc and a delete button carrying the entry's key.
func HTMLList(entries []*models.StoredSummary, loc *time.Location) string {
	if len(entries) == 0 {
		return "<p>" + models.MsgNoSavedRecipes + "</p>"
	}
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString(`<div class="accordion">`)
	for _, e := range entries {
		fmt.Fprintf(&b,
			`<div class="recipe"><button class="accordion-header">%s</button>`+
				`<div class="panel"><p>%s</p><p class="saved-on">Saved on: %s</p>`+
				`<button class="delete-recipe" data-url="%s">Delete Recipe</button></div></div>`,
			html.EscapeString(e.DisplayName()),
			textToHTML(e.GeneratedText),
			SavedOn(e, loc),
			html.EscapeString(e.Key),
		)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// SavedOn formats the entry's save time in loc.
func SavedOn(s *models.StoredSummary, loc *time.Location) string {
	if s.SavedAt.IsZero() {
		return "unknown"
	}
	if loc == nil {
		loc = time.Local
	}
	return s.SavedAt.In(loc).Format(SavedOnLayout)
}

// Text renders one summary for a terminal.
func Text(s *models.StoredSummary, loc *time.Location) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(s.DisplayName())
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(s.GeneratedText, "\n"))
	b.WriteString("\n\nSaved on: ")
	b.WriteString(SavedOn(s, loc))
	b.WriteString("\n")
	return b.String()
}

// TextList renders entries separated by rules.
func TextList(entries []*models.StoredSummary, loc *time.Location) string {
	if len(entries) == 0 {
		return models.MsgNoSavedRecipes + "\n"
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = Text(e, loc)
	}
	return strings.Join(parts, strings.Repeat("─", 40)+"\n")
}
