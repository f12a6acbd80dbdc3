package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/use-agent/recipebox/models"
)

// conv is goroutine-safe and shared.
var conv = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Markdown converts rendered HTML to Markdown.
func Markdown(htmlContent string) (string, error) {
	md, err := conv.ConvertString(htmlContent)
	if err != nil {
		return "", fmt.Errorf("render: convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// MarkdownList renders entries as a Markdown document with one section
// per entry. The accordion controls are left out.
func MarkdownList(entries []*models.StoredSummary, loc *time.Location) (string, error) {
	if len(entries) == 0 {
		return models.MsgNoSavedRecipes, nil
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, `<h2>%s</h2><p>%s</p><p><em>Saved on: %s</em> · <a href="%s">source</a></p>`,
			textToHTML(e.DisplayName()),
			textToHTML(e.GeneratedText),
			SavedOn(e, loc),
			textToHTML(e.Key),
		)
	}
	return Markdown(b.String())
}
