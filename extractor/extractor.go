package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/recipebox/models"
)

// Extractor reads an ExtractedRecord out of a page document.
// It only queries the document and never modifies it.
type Extractor struct {
	profiles *ProfileSet
}

// New creates an Extractor. A nil set uses the built-in profiles.
func New(profiles *ProfileSet) *Extractor {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Extractor{profiles: profiles}
}

// Extract reads the recipe from doc using the profile chosen for pageURL.
//
// It never fails: a document that does not match yields the placeholder
// title and empty lists, and any panic raised while walking the document
// is recovered into the same empty record.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (rec models.ExtractedRecord) {
	if doc == nil {
		return models.EmptyRecord()
	}
	profile := e.profiles.For(pageURL)

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("extractor: recovered from panic",
				"url", pageURL, "profile", profile.Name, "panic", r)
			rec = models.EmptyRecord()
		}
	}()

	rec = models.ExtractedRecord{
		Title:        firstText(doc, profile.Title),
		Ingredients:  listText(doc, profile.Ingredients),
		Instructions: listText(doc, profile.Instructions),
	}
	if rec.Title == "" && profile.ReadabilityTitle {
		rec.Title = readabilityTitle(doc, pageURL)
	}
	if rec.Title == "" {
		rec.Title = models.UnknownTitle
	}

	slog.Debug("extractor: record extracted",
		"url", pageURL,
		"profile", profile.Name,
		"ingredients", len(rec.Ingredients),
		"instructions", len(rec.Instructions),
	)
	return rec
}

// ExtractHTML parses rawHTML and extracts from it. Markup that cannot be
// parsed yields the empty record.
func (e *Extractor) ExtractHTML(rawHTML, pageURL string) models.ExtractedRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Warn("extractor: failed to parse document", "url", pageURL, "error", err)
		return models.EmptyRecord()
	}
	return e.Extract(doc, pageURL)
}

// firstText returns the trimmed text of the first element matching sel.
func firstText(doc *goquery.Document, sel string) string {
	return normalizeSpace(doc.Find(sel).First().Text())
}

// listText returns the trimmed text of each element matching sel, in
// document order, skipping elements with no text.
func listText(doc *goquery.Document, sel string) []string {
	items := []string{}
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if text := normalizeSpace(s.Text()); text != "" {
			items = append(items, text)
		}
	})
	return items
}

// normalizeSpace trims and collapses the runs of whitespace that markup
// indentation leaves inside list items.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func readabilityTitle(doc *goquery.Document, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	rawHTML, err := doc.Html()
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("extractor: readability title fallback failed", "url", pageURL, "error", err)
		return ""
	}
	return strings.TrimSpace(article.Title)
}
