package models

import (
	"encoding/json"
	"time"
)

// UnknownTitle is the title substituted when a page has no heading.
const UnknownTitle = "Unknown Title"

// ExtractedRecord is the fixed-shape recipe read out of a page.
// It is created per extraction and never persisted directly.
type ExtractedRecord struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// EmptyRecord returns the record produced when nothing could be extracted.
func EmptyRecord() ExtractedRecord {
	return ExtractedRecord{
		Title:        UnknownTitle,
		Ingredients:  []string{},
		Instructions: []string{},
	}
}

// HasTitle reports whether the title is present and not the placeholder.
func (r ExtractedRecord) HasTitle() bool {
	return r.Title != "" && r.Title != UnknownTitle
}

// StoredSummary is the persisted summary for one page, keyed by URL.
type StoredSummary struct {
	Key           string    `json:"key"`
	Title         string    `json:"title,omitempty"`
	GeneratedText string    `json:"generatedText"`
	SavedAt       time.Time `json:"savedAt"`
}

// UnmarshalJSON accepts both the current field names and the legacy
// {url, response, timestamp} layout. Missing fields are left zero.
func (s *StoredSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key           string `json:"key"`
		Title         string `json:"title"`
		GeneratedText string `json:"generatedText"`
		SavedAt       string `json:"savedAt"`

		URL       string `json:"url"`
		Response  string `json:"response"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = StoredSummary{
		Key:           firstNonEmpty(raw.Key, raw.URL),
		Title:         raw.Title,
		GeneratedText: firstNonEmpty(raw.GeneratedText, raw.Response),
	}

	if ts := firstNonEmpty(raw.SavedAt, raw.Timestamp); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return err
		}
		s.SavedAt = t
	}
	return nil
}

// Equal reports whether two summaries carry the same fields.
// SavedAt is compared as an instant, ignoring location.
func (s *StoredSummary) Equal(o *StoredSummary) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Key == o.Key &&
		s.Title == o.Title &&
		s.GeneratedText == o.GeneratedText &&
		s.SavedAt.Equal(o.SavedAt)
}

// DisplayName is the header shown for a saved entry.
func (s *StoredSummary) DisplayName() string {
	if s.Title != "" && s.Title != UnknownTitle {
		return s.Title
	}
	return s.Key
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
