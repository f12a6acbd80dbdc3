package tui

// UI text
const (
	TextTitle = "Recipe Summarizer"

	TextFooterCurrent = "c crawl | v view all | q quit"
	TextFooterList    = "↑/↓ select | enter expand | d delete | esc back | q quit"
	TextFooterBusy    = "working... | q quit"
	TextConfirmDelete = "Delete %q? y to confirm, any other key to cancel"

	TextNoSummary = "No summary saved for this page yet. Press 'c' to crawl it."
)
