package tab

import "context"

// Static is a tab whose document the caller already holds, such as the
// outerHTML posted by a browser extension.
type Static struct {
	URL  string
	HTML string
}

func (s Static) CurrentURL(context.Context) (string, error) {
	if err := ValidateURL(s.URL); err != nil {
		return "", err
	}
	return s.URL, nil
}

func (s Static) Resolve(ctx context.Context) (*Tab, error) {
	u, err := s.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	return &Tab{URL: u, HTML: s.HTML}, nil
}
