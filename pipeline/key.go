package pipeline

import (
	"net/url"
	"strings"

	"github.com/use-agent/recipebox/models"
)

// CanonicalKey is the store key for a page URL. Scheme and host are
// lowercased, the fragment is dropped and an empty path becomes "/".
// Path and query are kept as given.
func CanonicalKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", models.NewPipelineError(models.ErrCodeInvalidInput, "url is required", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", models.NewPipelineError(models.ErrCodeInvalidInput, "invalid url: "+raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", models.NewPipelineError(models.ErrCodeInvalidInput, "url must be absolute: "+raw, nil)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.RawPath == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
