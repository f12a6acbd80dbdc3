package extractor

import (
	"fmt"

	"github.com/use-agent/recipebox/models"
)

// Policy decides whether an extracted record is worth summarizing.
type Policy string

const (
	// PolicyTitleAndAnyList requires a real title and at least one
	// non-empty list. This is the default.
	PolicyTitleAndAnyList Policy = "title_and_any_list"

	// PolicyAllFields requires a real title, ingredients and instructions.
	PolicyAllFields Policy = "all_fields"
)

// ParsePolicy maps a config string to a Policy. Empty means the default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyTitleAndAnyList, nil
	case PolicyTitleAndAnyList, PolicyAllFields:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown usability policy %q", s)
}

// Usable reports whether r passes the policy.
func (p Policy) Usable(r models.ExtractedRecord) bool {
	if !r.HasTitle() {
		return false
	}
	if p == PolicyAllFields {
		return len(r.Ingredients) > 0 && len(r.Instructions) > 0
	}
	return len(r.Ingredients) > 0 || len(r.Instructions) > 0
}
