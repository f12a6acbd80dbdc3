package extractor

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// SelectorProfile is the set of CSS selectors used to read a recipe from
// one family of sites.
type SelectorProfile struct {
	// Name identifies the profile in logs.
	Name string `yaml:"name"`

	// Hosts are host suffixes this profile applies to ("example.com" also
	// matches "www.example.com"). A profile with no hosts is a default.
	Hosts []string `yaml:"hosts"`

	// Title selects the heading. Only the first match is used.
	Title string `yaml:"title"`

	// Ingredients and Instructions select list items, in document order.
	Ingredients  string `yaml:"ingredients"`
	Instructions string `yaml:"instructions"`

	// ReadabilityTitle falls back to the readability article title when
	// the Title selector finds nothing.
	ReadabilityTitle bool `yaml:"readability_title"`
}

// DefaultProfile matches the markup most recipe pages use.
var DefaultProfile = SelectorProfile{
	Name:         "default",
	Title:        "h1",
	Ingredients:  ".ingredients li",
	Instructions: ".instructions li",
}

// GroceryListProfile reads ingredients rendered as grocery list items.
var GroceryListProfile = SelectorProfile{
	Name:         "grocery-list",
	Title:        "h1",
	Ingredients:  ".single-list-item.grocery-list-item",
	Instructions: ".instructions li",
}

// builtin lists the profiles a profiles file may refer to by name alone.
var builtin = map[string]SelectorProfile{
	DefaultProfile.Name:     DefaultProfile,
	GroceryListProfile.Name: GroceryListProfile,
}

// Validate checks that every selector compiles.
func (p SelectorProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	for field, sel := range map[string]string{
		"title":        p.Title,
		"ingredients":  p.Ingredients,
		"instructions": p.Instructions,
	} {
		if sel == "" {
			return fmt.Errorf("profile %q: %s selector is required", p.Name, field)
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("profile %q: invalid %s selector %q: %w", p.Name, field, sel, err)
		}
	}
	return nil
}

// ProfileSet picks a SelectorProfile for a page URL.
type ProfileSet struct {
	fallback SelectorProfile
	bySuffix map[string]SelectorProfile
	suffixes []string // longest first
}

// NewProfileSet builds a set from profiles. The last profile without
// hosts becomes the fallback; DefaultProfile is used if there is none.
func NewProfileSet(profiles ...SelectorProfile) (*ProfileSet, error) {
	ps := &ProfileSet{
		fallback: DefaultProfile,
		bySuffix: make(map[string]SelectorProfile),
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if len(p.Hosts) == 0 {
			ps.fallback = p
			continue
		}
		for _, h := range p.Hosts {
			h = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "."))
			if h == "" {
				continue
			}
			if _, dup := ps.bySuffix[h]; !dup {
				ps.suffixes = append(ps.suffixes, h)
			}
			ps.bySuffix[h] = p
		}
	}
	sort.SliceStable(ps.suffixes, func(i, j int) bool {
		return len(ps.suffixes[i]) > len(ps.suffixes[j])
	})
	return ps, nil
}

// DefaultProfiles returns the built-in set.
func DefaultProfiles() *ProfileSet {
	ps, _ := NewProfileSet(DefaultProfile)
	return ps
}

// For returns the profile for pageURL, most specific host suffix first.
func (ps *ProfileSet) For(pageURL string) SelectorProfile {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ps.fallback
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range ps.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return ps.bySuffix[suffix]
		}
	}
	return ps.fallback
}

// profilesFile is the YAML layout of a profiles file.
type profilesFile struct {
	Profiles []SelectorProfile `yaml:"profiles"`
}

// LoadProfiles reads extra profiles from a YAML file and merges them with
// the built-in default. An empty path yields the built-in set. A profile
// naming a built-in one inherits the selectors it leaves empty:
//
//	profiles:
//	  - name: grocery-list
//	    hosts: [example-recipes.com]
//	  - name: my-site
//	    hosts: [my-site.org]
//	    title: article h1.recipe-title
//	    ingredients: ul.ingr > li
//	    instructions: ol.steps > li
func LoadProfiles(path string) (*ProfileSet, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes a YAML profiles document.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	all := []SelectorProfile{DefaultProfile}
	for _, p := range f.Profiles {
		if base, ok := builtin[p.Name]; ok {
			p = inherit(p, base)
		}
		all = append(all, p)
	}
	return NewProfileSet(all...)
}

func inherit(p, base SelectorProfile) SelectorProfile {
	if p.Title == "" {
		p.Title = base.Title
	}
	if p.Ingredients == "" {
		p.Ingredients = base.Ingredients
	}
	if p.Instructions == "" {
		p.Instructions = base.Instructions
	}
	return p
}
