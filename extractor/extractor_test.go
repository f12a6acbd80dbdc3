package extractor

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/recipebox/models"
)

const pastaPage = `<html><body>
<h1>Pasta</h1>
<ul class="ingredients"><li>Flour</li><li>  Water </li></ul>
<ol class="instructions"><li>Mix</li></ol>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		html string
		url  string
		want models.ExtractedRecord
	}{
		{
			name: "pasta",
			html: pastaPage,
			url:  "https://recipes.example.com/pasta",
			want: models.ExtractedRecord{
				Title:        "Pasta",
				Ingredients:  []string{"Flour", "Water"},
				Instructions: []string{"Mix"},
			},
		},
		{
			name: "no matching elements",
			html: `<html><body><p>Just a blog post.</p></body></html>`,
			url:  "https://blog.example.com/",
			want: models.ExtractedRecord{
				Title:        models.UnknownTitle,
				Ingredients:  []string{},
				Instructions: []string{},
			},
		},
		{
			name: "first heading wins and empty items are skipped",
			html: `<h1> Soup </h1><h1>Other</h1>
<div class="ingredients"><ul><li>Salt</li><li>   </li><li>Stock
   cube</li></ul></div>`,
			url: "https://recipes.example.com/soup",
			want: models.ExtractedRecord{
				Title:        "Soup",
				Ingredients:  []string{"Salt", "Stock cube"},
				Instructions: []string{},
			},
		},
	}

	ex := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(mustDoc(t, tt.html), tt.url)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	ex := New(nil)
	first := ex.ExtractHTML(pastaPage, "https://recipes.example.com/pasta")
	for i := 0; i < 5; i++ {
		got := ex.ExtractHTML(pastaPage, "https://recipes.example.com/pasta")
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Extract() = %+v, want %+v", i, got, first)
		}
	}
}

func TestExtractDoesNotMutateDocument(t *testing.T) {
	doc := mustDoc(t, pastaPage)
	before, _ := doc.Html()
	New(nil).Extract(doc, "https://recipes.example.com/pasta")
	after, _ := doc.Html()
	if before != after {
		t.Error("Extract() modified the document")
	}
}

func TestExtractNilDocument(t *testing.T) {
	got := New(nil).Extract(nil, "https://example.com")
	if got.Title != models.UnknownTitle || len(got.Ingredients) != 0 || len(got.Instructions) != 0 {
		t.Errorf("Extract(nil) = %+v, want empty record", got)
	}
}

func TestExtractUsesHostProfile(t *testing.T) {
	ps, err := NewProfileSet(DefaultProfile, SelectorProfile{
		Name:         GroceryListProfile.Name,
		Hosts:        []string{"groceries.example"},
		Title:        GroceryListProfile.Title,
		Ingredients:  GroceryListProfile.Ingredients,
		Instructions: GroceryListProfile.Instructions,
	})
	if err != nil {
		t.Fatalf("NewProfileSet: %v", err)
	}

	page := `<h1>Bread</h1>
<div class="single-list-item grocery-list-item">Yeast</div>
<div class="single-list-item grocery-list-item">Flour</div>
<ul class="ingredients"><li>ignored</li></ul>
<ul class="instructions"><li>Knead</li><li>Bake</li></ul>`

	got := New(ps).ExtractHTML(page, "https://www.groceries.example/bread")
	want := models.ExtractedRecord{
		Title:        "Bread",
		Ingredients:  []string{"Yeast", "Flour"},
		Instructions: []string{"Knead", "Bake"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}

	other := New(ps).ExtractHTML(page, "https://elsewhere.example/bread")
	if !reflect.DeepEqual(other.Ingredients, []string{"ignored"}) {
		t.Errorf("default profile ingredients = %v, want [ignored]", other.Ingredients)
	}
}

func TestPolicyUsable(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		rec    models.ExtractedRecord
		want   bool
	}{
		{"any list: both lists", PolicyTitleAndAnyList, models.ExtractedRecord{Title: "A", Ingredients: []string{"x"}, Instructions: []string{"y"}}, true},
		{"any list: ingredients only", PolicyTitleAndAnyList, models.ExtractedRecord{Title: "A", Ingredients: []string{"x"}}, true},
		{"any list: instructions only", PolicyTitleAndAnyList, models.ExtractedRecord{Title: "A", Instructions: []string{"y"}}, true},
		{"any list: no lists", PolicyTitleAndAnyList, models.ExtractedRecord{Title: "A"}, false},
		{"any list: placeholder title", PolicyTitleAndAnyList, models.ExtractedRecord{Title: models.UnknownTitle, Ingredients: []string{"x"}}, false},
		{"all fields: both lists", PolicyAllFields, models.ExtractedRecord{Title: "A", Ingredients: []string{"x"}, Instructions: []string{"y"}}, true},
		{"all fields: ingredients only", PolicyAllFields, models.ExtractedRecord{Title: "A", Ingredients: []string{"x"}}, false},
		{"all fields: empty title", PolicyAllFields, models.ExtractedRecord{Ingredients: []string{"x"}, Instructions: []string{"y"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Usable(tt.rec); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyTitleAndAnyList {
		t.Errorf("ParsePolicy(\"\") = %q, %v; want default", p, err)
	}
	if p, err := ParsePolicy("all_fields"); err != nil || p != PolicyAllFields {
		t.Errorf("ParsePolicy(all_fields) = %q, %v", p, err)
	}
	if _, err := ParsePolicy("bogus"); err == nil {
		t.Error("ParsePolicy(bogus) returned nil error")
	}
}
