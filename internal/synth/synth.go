// Package synth produces synthetic cell values for bulk row generation.
// A column gets a generator when its name matches one of the known
// patterns for its type; other columns are left empty.
package synth

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// Generator draws values from a seeded faker. It is not safe for
// concurrent use.
type Generator struct {
	faker *gofakeit.Faker
}

// New returns a generator seeded with seed. Equal seeds give equal
// sequences of values.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

type rule struct {
	keywords []string
	text     func(f *gofakeit.Faker) string
	number   func(f *gofakeit.Faker) float64
}

var statuses = []string{"todo", "in progress", "blocked", "done"}

// Rules are matched in order against the lower-cased column name; the first
// rule whose keyword appears in the name and that has a generator for the
// column's type wins.
var rules = []rule{
	{keywords: []string{"email", "e-mail"}, text: func(f *gofakeit.Faker) string { return f.Email() }},
	{keywords: []string{"phone", "mobile"}, text: func(f *gofakeit.Faker) string { return f.Phone() }},
	{keywords: []string{"first name", "firstname"}, text: func(f *gofakeit.Faker) string { return f.FirstName() }},
	{keywords: []string{"last name", "lastname", "surname"}, text: func(f *gofakeit.Faker) string { return f.LastName() }},
	{keywords: []string{"username", "login", "handle"}, text: func(f *gofakeit.Faker) string { return f.Username() }},
	{keywords: []string{"company", "employer", "organization", "organisation"}, text: func(f *gofakeit.Faker) string { return f.Company() }},
	{keywords: []string{"product", "item"}, text: func(f *gofakeit.Faker) string { return f.ProductName() }},
	{keywords: []string{"name"}, text: func(f *gofakeit.Faker) string { return f.Name() }},
	{keywords: []string{"city", "town"}, text: func(f *gofakeit.Faker) string { return f.City() }},
	{keywords: []string{"state", "province", "region"}, text: func(f *gofakeit.Faker) string { return f.State() }},
	{keywords: []string{"country", "nation"}, text: func(f *gofakeit.Faker) string { return f.Country() }},
	{keywords: []string{"address", "street"}, text: func(f *gofakeit.Faker) string { return f.Street() }},
	{keywords: []string{"zip", "postal", "postcode"}, text: func(f *gofakeit.Faker) string { return f.Zip() }},
	{keywords: []string{"title", "job", "role", "position"}, text: func(f *gofakeit.Faker) string { return f.JobTitle() }},
	{keywords: []string{"url", "website", "link"}, text: func(f *gofakeit.Faker) string { return f.URL() }},
	{keywords: []string{"colour", "color"}, text: func(f *gofakeit.Faker) string { return f.Color() }},
	{keywords: []string{"status", "stage"}, text: func(f *gofakeit.Faker) string { return f.RandomString(statuses) }},
	{keywords: []string{"note", "description", "comment", "summary"}, text: func(f *gofakeit.Faker) string { return f.Phrase() }},

	{keywords: []string{"age"}, number: func(f *gofakeit.Faker) float64 { return float64(f.IntRange(18, 90)) }},
	{keywords: []string{"year"}, number: func(f *gofakeit.Faker) float64 { return float64(f.Year()) }},
	{keywords: []string{"price", "amount", "cost", "salary", "total"}, number: func(f *gofakeit.Faker) float64 { return f.Price(1, 10000) }},
	{keywords: []string{"rating", "score", "stars"}, number: func(f *gofakeit.Faker) float64 { return float64(f.IntRange(1, 5)) }},
	{keywords: []string{"percent", "ratio", "rate"}, number: func(f *gofakeit.Faker) float64 { return f.Float64Range(0, 100) }},
	{keywords: []string{"number", "count", "qty", "quantity", "num"}, number: func(f *gofakeit.Faker) float64 { return float64(f.Number(0, 1000)) }},
}

// Value returns a synthetic value for col, or Empty when no rule matches.
func (g *Generator) Value(col types.Column) types.CellValue {
	r, ok := match(col)
	if !ok {
		return types.Empty()
	}
	if col.Type == types.ColumnNumber {
		return types.Number(r.number(g.faker))
	}
	return types.Text(r.text(g.faker))
}

// Matches reports whether Value produces data for col.
func Matches(col types.Column) bool {
	_, ok := match(col)
	return ok
}

func match(col types.Column) (rule, bool) {
	name := strings.ToLower(strings.TrimSpace(col.Name))
	if name == "" {
		return rule{}, false
	}
	for _, r := range rules {
		if col.Type == types.ColumnNumber && r.number == nil {
			continue
		}
		if col.Type == types.ColumnText && r.text == nil {
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}
