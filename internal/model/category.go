package model

import "strings"

// Category classifies a visa type by its topical area.
type Category string

// Known categories. CategoryOther is the fallback when no title keyword
// matched.
const (
	CategoryWork      Category = "work"
	CategoryFamily    Category = "family"
	CategoryBusiness  Category = "business"
	CategoryTourist   Category = "tourist"
	CategoryStudent   Category = "student"
	CategoryResidence Category = "residence"
	CategoryTransit   Category = "transit"
	CategoryOther     Category = "other"
)

// String returns the category as a plain string.
func (c Category) String() string {
	return string(c)
}

// categoryRule maps title keywords to a category with its purpose and
// audience labels. Order matters: the first rule whose keyword appears
// in the title wins, so more specific terms come before generic ones.
type categoryRule struct {
	keywords []string
	category Category
	purpose  string
	audience string
}

var categoryRules = []categoryRule{
	{[]string{"work", "employment", "labor", "labour"}, CategoryWork, "Employment", "Foreign workers and their employers"},
	{[]string{"family", "spouse", "dependent", "dependant"}, CategoryFamily, "Family reunification", "Family members of residents"},
	{[]string{"business", "investor", "commercial"}, CategoryBusiness, "Business activities", "Business visitors and investors"},
	{[]string{"tourist", "tourism", "visit", "visitor"}, CategoryTourist, "Tourism and short visits", "Tourists and short-term visitors"},
	{[]string{"student", "study", "education"}, CategoryStudent, "Study", "Students and trainees"},
	{[]string{"residence", "residency", "permanent", "settlement"}, CategoryResidence, "Long-term residence", "Long-term residents"},
	{[]string{"transit", "stopover"}, CategoryTransit, "Transit", "Passengers in transit"},
}

// CategorizeTitle derives category, purpose and audience from a page
// title. Matching is keyword-based against the title only; when nothing
// matches it returns CategoryOther with empty purpose and audience.
func CategorizeTitle(title string) (Category, string, string) {
	lower := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, rule.purpose, rule.audience
			}
		}
	}
	return CategoryOther, "", ""
}
