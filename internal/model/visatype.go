package model

// VisaType is one normalized visa-type record derived from a Page.
// Zero or more exist per Page, one per distinct topical entity found on
// it. A VisaType owns its sub-records by composition: deleting the
// VisaType deletes all of them.
//
// Invariants:
//  1. Steps carry a dense 1..N sequence per VisaType
//  2. Fee.Amount is non-negative when present
type VisaType struct {
	// ID is the database identifier. Zero before the first insert.
	ID int64 `json:"id"`

	// PageID references the Page this record was extracted from.
	PageID int64 `json:"page_id"`

	// Name is the visa type name, normally the page title.
	Name string `json:"name"`

	// Category is the topical category derived from the title
	// (work, family, business, tourist, student, residence, transit,
	// or "other" when nothing matched).
	Category Category `json:"category"`

	// Purpose is a short purpose label matching the category, empty
	// for the "other" category.
	Purpose string `json:"purpose,omitempty"`

	// Audience describes who the visa type applies to.
	Audience string `json:"audience,omitempty"`

	// Active marks records that are current. Records are created
	// active; deactivation is an operator action outside this pipeline.
	Active bool `json:"active"`

	// Owned sub-records, regenerated together with the VisaType.
	Eligibility     []EligibilityCriterion `json:"eligibility,omitempty"`
	Documents       []RequiredDocument     `json:"documents,omitempty"`
	Fees            []Fee                  `json:"fees,omitempty"`
	ProcessingTimes []ProcessingTime       `json:"processing_times,omitempty"`
	Steps           []Step                 `json:"steps,omitempty"`
	Links           []ExternalLink         `json:"links,omitempty"`
}

// EligibilityCriterion is one condition an applicant must satisfy.
type EligibilityCriterion struct {
	// Text is the criterion as written on the page.
	Text string `json:"text"`
}

// RequiredDocument is one document an applicant must provide.
type RequiredDocument struct {
	// Name is the document name.
	Name string `json:"name"`

	// Notes holds qualifiers that followed the name on the page
	// ("valid for six months", "two copies"), empty when none.
	Notes string `json:"notes,omitempty"`
}

// Fee is one cost associated with the visa type.
type Fee struct {
	// Name labels the fee ("Visa fee", "Express processing").
	Name string `json:"name"`

	// Amount is the fee amount. Nil when the page states a fee exists
	// but no amount could be parsed. Non-negative when present.
	Amount *float64 `json:"amount,omitempty"`

	// Currency is the currency token as found on the page, normalized
	// to an uppercase code where recognized (QAR, USD, EUR).
	Currency string `json:"currency,omitempty"`

	// Notes holds trailing qualifiers ("non-refundable").
	Notes string `json:"notes,omitempty"`
}

// ProcessingTime is one processing duration quoted on the page,
// normalized to days (weeks x7, months x30).
type ProcessingTime struct {
	// Label is the duration expression as written ("5-10 business days").
	Label string `json:"label"`

	// MinDays and MaxDays bound the duration in days. Single-value
	// expressions set both to the same value.
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`

	// Notes holds surrounding context when useful.
	Notes string `json:"notes,omitempty"`
}

// Step is one step of the application procedure.
type Step struct {
	// Seq is the 1-based position within the procedure. Dense per
	// VisaType: 1..N without gaps.
	Seq int `json:"seq"`

	// Title is a short step title, at most 100 characters.
	Title string `json:"title"`

	// Detail is the remaining step text, empty when the item was a
	// bare title.
	Detail string `json:"detail,omitempty"`
}

// ExternalLink is a link to an official resource found on the page.
type ExternalLink struct {
	// Title is the anchor's visible text.
	Title string `json:"title"`

	// URL is the resolved absolute URL.
	URL string `json:"url"`
}

// MaxStepTitleLen is the maximum length of a Step title.
const MaxStepTitleLen = 100
