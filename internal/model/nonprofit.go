package model

import "strings"

// CSVHeader is the column order of the delimited output.
var CSVHeader = []string{"name", "country", "description", "website", "cause_area", "city"}

// Nonprofit is the record extracted from one nonprofit detail page.
// It is built once by the nonprofit handler and never mutated afterwards.
type Nonprofit struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	Description string `json:"description"`

	// Website is empty when the page has no website field.
	Website string `json:"website,omitempty"`

	// CauseArea is every cause tag followed by a comma, e.g. "Health,Education,".
	CauseArea string `json:"cause_area"`

	// City is empty when the page has no city field.
	City string `json:"city,omitempty"`

	// SourceURL is the detail page the record came from.
	SourceURL string `json:"source_url"`
}

// CSVRow returns the record in CSVHeader order.
func (n Nonprofit) CSVRow() []string {
	return []string{n.Name, n.Country, n.Description, n.Website, n.CauseArea, n.City}
}

// CauseTags splits CauseArea back into its tags.
func (n Nonprofit) CauseTags() []string {
	if n.CauseArea == "" {
		return nil
	}
	parts := strings.Split(n.CauseArea, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
