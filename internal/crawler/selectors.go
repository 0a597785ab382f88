package crawler

// Selectors are the CSS selectors and literal texts the handlers use.
// The defaults match the markup of charity-charities.org.
type Selectors struct {
	// CityLinks selects city anchors on the country page.
	CityLinks string `yaml:"city_links,omitempty"`

	// DetailLinks selects nonprofit anchors on a city page.
	DetailLinks string `yaml:"detail_links,omitempty"`

	// Pagination selects the pagination anchors on a city page.
	Pagination string `yaml:"pagination,omitempty"`

	// NextText is the text of the last pagination anchor when another
	// page follows.
	NextText string `yaml:"next_text,omitempty"`

	// NonprofitMarker is present only on nonprofit detail pages.
	NonprofitMarker string `yaml:"nonprofit_marker,omitempty"`

	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Website     string `yaml:"website,omitempty"`
	City        string `yaml:"city,omitempty"`
	CauseTags   string `yaml:"cause_tags,omitempty"`

	// CauseSentinel is the cause tag that links to the full tag list.
	// It is never part of a record.
	CauseSentinel string `yaml:"cause_sentinel,omitempty"`
}

// DefaultSelectors returns the selectors for charity-charities.org.
func DefaultSelectors() Selectors {
	return Selectors{
		CityLinks:       "a.nwslink",
		DetailLinks:     "a.fndname",
		Pagination:      "a.chnlink",
		NextText:        "Next >>",
		NonprofitMarker: "a.deadlink",
		Name:            ".npname",
		Description:     ".npdesc",
		Website:         ".npweb",
		City:            ".npcity",
		CauseTags:       ".npcause a",
		CauseSentinel:   "View All",
	}
}

// WithDefaults fills empty fields from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.CityLinks, d.CityLinks)
	fill(&s.DetailLinks, d.DetailLinks)
	fill(&s.Pagination, d.Pagination)
	fill(&s.NextText, d.NextText)
	fill(&s.NonprofitMarker, d.NonprofitMarker)
	fill(&s.Name, d.Name)
	fill(&s.Description, d.Description)
	fill(&s.Website, d.Website)
	fill(&s.City, d.City)
	fill(&s.CauseTags, d.CauseTags)
	fill(&s.CauseSentinel, d.CauseSentinel)
	return s
}
