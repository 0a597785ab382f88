package model

// PageKind identifies what kind of directory page a response is.
// Exactly one kind applies to every fetched response.
type PageKind int

const (
	// KindUnknown is a page outside the crawl scope. It is dropped.
	KindUnknown PageKind = iota
	// KindCountry is the country index page listing cities.
	KindCountry
	// KindCity is a (possibly paginated) city listing of nonprofits.
	KindCity
	// KindNonprofit is a nonprofit detail page.
	KindNonprofit
)

// String returns the lower-case name of the kind.
func (k PageKind) String() string {
	switch k {
	case KindCountry:
		return "country"
	case KindCity:
		return "city"
	case KindNonprofit:
		return "nonprofit"
	default:
		return "unknown"
	}
}

// Target is an absolute URL waiting in the crawl queue.
// Its kind is not stored; it is derived when the response is classified.
type Target struct {
	// URL is always absolute.
	URL string `json:"url"`

	// Referrer is the URL of the page the target was discovered on.
	// Empty for the seed.
	Referrer string `json:"referrer,omitempty"`
}
