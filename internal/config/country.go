package config

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeCountry trims a country name and collapses inner whitespace.
// An all-lowercase name is title-cased ("united states" becomes
// "United States"), since the directory capitalizes its country paths.
// Any other casing is kept, so "USA" and "Cote d'Ivoire" pass unchanged.
func NormalizeCountry(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || name != strings.ToLower(name) {
		return name
	}
	return cases.Title(language.English).String(name)
}

// NormalizeCountries normalizes every name and drops empty and duplicate
// entries, keeping the first occurrence.
func NormalizeCountries(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeCountry(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
