package search

import (
	"strings"
)

// SearchFilters holds the extracted filters and the remaining clean query
type SearchFilters struct {
	SlugPrefix  string
	PageTitle   string
	SearchQuery string // remaining text matched against title and page text
}

// HasFilters reports whether any slash filter was present
func (f SearchFilters) HasFilters() bool {
	return f.SlugPrefix != "" || f.PageTitle != ""
}

// ParseQuery extracts slash filters from the raw query string:
//
//	/slug:<prefix>  pages whose slug starts with prefix
//	/title:<term>   pages whose title contains term (alias /t:)
//
// Everything else is kept, in order, as the SearchQuery.
func ParseQuery(raw string) SearchFilters {
	filters := SearchFilters{}
	var cleanParts []string

	for _, part := range strings.Fields(raw) {
		lowerPart := strings.ToLower(part)

		switch {
		case strings.HasPrefix(lowerPart, "/slug:"):
			filters.SlugPrefix = strings.TrimPrefix(lowerPart, "/slug:")
		case strings.HasPrefix(lowerPart, "/title:"):
			filters.PageTitle = part[len("/title:"):]
		case strings.HasPrefix(lowerPart, "/t:"):
			filters.PageTitle = part[len("/t:"):]
		default:
			cleanParts = append(cleanParts, part)
		}
	}

	filters.SearchQuery = strings.Join(cleanParts, " ")
	return filters
}
