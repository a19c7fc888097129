package search

import (
	"strings"
	"unicode/utf8"
)

type SearchStrategy string

const (
	StrategyLiteral  SearchStrategy = "literal"
	StrategySemantic SearchStrategy = "semantic"
)

// DetermineStrategy picks literal matching for structured, very short or
// quoted queries and semantic search for free text.
func DetermineStrategy(query string) SearchStrategy {
	query = strings.TrimSpace(query)

	if strings.ContainsAny(query, "/:=") {
		return StrategyLiteral
	}
	if utf8.RuneCountInString(query) <= 3 {
		return StrategyLiteral
	}
	if len(query) >= 2 && strings.HasPrefix(query, "\"") && strings.HasSuffix(query, "\"") {
		return StrategyLiteral
	}
	return StrategySemantic
}

// Unquote strips one pair of surrounding double quotes
func Unquote(query string) string {
	query = strings.TrimSpace(query)
	if len(query) >= 2 && strings.HasPrefix(query, "\"") && strings.HasSuffix(query, "\"") {
		return query[1 : len(query)-1]
	}
	return query
}
