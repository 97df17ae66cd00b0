package feed

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	titleWeight   = 3
	summaryWeight = 2
	textWeight    = 1
	maxWeight     = titleWeight + summaryWeight + textWeight
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

func lower(s string) string {
	// cases.Caser is stateful, so one per call.
	return cases.Lower(language.Und).String(s)
}

// QueryWords splits query on whitespace into a set of lowercase words.
func QueryWords(query string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(lower(query)) {
		words[w] = struct{}{}
	}
	return words
}

func tokenSet(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(lower(text), -1) {
		tokens[w] = struct{}{}
	}
	return tokens
}

func countMatches(queryWords, tokens map[string]struct{}) int {
	n := 0
	for w := range queryWords {
		if _, ok := tokens[w]; ok {
			n++
		}
	}
	return n
}

// Score rates article against query on a 0-100 scale. Title matches weigh
// three times, summary matches twice and body matches once.
func Score(article Article, query string) int {
	queryWords := QueryWords(query)
	maxPossible := len(queryWords) * maxWeight
	if maxPossible == 0 {
		return 0
	}

	total := countMatches(queryWords, tokenSet(article.Title))*titleWeight +
		countMatches(queryWords, tokenSet(article.Summary))*summaryWeight +
		countMatches(queryWords, tokenSet(article.Text))*textWeight

	return min(100, total*100/maxPossible)
}

// IsRelevant reports whether any query word appears as a token of title or
// summary.
func IsRelevant(title, summary string, queryWords map[string]struct{}) bool {
	return countMatches(queryWords, tokenSet(title+" "+summary)) > 0
}
