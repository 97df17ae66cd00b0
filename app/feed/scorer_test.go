package feed

import (
	"testing"
)

func TestScoreEmptyQuery(t *testing.T) {
	article := Article{Title: "AI chips", Summary: "AI", Text: "AI everywhere"}

	for _, query := range []string{"", "   "} {
		if score := Score(article, query); score != 0 {
			t.Errorf("Expected score 0 for query %q, got %d", query, score)
		}
	}
}

func TestScoreFullMatch(t *testing.T) {
	article := Article{
		Title:   "Nvidia earnings",
		Summary: "earnings at Nvidia",
		Text:    "Nvidia reported earnings.",
	}

	if score := Score(article, "nvidia earnings"); score != 100 {
		t.Errorf("Expected score 100, got %d", score)
	}
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		want    int
	}{
		{"title only", Article{Title: "Inflation cools"}, 50},
		{"summary only", Article{Summary: "inflation cools"}, 33},
		{"text only", Article{Text: "about inflation"}, 16},
		{"no match", Article{Title: "Oil", Summary: "Crude", Text: "Barrels"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.article, "inflation"); got != tt.want {
				t.Errorf("Expected score %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreCaseInsensitive(t *testing.T) {
	article := Article{Title: "Federal Reserve Holds Rates", Summary: "the fed", Text: "RATES steady"}

	lowerScore := Score(article, "rates fed")
	upperScore := Score(article, "RATES FED")

	if lowerScore != upperScore {
		t.Errorf("Expected casing not to matter, got %d and %d", lowerScore, upperScore)
	}
	if lowerScore == 0 {
		t.Error("Expected non-zero score")
	}
}

func TestScoreRange(t *testing.T) {
	article := Article{Title: "a b c", Summary: "a b c", Text: "a b c a b c"}
	queries := []string{"a", "a b", "a z", "x y z", "a a a"}

	for _, query := range queries {
		score := Score(article, query)
		if score < 0 || score > 100 {
			t.Errorf("Score for %q out of range: %d", query, score)
		}
	}
}

func TestScoreUnicodeTokens(t *testing.T) {
	article := Article{Title: "Économie: la croissance ralentit"}

	if score := Score(article, "ÉCONOMIE"); score != 50 {
		t.Errorf("Expected score 50, got %d", score)
	}
}

func TestIsRelevant(t *testing.T) {
	queryWords := QueryWords("Tesla Battery")

	if !IsRelevant("Tesla unveils new car", "", queryWords) {
		t.Error("Expected title match to be relevant")
	}
	if !IsRelevant("New car", "Battery costs fall", queryWords) {
		t.Error("Expected summary match to be relevant")
	}
	if IsRelevant("Teslas everywhere", "batteries", queryWords) {
		t.Error("Expected partial word matches not to count")
	}
	if IsRelevant("anything", "at all", QueryWords("")) {
		t.Error("Expected empty query to match nothing")
	}
}
