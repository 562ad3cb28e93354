package shopagent

import (
	"regexp"
	"strconv"
	"strings"
)

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\$€£](\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d{1,2})?)\s*(?:dollars|dollar|eur|euros|gbp|pounds)`),
	regexp.MustCompile(`(?i)(?:budget|under|limit of)\s*[\$€£]?\s*(\d+(?:\.\d{1,2})?)`),
}

var partyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s+people`),
	regexp.MustCompile(`for\s+(\d+)`),
	regexp.MustCompile(`serves?\s+(\d+)`),
	regexp.MustCompile(`(\d+)\s+person`),
}

// DefaultPartySize is assumed when the request doesn't mention one.
const DefaultPartySize = 4

// ParseRequest extracts an optional budget ("$25", "25 dollars",
// "budget of 25") and a party size ("for 4", "4 people", "serves 4") from
// free text. Budget is nil when nothing matches; party size defaults to 4.
func ParseRequest(text string) (budget *float64, partySize int) {
	partySize = DefaultPartySize

	for _, pat := range budgetPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				budget = &v
				break
			}
		}
	}

	lower := strings.ToLower(text)
	for _, pat := range partyPatterns {
		if m := pat.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
				partySize = n
				break
			}
		}
	}

	return budget, partySize
}
