package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const unitWords = `cup|tbsp|tsp|oz|gram|kg|lb|slice|piece|clove|ml`

var (
	// a number, an attached suffix such as "2kg", and an optional detached unit
	quantityPattern  = regexp.MustCompile(`\b\d+\w*(?:\s+(?:` + unitWords + `)\w*)?\b`)
	unitPattern      = regexp.MustCompile(`\b(?:` + unitWords + `)\w*\b`)
	separatorPattern = regexp.MustCompile(`,|\band\b|;|\+`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// ExtractFoodTokens turns a free-text meal description into an ordered list of
// food names. Quantities and unit words are removed, the text is split on
// commas, semicolons, plus signs and the word "and", and segments shorter than
// two characters are dropped. Duplicates are kept.
func ExtractFoodTokens(text string) []string {
	text = strings.ToLower(text)
	text = quantityPattern.ReplaceAllString(text, "")
	text = unitPattern.ReplaceAllString(text, "")

	var tokens []string
	for _, segment := range separatorPattern.Split(text, -1) {
		segment = strings.TrimSpace(spacePattern.ReplaceAllString(segment, " "))
		if utf8.RuneCountInString(segment) > 1 {
			tokens = append(tokens, segment)
		}
	}
	return tokens
}
