package pipeline

import (
	"regexp"
	"strings"

	"materiais/internal"
	"materiais/internal/util"
)

var (
	reCableKeywords = regexp.MustCompile(`\b(?:CABOS?|FIOS?|CONDUTOR(?:ES)?|CABLE|WIRE|H0[57]\s?VV?|XV|VV|LSVAV|LXV|FVV|RV-?K)\b`)
	reIntToken      = regexp.MustCompile(`\bINT\b`)
)

type categoryRule struct {
	category string
	match    func(upper string) bool
}

var categoryRules = []categoryRule{
	{category: internal.CategoryCables, match: reCableKeywords.MatchString},
	{category: internal.CategorySockets, match: func(upper string) bool { return strings.Contains(upper, "TOMADA") }},
	{category: internal.CategorySwitches, match: func(upper string) bool {
		return strings.Contains(upper, "INTERRUPTOR") || reIntToken.MatchString(upper)
	}},
}

// ClassifyCategory maps an item name to a coarse category. Rules are checked
// in order and the first hit wins.
func ClassifyCategory(name string) string {
	upper := strings.ToUpper(util.RemoveDiacritics(name))
	for _, rule := range categoryRules {
		if rule.match(upper) {
			return rule.category
		}
	}
	return internal.CategoryGeneral
}
