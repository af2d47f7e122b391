package classify

import (
	"strings"

	"taxline/internal/domain"
)

// keywordSets score raw recognized text against each category. Phrases are
// matched as case-insensitive substrings; the W-2 list names its box labels
// because degraded OCR often drops the form title but keeps box captions.
var keywordSets = map[domain.DocumentCategory][]string{
	domain.CategoryW2: {
		"w-2", "wage and tax statement",
		"wages, tips, other compensation",
		"federal income tax withheld",
		"social security wages",
		"medicare wages and tips",
		"employer identification number",
		"employee's social security number",
	},
	domain.Category1099INT: {
		"1099-int", "interest income",
		"early withdrawal penalty",
		"interest on u.s. savings bonds",
		"tax-exempt interest",
		"bond premium",
	},
	domain.Category1099DIV: {
		"1099-div", "dividends and distributions",
		"total ordinary dividends",
		"qualified dividends",
		"total capital gain distr",
	},
	domain.Category1099MISC: {
		"1099-misc", "miscellaneous information",
		"miscellaneous income",
		"rents", "royalties", "other income",
	},
	domain.Category1099NEC: {
		"1099-nec", "nonemployee compensation",
	},
}

// subtypeKeywords disambiguate within the 1099 family when the generic pass
// ties or lands on a sibling. These are the phrases unique to each subtype.
var subtypeKeywords = map[domain.DocumentCategory][]string{
	domain.Category1099INT:  {"1099-int", "interest income", "bond premium"},
	domain.Category1099DIV:  {"1099-div", "ordinary dividends", "qualified dividends", "capital gain"},
	domain.Category1099MISC: {"1099-misc", "miscellaneous", "rents", "royalties"},
	domain.Category1099NEC:  {"1099-nec", "nonemployee compensation"},
}

// Result is a classification outcome.
type Result struct {
	Category   domain.DocumentCategory
	Confidence float64
	Hits       int
}

// Classify scores raw recognized text against every category's keyword set
// and returns the best guess. It is a pure function: the same text always
// yields the same category and confidence. When no set scores above zero the
// category is unknown and the caller decides whether to trust its hint.
func Classify(rawText string) Result {
	if strings.TrimSpace(rawText) == "" {
		return Result{Category: domain.CategoryUnknown}
	}
	lower := strings.ToLower(rawText)

	best := domain.CategoryUnknown
	bestHits := 0
	for _, cat := range domain.AllCategories {
		hits := countHits(lower, keywordSets[cat])
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return Result{Category: domain.CategoryUnknown}
	}

	if best.IsInformationReturn() {
		best = refineInformationReturn(lower, best)
	}

	return Result{
		Category:   best,
		Confidence: confidenceFromHits(bestHits, len(keywordSets[best])),
		Hits:       bestHits,
	}
}

// refineInformationReturn runs the second, more specific pass over the 1099
// family. The generic keyword lists overlap ("other income" appears on more
// than one subtype), so the subtype with the most unique-phrase hits wins;
// the initial winner is kept on a tie.
func refineInformationReturn(lower string, initial domain.DocumentCategory) domain.DocumentCategory {
	best := initial
	bestHits := countHits(lower, subtypeKeywords[initial])
	for _, cat := range domain.AllCategories {
		if !cat.IsInformationReturn() || cat == initial {
			continue
		}
		if hits := countHits(lower, subtypeKeywords[cat]); hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	return best
}

func countHits(lower string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

// confidenceFromHits maps a hit count to [0,1] relative to the size of the
// winning keyword set.
func confidenceFromHits(hits, setSize int) float64 {
	if setSize == 0 {
		return 0
	}
	c := float64(hits) / float64(setSize)
	if c > 1 {
		c = 1
	}
	return c
}
