package extract

import (
	"regexp"
	"strings"

	"taxline/internal/domain"
)

// Multi-entity disambiguation for documents that carry more than one
// person's record (batch wage statements). Detection, scoring, and selection
// are separate stages so each is testable on its own: DetectEntities finds
// candidate blocks and scores them, SelectPrimary is a pure choice over the
// scored arena.

const (
	entityBaseScore        = 0.5
	entityCompletenessBump = 0.3
	entityShortNamePenalty = 0.2
	nameMatchBonus         = 0.25
)

var (
	personNameRe = regexp.MustCompile(`^[A-Z][A-Za-z.'-]+(?:\s+[A-Z][A-Za-z.'-]+){1,3}$`)
	streetLineRe = regexp.MustCompile(`(?i)^\d+\s+[A-Za-z0-9.'-]+(?:\s+[A-Za-z0-9.'-]+)*\s+(?:st|street|ave|avenue|rd|road|blvd|boulevard|ln|lane|dr|drive|ct|court|way|pl|place|ter|terrace)\.?(?:\s+(?:apt|unit|ste|#)\s*\S+)?$`)
	cityStateRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]*,?\s+[A-Z]{2}\s+\d{5}(?:-\d{4})?$`)
)

// DetectEntities scans raw text for person-record blocks: a name line
// followed by a street line followed by a city/state/ZIP line. Each block
// becomes a scored EntityRecord; an SSN appearing within two lines of the
// block is attached as the identifier.
func DetectEntities(rawText string) []domain.EntityRecord {
	lines := strings.Split(rawText, "\n")
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}

	var entities []domain.EntityRecord
	for i := 0; i+2 < len(trimmed); i++ {
		name, street, cityLine := trimmed[i], trimmed[i+1], trimmed[i+2]
		if name == "" || !personNameRe.MatchString(name) {
			continue
		}
		if !streetLineRe.MatchString(street) || !cityStateRe.MatchString(cityLine) {
			continue
		}

		addr := ParseAddress(street + ", " + cityLine)
		e := domain.EntityRecord{
			Name:       name,
			Identifier: nearbySSN(trimmed, i),
			Address:    addr,
		}
		e.Confidence = scoreEntity(e)
		entities = append(entities, e)
	}
	return entities
}

// nearbySSN looks for an SSN within two lines either side of the name line.
func nearbySSN(lines []string, nameIdx int) string {
	lo, hi := nameIdx-2, nameIdx+4
	if lo < 0 {
		lo = 0
	}
	if hi > len(lines) {
		hi = len(lines)
	}
	for _, l := range lines[lo:hi] {
		if m := ssnBare.FindStringSubmatch(l); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// scoreEntity derives a confidence: a base score, a bump when all of name,
// identifier, and address are present, and a penalty for implausibly short
// names.
func scoreEntity(e domain.EntityRecord) float64 {
	score := entityBaseScore
	if e.Name != "" && e.Identifier != "" && e.Address.Street != "" {
		score += entityCompletenessBump
	}
	if len(strings.ReplaceAll(e.Name, " ", "")) < 4 {
		score -= entityShortNamePenalty
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// SelectPrimary picks exactly one entity. A caller-supplied target name wins
// outright on an exact or word-subset match, regardless of block order;
// otherwise the highest composite score (confidence plus a name-similarity
// bonus when a target was supplied) decides. Returns -1 for an empty arena.
func SelectPrimary(entities []domain.EntityRecord, targetName string) int {
	if len(entities) == 0 {
		return -1
	}

	if targetName != "" {
		for i, e := range entities {
			if namesMatch(e.Name, targetName) {
				return i
			}
		}
	}

	best := 0
	bestScore := compositeScore(entities[0], targetName)
	for i := 1; i < len(entities); i++ {
		if s := compositeScore(entities[i], targetName); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

func compositeScore(e domain.EntityRecord, targetName string) float64 {
	score := e.Confidence
	if targetName != "" {
		score += nameMatchBonus * nameSimilarity(e.Name, targetName)
	}
	return score
}

// namesMatch reports an exact case-insensitive match or a word-subset match
// in either direction ("Jordan Blake" matches "MR JORDAN BLAKE" and
// "Blake Jordan").
func namesMatch(a, b string) bool {
	aw := nameWords(a)
	bw := nameWords(b)
	if len(aw) == 0 || len(bw) == 0 {
		return false
	}
	return wordsSubset(aw, bw) || wordsSubset(bw, aw)
}

func wordsSubset(sub, super map[string]bool) bool {
	for w := range sub {
		if !super[w] {
			return false
		}
	}
	return true
}

var honorifics = map[string]bool{"mr": true, "mrs": true, "ms": true, "dr": true, "jr": true, "sr": true}

func nameWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,")
		if w == "" || honorifics[w] {
			continue
		}
		words[w] = true
	}
	return words
}

// nameSimilarity is the fraction of target words present in the candidate.
func nameSimilarity(candidate, target string) float64 {
	cw := nameWords(candidate)
	tw := nameWords(target)
	if len(tw) == 0 {
		return 0
	}
	hits := 0
	for w := range tw {
		if cw[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(tw))
}
