package extract

import (
	"regexp"
	"strings"

	"taxline/internal/domain"
)

// Address parsing tries progressively looser shapes. A parse is accepted
// only when it yields a street, a city, a two-letter state, and a 5- or
// 9-digit ZIP; otherwise the next shape is tried, and as a last resort the
// whole string is kept as the street component.

var (
	// "123 Main St, Springfield, IL 62704"
	commaTripleRe = regexp.MustCompile(`^(.+?),\s*([A-Za-z][A-Za-z .'-]*?),\s*([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	// "123 Main St, Springfield IL 62704"
	commaTwoPartRe = regexp.MustCompile(`^(.+?),\s*([A-Za-z][A-Za-z .'-]*?)\s+([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	// "123 Main St Springfield IL 62704" — the word before the state is the city
	spaceDelimitedRe = regexp.MustCompile(`^(.+\S)\s+([A-Za-z][A-Za-z.'-]*)\s+([A-Z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	zipAnywhereRe    = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
	stateBeforeZipRe = regexp.MustCompile(`\b([A-Z]{2})[,\s]+$`)
)

// ParseAddress parses a single-line address into components.
func ParseAddress(s string) domain.Address {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", ", "))
	if s == "" {
		return domain.Address{}
	}

	for _, re := range []*regexp.Regexp{commaTripleRe, commaTwoPartRe, spaceDelimitedRe} {
		if m := re.FindStringSubmatch(s); len(m) == 5 {
			return domain.Address{
				Street:     strings.TrimSpace(m[1]),
				City:       strings.TrimSpace(strings.Trim(m[2], ",")),
				State:      m[3],
				PostalCode: m[4],
			}
		}
	}

	if addr, ok := parseZIPFirst(s); ok {
		return addr
	}

	return domain.Address{Street: s}
}

// parseZIPFirst walks backward from the ZIP: the two-letter token before it
// is the state, the comma-delimited segment before that is the city, and
// everything earlier is the street.
func parseZIPFirst(s string) (domain.Address, bool) {
	loc := zipAnywhereRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return domain.Address{}, false
	}
	zip := s[loc[2]:loc[3]]
	head := strings.TrimSpace(s[:loc[2]])

	m := stateBeforeZipRe.FindStringSubmatch(head + " ")
	if m == nil {
		// No separated state token; try the tail of head directly.
		fields := strings.Fields(strings.ReplaceAll(head, ",", " "))
		if len(fields) < 3 {
			return domain.Address{}, false
		}
		state := fields[len(fields)-1]
		if len(state) != 2 || strings.ToUpper(state) != state {
			return domain.Address{}, false
		}
		city := fields[len(fields)-2]
		street := strings.Join(fields[:len(fields)-2], " ")
		if street == "" || city == "" {
			return domain.Address{}, false
		}
		return domain.Address{Street: street, City: city, State: state, PostalCode: zip}, true
	}

	state := m[1]
	rest := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(head), state))
	rest = strings.TrimSuffix(rest, ",")
	idx := strings.LastIndex(rest, ",")
	if idx < 0 {
		return domain.Address{}, false
	}
	street := strings.TrimSpace(rest[:idx])
	city := strings.TrimSpace(rest[idx+1:])
	if street == "" || city == "" {
		return domain.Address{}, false
	}
	return domain.Address{Street: street, City: city, State: state, PostalCode: zip}, true
}
