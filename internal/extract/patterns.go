package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"taxline/internal/domain"
	"taxline/internal/normalize"
)

// maxPlausibleAmount rejects absurd magnitudes (a wage field reporting more
// than 100,000,000 currency units is cross-field contamination, not income).
var maxPlausibleAmount = decimal.NewFromInt(100_000_000)

// AmountPattern is one rung of a field's fallback ladder: a regex whose
// first capture group is the candidate numeric string, a parser, and a
// validator. The ladder is ordered most structural first, most permissive
// last; the first rung whose capture parses and validates wins.
type AmountPattern struct {
	Re       *regexp.Regexp
	Parse    func(string) (decimal.Decimal, bool)
	Validate func(decimal.Decimal) bool
}

// TextPattern is the textual counterpart of AmountPattern.
type TextPattern struct {
	Re       *regexp.Regexp
	Validate func(string) bool
}

const amountCapture = `\$?\(?([0-9][0-9,]*(?:\.[0-9]{1,2})?)\)?`

// boxAmount matches "<box> <label> ... <amount>" anchored at line start, the
// structural shape of a form box caption.
func boxAmount(box, label string) AmountPattern {
	return AmountPattern{
		Re: regexp.MustCompile(`(?mi)^\s*` + box + `[\s.·]+` + label + `[^0-9$(\n]{0,40}` + amountCapture),
	}
}

// labelAmount matches the label anywhere with an amount trailing on the same
// line, for layouts where OCR drops the box number.
func labelAmount(label string) AmountPattern {
	return AmountPattern{
		Re: regexp.MustCompile(`(?i)` + label + `[^0-9$(\n]{0,30}` + amountCapture),
	}
}

// labelAmountNextLine matches a label whose amount landed on the following
// line, common in column-ordered OCR output.
func labelAmountNextLine(label string) AmountPattern {
	return AmountPattern{
		Re: regexp.MustCompile(`(?mi)` + label + `[^0-9$(\n]*\n\s*` + amountCapture),
	}
}

var amountPatterns = map[domain.DocumentCategory]map[string][]AmountPattern{
	domain.CategoryW2: {
		FieldWages: {
			boxAmount(`1`, `wages,?\s*tips,?\s*other\s*comp\w*\.?`),
			labelAmount(`wages,?\s*tips,?\s*other\s*comp\w*\.?`),
			labelAmountNextLine(`wages,?\s*tips`),
			{Re: regexp.MustCompile(`(?mi)^\s*wages\b[^0-9$(\n]{0,30}` + amountCapture)},
		},
		FieldFederalTaxWithheld: {
			boxAmount(`2`, `federal\s*income\s*tax\s*withheld`),
			labelAmount(`federal\s*income\s*tax\s*withheld`),
			labelAmount(`fed\.?\s*tax\s*w(?:ith)?held`),
		},
		FieldSocialSecurityWages: {
			boxAmount(`3`, `social\s*security\s*wages`),
			labelAmount(`social\s*security\s*wages`),
			labelAmount(`soc\.?\s*sec\.?\s*wages`),
		},
		FieldSocialSecurityTaxWithheld: {
			boxAmount(`4`, `social\s*security\s*tax\s*withheld`),
			labelAmount(`social\s*security\s*tax\s*withheld`),
		},
		FieldMedicareWages: {
			boxAmount(`5`, `medicare\s*wages(?:\s*and\s*tips)?`),
			labelAmount(`medicare\s*wages(?:\s*and\s*tips)?`),
		},
		FieldMedicareTaxWithheld: {
			boxAmount(`6`, `medicare\s*tax\s*withheld`),
			labelAmount(`medicare\s*tax\s*withheld`),
		},
	},
	domain.Category1099INT: {
		FieldInterestIncome: {
			boxAmount(`1`, `interest\s*income`),
			labelAmount(`interest\s*income`),
		},
		FieldEarlyWithdrawalPenalty: {
			boxAmount(`2`, `early\s*withdrawal\s*penalty`),
			labelAmount(`early\s*withdrawal\s*penalty`),
		},
		FieldSavingsBondInterest: {
			boxAmount(`3`, `interest\s*on\s*u\.?s\.?\s*savings\s*bonds?\b[^0-9$(\n]*`),
			labelAmount(`u\.?s\.?\s*savings\s*bonds?(?:\s*and\s*treas\w*\s*obligations)?`),
		},
		FieldFederalTaxWithheld: {
			boxAmount(`4`, `federal\s*income\s*tax\s*withheld`),
			labelAmount(`federal\s*income\s*tax\s*withheld`),
		},
		FieldForeignTaxPaid: {
			boxAmount(`6`, `foreign\s*tax\s*paid`),
			labelAmount(`foreign\s*tax\s*paid`),
		},
		FieldTaxExemptInterest: {
			boxAmount(`8`, `tax[-\s]exempt\s*interest`),
			labelAmount(`tax[-\s]exempt\s*interest`),
		},
		FieldBondPremium: {
			boxAmount(`11`, `bond\s*premium`),
			labelAmount(`bond\s*premium`),
		},
	},
	domain.Category1099DIV: {
		FieldOrdinaryDividends: {
			boxAmount(`1a`, `total\s*ordinary\s*dividends`),
			labelAmount(`total\s*ordinary\s*dividends`),
			labelAmount(`ordinary\s*dividends`),
		},
		FieldQualifiedDividends: {
			boxAmount(`1b`, `qualified\s*dividends`),
			labelAmount(`qualified\s*dividends`),
		},
		FieldCapitalGainDistributions: {
			boxAmount(`2a`, `total\s*capital\s*gain\s*distr\w*\.?`),
			labelAmount(`capital\s*gain\s*distr\w*\.?`),
		},
		FieldFederalTaxWithheld: {
			boxAmount(`4`, `federal\s*income\s*tax\s*withheld`),
			labelAmount(`federal\s*income\s*tax\s*withheld`),
		},
		FieldForeignTaxPaid: {
			boxAmount(`7`, `foreign\s*tax\s*paid`),
			labelAmount(`foreign\s*tax\s*paid`),
		},
	},
	domain.Category1099MISC: {
		FieldRents: {
			boxAmount(`1`, `rents`),
			{Re: regexp.MustCompile(`(?mi)^\s*rents\b[^0-9$(\n]{0,30}` + amountCapture)},
		},
		FieldRoyalties: {
			boxAmount(`2`, `royalties`),
			{Re: regexp.MustCompile(`(?mi)^\s*royalties\b[^0-9$(\n]{0,30}` + amountCapture)},
		},
		FieldOtherIncome: {
			boxAmount(`3`, `other\s*income`),
			labelAmount(`other\s*income`),
		},
		FieldFederalTaxWithheld: {
			boxAmount(`4`, `federal\s*income\s*tax\s*withheld`),
			labelAmount(`federal\s*income\s*tax\s*withheld`),
		},
	},
	domain.Category1099NEC: {
		FieldNonemployeeCompensation: {
			boxAmount(`1`, `nonemployee\s*comp\w*\.?`),
			labelAmount(`nonemployee\s*comp\w*\.?`),
		},
		FieldFederalTaxWithheld: {
			boxAmount(`4`, `federal\s*income\s*tax\s*withheld`),
			labelAmount(`federal\s*income\s*tax\s*withheld`),
		},
	},
}

var (
	einRe       = regexp.MustCompile(`\b(\d{2}-\d{7})\b`)
	ssnLabeled  = regexp.MustCompile(`(?i)(?:social\s*security\s*number|ssn)[^0-9X]{0,12}((?:\d{3}|X{3})-?(?:\d{2}|X{2})-?\d{4})`)
	ssnBare     = regexp.MustCompile(`\b(\d{3}-\d{2}-\d{4})\b`)
	tinLabeled  = regexp.MustCompile(`(?i)recipient'?s?\s*(?:tin|identification\s*n\w*\.?)[^0-9X]{0,12}([0-9X]{3}-?[0-9X]{2}-?\d{4})`)
	nameLabeled = regexp.MustCompile(`(?im)^[^\n]*?(?:employee|recipient)'?s?\s*name[^A-Za-z\n]{0,6}([A-Za-z][A-Za-z .'-]{1,60})\s*$`)
	// "Employer's name, address, and ZIP code" style captions put the value
	// on the next line.
	orgNextLine = regexp.MustCompile(`(?im)^\s*(?:employer|payer)'?s?\s*name[^\n]*\n\s*([A-Za-z0-9][^\n]{1,70})`)
	orgSameLine = regexp.MustCompile(`(?im)^\s*(?:employer|payer)'?s?\s*name\s*[:\-]\s*([A-Za-z0-9][^\n]{1,70})`)
)

var textPatterns = map[string][]TextPattern{
	FieldEmployerEIN: {
		{Re: regexp.MustCompile(`(?i)employer\s*identification\s*n\w*\.?[^0-9]{0,12}(\d{2}-?\d{7})`)},
		{Re: regexp.MustCompile(`(?i)\bEIN\b[^0-9]{0,12}(\d{2}-?\d{7})`)},
		{Re: einRe},
	},
	FieldEmployeeSSN: {
		{Re: ssnLabeled},
		{Re: ssnBare},
	},
	FieldRecipientTIN: {
		{Re: tinLabeled},
		{Re: ssnBare},
	},
	FieldEmployeeName: {
		{Re: nameLabeled, Validate: plausibleName},
	},
	FieldEmployerName: {
		{Re: orgSameLine, Validate: plausibleOrgName},
		{Re: orgNextLine, Validate: plausibleOrgName},
	},
	FieldPayerName: {
		{Re: orgSameLine, Validate: plausibleOrgName},
		{Re: orgNextLine, Validate: plausibleOrgName},
	},
}

var nameCharClass = regexp.MustCompile(`^[A-Za-z][A-Za-z .,'&-]*$`)

func plausibleName(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 4 && nameCharClass.MatchString(s) && strings.Contains(s, " ")
}

func plausibleOrgName(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return false
	}
	// Reject captured caption continuations ("address, and ZIP code").
	lower := strings.ToLower(s)
	return !strings.Contains(lower, "zip code") && !strings.HasPrefix(lower, "address")
}

func defaultAmountValid(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(maxPlausibleAmount)
}

// ReadTextPatterns recovers canonical fields for a category directly from
// raw recognized text. For each field the pattern ladder is walked in order
// and the first capture that parses and validates is accepted; fields with
// no accepted match stay absent, never zero.
//
// Before field patterns run, the text is scanned for multiple person-record
// blocks. When more than one is found, identity fields come from the
// selected primary entity (optionally steered by targetName) instead of the
// label patterns, and all candidates are retained for diagnostics.
func ReadTextPatterns(rawText string, cat domain.DocumentCategory, targetName string) (map[string]domain.ExtractionField, []domain.EntityRecord, int) {
	out := make(map[string]domain.ExtractionField)
	if strings.TrimSpace(rawText) == "" {
		return out, nil, -1
	}

	entities := DetectEntities(rawText)
	primary := -1
	if len(entities) > 1 {
		primary = SelectPrimary(entities, targetName)
	}

	for _, spec := range Fields(cat) {
		switch spec.Kind {
		case KindAmount:
			if f, ok := matchAmount(rawText, amountPatterns[cat][spec.Name], spec.Name); ok {
				out[spec.Name] = f
			}
		case KindText:
			if primary >= 0 && fillFromEntity(out, spec.Name, entities[primary]) {
				continue
			}
			if f, ok := matchText(rawText, textPatterns[spec.Name], spec.Name); ok {
				out[spec.Name] = f
			}
		}
	}
	return out, entities, primary
}

func matchAmount(text string, ladder []AmountPattern, name string) (domain.ExtractionField, bool) {
	for _, p := range ladder {
		m := p.Re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		parse := p.Parse
		if parse == nil {
			parse = func(s string) (decimal.Decimal, bool) { return normalize.Amount(s) }
		}
		amt, ok := parse(m[1])
		if !ok {
			continue
		}
		validate := p.Validate
		if validate == nil {
			validate = defaultAmountValid
		}
		if !validate(amt) {
			continue
		}
		return domain.AmountField(name, amt, domain.SourceTextPattern, textPatternConfidence), true
	}
	return domain.ExtractionField{}, false
}

func matchText(text string, ladder []TextPattern, name string) (domain.ExtractionField, bool) {
	for _, p := range ladder {
		m := p.Re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		val := strings.TrimSpace(m[1])
		if val == "" {
			continue
		}
		if p.Validate != nil && !p.Validate(val) {
			continue
		}
		return domain.TextField(name, val, domain.SourceTextPattern, textPatternConfidence), true
	}
	return domain.ExtractionField{}, false
}

// fillFromEntity maps a selected EntityRecord onto the W-2 identity fields.
func fillFromEntity(out map[string]domain.ExtractionField, name string, e domain.EntityRecord) bool {
	switch name {
	case FieldEmployeeName:
		if e.Name == "" {
			return false
		}
		out[name] = domain.TextField(name, e.Name, domain.SourceTextPattern, e.Confidence)
	case FieldEmployeeSSN:
		if e.Identifier == "" {
			return false
		}
		out[name] = domain.TextField(name, e.Identifier, domain.SourceTextPattern, e.Confidence)
	case FieldEmployeeAddress:
		if e.Address.Street == "" {
			return false
		}
		out[name] = domain.TextField(name, formatAddress(e.Address), domain.SourceTextPattern, e.Confidence)
	default:
		return false
	}
	return true
}

func formatAddress(a domain.Address) string {
	parts := []string{a.Street}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if a.State != "" || a.PostalCode != "" {
		parts = append(parts, strings.TrimSpace(a.State+" "+a.PostalCode))
	}
	return strings.Join(parts, ", ")
}
