package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxline/internal/domain"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, fields map[string]domain.ExtractionField, name, want string) {
	t.Helper()
	f, ok := fields[name]
	require.True(t, ok, "field %s absent", name)
	require.NotNil(t, f.Amount, "field %s is not numeric", name)
	assert.True(t, f.Amount.Equal(decimalFromString(t, want)), "field %s: got %s want %s", name, f.Amount, want)
	assert.Equal(t, domain.SourceTextPattern, f.Source)
}

const w2Text = `Form W-2 Wage and Tax Statement 2023
Employer's name, address, and ZIP code
Acme Widgets Inc
Employer identification number 12-3456789
Employee's name Jordan Blake
Social security number 123-45-6789

1 Wages, tips, other comp. 50000.00
2 Federal income tax withheld $6,000.00
3 Social security wages 52000.00
4 Social security tax withheld 3224.00
5 Medicare wages and tips 52000.00
6 Medicare tax withheld 754.00
`

const int1099Text = `Form 1099-INT Interest Income 2023
Payer's name, street address, city
First National Bank
Recipient's TIN XXX-XX-6789

1 Interest income 830.50
2 Early withdrawal penalty 12.00
3 Interest on U.S. Savings Bonds and Treas. obligations 100.00
4 Federal income tax withheld 0.00
6 Foreign tax paid 45.25
8 Tax-exempt interest 200.00
11 Bond premium 30.50
`

const div1099Text = `Form 1099-DIV Dividends and Distributions
Payer's name: Vanguard Brokerage
1a Total ordinary dividends 1,250.00
1b Qualified dividends 1,000.00
2a Total capital gain distr. 400.00
4 Federal income tax withheld 0.00
7 Foreign tax paid 18.00
`

func TestReadTextPatternsW2(t *testing.T) {
	fields, _, primary := ReadTextPatterns(w2Text, domain.CategoryW2, "")
	assert.Equal(t, -1, primary, "single-person document has no entity arena")

	requireAmount(t, fields, FieldWages, "50000.00")
	requireAmount(t, fields, FieldFederalTaxWithheld, "6000.00")
	requireAmount(t, fields, FieldSocialSecurityWages, "52000.00")
	requireAmount(t, fields, FieldSocialSecurityTaxWithheld, "3224.00")
	requireAmount(t, fields, FieldMedicareWages, "52000.00")
	requireAmount(t, fields, FieldMedicareTaxWithheld, "754.00")

	assert.Equal(t, "Jordan Blake", fields[FieldEmployeeName].Text)
	assert.Equal(t, "123-45-6789", fields[FieldEmployeeSSN].Text)
	assert.Equal(t, "12-3456789", fields[FieldEmployerEIN].Text)
	assert.Equal(t, "Acme Widgets Inc", fields[FieldEmployerName].Text)
}

func TestReadTextPatterns1099INT(t *testing.T) {
	fields, _, _ := ReadTextPatterns(int1099Text, domain.Category1099INT, "")

	requireAmount(t, fields, FieldInterestIncome, "830.50")
	requireAmount(t, fields, FieldEarlyWithdrawalPenalty, "12.00")
	requireAmount(t, fields, FieldSavingsBondInterest, "100.00")
	requireAmount(t, fields, FieldFederalTaxWithheld, "0.00")
	requireAmount(t, fields, FieldForeignTaxPaid, "45.25")
	requireAmount(t, fields, FieldTaxExemptInterest, "200.00")
	requireAmount(t, fields, FieldBondPremium, "30.50")

	assert.Equal(t, "First National Bank", fields[FieldPayerName].Text)
	assert.Equal(t, "XXX-XX-6789", fields[FieldRecipientTIN].Text)
}

func TestReadTextPatterns1099DIV(t *testing.T) {
	fields, _, _ := ReadTextPatterns(div1099Text, domain.Category1099DIV, "")

	requireAmount(t, fields, FieldOrdinaryDividends, "1250.00")
	requireAmount(t, fields, FieldQualifiedDividends, "1000.00")
	requireAmount(t, fields, FieldCapitalGainDistributions, "400.00")
	requireAmount(t, fields, FieldForeignTaxPaid, "18.00")

	assert.Equal(t, "Vanguard Brokerage", fields[FieldPayerName].Text)
}

func TestReadTextPatternsAbsentFieldsStayAbsent(t *testing.T) {
	fields, _, _ := ReadTextPatterns("1 Wages, tips, other comp. 41000.00\n", domain.CategoryW2, "")
	requireAmount(t, fields, FieldWages, "41000.00")
	_, ok := fields[FieldFederalTaxWithheld]
	assert.False(t, ok, "unmatched field must be absent, not zero")
}

func TestReadTextPatternsEmptyText(t *testing.T) {
	fields, entities, primary := ReadTextPatterns("   \n ", domain.CategoryW2, "")
	assert.Empty(t, fields)
	assert.Nil(t, entities)
	assert.Equal(t, -1, primary)
}

func TestReadTextPatternsRejectsImplausibleMagnitude(t *testing.T) {
	fields, _, _ := ReadTextPatterns("1 Wages, tips, other comp. 999,999,999,999.00\n", domain.CategoryW2, "")
	_, ok := fields[FieldWages]
	assert.False(t, ok, "absurd magnitude must be rejected")
}

func TestReadTextPatternsLadderOrder(t *testing.T) {
	// Both a box-anchored line and a loose label are present; the box
	// match, being the earlier rung, wins.
	text := "some federal income tax withheld note 111.00\n2 Federal income tax withheld 6000.00\n"
	fields, _, _ := ReadTextPatterns(text, domain.CategoryW2, "")
	requireAmount(t, fields, FieldFederalTaxWithheld, "6000.00")
}

func TestPlausibleOrgNameRejectsCaptionContinuations(t *testing.T) {
	assert.False(t, plausibleOrgName("address, and ZIP code"))
	assert.False(t, plausibleOrgName("Address line 2"))
	assert.True(t, plausibleOrgName("First National Bank"))
}
