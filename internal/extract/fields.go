package extract

import "taxline/internal/domain"

// Canonical field names. Field names are category-scoped but a few (the
// withholding box, payer identity) recur across the 1099 family.
const (
	FieldWages                     = "wages"
	FieldFederalTaxWithheld        = "federalTaxWithheld"
	FieldSocialSecurityWages       = "socialSecurityWages"
	FieldSocialSecurityTaxWithheld = "socialSecurityTaxWithheld"
	FieldMedicareWages             = "medicareWages"
	FieldMedicareTaxWithheld       = "medicareTaxWithheld"
	FieldEmployerName              = "employerName"
	FieldEmployerEIN               = "employerEIN"
	FieldEmployeeName              = "employeeName"
	FieldEmployeeSSN               = "employeeSSN"
	FieldEmployeeAddress           = "employeeAddress"

	FieldInterestIncome         = "interestIncome"
	FieldEarlyWithdrawalPenalty = "earlyWithdrawalPenalty"
	FieldSavingsBondInterest    = "usSavingsBondInterest"
	FieldTaxExemptInterest      = "taxExemptInterest"
	FieldBondPremium            = "bondPremium"
	FieldForeignTaxPaid         = "foreignTaxPaid"

	FieldOrdinaryDividends        = "ordinaryDividends"
	FieldQualifiedDividends       = "qualifiedDividends"
	FieldCapitalGainDistributions = "capitalGainDistributions"

	FieldRents       = "rents"
	FieldRoyalties   = "royalties"
	FieldOtherIncome = "otherIncome"

	FieldNonemployeeCompensation = "nonemployeeCompensation"

	FieldPayerName    = "payerName"
	FieldRecipientTIN = "recipientTIN"
)

// FieldKind distinguishes numeric (amount) fields from textual ones.
type FieldKind int

const (
	KindAmount FieldKind = iota
	KindText
)

// FieldSpec describes one canonical field of a category.
type FieldSpec struct {
	Name string
	Kind FieldKind
	// Critical fields are cross-source reconciled and reported as
	// extraction-incomplete warnings when absent after both passes.
	Critical bool
}

// categoryFields lists each category's canonical fields in box order. Box
// order is load-bearing: the reconciliation swap pass compares adjacent
// numeric pairs in this order.
var categoryFields = map[domain.DocumentCategory][]FieldSpec{
	domain.CategoryW2: {
		{Name: FieldWages, Kind: KindAmount, Critical: true},
		{Name: FieldFederalTaxWithheld, Kind: KindAmount, Critical: true},
		{Name: FieldSocialSecurityWages, Kind: KindAmount, Critical: true},
		{Name: FieldSocialSecurityTaxWithheld, Kind: KindAmount},
		{Name: FieldMedicareWages, Kind: KindAmount, Critical: true},
		{Name: FieldMedicareTaxWithheld, Kind: KindAmount},
		{Name: FieldEmployerName, Kind: KindText},
		{Name: FieldEmployerEIN, Kind: KindText},
		{Name: FieldEmployeeName, Kind: KindText},
		{Name: FieldEmployeeSSN, Kind: KindText},
		{Name: FieldEmployeeAddress, Kind: KindText},
	},
	domain.Category1099INT: {
		{Name: FieldInterestIncome, Kind: KindAmount, Critical: true},
		{Name: FieldEarlyWithdrawalPenalty, Kind: KindAmount},
		{Name: FieldSavingsBondInterest, Kind: KindAmount},
		{Name: FieldFederalTaxWithheld, Kind: KindAmount, Critical: true},
		{Name: FieldForeignTaxPaid, Kind: KindAmount},
		{Name: FieldTaxExemptInterest, Kind: KindAmount},
		{Name: FieldBondPremium, Kind: KindAmount},
		{Name: FieldPayerName, Kind: KindText},
		{Name: FieldRecipientTIN, Kind: KindText},
	},
	domain.Category1099DIV: {
		{Name: FieldOrdinaryDividends, Kind: KindAmount, Critical: true},
		{Name: FieldQualifiedDividends, Kind: KindAmount, Critical: true},
		{Name: FieldCapitalGainDistributions, Kind: KindAmount},
		{Name: FieldFederalTaxWithheld, Kind: KindAmount, Critical: true},
		{Name: FieldForeignTaxPaid, Kind: KindAmount},
		{Name: FieldPayerName, Kind: KindText},
		{Name: FieldRecipientTIN, Kind: KindText},
	},
	domain.Category1099MISC: {
		{Name: FieldRents, Kind: KindAmount, Critical: true},
		{Name: FieldRoyalties, Kind: KindAmount},
		{Name: FieldOtherIncome, Kind: KindAmount, Critical: true},
		{Name: FieldFederalTaxWithheld, Kind: KindAmount, Critical: true},
		{Name: FieldPayerName, Kind: KindText},
		{Name: FieldRecipientTIN, Kind: KindText},
	},
	domain.Category1099NEC: {
		{Name: FieldNonemployeeCompensation, Kind: KindAmount, Critical: true},
		{Name: FieldFederalTaxWithheld, Kind: KindAmount, Critical: true},
		{Name: FieldPayerName, Kind: KindText},
		{Name: FieldRecipientTIN, Kind: KindText},
	},
}

// Fields returns a category's field specs in canonical box order.
func Fields(cat domain.DocumentCategory) []FieldSpec {
	return categoryFields[cat]
}

// CriticalAmountFields returns the category's critical numeric field names
// in box order.
func CriticalAmountFields(cat domain.DocumentCategory) []string {
	var names []string
	for _, spec := range categoryFields[cat] {
		if spec.Critical && spec.Kind == KindAmount {
			names = append(names, spec.Name)
		}
	}
	return names
}
