package extract

import "taxline/internal/domain"

// aliasTables map each canonical field to the provider field names that may
// carry it, in priority order. Providers rename their labels across model
// versions, so the most recent naming comes first and legacy spellings
// trail. Probing stops at the first alias with a usable value.
var aliasTables = map[domain.DocumentCategory]map[string][]string{
	domain.CategoryW2: {
		FieldWages:                     {"WagesTipsOtherCompensation", "WagesAndTips", "wages_tips_other_comp", "Box1", "wages"},
		FieldFederalTaxWithheld:        {"FederalIncomeTaxWithheld", "federal_income_tax_withheld", "Box2", "fed_tax_withheld"},
		FieldSocialSecurityWages:       {"SocialSecurityWages", "social_security_wages", "Box3"},
		FieldSocialSecurityTaxWithheld: {"SocialSecurityTaxWithheld", "social_security_tax_withheld", "Box4"},
		FieldMedicareWages:             {"MedicareWagesAndTips", "medicare_wages_and_tips", "Box5"},
		FieldMedicareTaxWithheld:       {"MedicareTaxWithheld", "medicare_tax_withheld", "Box6"},
		FieldEmployerName:              {"Employer", "EmployerName", "employer_name"},
		FieldEmployerEIN:               {"EmployerIdNumber", "EIN", "employer_identification_number"},
		FieldEmployeeName:              {"Employee", "EmployeeName", "employee_name"},
		FieldEmployeeSSN:               {"EmployeeSocialSecurityNumber", "SSN", "employee_ssn"},
		FieldEmployeeAddress:           {"EmployeeAddress", "employee_address"},
	},
	domain.Category1099INT: {
		FieldInterestIncome:         {"InterestIncome", "interest_income", "Box1"},
		FieldEarlyWithdrawalPenalty: {"EarlyWithdrawalPenalty", "early_withdrawal_penalty", "Box2"},
		FieldSavingsBondInterest:    {"InterestOnUsSavingsBonds", "us_savings_bond_interest", "Box3"},
		FieldFederalTaxWithheld:     {"FederalIncomeTaxWithheld", "federal_income_tax_withheld", "Box4"},
		FieldForeignTaxPaid:         {"ForeignTaxPaid", "foreign_tax_paid", "Box6"},
		FieldTaxExemptInterest:      {"TaxExemptInterest", "tax_exempt_interest", "Box8"},
		FieldBondPremium:            {"BondPremium", "bond_premium", "Box11"},
		FieldPayerName:              {"Payer", "PayerName", "payer_name"},
		FieldRecipientTIN:           {"RecipientTIN", "recipient_tin", "recipients_tin"},
	},
	domain.Category1099DIV: {
		FieldOrdinaryDividends:        {"TotalOrdinaryDividends", "ordinary_dividends", "Box1a"},
		FieldQualifiedDividends:       {"QualifiedDividends", "qualified_dividends", "Box1b"},
		FieldCapitalGainDistributions: {"TotalCapitalGainDistributions", "capital_gain_distributions", "Box2a"},
		FieldFederalTaxWithheld:       {"FederalIncomeTaxWithheld", "federal_income_tax_withheld", "Box4"},
		FieldForeignTaxPaid:           {"ForeignTaxPaid", "foreign_tax_paid", "Box7"},
		FieldPayerName:                {"Payer", "PayerName", "payer_name"},
		FieldRecipientTIN:             {"RecipientTIN", "recipient_tin"},
	},
	domain.Category1099MISC: {
		FieldRents:              {"Rents", "rents", "Box1"},
		FieldRoyalties:          {"Royalties", "royalties", "Box2"},
		FieldOtherIncome:        {"OtherIncome", "other_income", "Box3"},
		FieldFederalTaxWithheld: {"FederalIncomeTaxWithheld", "federal_income_tax_withheld", "Box4"},
		FieldPayerName:          {"Payer", "PayerName", "payer_name"},
		FieldRecipientTIN:       {"RecipientTIN", "recipient_tin"},
	},
	domain.Category1099NEC: {
		FieldNonemployeeCompensation: {"NonemployeeCompensation", "nonemployee_compensation", "Box1"},
		FieldFederalTaxWithheld:      {"FederalIncomeTaxWithheld", "federal_income_tax_withheld", "Box4"},
		FieldPayerName:               {"Payer", "PayerName", "payer_name"},
		FieldRecipientTIN:            {"RecipientTIN", "recipient_tin"},
	},
}

// Aliases returns the alias list for one canonical field of a category.
func Aliases(cat domain.DocumentCategory, field string) []string {
	table, ok := aliasTables[cat]
	if !ok {
		return nil
	}
	return table[field]
}
