package standardize

import (
	"math"
	"strings"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/matcher"
)

var creditBureauRequired = []string{
	"full_name", "date_of_birth", "address", "ssn_last_four", "inquiries_last_6_months", "total_debt",
}

var kybKycRequired = []string{
	"company_name", "registration_number", "registration_date", "registered_address",
	"business_type", "contact_person_name", "contact_person_email", "phone_number",
}

// CreditBureau validates the first record of a credit bureau table.
func CreditBureau(t *domain.Tabular) (*domain.CreditBureauInput, error) {
	rec, err := firstRecord(domain.DocumentTypeCreditBureau, t, creditBureauRequired)
	if err != nil {
		return nil, err
	}

	in := &domain.CreditBureauInput{
		FullName:       Text(rec["full_name"]),
		DateOfBirth:    Text(rec["date_of_birth"]),
		Address:        Text(rec["address"]),
		SSNLastFour:    Text(rec["ssn_last_four"]),
		CreditAccounts: []domain.CreditAccount{},
	}

	var bad []string
	if n := ParseAmount(rec["inquiries_last_6_months"]); n != nil {
		in.InquiriesLast6Months = int(math.Trunc(*n))
	} else {
		bad = append(bad, "inquiries_last_6_months")
	}
	if n := ParseAmount(rec["total_debt"]); n != nil {
		in.TotalDebt = *n
	} else {
		bad = append(bad, "total_debt")
	}
	if !domain.IsBlank(rec["credit_score"]) {
		if n := ParseAmount(rec["credit_score"]); n != nil {
			score := int(math.Trunc(*n))
			in.CreditScore = &score
		} else {
			bad = append(bad, "credit_score")
		}
	}
	if len(bad) > 0 {
		return nil, &domain.ValidationError{
			DocumentType: domain.DocumentTypeCreditBureau,
			Reason:       "fields are not numeric: " + strings.Join(bad, ", "),
		}
	}
	return in, nil
}

// KybKyc validates the first record of a KYB/KYC table.
func KybKyc(t *domain.Tabular) (*domain.KybKycInput, error) {
	rec, err := firstRecord(domain.DocumentTypeKybKyc, t, kybKycRequired)
	if err != nil {
		return nil, err
	}

	in := &domain.KybKycInput{
		CompanyName:        Text(rec["company_name"]),
		RegistrationNumber: Text(rec["registration_number"]),
		RegistrationDate:   Text(rec["registration_date"]),
		RegisteredAddress:  Text(rec["registered_address"]),
		BusinessType:       Text(rec["business_type"]),
		ContactPersonName:  Text(rec["contact_person_name"]),
		ContactPersonEmail: Text(rec["contact_person_email"]),
		PhoneNumber:        Text(rec["phone_number"]),
		Shareholders:       []domain.Shareholder{},
	}
	if !strings.Contains(in.ContactPersonEmail, "@") {
		return nil, &domain.ValidationError{
			DocumentType: domain.DocumentTypeKybKyc,
			Reason:       "contact_person_email is not an email address",
		}
	}
	if w := Text(rec["website"]); w != "" {
		in.Website = &w
	}
	return in, nil
}

// firstRecord keys the first row by snake_case header and checks that every
// required field is populated.
func firstRecord(docType domain.DocumentType, t *domain.Tabular, required []string) (map[string]any, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, &domain.ValidationError{DocumentType: docType, Reason: "document has no records"}
	}

	rec := make(map[string]any, len(t.Rows[0]))
	for k, v := range t.Rows[0] {
		rec[SnakeCase(k)] = v
	}

	var missing []string
	for _, f := range required {
		if domain.IsBlank(rec[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{DocumentType: docType, Fields: missing}
	}
	return rec, nil
}

// SnakeCase normalizes a header and joins its words with underscores.
func SnakeCase(s string) string {
	return strings.ReplaceAll(matcher.Normalize(s), " ", "_")
}
