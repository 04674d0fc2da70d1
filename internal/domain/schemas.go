package domain

// CreditAccount is one tradeline on a credit bureau report.
type CreditAccount struct {
	AccountType    string   `json:"account_type"`
	Balance        float64  `json:"balance"`
	CreditLimit    *float64 `json:"credit_limit"`
	PaymentStatus  string   `json:"payment_status"`
	OpenedDate     string   `json:"opened_date"`
	MonthlyPayment *float64 `json:"monthly_payment"`
}

// CreditBureauInput is the validated shape of a credit bureau document.
type CreditBureauInput struct {
	FullName             string          `json:"full_name"`
	DateOfBirth          string          `json:"date_of_birth"`
	Address              string          `json:"address"`
	SSNLastFour          string          `json:"ssn_last_four"`
	InquiriesLast6Months int             `json:"inquiries_last_6_months"`
	TotalDebt            float64         `json:"total_debt"`
	CreditScore          *int            `json:"credit_score"`
	CreditAccounts       []CreditAccount `json:"credit_accounts"`
}

// Shareholder is one owner listed on a KYB/KYC document.
type Shareholder struct {
	Name             string  `json:"name"`
	OwnershipPercent float64 `json:"ownership_percent"`
	Nationality      string  `json:"nationality"`
}

// KybKycInput is the validated shape of a KYB/KYC document.
type KybKycInput struct {
	CompanyName        string        `json:"company_name"`
	RegistrationNumber string        `json:"registration_number"`
	RegistrationDate   string        `json:"registration_date"`
	RegisteredAddress  string        `json:"registered_address"`
	BusinessType       string        `json:"business_type"`
	ContactPersonName  string        `json:"contact_person_name"`
	ContactPersonEmail string        `json:"contact_person_email"`
	PhoneNumber        string        `json:"phone_number"`
	Website            *string       `json:"website"`
	Shareholders       []Shareholder `json:"shareholders"`
}
