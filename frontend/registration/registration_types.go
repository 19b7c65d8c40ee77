package registration

import "queueboard/models"

// Form field names, shared by the form markup, the validator and FieldErrors.
const (
	FieldName        = "name"
	FieldPhone       = "phoneNumber"
	FieldTelephone   = "telephoneNumber"
	FieldNICPassport = "nicPassport"
	FieldEmail       = "email"
	FieldServiceType = "serviceType"
)

type Form struct {
	Name            string
	PhoneNumber     string
	TelephoneNumber string
	NICPassport     string
	Email           string
	ServiceType     string
}

// FieldErrors maps a field name to its message. Submission is blocked while
// it is non-empty.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

type PageData struct {
	Form     Form
	Errors   FieldErrors
	Services []models.ServiceType
	// CatalogFallback is set when the backend catalogue could not be loaded.
	CatalogFallback bool
	// ExistingToken is set for a duplicate registration so the page can link
	// to the token the customer already holds.
	ExistingToken string
	Banner        string
}

type LookupData struct {
	Phone  string
	Tokens []models.Customer
	Error  string
}
