package registration

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"queueboard/models"
)

var (
	phonePattern = regexp.MustCompile(`^0\d{9}$`)
	nicPattern   = regexp.MustCompile(`^(\d{9}[vVxX]|\d{12})$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Normalize trims every field and removes whitespace inside the NIC number.
func Normalize(f Form) Form {
	return Form{
		Name:            strings.TrimSpace(f.Name),
		PhoneNumber:     strings.TrimSpace(f.PhoneNumber),
		TelephoneNumber: strings.TrimSpace(f.TelephoneNumber),
		NICPassport:     stripSpaces(f.NICPassport),
		Email:           strings.TrimSpace(f.Email),
		ServiceType:     strings.TrimSpace(f.ServiceType),
	}
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Validate checks a form against the field rules and the loaded service
// catalogue. An empty result means the form may be submitted.
func Validate(f Form, catalog []models.ServiceType) FieldErrors {
	f = Normalize(f)
	errs := FieldErrors{}

	switch {
	case f.Name == "":
		errs[FieldName] = "Name is required"
	case utf8.RuneCountInString(f.Name) < 2:
		errs[FieldName] = "Name must be at least 2 characters"
	}

	switch {
	case f.PhoneNumber == "":
		errs[FieldPhone] = "Phone number is required"
	case !phonePattern.MatchString(f.PhoneNumber):
		errs[FieldPhone] = "Enter a valid phone number (0XXXXXXXXX)"
	}

	if f.TelephoneNumber != "" && !phonePattern.MatchString(f.TelephoneNumber) {
		errs[FieldTelephone] = "Enter a valid telephone number (0XXXXXXXXX)"
	}

	switch {
	case f.NICPassport == "":
		errs[FieldNICPassport] = "NIC/Passport is required"
	case !nicPattern.MatchString(f.NICPassport):
		errs[FieldNICPassport] = "Enter a valid NIC or Passport number"
	}

	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		errs[FieldEmail] = "Enter a valid email address"
	}

	switch {
	case f.ServiceType == "":
		errs[FieldServiceType] = "Please select a service type"
	case !inCatalog(f.ServiceType, catalog):
		errs[FieldServiceType] = "Please select a service from the list"
	}

	return errs
}

func inCatalog(id string, catalog []models.ServiceType) bool {
	for _, s := range catalog {
		if s.ID == id {
			return true
		}
	}
	return false
}
