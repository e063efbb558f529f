package core

import "strings"

// MapContact converts a HubSpot contact, and its associated company when
// present, into a PandaDoc contact. Contact values win over company values
// for the shared address and phone fields. The second return value is false
// when no email is available, in which case nothing must be sent.
func MapContact(source SourceContact) (DestinationContact, bool) {
	contact := source.Properties
	var company CompanyProperties
	if source.AssociatedCompany != nil {
		company = source.AssociatedCompany.Properties
	}

	out := DestinationContact{
		Email:         clean(contact.Email),
		FirstName:     clean(contact.FirstName),
		LastName:      clean(contact.LastName),
		Company:       firstNonEmpty(company.Name, contact.Company),
		JobTitle:      clean(contact.JobTitle),
		Phone:         firstNonEmpty(contact.Phone, company.Phone),
		State:         firstNonEmpty(contact.State, company.State),
		StreetAddress: firstNonEmpty(contact.Address, company.Address),
		City:          firstNonEmpty(contact.City, company.City),
		PostalCode:    firstNonEmpty(contact.Zip, company.Zip),
		Country:       firstNonEmpty(contact.Country, company.Country),
	}
	if out.Email == "" {
		return DestinationContact{}, false
	}
	return out, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := clean(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func clean(value string) string {
	return strings.TrimSpace(value)
}
