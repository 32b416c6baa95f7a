package storage

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hongminglow/carecrate/internal/models"
)

// NormalizePhone strips formatting characters so that "(555) 010-2000" and
// "5550102000" share one partition. A leading '+' is kept.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName trims, collapses inner whitespace, and applies NFC so that
// equal-looking names build the same member key.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// MemberKey is the sort key a registered family is stored under.
func MemberKey(firstName, lastName string) string {
	return NormalizeName(firstName) + " " + NormalizeName(lastName)
}

// KeyForVisit resolves the nested family record a visit is appended to.
func KeyForVisit(v models.Visit) models.FamilyKey {
	return models.FamilyKey{
		PhoneNumber: NormalizePhone(v.PhoneNumber),
		MemberID:    MemberKey(v.FirstName, v.LastName),
	}
}
