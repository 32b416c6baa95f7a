package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/carecrate/internal/models"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "digits only", in: "5550102000", want: "5550102000"},
		{name: "formatted", in: " (555) 010-2000 ", want: "5550102000"},
		{name: "dotted", in: "555.010.2000", want: "5550102000"},
		{name: "international", in: "+1 555 010 2000", want: "+15550102000"},
		{name: "plus in the middle dropped", in: "555+0102000", want: "5550102000"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestMemberKeyNormalizesNames(t *testing.T) {
	composed := MemberKey("Ren\u00e9e", "Ortiz")
	decomposed := MemberKey("  Rene\u0301e ", "Ortiz")
	assert.Equal(t, composed, decomposed)
	assert.Equal(t, "Mary Ann Lee", MemberKey("Mary   Ann", "Lee"))
}

func TestKeyForVisit(t *testing.T) {
	key := KeyForVisit(models.Visit{PhoneNumber: "555-010-2000", FirstName: "Ana", LastName: "Diaz"})
	assert.Equal(t, models.FamilyKey{PhoneNumber: "5550102000", MemberID: "Ana Diaz"}, key)
}
