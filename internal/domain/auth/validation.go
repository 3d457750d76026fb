package auth

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"

	"invoicer/internal/core/apperror"
)

// passwordSpecials are the accepted special characters.
const passwordSpecials = "@$!.#^%*?&"

// IsStrongPassword reports whether p has at least 8 characters including a
// lower-case letter, an upper-case letter, a digit and a special character.
func IsStrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// ValidEmail reports whether s is a bare address with a dotted domain.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return strings.Contains(s[at+1:], ".")
}

// NormalizePhone parses phone in region and returns it in E.164.
func NormalizePhone(phone, region string) (string, error) {
	num, err := libphonenumber.Parse(phone, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", apperror.NewValidation("invalid phone number").WithDetail("field", "phoneNo")
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

func (r RegisterRequest) validate() error {
	required := []struct {
		field, value string
	}{
		{"userName", r.UserName},
		{"businessName", r.BusinessName},
		{"slogan", r.Slogan},
		{"email", r.Email},
		{"phoneNo", r.PhoneNo},
		{"password", r.Password},
		{"gstNo", r.GSTNo},
		{"ntnNo", r.NTNNo},
		{"landmark", r.Landmark},
		{"street", r.Street},
		{"area", r.Area},
		{"city", r.City},
		{"country", r.Country},
	}
	for _, f := range required {
		if f.value == "" {
			return apperror.NewValidation("all fields are required").WithDetail("field", f.field)
		}
	}
	if !ValidEmail(r.Email) {
		return apperror.NewValidation("invalid email format").WithDetail("field", "email")
	}
	if !IsStrongPassword(r.Password) {
		return apperror.NewValidation(
			"password must be at least 8 characters long and contain a lower-case letter, " +
				"an upper-case letter, a digit and a special character").
			WithDetail("field", "password")
	}
	return nil
}
