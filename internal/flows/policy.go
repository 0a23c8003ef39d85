package flows

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// NormalizeEmail trims and lower-cases an address so every lookup and lock
// key agrees on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare addr-spec with a dotted domain.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return at > 0 && strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// PasswordLengthOK counts runes, not bytes.
func PasswordLengthOK(password string, policy Policy) bool {
	n := utf8.RuneCountInString(password)
	return n >= policy.PasswordMin && n <= policy.PasswordMax
}

func (d *Deps) passwordLengthError() error {
	return d.Errors.PasswordLength(d.Policy.PasswordMin, d.Policy.PasswordMax)
}
