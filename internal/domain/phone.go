package domain

import "strings"

// CountryCodeBR is prepended to every WhatsApp recipient that lacks it.
const CountryCodeBR = "55"

// NormalizePhone strips every non-digit character and prefixes the Brazilian
// country code when missing. An input without digits yields "" rather than a
// bare "55", so callers can tell "no number" apart and drop the recipient.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + len(CountryCodeBR))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, CountryCodeBR) {
		return digits
	}
	return CountryCodeBR + digits
}
