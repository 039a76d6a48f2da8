package domain

import (
	"strconv"
	"strings"
)

// CardBrand is derived from the leading digits of a card number.
type CardBrand string

const (
	BrandVisa       CardBrand = "visa"
	BrandMastercard CardBrand = "mastercard"
	BrandAmex       CardBrand = "amex"
	BrandUnknown    CardBrand = "unknown"
)

// Card number lengths
const (
	amexLength    = 15
	defaultLength = 16
	maxCVCLength  = 4
)

// brandCandidate matches a brand by card number prefix.
type brandCandidate struct {
	brand CardBrand
	match func(digits string) bool
}

// brandCandidates are tried in order; the first match wins.
var brandCandidates = []brandCandidate{
	{brand: BrandVisa, match: func(d string) bool { return strings.HasPrefix(d, "4") }},
	{brand: BrandMastercard, match: func(d string) bool {
		return prefixInRange(d, 51, 55) || prefixInRange(d, 22, 27)
	}},
	{brand: BrandAmex, match: func(d string) bool {
		return strings.HasPrefix(d, "34") || strings.HasPrefix(d, "37")
	}},
}

func prefixInRange(digits string, lo, hi int) bool {
	if len(digits) < 2 {
		return false
	}
	n, err := strconv.Atoi(digits[:2])
	if err != nil {
		return false
	}
	return n >= lo && n <= hi
}

// DetectBrand returns the brand for a card number.
func DetectBrand(number string) CardBrand {
	digits := digitsOnly(number)
	for _, c := range brandCandidates {
		if c.match(digits) {
			return c.brand
		}
	}
	return BrandUnknown
}

// CardLength is the expected number of digits for a brand.
func CardLength(brand CardBrand) int {
	if brand == BrandAmex {
		return amexLength
	}
	return defaultLength
}

// SanitizeCardNumber strips non-digits and caps the length for the brand.
func SanitizeCardNumber(s string) string {
	digits := digitsOnly(s)
	if limit := CardLength(DetectBrand(digits)); len(digits) > limit {
		digits = digits[:limit]
	}
	return digits
}

// SanitizeCVC strips non-digits and caps the length at four.
func SanitizeCVC(s string) string {
	digits := digitsOnly(s)
	if len(digits) > maxCVCLength {
		digits = digits[:maxCVCLength]
	}
	return digits
}

// FormatExpiry turns typed input into "MM/YY", inserting the slash after
// the month.
func FormatExpiry(s string) string {
	digits := digitsOnly(s)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) <= 2 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// ParseExpiry parses "MM/YY" into a month and a four digit year.
func ParseExpiry(s string) (month, year int, ok bool) {
	if !expiryPattern.MatchString(s) {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(s[:2])
	yy, _ := strconv.Atoi(s[3:])
	return month, 2000 + yy, true
}

// LastFour returns the last four digits of a card number.
func LastFour(number string) string {
	digits := digitsOnly(number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(number string) string {
	digits := digitsOnly(number)
	if digits == "" {
		return ""
	}
	last := LastFour(digits)
	return strings.Repeat("*", len(digits)-len(last)) + last
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
