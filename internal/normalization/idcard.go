package normalization

import "strings"

// IDCardLength is the number of digits on a Thai national ID card.
const IDCardLength = 13

// ValidThaiID checks length, digits and the mod-11 check digit.
func ValidThaiID(id string) bool {
	if len(id) != IDCardLength {
		return false
	}
	sum := 0
	for i := 0; i < IDCardLength; i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return false
		}
		if i < IDCardLength-1 {
			sum += int(c-'0') * (IDCardLength - i)
		}
	}
	check := (11 - sum%11) % 10
	return check == int(id[IDCardLength-1]-'0')
}

// ocrDigitFixes maps letters OCR commonly confuses with digits.
var ocrDigitFixes = strings.NewReplacer(
	"l", "1",
	"I", "1",
	"O", "0",
	"o", "0",
	"B", "8",
	"S", "5",
)

// NormalizeOCRDigits applies the letter fixes and keeps only digits.
func NormalizeOCRDigits(text string) string {
	return DigitsOnly(ocrDigitFixes.Replace(text))
}

// IDCandidates returns the non-overlapping 13-digit runs of the normalised
// text that pass the checksum, in reading order.
func IDCandidates(text string) []string {
	digits := NormalizeOCRDigits(text)
	var out []string
	for i := 0; i+IDCardLength <= len(digits); i += IDCardLength {
		if c := digits[i : i+IDCardLength]; ValidThaiID(c) {
			out = append(out, c)
		}
	}
	return out
}

// PositionalSimilarity is the percentage of equal positions; 0 when lengths differ.
func PositionalSimilarity(a, b string) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	match := 0
	for i := 0; i < len(a); i++ {
		if a[i] == b[i] {
			match++
		}
	}
	return float64(match) / float64(len(a)) * 100
}
