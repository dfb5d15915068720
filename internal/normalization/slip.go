package normalization

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slipReferenceRe = regexp.MustCompile(`\d{12,}`)
	slipAmountRe    = regexp.MustCompile(`(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}`)
	slipPayerThaiRe = regexp.MustCompile(`(?:นางสาว|น\.ส\.|นาง|นาย)\s*([\p{L}\p{M}]+\s+[\p{L}\p{M}]+)`)
	slipPayerEngRe  = regexp.MustCompile(`(?i)\b(?:mrs|mr|ms|miss)\.?\s+([a-z]+\s+[a-z]+)`)
)

// SlipReading holds what could be read off a bank transfer slip. Empty
// fields were not found.
type SlipReading struct {
	Reference string
	Amount    float64
	Payer     string
}

// ReadSlip pulls the transfer reference (12+ digits), the first amount with
// two decimals, and the payer name after a Thai or English title.
func ReadSlip(text string) SlipReading {
	var out SlipReading
	out.Reference = slipReferenceRe.FindString(text)
	if m := slipAmountRe.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil {
			out.Amount = v
		}
	}
	if m := slipPayerThaiRe.FindStringSubmatch(text); m != nil {
		out.Payer = strings.Join(strings.Fields(m[1]), " ")
	} else if m := slipPayerEngRe.FindStringSubmatch(text); m != nil {
		out.Payer = strings.Join(strings.Fields(m[1]), " ")
	}
	return out
}
