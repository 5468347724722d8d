// Package classify maps free text to a document type label using a fixed keyword table.
package classify

import "strings"

// Labels returned by Classify.
const (
	TypeIDCard        = "ID Card"
	TypeIRSForm       = "IRS Form"
	TypePassport      = "Passport"
	TypeBankStatement = "Bank Statement"
	TypeUnknown       = "Unknown"
)

// Rule associates a label with the phrases that identify it.
type Rule struct {
	Label    string
	Keywords []string
}

// rules is evaluated in order and the first matching label wins, so a text
// carrying keywords of two labels resolves to the earlier one.
var rules = []Rule{
	{Label: TypeIDCard, Keywords: []string{"ID Number", "Date of Birth"}},
	{Label: TypeIRSForm, Keywords: []string{"Internal Revenue Service", "Taxpayer ID"}},
	{Label: TypePassport, Keywords: []string{"Passport Number", "Nationality"}},
	{Label: TypeBankStatement, Keywords: []string{"Account Number", "Transaction History"}},
}

// Classify returns the label of the first rule with a keyword contained in text,
// compared case-insensitively. Text matching no rule yields TypeUnknown.
func Classify(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return rule.Label
			}
		}
	}
	return TypeUnknown
}

// Rules returns a copy of the keyword table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Label: r.Label, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
