package validate

import "strings"

// PhoneStrategy decides whether a digits-only candidate is a valid phone
// number for the deployment's market. The engine strips all non-digit
// characters before consulting the strategy.
type PhoneStrategy interface {
	Name() string
	Valid(digits string) bool
}

// ILMobile accepts Israeli mobile numbers: 10 digits with the national
// 05x prefix, or 9 digits with the 0 dropped.
type ILMobile struct{}

func (ILMobile) Name() string { return "il-mobile" }

func (ILMobile) Valid(digits string) bool {
	switch len(digits) {
	case 10:
		return strings.HasPrefix(digits, "05")
	case 9:
		return strings.HasPrefix(digits, "5")
	default:
		return false
	}
}

// E164Lenient accepts any 8 to 15 digit number, for deployments without a
// national format rule.
type E164Lenient struct{}

func (E164Lenient) Name() string { return "e164-lenient" }

func (E164Lenient) Valid(digits string) bool {
	return len(digits) >= 8 && len(digits) <= 15
}

// StrategyByName resolves a configured strategy name, defaulting to ILMobile.
func StrategyByName(name string) PhoneStrategy {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "e164", "e164-lenient":
		return E164Lenient{}
	default:
		return ILMobile{}
	}
}

// StripNonDigits keeps only ASCII digits.
func StripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
