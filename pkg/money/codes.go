package money

import "strings"

// Code represents a currency code (e.g., "HNL", "USD").
type Code string

// Common currency codes
const (
	HNL Code = "HNL" // Honduran Lempira
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
)

// IsValid checks if the currency code is three ASCII letters.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	for i := range 3 {
		ch := c[i] | 0x20 // fold to lower case
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// Provider returns the lower case form payment providers expect.
func (c Code) Provider() string {
	return strings.ToLower(string(c))
}

func (c Code) String() string {
	return strings.ToUpper(string(c))
}
