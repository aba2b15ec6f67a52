// Package money formats amounts stored as integer cents.
package money

import "fmt"

// Format renders cents as a decimal string, e.g. 123456 -> "1234.56".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
