package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formattedStr := value.Text('f', int(decimals))
	if strings.Contains(formattedStr, ".") {
		formattedStr = strings.TrimRight(formattedStr, "0")
		formattedStr = strings.TrimRight(formattedStr, ".")
	}
	if strings.HasPrefix(formattedStr, ".") {
		formattedStr = "0" + formattedStr
	}
	if formattedStr == "" && amount.Sign() == 0 {
		return "0", nil
	}
	if formattedStr == "" {
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}
	return formattedStr, nil
}

// FormatEther is FormatBigInt with 18 decimals, falling back to "0" on error.
func FormatEther(amount *big.Int) string {
	s, err := FormatBigInt(amount, 18)
	if err != nil {
		return "0"
	}
	return s
}

// ParseUnits converts a decimal string such as "0.001" into its integer
// representation with the given number of decimals.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	negative := strings.HasPrefix(value, "-")
	if negative {
		value = value[1:]
	}

	whole, frac, _ := strings.Cut(value, ".")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", value, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))

	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if negative {
		result.Neg(result)
	}
	return result, nil
}

// ParseTokenID parses a decimal token id. Negative ids are rejected.
func ParseTokenID(tokenID string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id %q", tokenID)
	}
	return id, nil
}
