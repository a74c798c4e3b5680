package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// BigInt is an int64 amount in minor currency units. It is written to JSON
// as a string so browsers do not lose precision above 2^53.
type BigInt int64

func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(b), 10))
}

// UnmarshalJSON accepts both the string form and a bare number.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("bigint: %w", err)
		}
		*b = BigInt(n)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("bigint: %w", err)
	}
	*b = BigInt(n)
	return nil
}

// FeeQuote splits a payment between the platform and the developer.
type FeeQuote struct {
	Amount          BigInt `json:"amount"`
	FeeBps          int    `json:"feeBps"`
	PlatformFee     BigInt `json:"platformFee"`
	DeveloperPayout BigInt `json:"developerPayout"`
}
