package sol

import (
	"fmt"
	"math/big"
	"strings"

	"bundler/utils"
)

// Final lamport and token-unit values go through big.Int only. Native
// floats lose precision above 2^53, well inside token supply ranges.

// PercentOf computes floor(balance * percent / 100).
func PercentOf(balance, percent uint64) uint64 {
	product := new(big.Int).Mul(new(big.Int).SetUint64(balance), new(big.Int).SetUint64(percent))
	product.Div(product, big.NewInt(100))
	return product.Uint64()
}

// ToNativeAmount converts a decimal string like "1.5" into the mint's
// native base (amount * 10^decimals), truncating excess fractional digits.
func ToNativeAmount(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("empty amount: %w", utils.ErrInvalidInput)
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	for len(frac) < int(decimals) {
		frac += "0"
	}

	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return 0, fmt.Errorf("malformed amount %q: %w", amount, utils.ErrInvalidInput)
	}
	if !value.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows uint64: %w", amount, utils.ErrInvalidInput)
	}
	return value.Uint64(), nil
}
