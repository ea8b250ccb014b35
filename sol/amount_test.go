package sol

import (
	"errors"
	"math"
	"testing"

	"bundler/utils"
)

func TestPercentOf(t *testing.T) {
	cases := []struct {
		balance, percent, want uint64
	}{
		{1000, 50, 500},
		{999, 50, 499}, // floor, not round
		{1, 50, 0},
		{0, 100, 0},
		{12345678901234, 33, 4074074037407},
		// balance * percent overflows uint64; big.Int math must not.
		{math.MaxUint64, 100, math.MaxUint64},
	}
	for _, c := range cases {
		if got := PercentOf(c.balance, c.percent); got != c.want {
			t.Errorf("PercentOf(%d, %d) = %d, want %d", c.balance, c.percent, got, c.want)
		}
	}
}

func TestToNativeAmount(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     uint64
	}{
		{"1", 9, 1_000_000_000},
		{"1.5", 9, 1_500_000_000},
		{"0.000000001", 9, 1},
		{"100", 6, 100_000_000},
		{"0.1234567", 6, 123456}, // excess digits truncated
		{".5", 2, 50},
		{"42", 0, 42},
	}
	for _, c := range cases {
		got, err := ToNativeAmount(c.amount, c.decimals)
		if err != nil {
			t.Errorf("ToNativeAmount(%q, %d) error: %v", c.amount, c.decimals, err)
			continue
		}
		if got != c.want {
			t.Errorf("ToNativeAmount(%q, %d) = %d, want %d", c.amount, c.decimals, got, c.want)
		}
	}
}

func TestToNativeAmountInvalid(t *testing.T) {
	for _, amount := range []string{"", "abc", "1.2.3", "-1"} {
		if _, err := ToNativeAmount(amount, 9); !errors.Is(err, utils.ErrInvalidInput) {
			t.Errorf("ToNativeAmount(%q) expected ErrInvalidInput, got %v", amount, err)
		}
	}
}
