// Package units converts between human readable token amounts and their
// smallest-unit integer representation (wei for ether).
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MRAlirad/fundme-go/constants"
	"github.com/MRAlirad/fundme-go/types"
)

// ParseEther converts an ether amount such as "0.1" to wei.
func ParseEther(amount string) (*big.Int, error) {
	return ParseUnits(amount, constants.EtherDecimals)
}

// FormatEther renders wei as an ether amount without trailing zeros.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, constants.EtherDecimals)
}

// ParseUnits converts a decimal string to an integer scaled by 10^decimals.
// Negative amounts and amounts with more fractional digits than decimals are
// rejected rather than rounded.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty amount", types.ErrInvalidAmount)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", types.ErrInvalidAmount, decimals)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", types.ErrInvalidAmount, amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", types.ErrInvalidAmount, amount)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", types.ErrInvalidAmount, amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders value scaled down by 10^decimals. A nil value renders as "0".
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}
