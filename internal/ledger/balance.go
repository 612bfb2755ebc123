// SPDX-License-Identifier: Apache-2.0

package ledger

import "math/big"

// Balance grades of the chain's native token, expressed in pico-units (the
// smallest on-chain denomination). Mirrors the denominations the UI uses
// when formatting free balance.
var (
	Pico  = big.NewInt(1)
	Nano  = big.NewInt(1_000)
	Micro = big.NewInt(1_000_000)
	Milli = big.NewInt(1_000_000_000)
	Unit  = big.NewInt(1_000_000_000_000)
	Kilo  = big.NewInt(1_000_000_000_000_000)
	Mill  = big.NewInt(1_000_000_000_000_000_000)
)

// Amount returns n of the given grade as an absolute pico-unit value,
// e.g. Amount(100, Milli) = 100 * 1e9.
func Amount(n int64, grade *big.Int) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), grade)
}

// Format scales an absolute pico-unit balance down to the given grade,
// truncating toward zero.
func Format(balance, grade *big.Int) *big.Int {
	return new(big.Int).Div(balance, grade)
}
