// Package vde implements the Sloth verifiable delay encoding: a sequentially
// iterated modular square-root permutation whose forward evaluation is slow
// (a modular exponentiation per round) and whose inverse is cheap (a single
// squaring per round).
package vde

import (
	"fmt"
	"math/big"

	"github.com/muridata/postorage/pkg/field"
)

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
	big4 = big.NewInt(4)
)

// Mode selects among VDE variants. Only ModeSloth is specified.
const ModeSloth = "sloth"

// sloth applies a single Sloth round: x -> y over F_p, p ≡ 3 (mod 4).
func sloth(x, p *big.Int) *big.Int {
	var y *big.Int

	sqrtExp := new(big.Int).Add(p, big1)
	sqrtExp.Div(sqrtExp, big4)

	if field.Legendre(x, p) == 1 {
		y = field.ModPow(x, sqrtExp, p)
		if y.Bit(0) == 1 {
			y = new(big.Int).Sub(p, y)
			y.Mod(y, p)
		}
	} else {
		negX := new(big.Int).Sub(p, x)
		negX.Mod(negX, p)
		y = field.ModPow(negX, sqrtExp, p)
		if y.Bit(0) == 0 {
			y = new(big.Int).Sub(p, y)
			y.Mod(y, p)
		}
	}

	if y.Bit(0) == 1 {
		y.Add(y, big1)
	} else {
		y.Sub(y, big1)
	}
	y.Mod(y, p)
	return y
}

// slothInv applies the inverse of a single Sloth round: y -> x.
func slothInv(y, p *big.Int) *big.Int {
	var x *big.Int
	if y.Bit(0) == 1 {
		x = new(big.Int).Add(y, big1)
	} else {
		x = new(big.Int).Sub(y, big1)
	}
	x.Mod(x, p)

	sq := new(big.Int).Mul(x, x)
	sq.Mod(sq, p)

	if x.Bit(0) == 1 {
		sq.Sub(p, sq)
		sq.Mod(sq, p)
	}
	return sq
}

// VDE applies T rounds of the selected VDE variant to x, a little-endian
// byte slice, and returns a little-endian byte slice of the same length.
func VDE(x []byte, p *big.Int, rounds int, mode string) ([]byte, error) {
	if mode != ModeSloth {
		return nil, fmt.Errorf("vde: unsupported mode %q", mode)
	}

	cur := field.BytesToInt(x)
	for i := 0; i < rounds; i++ {
		cur = sloth(cur, p)
	}
	return field.IntToBytes(cur, len(x)), nil
}

// VDEInv applies T rounds of the inverse VDE to y, exactly reversing VDE.
func VDEInv(y []byte, p *big.Int, rounds int, mode string) ([]byte, error) {
	if mode != ModeSloth {
		return nil, fmt.Errorf("vde: unsupported mode %q", mode)
	}

	cur := field.BytesToInt(y)
	for i := 0; i < rounds; i++ {
		cur = slothInv(cur, p)
	}
	return field.IntToBytes(cur, len(y)), nil
}
