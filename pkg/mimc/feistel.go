// The MiMC5-Feistel round function shared by the delay function and the
// aggregation hash: t1 = (xL+C)^2, t2 = t1^2, xL' = (xL+C)*t2 + xR,
// xR' = xL.

package mimc

import (
	"math/big"

	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// DFRound applies one MiMC5-Feistel round over the BN254 scalar field:
//
//	t1  = (xL + c)^2
//	t2  = t1^2
//	xL' = (xL + c)*t2 + xR
//	xR' = xL
func DFRound(xL, xR, c *big.Int) (*big.Int, *big.Int) {
	return dfRound(xL, xR, c)
}

func dfRound(xL, xR, c *big.Int) (*big.Int, *big.Int) {
	var xLe, xRe, ce, sum, t1, t2, xLpe bn254fr.Element
	xLe.SetBigInt(xL)
	xRe.SetBigInt(xR)
	ce.SetBigInt(c)

	sum.Add(&xLe, &ce)
	t1.Square(&sum)
	t2.Square(&t1)
	xLpe.Mul(&sum, &t2)
	xLpe.Add(&xLpe, &xRe)

	xLp := new(big.Int)
	xLpe.BigInt(xLp)
	xRp := new(big.Int)
	xLe.BigInt(xRp)
	return xLp, xRp
}

// DF runs len(constants) MiMC5-Feistel rounds starting from (xL, xR) and
// returns the final xL half — the delay function output DF(key+x, m), with
// xL = key+x and xR = m (the Feistel's second input half).
func DF(xL, xR *big.Int, constants []*big.Int) *big.Int {
	l, r := new(big.Int).Set(xL), new(big.Int).Set(xR)
	for _, c := range constants {
		l, r = dfRound(l, r, c)
	}
	return l
}

// Agg folds a vector of field elements into a single digest by threading
// each x_i through DF as the xR half of a fresh Feistel evaluation keyed on
// the running accumulator, Merkle-Damgård style: acc' = DF(acc, x_i,
// constants). The final accumulator is the aggregation hash the combined
// proof-of-space circuit binds to the public x_hash input.
func Agg(xs []*big.Int, key *big.Int, constants []*big.Int) *big.Int {
	acc := new(big.Int).Set(key)
	for _, x := range xs {
		acc = DF(acc, x, constants)
	}
	return acc
}
