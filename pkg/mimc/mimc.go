// Package mimc implements the host-side MiMC5-Feistel primitives the
// proof-of-space construction is built from: the iterated delay function DF
// whose truncated outputs index the bit-packed table, and the
// Merkle-Damgård aggregation hash over the prover's returned preimages.
// circuits/pos synthesizes the identical round shape in-circuit, so host
// witnesses and circuit constraints agree bit-for-bit.
//
// Arithmetic is over the BN254 scalar field
// (github.com/consensys/gnark-crypto/ecc/bn254/fr), the same field the
// SNARK circuits are compiled over.
package mimc

import (
	"crypto/rand"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/zeebo/blake3"
)

// GenerateConstants draws n pseudorandom non-zero BN254 scalar field
// elements, suitable as MiMC5-Feistel round constants. Concrete production
// constants are an externally supplied parameter; this is the convenience
// generator tests and one-off deployments use to obtain a set.
func GenerateConstants(n int) ([]*big.Int, error) {
	out := make([]*big.Int, n)
	for i := range out {
		for {
			c, err := rand.Int(rand.Reader, ecc.BN254.ScalarField())
			if err != nil {
				return nil, err
			}
			if c.Sign() != 0 {
				out[i] = c
				break
			}
		}
	}
	return out, nil
}

// StandardConstants deterministically derives n non-zero round constants
// from label by expanding BLAKE3(label) into successive field elements —
// a "nothing up my sleeve" generator for deployments that want a fixed,
// reproducible constant set without distributing one out of band.
func StandardConstants(n int, label string) []*big.Int {
	out := make([]*big.Int, n)
	h := blake3.New()
	h.Write([]byte(label))
	reader := h.Digest()

	buf := make([]byte, 32)
	for i := range out {
		for {
			if _, err := reader.Read(buf); err != nil {
				panic(err) // blake3's XOF reader never errors
			}
			c := new(big.Int).Mod(new(big.Int).SetBytes(buf), ecc.BN254.ScalarField())
			if c.Sign() != 0 {
				out[i] = c
				break
			}
		}
	}
	return out
}
