// Package field implements the modular bigint primitives of the sealing
// pipeline — modpow, legendre, modadd, modsub — plus the little-endian
// byte serialization every unit-sized value crosses in and out of. The
// modulus p is a free parameter sized to the padded unit width (64 through
// 2048 bits), not a fixed curve's scalar field, so everything here takes p
// explicitly.
package field

import "math/big"

// BytesToInt interprets b as a little-endian unsigned integer.
func BytesToInt(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}

// IntToBytes serializes x as a little-endian byte slice of exactly n bytes,
// zero-padded at the high end. A value wider than n bytes keeps only its
// least-significant n bytes.
func IntToBytes(x *big.Int, n int) []byte {
	be := x.Bytes()
	if len(be) > n {
		be = be[len(be)-n:]
	}
	out := make([]byte, n)
	for i, v := range be {
		out[n-len(be)+i] = v
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
