package field

import (
	"crypto/rand"
	"math/big"
)

var big4 = big.NewInt(4)

// ModPow computes a^e mod p (big.Int.Exp already implements
// square-and-multiply).
func ModPow(a, e, p *big.Int) *big.Int {
	return new(big.Int).Exp(a, e, p)
}

// Legendre computes the Legendre symbol (a/p) for an odd prime p: returns
// -1, 0, or +1. For prime p the Jacobi symbol coincides with the Legendre
// symbol, and big.Jacobi's reciprocity-based evaluation beats the
// a^((p-1)/2) exponentiation on wide moduli.
func Legendre(a, p *big.Int) int {
	return big.Jacobi(new(big.Int).Mod(a, p), p)
}

// ModAdd interprets a and b as little-endian integers, computes (a+b) mod p,
// and re-serializes as a little-endian byte slice of len(a) bytes.
func ModAdd(a, b []byte, p *big.Int) []byte {
	x := BytesToInt(a)
	y := BytesToInt(b)
	sum := new(big.Int).Add(x, y)
	sum.Mod(sum, p)
	return IntToBytes(sum, len(a))
}

// ModSub interprets a and b as little-endian integers, computes
// (a - b + p) mod p, and re-serializes as a little-endian byte slice of
// len(a) bytes.
func ModSub(a, b []byte, p *big.Int) []byte {
	x := BytesToInt(a)
	y := BytesToInt(b)
	diff := new(big.Int).Sub(x, y)
	diff.Add(diff, p)
	diff.Mod(diff, p)
	return IntToBytes(diff, len(a))
}

// GeneratePrime returns a random prime p of the given bit length with
// p ≡ 3 (mod 4), suitable as a Sloth modulus. crypto/rand.Prime already
// returns primes with the top two bits set; rejection sampling on the
// mod-4 residue converges in a handful of draws.
func GeneratePrime(bits int) (*big.Int, error) {
	for {
		p, err := rand.Prime(rand.Reader, bits)
		if err != nil {
			return nil, err
		}
		if IsValidPrime(p) {
			return p, nil
		}
	}
}

// IsValidPrime reports whether p looks like a usable Sloth modulus: prime
// and congruent to 3 mod 4, so that (p+1)/4 is the square-root shortcut
// exponent.
func IsValidPrime(p *big.Int) bool {
	if p.Sign() <= 0 {
		return false
	}
	mod4 := new(big.Int).Mod(p, big4)
	if mod4.Cmp(big.NewInt(3)) != 0 {
		return false
	}
	return p.ProbablyPrime(20)
}
