package field

import (
	"math/big"
	"testing"
)

// 129-bit test prime ≡ 3 mod 4 (2^128 + 51), small enough for fast tests.
var testPrime, _ = new(big.Int).SetString("340282366920938463463374607431768211507", 10)

func TestModAddModSubRoundTrip(t *testing.T) {
	a := IntToBytes(big.NewInt(123456789), 17)
	b := IntToBytes(big.NewInt(987654321), 17)

	sum := ModAdd(a, b, testPrime)
	back := ModSub(sum, b, testPrime)

	if BytesToInt(back).Cmp(BytesToInt(a)) != 0 {
		t.Fatalf("modsub(modadd(a,b),b) != a: got %v want %v", BytesToInt(back), BytesToInt(a))
	}
}

func TestBytesIntRoundTrip(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x00, 0xff, 0x00, 0x00}
	out := IntToBytes(BytesToInt(in), len(in))
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d differs: %#x != %#x", i, in[i], out[i])
		}
	}
}

func TestLegendreKnownResidue(t *testing.T) {
	// 4 is always a QR (2^2).
	if got := Legendre(big.NewInt(4), testPrime); got != 1 {
		t.Fatalf("legendre(4, p) = %d, want 1", got)
	}
	if got := Legendre(big.NewInt(0), testPrime); got != 0 {
		t.Fatalf("legendre(0, p) = %d, want 0", got)
	}
	// Euler's criterion cross-check on a handful of values.
	exp := new(big.Int).Rsh(new(big.Int).Sub(testPrime, big.NewInt(1)), 1)
	for a := int64(2); a < 20; a++ {
		e := ModPow(big.NewInt(a), exp, testPrime)
		want := 1
		if e.Cmp(big.NewInt(1)) != 0 {
			want = -1
		}
		if got := Legendre(big.NewInt(a), testPrime); got != want {
			t.Fatalf("legendre(%d, p) = %d, want %d", a, got, want)
		}
	}
}

func TestModPowMatchesBigIntExp(t *testing.T) {
	a := big.NewInt(12345)
	e := big.NewInt(6789)
	want := new(big.Int).Exp(a, e, testPrime)
	got := ModPow(a, e, testPrime)
	if got.Cmp(want) != 0 {
		t.Fatalf("ModPow mismatch: got %v want %v", got, want)
	}
}

func TestIsValidPrime(t *testing.T) {
	if !IsValidPrime(testPrime) {
		t.Fatalf("expected testPrime to be a valid p ≡ 3 mod 4 prime")
	}
	if IsValidPrime(big.NewInt(8)) {
		t.Fatalf("8 is not prime")
	}
	// 5 is prime but ≡ 1 mod 4, so the sqrt shortcut does not apply.
	if IsValidPrime(big.NewInt(5)) {
		t.Fatalf("5 ≡ 1 mod 4 must be rejected")
	}
}
