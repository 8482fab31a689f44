package vde

import (
	"math/big"
	"testing"
)

// 129-bit test prime ≡ 3 mod 4 (2^128 + 51).
var testPrime, _ = new(big.Int).SetString("340282366920938463463374607431768211507", 10)

func TestVDERoundTrip(t *testing.T) {
	x := make([]byte, 16)
	for i := range x {
		x[i] = 0x01
	}

	y, err := VDE(x, testPrime, 3, ModeSloth)
	if err != nil {
		t.Fatalf("VDE: %v", err)
	}
	z, err := VDEInv(y, testPrime, 3, ModeSloth)
	if err != nil {
		t.Fatalf("VDEInv: %v", err)
	}

	if len(z) != len(x) {
		t.Fatalf("length mismatch: got %d want %d", len(z), len(x))
	}
	for i := range x {
		if z[i] != x[i] {
			t.Fatalf("round-trip mismatch at byte %d: got %x want %x", i, z, x)
		}
	}
}

func TestVDESingleRoundInverse(t *testing.T) {
	for _, v := range []int64{1, 2, 3, 17, 1000003} {
		x := big.NewInt(v)
		y := sloth(x, testPrime)
		back := slothInv(y, testPrime)
		if back.Cmp(x) != 0 {
			t.Fatalf("sloth_inv(sloth(%d)) = %v, want %d", v, back, v)
		}
	}
}

func TestVDEUnsupportedMode(t *testing.T) {
	if _, err := VDE([]byte{1}, testPrime, 1, "other"); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}
