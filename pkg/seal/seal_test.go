package seal

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/muridata/postorage/config"
	"github.com/muridata/postorage/pkg/field"
)

func smallTestParams(t *testing.T, blocks int) config.Params {
	t.Helper()
	p := config.Params{
		UnitLen:       7,
		UnitsPerBlock: 4,
		SealRounds:    2,
		VDERounds:     config.TestVDERounds,
		VDEMode:       "sloth",
		ModeL:         config.ModeKeyedRandom,
		CntL:          1,
		ModeS:         config.ModeKeyedRandom,
		CntS:          2,
	}
	p.DataLen = p.BlockLen() * blocks
	prime, err := field.GeneratePrime(p.PrimeBits())
	if err != nil {
		t.Fatalf("GeneratePrime: %v", err)
	}
	p.Prime = prime
	return p
}

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestSealUnsealRoundTrip(t *testing.T) {
	p := smallTestParams(t, 5)
	iv := randBytes(t, 128)

	origin := randBytes(t, p.DataLen)

	sealed, ids, err := Seal(origin, iv, p)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(sealed) != p.BlockCount()*p.BlockPadLen() {
		t.Fatalf("sealed length %d, want %d", len(sealed), p.BlockCount()*p.BlockPadLen())
	}
	if len(ids) != p.BlockCount() {
		t.Fatalf("expected %d chaining ids, got %d", p.BlockCount(), len(ids))
	}
	if bytes.Equal(sealed[:p.BlockPadLen()], origin[:p.BlockLen()]) {
		t.Fatalf("sealed data should not equal origin data")
	}

	recovered, err := Unseal(sealed, iv, p)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	if !bytes.Equal(recovered, origin) {
		t.Fatalf("unseal did not recover origin")
	}
}

func TestSealChainsBlockIDsThroughIV(t *testing.T) {
	p := smallTestParams(t, 3)
	origin := randBytes(t, p.DataLen)

	ivA := randBytes(t, 128)
	ivB := randBytes(t, 128)

	sealedA, idsA, err := Seal(origin, ivA, p)
	if err != nil {
		t.Fatalf("Seal A: %v", err)
	}
	sealedB, idsB, err := Seal(origin, ivB, p)
	if err != nil {
		t.Fatalf("Seal B: %v", err)
	}

	if bytes.Equal(sealedA, sealedB) {
		t.Fatalf("different IVs must produce different sealed output")
	}
	for i := range idsA {
		if bytes.Equal(idsA[i], idsB[i]) {
			t.Fatalf("block %d chaining id identical across different IVs", i)
		}
	}
}

func TestUnsealSingleBlockMatchesFullUnseal(t *testing.T) {
	p := smallTestParams(t, 4)
	iv := randBytes(t, 128)
	origin := randBytes(t, p.DataLen)

	sealed, ids, err := Seal(origin, iv, p)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	blockStride := p.BlockPadLen()
	target := 2

	var prevID []byte
	if target > 0 {
		prevID = ids[target-1]
	}

	depBlocks := make(map[int][]byte)
	for _, k := range LongDepIndices(prevID, target, p) {
		depBlocks[k] = sealed[k*blockStride : (k+1)*blockStride]
	}

	got, err := UnsealSingleBlock(sealed[target*blockStride:(target+1)*blockStride], depBlocks, prevID, iv, p, target)
	if err != nil {
		t.Fatalf("UnsealSingleBlock: %v", err)
	}

	want := origin[target*p.BlockLen() : (target+1)*p.BlockLen()]
	if !bytes.Equal(got, want) {
		t.Fatalf("UnsealSingleBlock mismatch for block %d", target)
	}
}

func TestUnsealSingleBlockMissingDependencyErrors(t *testing.T) {
	p := smallTestParams(t, 4)
	iv := randBytes(t, 128)
	origin := randBytes(t, p.DataLen)

	sealed, ids, err := Seal(origin, iv, p)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	blockStride := p.BlockPadLen()
	target := 3
	if len(LongDepIndices(ids[target-1], target, p)) == 0 {
		t.Skip("block has no long-range deps to omit")
	}

	_, err = UnsealSingleBlock(sealed[target*blockStride:(target+1)*blockStride], map[int][]byte{}, ids[target-1], iv, p, target)
	if err == nil {
		t.Fatalf("expected error for missing dependency block")
	}
}
