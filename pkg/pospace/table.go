// Package pospace builds and serves the proof-of-space table: a bit-packed
// hashtable of exactly (n+1)*2^n bits mapping a MiMC delay-function
// output's low n bits back to the input that produced them, plus the
// challenge-response protocol that proves a prover still holds it. A
// bitset stages the table in memory; WriteTo flushes it to the packed byte
// layout it is persisted and challenged against.
package pospace

import (
	"fmt"
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/muridata/postorage/pkg/mimc"
	"github.com/muridata/postorage/pkg/postorage"
)

// Table is a bit-packed proof-of-space table over N (= n bits of address
// space, i.e. 2^N rows). Each row holds an (n+1)-bit slot: the low n bits
// are the stored x value, the top bit is the presence flag.
type Table struct {
	N     int
	bs    *bitset.BitSet
	marks uint64 // number of slot writes MarkSpace has made
}

// PrepareSpace allocates a zero-filled table of exactly (n+1)*2^n bits.
func PrepareSpace(n int) (*Table, error) {
	if n <= 0 || n > 32 {
		return nil, postorage.NewError(postorage.InvalidParameters, fmt.Sprintf("pospace: n must be in (0,32], got %d", n), nil)
	}
	rows := uint(1) << uint(n)
	bits := rows * uint(n+1)
	return &Table{N: n, bs: bitset.New(bits)}, nil
}

func (t *Table) slotWidth() uint { return uint(t.N + 1) }

// setSlot writes x (n bits) and the presence flag (top bit, always 1 for a
// live entry) into row y, overwriting whatever was there before — the
// collision behavior the source calls "last writer wins".
func (t *Table) setSlot(y uint64, x uint64) {
	base := uint(y) * t.slotWidth()
	for i := 0; i < t.N; i++ {
		pos := base + uint(i)
		if x&(1<<uint(i)) != 0 {
			t.bs.Set(pos)
		} else {
			t.bs.Clear(pos)
		}
	}
	t.bs.Set(base + uint(t.N)) // presence flag
}

// getSlot reads row y, returning the stored x value and whether the
// presence flag is set.
func (t *Table) getSlot(y uint64) (x uint64, present bool) {
	base := uint(y) * t.slotWidth()
	for i := 0; i < t.N; i++ {
		if t.bs.Test(base + uint(i)) {
			x |= 1 << uint(i)
		}
	}
	present = t.bs.Test(base + uint(t.N))
	return x, present
}

// MarkSpace computes y = MiMC5_DF(x+key, m) mod 2^n for every x in
// [0, 2^N) and writes (x, presence=1) into slot y_n, the low n bits of y.
// Later writes silently overwrite earlier ones on collision.
func (t *Table) MarkSpace(key *big.Int, m *big.Int, dfConstants []*big.Int) {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.N)), big.NewInt(1))

	rows := uint64(1) << uint(t.N)
	for x := uint64(0); x < rows; x++ {
		xl := new(big.Int).Add(big.NewInt(0).SetUint64(x), key)
		y := mimc.DF(xl, m, dfConstants)
		yLow := new(big.Int).And(y, mask)
		t.setSlot(yLow.Uint64(), x)
		t.marks++
	}
}

// Response1 looks up challenge c, returning the stored x and whether the
// slot was occupied. A prover that no longer holds the table will miss
// slots it previously filled.
func (t *Table) Response1(c uint64) (x uint64, present bool) {
	return t.getSlot(c)
}

// Stats reports how many of the table's rows are currently occupied,
// expected to converge to 1 - 1/e of the total row count as
// MarkSpace writes accumulate (birthday-style collisions).
type Stats struct {
	Rows       uint64
	Occupied   uint64
	LoadFactor float64
}

// Stats scans the table and reports its observed occupancy.
func (t *Table) Stats() Stats {
	rows := uint64(1) << uint(t.N)
	var occupied uint64
	for y := uint64(0); y < rows; y++ {
		base := uint(y) * t.slotWidth()
		if t.bs.Test(base + uint(t.N)) {
			occupied++
		}
	}
	return Stats{
		Rows:       rows,
		Occupied:   occupied,
		LoadFactor: float64(occupied) / float64(rows),
	}
}
