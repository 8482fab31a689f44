// Package seal implements the block-structured, dependency-mixing sealing
// pipeline: each unit is combined (modadd) with a hash of its long-range and
// short-range dependency units plus the block's chaining id, then pushed
// through the Sloth VDE. Unsealing reverses the pipeline exactly, unit by
// unit, block by block. Long-range dependency indices derive from the
// previous block's id and short-range indices from the previous unit's
// working bytes, so the dependency graph of block i is only determined once
// block i-1 has been sealed.
package seal

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/muridata/postorage/config"
	"github.com/muridata/postorage/pkg/depend"
	"github.com/muridata/postorage/pkg/field"
	"github.com/muridata/postorage/pkg/vde"
)

// block is a mutable in-progress view of one block's units, each padded to
// UnitPadLen bytes.
type block [][]byte

func newBlock(p config.Params) block {
	b := make(block, p.UnitsPerBlock)
	for j := range b {
		b[j] = make([]byte, p.UnitPadLen())
	}
	return b
}

func (b block) flatten() []byte {
	out := make([]byte, 0, len(b)*len(b[0]))
	for _, u := range b {
		out = append(out, u...)
	}
	return out
}

func splitBlock(data []byte, unitPadLen int) block {
	n := len(data) / unitPadLen
	b := make(block, n)
	for j := 0; j < n; j++ {
		b[j] = append([]byte(nil), data[j*unitPadLen:(j+1)*unitPadLen]...)
	}
	return b
}

// chainInput returns the bytes appended to unit 0's dependency data: iv for
// block 0, the chaining id of block i-1 otherwise.
func chainInput(iv []byte, prevID []byte, i int) []byte {
	if i == 0 {
		return iv
	}
	return prevID
}

// LongDepIndices returns the long-range dependency block indices of block
// i, derived from the chaining id of block i-1 (nil for block 0). They are
// fixed for the whole of block i's sealing, so a prover can re-derive them
// for any challenged block from the id it already ships with the response.
func LongDepIndices(prevID []byte, i int, p config.Params) []int {
	return depend.LongDepend(prevID, i, depend.LongDependCount(i, p.CntL), p.ModeL)
}

// shortDepIndices returns unit j's short-range dependency indices, seeded
// by the working bytes of unit j-1 (empty seed for unit 0). The seed
// evolves with the block state, so the same derivation at the same point
// of the reversed pipeline reproduces the same set.
func shortDepIndices(cur block, j int, p config.Params) []int {
	var prevUnit []byte
	if j > 0 {
		prevUnit = cur[j-1]
	}
	return depend.ShortDepend(prevUnit, p.UnitsPerBlock, j, p.CntS, p.ModeS)
}

// dependDataBytes gathers one unit's dependency bytes: long-range units at
// the same offset j from earlier sealed blocks, then short-range units from
// the current block's working copy, then — at unit 0 only — the chaining
// input (iv or the previous block's id).
func dependDataBytes(sealed []byte, p config.Params, cur block, j int, longIdx, shortIdx []int, chain []byte) []byte {
	var data []byte
	blockStride := p.UnitsPerBlock * p.UnitPadLen()
	for _, k := range longIdx {
		off := k*blockStride + j*p.UnitPadLen()
		data = append(data, sealed[off:off+p.UnitPadLen()]...)
	}
	for _, k := range shortIdx {
		data = append(data, cur[k]...)
	}
	if j == 0 {
		data = append(data, chain...)
	}
	return data
}

// dependDigest hashes one unit's gathered dependency bytes with BLAKE3 and
// truncates or zero-pads the digest to exactly n bytes, the width modadd
// mixes it against.
func dependDigest(data []byte, n int) []byte {
	sum := blake3.Sum256(data)
	out := make([]byte, n)
	copy(out, sum[:])
	return out
}

// blockID computes the chaining id of a fully-sealed block:
// BLAKE3(sealedBlockBytes). The id still depends transitively on every
// earlier block because block i's unit 0 mixes in id_{i-1} before sealing.
func blockID(sealedBlock []byte) []byte {
	sum := blake3.Sum256(sealedBlock)
	return sum[:]
}

// Seal runs SealRounds passes of dependency-mixing VDE encoding over origin,
// returning the fully sealed byte buffer and the per-block chaining ids.
// Blocks are processed in full — every round — before the next block
// begins, since block i's chaining input and long-range dependency set both
// derive from block i-1's id, which is only known once block i-1 has
// completed all SealRounds passes.
func Seal(origin []byte, iv []byte, p config.Params) (sealedOut []byte, ids [][]byte, err error) {
	if p.Prime == nil {
		return nil, nil, fmt.Errorf("seal: params.Prime is nil")
	}
	if len(origin) != p.DataLen {
		return nil, nil, fmt.Errorf("seal: origin length %d != DataLen %d", len(origin), p.DataLen)
	}

	n := p.BlockCount()
	blockStride := p.UnitsPerBlock * p.UnitPadLen()
	sealed := make([]byte, n*blockStride)
	ids = make([][]byte, n)

	var prevID []byte
	for i := 0; i < n; i++ {
		raw := origin[i*p.BlockLen() : (i+1)*p.BlockLen()]
		cur := newBlock(p)
		for j := 0; j < p.UnitsPerBlock; j++ {
			copy(cur[j], raw[j*p.UnitLen:(j+1)*p.UnitLen])
		}

		chain := chainInput(iv, prevID, i)
		longIdx := LongDepIndices(prevID, i, p)
		for round := 0; round < p.SealRounds; round++ {
			if err := sealBlockInPlace(sealed, p, cur, longIdx, chain); err != nil {
				return nil, nil, err
			}
		}
		copy(sealed[i*blockStride:(i+1)*blockStride], cur.flatten())

		id := blockID(sealed[i*blockStride : (i+1)*blockStride])
		ids[i] = id
		prevID = id
		log.Debug().Int("block", i).Int("rounds", p.SealRounds).Msg("seal: block complete")
	}

	log.Info().Int("blocks", n).Int("vde_rounds", p.VDERounds).Msg("seal: done")
	return sealed, ids, nil
}

// sealBlockInPlace mixes and VDE-encodes every unit of cur, using sealed
// (the working buffer, including blocks already written) for long-range
// dependency reads.
func sealBlockInPlace(sealed []byte, p config.Params, cur block, longIdx []int, chain []byte) error {
	for j := 0; j < p.UnitsPerBlock; j++ {
		shortIdx := shortDepIndices(cur, j, p)
		depData := dependDataBytes(sealed, p, cur, j, longIdx, shortIdx, chain)
		depHash := dependDigest(depData, p.UnitPadLen())
		mixed := field.ModAdd(cur[j], depHash, p.Prime)
		out, err := vde.VDE(mixed, p.Prime, p.VDERounds, p.VDEMode)
		if err != nil {
			return err
		}
		cur[j] = out
	}
	return nil
}

// Unseal reverses Seal exactly, undoing SealRounds passes per block and
// returning the original (unpadded) origin bytes. Blocks are undone in
// reverse order; block i-1's chaining id is recomputed from its still-sealed
// bytes in buf, which are untouched until block i-1 itself is undone.
func Unseal(sealed []byte, iv []byte, p config.Params) ([]byte, error) {
	if p.Prime == nil {
		return nil, fmt.Errorf("unseal: params.Prime is nil")
	}

	n := p.BlockCount()
	blockStride := p.UnitsPerBlock * p.UnitPadLen()
	buf := append([]byte(nil), sealed...)
	origin := make([]byte, p.DataLen)

	for i := n - 1; i >= 0; i-- {
		var prevID []byte
		if i > 0 {
			prevID = blockID(buf[(i-1)*blockStride : i*blockStride])
		}
		chain := chainInput(iv, prevID, i)
		longIdx := LongDepIndices(prevID, i, p)

		cur := splitBlock(buf[i*blockStride:(i+1)*blockStride], p.UnitPadLen())
		for round := 0; round < p.SealRounds; round++ {
			if err := unsealBlockInPlace(buf, p, cur, longIdx, chain); err != nil {
				return nil, err
			}
		}
		copy(buf[i*blockStride:(i+1)*blockStride], cur.flatten())

		for j := 0; j < p.UnitsPerBlock; j++ {
			off := i*p.BlockLen() + j*p.UnitLen
			copy(origin[off:off+p.UnitLen], cur[j][:p.UnitLen])
		}
	}

	log.Info().Int("blocks", n).Msg("unseal: done")
	return origin, nil
}

// unsealBlockInPlace undoes sealBlockInPlace for every unit of cur, in
// reverse unit order, reading long-range dependencies from buf (the
// working, still-sealed-for-not-yet-undone-blocks buffer). Short-range
// index derivation sees unit j-1 in the same post-round state the forward
// pass saw when it sealed unit j, since units above j are reverted first.
func unsealBlockInPlace(buf []byte, p config.Params, cur block, longIdx []int, chain []byte) error {
	for bj := 0; bj < p.UnitsPerBlock; bj++ {
		j := p.UnitsPerBlock - 1 - bj
		shortIdx := shortDepIndices(cur, j, p)
		depData := dependDataBytes(buf, p, cur, j, longIdx, shortIdx, chain)
		depHash := dependDigest(depData, p.UnitPadLen())
		plain, err := vde.VDEInv(cur[j], p.Prime, p.VDERounds, p.VDEMode)
		if err != nil {
			return err
		}
		cur[j] = field.ModSub(plain, depHash, p.Prime)
	}
	return nil
}

// UnsealSingleBlock reverses seal for exactly block i, given its sealed
// bytes, the sealed bytes of every long-range dependency block i needs
// (keyed by block index), and the chaining id of block i-1 (nil for block
// 0). It performs the same SealRounds-pass reversal as Unseal but confines
// all reads to the supplied blocks, so independently challenged indices can
// run in parallel.
func UnsealSingleBlock(sealedBlock []byte, depBlocks map[int][]byte, prevID []byte, iv []byte, p config.Params, i int) ([]byte, error) {
	if p.Prime == nil {
		return nil, fmt.Errorf("seal: params.Prime is nil")
	}
	blockStride := p.UnitsPerBlock * p.UnitPadLen()
	if len(sealedBlock) != blockStride {
		return nil, fmt.Errorf("seal: block %d has length %d, want %d", i, len(sealedBlock), blockStride)
	}

	longIdx := LongDepIndices(prevID, i, p)
	for _, k := range longIdx {
		if _, ok := depBlocks[k]; !ok {
			return nil, fmt.Errorf("seal: missing long-range dependency block %d for block %d", k, i)
		}
	}

	chain := chainInput(iv, prevID, i)
	cur := splitBlock(sealedBlock, p.UnitPadLen())
	for round := 0; round < p.SealRounds; round++ {
		for bj := 0; bj < p.UnitsPerBlock; bj++ {
			j := p.UnitsPerBlock - 1 - bj
			shortIdx := shortDepIndices(cur, j, p)
			depData := dependDataBytesFromMap(depBlocks, p, cur, j, longIdx, shortIdx, chain)
			depHash := dependDigest(depData, p.UnitPadLen())
			plain, err := vde.VDEInv(cur[j], p.Prime, p.VDERounds, p.VDEMode)
			if err != nil {
				return nil, err
			}
			cur[j] = field.ModSub(plain, depHash, p.Prime)
		}
	}

	out := make([]byte, p.BlockLen())
	for j := 0; j < p.UnitsPerBlock; j++ {
		copy(out[j*p.UnitLen:(j+1)*p.UnitLen], cur[j][:p.UnitLen])
	}
	return out, nil
}

// dependDataBytesFromMap is dependDataBytes's counterpart for
// UnsealSingleBlock: long-range dependency units are read from an explicit
// map of whole sealed blocks rather than a contiguous sealed-file buffer.
func dependDataBytesFromMap(depBlocks map[int][]byte, p config.Params, cur block, j int, longIdx, shortIdx []int, chain []byte) []byte {
	var data []byte
	for _, k := range longIdx {
		blk := depBlocks[k]
		off := j * p.UnitPadLen()
		data = append(data, blk[off:off+p.UnitPadLen()]...)
	}
	for _, k := range shortIdx {
		data = append(data, cur[k]...)
	}
	if j == 0 {
		data = append(data, chain...)
	}
	return data
}
