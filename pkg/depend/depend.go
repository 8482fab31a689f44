// Package depend derives the long-range (block-level) and short-range
// (unit-level) dependency indices consumed by the sealing pipeline.
//
// The keyed-pseudorandom rule expands a BLAKE3 digest of the chaining
// input — the previous block's id for long-range draws, the previous
// unit's working bytes for short-range draws — into a byte stream, reduces
// sliding windows of the stream modulo the index space, deduplicates, and
// sorts ascending. Because the seeds evolve with the sealed data itself,
// a block's dependency set is only known once its predecessor has been
// sealed. The deterministic fallback rules (ModeLong1/2, ModeShort1/2)
// exist for reproducibility and debugging only; the keyed-random rule is
// the default.
package depend

import (
	"sort"

	"github.com/muridata/postorage/config"
	"github.com/zeebo/blake3"
)

// indexByteWidth picks the sliding-window byte width for an index space of
// size n: 1 byte for n <= 256, 2 for n <= 2^16, else 3.
func indexByteWidth(n int) int {
	switch {
	case n <= 256:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 3
	}
}

// leWindow interprets a little-endian byte window as an int.
func leWindow(b []byte) int {
	v := 0
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int(b[i])
	}
	return v
}

// keyedIndices draws distinct indices in [0, n) from an expanding BLAKE3
// stream seeded by seed, until count distinct values are collected or the
// space is exhausted (n <= count).
func keyedIndices(seed []byte, n, count int) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	if count > n {
		count = n
	}

	width := indexByteWidth(n)

	h := blake3.New()
	h.Write(seed)
	reader := h.Digest()

	seen := make(map[int]bool, count)
	result := make([]int, 0, count)

	buf := make([]byte, width)
	// Cap the number of windows drawn to avoid spinning forever on a
	// pathological (tiny n, huge count) request; count is already clamped
	// to n above so this bound is generous.
	maxDraws := (n + count) * 8
	for draws := 0; len(result) < count && draws < maxDraws; draws++ {
		if _, err := reader.Read(buf); err != nil {
			break
		}
		idx := leWindow(buf) % n
		if !seen[idx] {
			seen[idx] = true
			result = append(result, idx)
		}
	}

	sort.Ints(result)
	return result
}

// LongDependCount returns the effective long-range dependency count for
// block index i when cntL == 0: floor(i/10) + 1 (automatic scaling).
func LongDependCount(i, cntL int) int {
	if cntL != 0 {
		return cntL
	}
	return i/10 + 1
}

// LongDepend returns count long-range predecessor block indices in [0, i)
// for block i, drawn from a BLAKE3 expansion of prevID, the chaining id of
// block i-1. Block 0 has no predecessors and gets an empty set.
func LongDepend(prevID []byte, i, count, mode int) []int {
	if i == 0 {
		return nil
	}
	switch mode {
	case config.ModeLong1:
		return longMode1(i, count)
	case config.ModeLong2:
		return longMode2(i, count)
	default:
		return keyedIndices(prevID, i, count)
	}
}

// longMode1 implements the deterministic rule -1-2*0, -1-2*1, -1-2*2, ...
func longMode1(index, count int) []int {
	var res []int
	for e := 0; e < count; e++ {
		idx := index - 1 - 2*e
		if idx >= 0 && idx < index {
			res = append(res, idx)
		}
	}
	return res
}

// longMode2 implements the deterministic rule -1-2^0, -1-2^1, -1-2^2, ...
func longMode2(index, count int) []int {
	var res []int
	for e := 0; e < count; e++ {
		idx := index - 1 - (1 << uint(e))
		if idx >= 0 && idx < index {
			res = append(res, idx)
		}
	}
	return res
}

// ShortDepend returns count short-range dependency unit indices in
// [0, unitsPerBlock) for unit j, drawn from a BLAKE3 expansion of
// prevUnit, the working bytes of unit j-1 (empty for unit 0).
// Self-collisions (idx == j) are skipped.
func ShortDepend(prevUnit []byte, unitsPerBlock, j, count, mode int) []int {
	switch mode {
	case config.ModeShort1:
		return shortMode1(unitsPerBlock, j, count)
	case config.ModeShort2:
		return shortMode2(unitsPerBlock, j, count)
	default:
		idxs := keyedIndices(prevUnit, unitsPerBlock, count+1)
		out := make([]int, 0, count)
		for _, idx := range idxs {
			if idx == j {
				continue
			}
			out = append(out, idx)
			if len(out) == count {
				break
			}
		}
		return out
	}
}

// shortMode1 implements the deterministic alternating rule
// -1-2*0, +1+2*0, -1-2*1, +1+2*1, ...
func shortMode1(num, index, count int) []int {
	var res []int
	epoch := 0
	for len(res) < count {
		dis := 1 + 2*epoch
		if index < dis && index+dis >= num {
			break
		}
		if index >= dis {
			res = append(res, index-dis)
		}
		if index+dis < num {
			res = append(res, index+dis)
		}
		epoch++
	}
	if len(res) > count {
		res = res[:count]
	}
	return res
}

// shortMode2 implements the deterministic alternating-sign rule
// -1-2^0, -1+2^1, -1-2^2, -1+2^3, ...
func shortMode2(num, index, count int) []int {
	var res []int
	flag := false
	for i := 0; i < count; i++ {
		var idx int
		if flag {
			idx = index - 1 + (1 << uint(i))
		} else {
			idx = index - 1 - (1 << uint(i))
		}
		flag = !flag

		if idx < 0 || idx >= num {
			break
		}
		res = append(res, idx)
	}
	return res
}
