package pospace

import (
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"

	"github.com/muridata/postorage/pkg/postorage"
)

// TableByteSize returns the on-disk size of an n-bit table:
// ceil((n+1)*2^n / 8) bytes.
func TableByteSize(n int) int64 {
	bits := (uint64(1) << uint(n)) * uint64(n+1)
	return int64((bits + 7) / 8)
}

// WriteTo flushes the table into its packed byte layout: slot y begins at
// bit y*(n+1), bits march LSB-first within each byte and cross byte
// boundaries. Returns the number of bytes written.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	size := TableByteSize(t.N)
	buf := make([]byte, size)

	totalBits := (uint(1) << uint(t.N)) * uint(t.N+1)
	for pos := uint(0); pos < totalBits; pos++ {
		if t.bs.Test(pos) {
			buf[pos/8] |= 1 << (pos % 8)
		}
	}

	n, err := w.Write(buf)
	if err != nil {
		return int64(n), postorage.NewError(postorage.IoFailure, "pospace: write table", err)
	}
	return int64(n), nil
}

// ReadTable reads a packed table of the given bit width n written by
// WriteTo.
func ReadTable(r io.Reader, n int) (*Table, error) {
	t, err := PrepareSpace(n)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, TableByteSize(n))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, postorage.NewError(postorage.IoFailure, "pospace: read table", err)
	}

	totalBits := (uint(1) << uint(n)) * uint(n+1)
	bs := bitset.New(totalBits)
	for pos := uint(0); pos < totalBits; pos++ {
		if buf[pos/8]&(1<<(pos%8)) != 0 {
			bs.Set(pos)
		}
	}
	t.bs = bs
	return t, nil
}

// ReadSlotAt reads slot y directly from a packed table file without loading
// the whole table: it fetches every byte the (n+1)-bit slot spans and
// reassembles the stored x and presence flag.
func ReadSlotAt(r io.ReaderAt, n int, y uint64) (x uint64, present bool, err error) {
	slotWidth := uint64(n + 1)
	firstBit := y * slotWidth
	lastBit := firstBit + slotWidth - 1

	firstByte := int64(firstBit / 8)
	byteCount := int(lastBit/8-firstBit/8) + 1

	buf := make([]byte, byteCount)
	if _, err := r.ReadAt(buf, firstByte); err != nil {
		return 0, false, postorage.NewError(postorage.IoFailure, fmt.Sprintf("pospace: read slot %d", y), err)
	}

	for i := uint64(0); i < slotWidth; i++ {
		pos := firstBit + i - uint64(firstByte)*8
		if buf[pos/8]&(1<<(pos%8)) == 0 {
			continue
		}
		if i == uint64(n) {
			present = true
		} else {
			x |= 1 << i
		}
	}
	return x, present, nil
}
