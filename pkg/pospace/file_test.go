package pospace

import (
	"bytes"
	"math/big"
	"testing"
)

func TestTableByteSize(t *testing.T) {
	// n=3: 4 bits per slot, 8 slots = 32 bits = 4 bytes.
	if got := TableByteSize(3); got != 4 {
		t.Fatalf("TableByteSize(3) = %d, want 4", got)
	}
	// n=4: 5 bits per slot, 16 slots = 80 bits = 10 bytes.
	if got := TableByteSize(4); got != 10 {
		t.Fatalf("TableByteSize(4) = %d, want 10", got)
	}
}

func TestWriteReadTableRoundTrip(t *testing.T) {
	n := 6
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(23)
	m := big.NewInt(5)
	constants := smallConstants(t, 8)
	table.MarkSpace(key, m, constants)

	var buf bytes.Buffer
	written, err := table.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if written != TableByteSize(n) {
		t.Fatalf("wrote %d bytes, want %d", written, TableByteSize(n))
	}

	loaded, err := ReadTable(bytes.NewReader(buf.Bytes()), n)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	rows := uint64(1) << uint(n)
	for y := uint64(0); y < rows; y++ {
		wantX, wantPresent := table.Response1(y)
		gotX, gotPresent := loaded.Response1(y)
		if wantX != gotX || wantPresent != gotPresent {
			t.Fatalf("slot %d: got (%d,%v), want (%d,%v)", y, gotX, gotPresent, wantX, wantPresent)
		}
	}
}

func TestReadSlotAtMatchesTable(t *testing.T) {
	n := 5
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(9)
	m := big.NewInt(2)
	constants := smallConstants(t, 8)
	table.MarkSpace(key, m, constants)

	var buf bytes.Buffer
	if _, err := table.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	packed := bytes.NewReader(buf.Bytes())

	rows := uint64(1) << uint(n)
	for y := uint64(0); y < rows; y++ {
		wantX, wantPresent := table.Response1(y)
		gotX, gotPresent, err := ReadSlotAt(packed, n, y)
		if err != nil {
			t.Fatalf("ReadSlotAt(%d): %v", y, err)
		}
		if wantX != gotX || wantPresent != gotPresent {
			t.Fatalf("slot %d: got (%d,%v), want (%d,%v)", y, gotX, gotPresent, wantX, wantPresent)
		}
	}
}

func TestFreshTableSerializesToZeros(t *testing.T) {
	table, err := PrepareSpace(4)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	var buf bytes.Buffer
	if _, err := table.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	for i, b := range buf.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d of an empty table is %#x, want 0", i, b)
		}
	}
}
