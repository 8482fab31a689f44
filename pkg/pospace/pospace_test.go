package pospace

import (
	"errors"
	"math/big"
	"testing"

	"github.com/muridata/postorage/pkg/mimc"
	"github.com/muridata/postorage/pkg/postorage"
)

func smallConstants(t *testing.T, n int) []*big.Int {
	t.Helper()
	c, err := mimc.GenerateConstants(n)
	if err != nil {
		t.Fatalf("GenerateConstants: %v", err)
	}
	return c
}

func TestPrepareSpaceSize(t *testing.T) {
	table, err := PrepareSpace(4)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	if table.N != 4 {
		t.Fatalf("N = %d, want 4", table.N)
	}
	// A freshly prepared table has no occupied slots.
	stats := table.Stats()
	if stats.Occupied != 0 {
		t.Fatalf("expected 0 occupied rows before MarkSpace, got %d", stats.Occupied)
	}
}

func TestPrepareSpaceRejectsOutOfRangeN(t *testing.T) {
	if _, err := PrepareSpace(0); err == nil {
		t.Fatalf("expected error for n=0")
	}
	if _, err := PrepareSpace(33); err == nil {
		t.Fatalf("expected error for n=33")
	}
}

func TestMarkSpaceRoundTripsThroughY(t *testing.T) {
	n := 6
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(42)
	m := big.NewInt(7)
	dfConstants := smallConstants(t, 8)

	table.MarkSpace(key, m, dfConstants)

	stats := table.Stats()
	if stats.Occupied == 0 {
		t.Fatalf("expected some occupied rows after MarkSpace")
	}
	if stats.Occupied > stats.Rows {
		t.Fatalf("occupied %d exceeds row count %d", stats.Occupied, stats.Rows)
	}

	// Every occupied slot's stored x must actually hash to that row.
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(n)), big.NewInt(1))
	rows := uint64(1) << uint(n)
	checked := 0
	for y := uint64(0); y < rows; y++ {
		x, present := table.Response1(y)
		if !present {
			continue
		}
		xl := new(big.Int).Add(new(big.Int).SetUint64(x), key)
		got := new(big.Int).And(mimc.DF(xl, m, dfConstants), mask)
		if got.Uint64() != y {
			t.Fatalf("row %d: stored x=%d hashes to %d, not %d", y, x, got.Uint64(), y)
		}
		checked++
	}
	if checked == 0 {
		t.Fatalf("no occupied rows were checked")
	}
}

func TestChallengeResponseVerifies(t *testing.T) {
	n := 6
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(11)
	m := big.NewInt(3)
	dfConstants := smallConstants(t, 8)
	aggConstants := smallConstants(t, 8)

	table.MarkSpace(key, m, dfConstants)

	c, err := NewChallenge(n, 40)
	if err != nil {
		t.Fatalf("NewChallenge: %v", err)
	}

	resp, err := table.Respond(c, 3, key, aggConstants)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if err := VerifyResponse(n, resp, key, m, dfConstants, aggConstants); err != nil {
		t.Fatalf("VerifyResponse: %v", err)
	}
}

func TestChallengeResponseRejectsTamperedXHash(t *testing.T) {
	n := 6
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(11)
	m := big.NewInt(3)
	dfConstants := smallConstants(t, 8)
	aggConstants := smallConstants(t, 8)
	table.MarkSpace(key, m, dfConstants)

	c, err := NewChallenge(n, 40)
	if err != nil {
		t.Fatalf("NewChallenge: %v", err)
	}
	resp, err := table.Respond(c, 3, key, aggConstants)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	resp.XHash = new(big.Int).Add(resp.XHash, big.NewInt(1))
	if err := VerifyResponse(n, resp, key, m, dfConstants, aggConstants); err == nil {
		t.Fatalf("expected VerifyResponse to reject tampered x_hash")
	}
}

func TestRespondErrorsWhenUnderfilled(t *testing.T) {
	n := 3
	table, err := PrepareSpace(n)
	if err != nil {
		t.Fatalf("PrepareSpace: %v", err)
	}
	key := big.NewInt(1)
	aggConstants := smallConstants(t, 4)
	c := Challenge{Indices: []uint64{0, 1}}

	_, err = table.Respond(c, 5, key, aggConstants)
	if err == nil {
		t.Fatalf("expected error when fewer occupied slots than responseCount")
	}
	var perr *postorage.Error
	if !errors.As(err, &perr) || perr.Kind != postorage.ChallengeFailure {
		t.Fatalf("expected a ChallengeFailure error, got %v", err)
	}
}
