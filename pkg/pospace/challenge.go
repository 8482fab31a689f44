package pospace

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/muridata/postorage/pkg/mimc"
	"github.com/muridata/postorage/pkg/postorage"
)

// Challenge is a batch of random n-bit row indices the verifier draws.
type Challenge struct {
	Indices []uint64
}

// NewChallenge draws count distinct n-bit challenge indices.
func NewChallenge(n int, count int) (Challenge, error) {
	rows := uint64(1) << uint(n)
	if uint64(count) > rows {
		count = int(rows)
	}
	seen := make(map[uint64]bool, count)
	out := make([]uint64, 0, count)
	for len(out) < count {
		v, err := randUint64(rows)
		if err != nil {
			return Challenge{}, postorage.NewError(postorage.IoFailure, "pospace: drawing challenge", err)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return Challenge{Indices: out}, nil
}

func randUint64(mod uint64) (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return v % mod, nil
}

// Response is the prover's reply once responseCount occupied challenge
// slots have been collected: the surviving (challenge, x) pairs in
// collection order, plus the aggregation hash over the x values.
type Response struct {
	Cs    []uint64
	Xs    []uint64
	XHash *big.Int
}

// Respond walks c.Indices in order, keeping every occupied slot's (c, x)
// pair until responseCount have been collected (or the challenge set is
// exhausted), then aggregates the collected x values with mimc.Agg.
func (t *Table) Respond(c Challenge, responseCount int, key *big.Int, aggConstants []*big.Int) (Response, error) {
	var resp Response
	for _, idx := range c.Indices {
		x, present := t.Response1(idx)
		if !present {
			continue
		}
		resp.Cs = append(resp.Cs, idx)
		resp.Xs = append(resp.Xs, x)
		if len(resp.Xs) == responseCount {
			break
		}
	}
	if len(resp.Xs) < responseCount {
		return Response{}, postorage.NewError(postorage.ChallengeFailure,
			fmt.Sprintf("pospace: only %d of %d challenged slots were occupied", len(resp.Xs), responseCount), nil)
	}

	xsField := make([]*big.Int, len(resp.Xs))
	for i, x := range resp.Xs {
		xsField[i] = new(big.Int).SetUint64(x)
	}
	resp.XHash = mimc.Agg(xsField, key, aggConstants)
	return resp, nil
}

// VerifyResponse recomputes y_i = MiMC5_DF(key+x_i, m) for every returned
// pair, checks its low n bits equal the claimed challenge, and checks the
// aggregation hash over the x values equals the claimed x_hash — the
// host-side equivalent of the constraints circuits/pos.PosDemo enforces
// in-circuit.
func VerifyResponse(n int, resp Response, key, m *big.Int, dfConstants, aggConstants []*big.Int) error {
	if len(resp.Cs) != len(resp.Xs) {
		return postorage.NewError(postorage.InvalidParameters, "pospace: response length mismatch", nil)
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(n)), big.NewInt(1))

	for i, x := range resp.Xs {
		xl := new(big.Int).Add(new(big.Int).SetUint64(x), key)
		y := mimc.DF(xl, m, dfConstants)
		yLow := new(big.Int).And(y, mask)
		if yLow.Uint64() != resp.Cs[i] {
			return postorage.NewError(postorage.ChallengeFailure,
				fmt.Sprintf("pospace: response %d: low bits of y do not match challenge %d", i, resp.Cs[i]), nil)
		}
	}

	xsField := make([]*big.Int, len(resp.Xs))
	for i, x := range resp.Xs {
		xsField[i] = new(big.Int).SetUint64(x)
	}
	want := mimc.Agg(xsField, key, aggConstants)
	if want.Cmp(resp.XHash) != 0 {
		return postorage.NewError(postorage.ChallengeFailure, "pospace: aggregation hash mismatch", nil)
	}
	return nil
}
