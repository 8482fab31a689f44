package pos

import (
	"fmt"
	"math/big"

	"github.com/muridata/postorage/pkg/pospace"
)

// PrepareWitness builds a PosDemo assignment from a pospace.Response: the
// response's Cs/Xs become the circuit's public challenges and private
// openings, XHash carries straight through as the public aggregation
// digest.
func PrepareWitness(key, m *big.Int, resp pospace.Response, dfConstants, aggConstants []*big.Int, n int) (*PosDemo, error) {
	if len(resp.Xs) != ChallengeCount || len(resp.Cs) != ChallengeCount {
		return nil, fmt.Errorf("pos: response has %d entries, want %d", len(resp.Xs), ChallengeCount)
	}

	assignment := &PosDemo{
		Key:          key,
		M:            m,
		XHash:        resp.XHash,
		DFConstants:  dfConstants,
		AggConstants: aggConstants,
		N:            n,
	}
	for i := 0; i < ChallengeCount; i++ {
		assignment.Cs[i] = new(big.Int).SetUint64(resp.Cs[i])
		assignment.Xs[i] = new(big.Int).SetUint64(resp.Xs[i])
	}
	return assignment, nil
}
