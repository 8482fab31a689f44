package postorage

import (
	"crypto/rand"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Challenge is the verifier's per-round request: a fresh salt and a set of
// distinct block indices drawn uniformly from [0, blockCount).
type Challenge struct {
	Nonce   byte
	Indices []int
}

// NewChallenge draws a fresh nonce and m distinct block indices from
// [0, blockCount).
func NewChallenge(blockCount, m int) (Challenge, error) {
	var nb [1]byte
	if _, err := rand.Read(nb[:]); err != nil {
		return Challenge{}, NewError(IoFailure, "drawing challenge nonce", err)
	}

	if m > blockCount {
		return Challenge{}, NewError(InvalidParameters, "challenge size exceeds block count", nil)
	}
	seen := make(map[int]bool, m)
	indices := make([]int, 0, m)
	for len(indices) < m {
		idx, err := randIntn(blockCount)
		if err != nil {
			return Challenge{}, NewError(IoFailure, "drawing challenge index", err)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	return Challenge{Nonce: nb[0], Indices: indices}, nil
}

func randIntn(n int) (int, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(buf[i])
	}
	return int(v % uint64(n)), nil
}

// FirstResponse is the prover's salted-hash commitment over the challenged
// sealed blocks, sent before any of the actual block contents.
type FirstResponse struct {
	Hp [32]byte
}

// SecondResponse carries everything the verifier needs to check a single
// round: the raw sealed bytes of every challenged block, the chaining id of
// each challenged block's predecessor, the long-range dependency blocks
// each challenge needs, and a Merkle proof per challenge against the sealed
// root. The bundle is CBOR-encoded for transport (a structured
// heterogeneous payload, not a flat byte blob).
type SecondResponse struct {
	Blocks    [][]byte         // sealed bytes of each challenged block, same order as Challenge.Indices
	PrevIDs   [][]byte         // id_{ci-1}, nil for a challenge at block 0
	DepBlocks []map[int][]byte // long-range dependency blocks per challenge, keyed by block index
	Proofs    []CommitmentProof
}

// CommitmentProof mirrors pkg/merkle.CommitmentProof in a form cbor can
// round-trip without depending on pkg/merkle's fixed-size array fields
// directly in the wire struct.
type CommitmentProof struct {
	Siblings [][]byte
	OnRight  []bool
}

// Marshal encodes r as CBOR.
func (r *SecondResponse) Marshal() ([]byte, error) {
	b, err := cbor.Marshal(r)
	if err != nil {
		return nil, NewError(IoFailure, "encoding second response", err)
	}
	return b, nil
}

// UnmarshalSecondResponse decodes a CBOR-encoded SecondResponse.
func UnmarshalSecondResponse(b []byte) (*SecondResponse, error) {
	var r SecondResponse
	if err := cbor.Unmarshal(b, &r); err != nil {
		return nil, NewError(IoFailure, "decoding second response", err)
	}
	return &r, nil
}
