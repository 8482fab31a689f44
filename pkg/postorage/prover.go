package postorage

import (
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/muridata/postorage/config"
	"github.com/muridata/postorage/pkg/merkle"
	"github.com/muridata/postorage/pkg/seal"
)

// Prover holds everything a prover needs to answer repeated challenges
// after a one-time seal: the sealed blocks, the per-block chaining ids, and
// the sealed Merkle tree whose root was already published to the verifier.
type Prover struct {
	Params config.Params
	IV     []byte

	sealedBlocks [][]byte
	ids          [][]byte
	sealedTree   *merkle.CommitmentTree
}

// NewProver seals origin and builds the sealed Merkle commitment tree.
func NewProver(origin, iv []byte, p config.Params) (*Prover, error) {
	sealed, ids, err := seal.Seal(origin, iv, p)
	if err != nil {
		return nil, NewError(IoFailure, "sealing origin", err)
	}

	stride := p.BlockPadLen()
	n := p.BlockCount()
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blocks[i] = sealed[i*stride : (i+1)*stride]
	}

	log.Info().Int("blocks", n).Msg("postorage: sealed origin")

	return &Prover{
		Params:       p,
		IV:           iv,
		sealedBlocks: blocks,
		ids:          ids,
		sealedTree:   merkle.BuildCommitmentTree(blocks),
	}, nil
}

// SealedRoot returns R_s, the published commitment to the sealed data.
func (pr *Prover) SealedRoot() [32]byte {
	return pr.sealedTree.RootHash()
}

// RespondFirst computes H_p = BLAKE3(nonce || sealed bytes of every
// challenged block, in challenge order).
func (pr *Prover) RespondFirst(c Challenge) (FirstResponse, error) {
	h := blake3.New()
	h.Write([]byte{c.Nonce})
	for _, i := range c.Indices {
		if i < 0 || i >= len(pr.sealedBlocks) {
			return FirstResponse{}, NewError(InvalidParameters, "challenge index out of range", nil)
		}
		h.Write(pr.sealedBlocks[i])
	}
	var out FirstResponse
	copy(out.Hp[:], h.Sum(nil))
	return out, nil
}

// RespondSecond assembles the full proof bundle for c: raw sealed blocks,
// predecessor chaining ids, long-range dependency blocks, and Merkle
// proofs against the sealed root. The dependency block set of challenge i
// is re-derived from id_{i-1}, exactly as the verifier will re-derive it.
func (pr *Prover) RespondSecond(c Challenge) (*SecondResponse, error) {
	resp := &SecondResponse{
		Blocks:    make([][]byte, len(c.Indices)),
		PrevIDs:   make([][]byte, len(c.Indices)),
		DepBlocks: make([]map[int][]byte, len(c.Indices)),
		Proofs:    make([]CommitmentProof, len(c.Indices)),
	}

	for n, i := range c.Indices {
		if i < 0 || i >= len(pr.sealedBlocks) {
			return nil, NewError(InvalidParameters, "challenge index out of range", nil)
		}
		resp.Blocks[n] = pr.sealedBlocks[i]

		var prevID []byte
		if i > 0 {
			prevID = pr.ids[i-1]
			resp.PrevIDs[n] = prevID
		}

		longIdx := seal.LongDepIndices(prevID, i, pr.Params)
		deps := make(map[int][]byte, len(longIdx))
		for _, k := range longIdx {
			deps[k] = pr.sealedBlocks[k]
		}
		resp.DepBlocks[n] = deps

		proof, err := pr.sealedTree.Prove(i)
		if err != nil {
			return nil, NewError(IoFailure, "building merkle proof", err)
		}
		resp.Proofs[n] = toWireProof(proof)
	}

	return resp, nil
}

func toWireProof(p merkle.CommitmentProof) CommitmentProof {
	siblings := make([][]byte, len(p.Siblings))
	for i, s := range p.Siblings {
		b := make([]byte, 32)
		copy(b, s[:])
		siblings[i] = b
	}
	return CommitmentProof{Siblings: siblings, OnRight: append([]bool(nil), p.OnRight...)}
}

func fromWireProof(p CommitmentProof) merkle.CommitmentProof {
	siblings := make([][32]byte, len(p.Siblings))
	for i, s := range p.Siblings {
		copy(siblings[i][:], s)
	}
	return merkle.CommitmentProof{Siblings: siblings, OnRight: append([]bool(nil), p.OnRight...)}
}
