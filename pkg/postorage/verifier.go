package postorage

import (
	"bytes"
	"crypto/sha256"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/muridata/postorage/config"
	"github.com/muridata/postorage/pkg/merkle"
	"github.com/muridata/postorage/pkg/seal"
)

// Verifier checks a prover's per-round responses against the origin data it
// holds (or held, pre-seal) and the sealed root the prover published at
// commit time.
type Verifier struct {
	Params config.Params
	IV     []byte

	Origin     []byte
	originTree *merkle.CommitmentTree
	SealedRoot [32]byte

	// ParallelNum bounds the worker pool used to spot-check challenged
	// blocks concurrently. Zero means unbounded.
	ParallelNum int
}

// NewVerifier builds the origin Merkle tree (R_o) from origin and records
// the sealed root the prover published (R_s).
func NewVerifier(origin []byte, sealedRoot [32]byte, p config.Params, iv []byte) *Verifier {
	n := p.BlockCount()
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blocks[i] = origin[i*p.BlockLen() : (i+1)*p.BlockLen()]
	}
	return &Verifier{
		Params:      p,
		IV:          iv,
		Origin:      origin,
		originTree:  merkle.BuildCommitmentTree(blocks),
		SealedRoot:  sealedRoot,
		ParallelNum: 8,
	}
}

// OriginRoot returns R_o.
func (v *Verifier) OriginRoot() [32]byte {
	return v.originTree.RootHash()
}

// VerifyRound checks a complete round: the salted-hash commitment, the
// Merkle proofs against R_s, and a parallel single-block-unseal spot-check
// against the origin bytes.
func (v *Verifier) VerifyRound(c Challenge, first FirstResponse, second *SecondResponse) error {
	if len(second.Blocks) != len(c.Indices) {
		return NewError(InvalidParameters, "second response length mismatch", nil)
	}

	if err := v.verifySaltedHash(c, first, second); err != nil {
		return err
	}
	if err := v.verifyMerkleProofs(c, second); err != nil {
		return err
	}
	return v.verifySpotCheck(c, second)
}

func (v *Verifier) verifySaltedHash(c Challenge, first FirstResponse, second *SecondResponse) error {
	h := blake3.New()
	h.Write([]byte{c.Nonce})
	for _, b := range second.Blocks {
		h.Write(b)
	}
	var got [32]byte
	copy(got[:], h.Sum(nil))
	if got != first.Hp {
		return NewError(IntegrityFailure, "salted hash mismatch", nil)
	}
	return nil
}

func (v *Verifier) verifyMerkleProofs(c Challenge, second *SecondResponse) error {
	for n, i := range c.Indices {
		leaf := sha256.Sum256(second.Blocks[n])
		proof := fromWireProof(second.Proofs[n])
		if !merkle.VerifyCommitmentProof(leaf, proof, v.SealedRoot) {
			return NewError(IntegrityFailure, "merkle proof failed for block", nil).withIndex(i)
		}
	}
	return nil
}

// withIndex annotates the error message with a challenge index, for
// log-friendly diagnostics without changing the Kind taxonomy.
func (e *Error) withIndex(i int) *Error {
	e.Msg = e.Msg + ": index " + strconv.Itoa(i)
	return e
}

func (v *Verifier) verifySpotCheck(c Challenge, second *SecondResponse) error {
	g := new(errgroup.Group)
	if v.ParallelNum > 0 {
		g.SetLimit(v.ParallelNum)
	}

	for n, i := range c.Indices {
		n, i := n, i
		g.Go(func() error {
			plain, err := seal.UnsealSingleBlock(second.Blocks[n], second.DepBlocks[n], second.PrevIDs[n], v.IV, v.Params, i)
			if err != nil {
				return NewError(ChallengeFailure, "single-block unseal failed", err).withIndex(i)
			}
			want := v.Origin[i*v.Params.BlockLen() : (i+1)*v.Params.BlockLen()]
			if !bytes.Equal(plain, want) {
				return NewError(ChallengeFailure, "recovered plaintext does not match origin", nil).withIndex(i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Int("challenges", len(c.Indices)).Msg("postorage: spot-check round passed")
	return nil
}

// AuditFull fully unseals sealed and checks that its Merkle root matches
// R_o, the strongest (and most expensive) check the verifier can run,
// intended for large-interval periodic audits rather than every round.
func (v *Verifier) AuditFull(sealed []byte) error {
	recovered, err := seal.Unseal(sealed, v.IV, v.Params)
	if err != nil {
		return NewError(IoFailure, "full unseal failed", err)
	}
	if !bytes.Equal(recovered, v.Origin) {
		return NewError(IntegrityFailure, "full unseal does not match retained origin", nil)
	}

	n := v.Params.BlockCount()
	blocks := make([][]byte, n)
	for i := 0; i < n; i++ {
		blocks[i] = recovered[i*v.Params.BlockLen() : (i+1)*v.Params.BlockLen()]
	}
	root := merkle.BuildCommitmentTree(blocks).RootHash()
	if root != v.OriginRoot() {
		return NewError(IntegrityFailure, "recomputed root does not match R_o", nil)
	}
	return nil
}
