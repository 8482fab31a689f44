package merkle

import (
	"encoding/binary"
	"fmt"
	"io"
)

// persistVersion guards the on-disk format of a saved commitment tree.
const persistVersion uint32 = 1

// Save writes the tree's leaf hashes to w in a fixed-order binary layout:
// version, leaf count, then each 32-byte leaf hash. Internal nodes are not
// written; Load rebuilds them, since the tree is a pure function of its
// leaves.
func (t *CommitmentTree) Save(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, persistVersion); err != nil {
		return fmt.Errorf("merkle: write version: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(t.Leaves))); err != nil {
		return fmt.Errorf("merkle: write leaf count: %w", err)
	}
	for i, leaf := range t.Leaves {
		if _, err := w.Write(leaf.Hash[:]); err != nil {
			return fmt.Errorf("merkle: write leaf %d: %w", i, err)
		}
	}
	return nil
}

// Load reads a tree saved by Save and rebuilds the internal nodes from the
// stored leaf hashes.
func Load(r io.Reader) (*CommitmentTree, error) {
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("merkle: read version: %w", err)
	}
	if version != persistVersion {
		return nil, fmt.Errorf("merkle: unsupported tree version %d", version)
	}

	var count uint64
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("merkle: read leaf count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("merkle: saved tree has no leaves")
	}

	leaves := make([]*CommitmentNode, count)
	for i := range leaves {
		var h [32]byte
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return nil, fmt.Errorf("merkle: read leaf %d: %w", i, err)
		}
		leaves[i] = newCommitmentNode(h, nil, nil)
	}

	return buildFromLeaves(leaves), nil
}

// buildFromLeaves assembles the internal levels over an already-hashed,
// already-padded leaf row.
func buildFromLeaves(leaves []*CommitmentNode) *CommitmentTree {
	level := leaves
	for len(level) > 1 {
		next := make([]*CommitmentNode, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, newCommitmentNode(hashCommitmentNodes(left.Hash, right.Hash), left, right))
		}
		level = next
	}
	return &CommitmentTree{Root: level[0], Leaves: leaves}
}
