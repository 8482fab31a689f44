// Package crypto generates and persists the key material a sealing or
// proof-of-space session needs: the Sloth modulus, the 128-byte IV chained
// into block 0, and the proof-of-space secret key. It also owns the public
// parameter record that is written alongside a sealed file so other tools
// can unseal and audit it.
package crypto

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
)

// IVLen is the byte length of the random IV mixed into block 0's first unit.
const IVLen = 128

// GenerateIV draws a fresh process-random IV.
func GenerateIV() ([]byte, error) {
	iv := make([]byte, IVLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypto: generate iv: %w", err)
	}
	return iv, nil
}

// GenerateSpaceKey draws a non-zero BN254 scalar, the proof-of-space secret
// key added to each table input before the delay function.
func GenerateSpaceKey() (*big.Int, error) {
	for {
		k, err := rand.Int(rand.Reader, ecc.BN254.ScalarField())
		if err != nil {
			return nil, fmt.Errorf("crypto: generate space key: %w", err)
		}
		if k.Sign() != 0 {
			return k, nil
		}
	}
}

// ParamRecord is the public parameter record persisted next to a sealed
// file: the Sloth modulus as a decimal string and the 128-byte IV. The
// shape is fixed for cross-tool compatibility.
type ParamRecord struct {
	VDEKey string `json:"vde_key"`
	IV     []byte `json:"iv"`
}

// NewParamRecord captures prime and iv into a record.
func NewParamRecord(prime *big.Int, iv []byte) (ParamRecord, error) {
	if prime == nil {
		return ParamRecord{}, fmt.Errorf("crypto: nil prime")
	}
	if len(iv) != IVLen {
		return ParamRecord{}, fmt.Errorf("crypto: iv must be %d bytes, got %d", IVLen, len(iv))
	}
	return ParamRecord{VDEKey: prime.Text(10), IV: append([]byte(nil), iv...)}, nil
}

// Prime parses the record's vde_key back into the Sloth modulus.
func (r ParamRecord) Prime() (*big.Int, error) {
	p, ok := new(big.Int).SetString(r.VDEKey, 10)
	if !ok {
		return nil, fmt.Errorf("crypto: vde_key %q is not a decimal integer", r.VDEKey)
	}
	return p, nil
}

// Save writes the record as JSON to path.
func (r ParamRecord) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("crypto: encode param record: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("crypto: write param record: %w", err)
	}
	return nil
}

// LoadParamRecord reads a record saved by Save and validates its shape.
func LoadParamRecord(path string) (ParamRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ParamRecord{}, fmt.Errorf("crypto: read param record: %w", err)
	}
	var r ParamRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return ParamRecord{}, fmt.Errorf("crypto: decode param record: %w", err)
	}
	if len(r.IV) != IVLen {
		return ParamRecord{}, fmt.Errorf("crypto: param record iv is %d bytes, want %d", len(r.IV), IVLen)
	}
	if _, err := r.Prime(); err != nil {
		return ParamRecord{}, err
	}
	return r, nil
}
