// Package config holds the tunable parameters and well-known constants shared
// across the sealing, Merkle, and proof-of-space packages.
package config

import "math/big"

// Dependency mode selectors.
const (
	ModeKeyedRandom = 0 // recommended, default
	ModeLong1       = 1 // -1-2*0, -1-2*1, ...
	ModeLong2       = 2 // -1-2^0, -1-2^1, ...
	ModeShort1      = 1 // alternating -1-2*e, +1+2*e
	ModeShort2      = 2 // alternating -1-2^e, -1+2^e
)

// Sloth round counts. The source carries two different values; the larger is
// used in production, the smaller keeps tests fast.
const (
	DefaultVDERounds = 10
	TestVDERounds    = 3
)

// MiMC round counts for the proof-of-space delay function and aggregation
// hash.
const (
	MiMCDFRounds   = 322
	MiMCHashRounds = 110
)

// Params collects every knob enumerated by the external interface table.
// All lengths are in bytes unless noted otherwise.
type Params struct {
	// DataLen is the origin byte length. Must be divisible by BlockLen.
	DataLen int

	// UnitLen is the raw unit length; UnitPadLen = UnitLen + 1.
	UnitLen int
	// UnitsPerBlock is the number of units per block.
	UnitsPerBlock int

	// SealRounds is the number of full seal/unseal passes.
	SealRounds int
	// VDERounds is the number of Sloth iterations per VDE call (T).
	VDERounds int
	// VDEMode selects among VDE variants; only "sloth" is specified.
	VDEMode string

	// ModeL/CntL select the long-range dependency rule and count.
	// ModeL == ModeKeyedRandom uses the keyed-pseudorandom rule; CntL == 0
	// derives the count automatically as floor(i/10)+1.
	ModeL int
	CntL  int

	// ModeS/CntS select the short-range dependency rule and count.
	ModeS int
	CntS  int

	// LeavesToProveCount is the default challenge size for Merkle audits.
	LeavesToProveCount int

	// Prime is the Sloth VDE modulus, p ≡ 3 (mod 4), sized to cover a padded
	// unit (PrimeBits bits). Left nil by DefaultParams/TestParams; callers
	// that need a concrete modulus should generate one with
	// pkg/field.GeneratePrime(p.PrimeBits()) and assign it before sealing.
	Prime *big.Int
}

// UnitPadLen is the padded unit length.
func (p Params) UnitPadLen() int { return p.UnitLen + 1 }

// PrimeBits is the bit width a Sloth modulus must have to cover one padded
// unit.
func (p Params) PrimeBits() int { return p.UnitPadLen() * 8 }

// BlockLen is the raw block length in bytes.
func (p Params) BlockLen() int { return p.UnitLen * p.UnitsPerBlock }

// BlockPadLen is the padded (sealed) block length in bytes.
func (p Params) BlockPadLen() int { return p.UnitPadLen() * p.UnitsPerBlock }

// BlockCount is the number of blocks the origin data splits into.
func (p Params) BlockCount() int { return p.DataLen / p.BlockLen() }

// DefaultParams returns the scenario-2 configuration from the testable
// properties section: unit_l=63, units_per_block=64, seal_rounds=2, T=10,
// keyed-random dependency modes.
func DefaultParams() Params {
	return Params{
		DataLen:            63 * 64 * 16,
		UnitLen:            63,
		UnitsPerBlock:      64,
		SealRounds:         2,
		VDERounds:          DefaultVDERounds,
		VDEMode:            "sloth",
		ModeL:              ModeKeyedRandom,
		CntL:               0,
		ModeS:              ModeKeyedRandom,
		CntS:               10,
		LeavesToProveCount: 10,
	}
}

// TestParams is DefaultParams with the fast Sloth round count, for use in
// package tests that would otherwise be too slow with DefaultVDERounds.
func TestParams() Params {
	p := DefaultParams()
	p.VDERounds = TestVDERounds
	return p
}
