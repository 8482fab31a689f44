// Package pos synthesizes the proof-of-space circuits: a short-prefix
// bit-equality circuit, a square-and-multiply exponentiation ladder, a
// MiMC5-Feistel delay-function circuit, an aggregation-hash circuit, and a
// combined circuit tying them together over a batch of challenges.
package pos

// BitWidth is EqualDemo's full field-element decomposition width.
const BitWidth = 256

// PowRounds is PowDemo's square-and-multiply ladder length.
const PowRounds = 20

// MiMCDFRounds is the deployment's delay-function round count, equal to
// config.MiMCDFRounds. MiMC5DFDemo and PosDemo, like pkg/mimc.DF, unroll
// one round per supplied round constant rather than reading this value.
const MiMCDFRounds = 322

// ChallengeCount (k) is the number of (c_i, x_i) pairs PosDemo's combined
// circuit witnesses per proof.
const ChallengeCount = 4
