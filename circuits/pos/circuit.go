package pos

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// EqualDemo proves that X1 is the low N bits of X2: witness the full
// bit decomposition of X2, enforce each bit is boolean, and enforce both
// the full-value and short-prefix weighted sums.
type EqualDemo struct {
	X2 frontend.Variable `gnark:",public"`
	X1 frontend.Variable `gnark:",public"`

	Bits [BitWidth]frontend.Variable `gnark:"bits"`

	// N is the short-prefix bit width; a compile-time parameter, not part
	// of the witness.
	N int
}

func (c *EqualDemo) Define(api frontend.API) error {
	var full frontend.Variable = 0
	var short frontend.Variable = 0
	for i := 0; i < BitWidth; i++ {
		api.AssertIsBoolean(c.Bits[i])
		weight := new(big.Int).Lsh(big.NewInt(1), uint(i))
		full = api.Add(full, api.Mul(c.Bits[i], weight))
		if i < c.N {
			short = api.Add(short, api.Mul(c.Bits[i], weight))
		}
	}
	api.AssertIsEqual(full, c.X2)
	api.AssertIsEqual(short, c.X1)
	return nil
}

// PowDemo proves knowledge of a private base G and exponent bits such that
// Y = G^exp, via a 20-round square-and-multiply ladder.
type PowDemo struct {
	Y frontend.Variable `gnark:",public"`

	G    frontend.Variable            `gnark:"g"`
	Bits [PowRounds]frontend.Variable `gnark:"bits"`
}

func (c *PowDemo) Define(api frontend.API) error {
	acc := frontend.Variable(1)
	g := c.G
	for i := 0; i < PowRounds; i++ {
		api.AssertIsBoolean(c.Bits[i])
		multiplied := api.Mul(acc, g)
		acc = api.Select(c.Bits[i], multiplied, acc)
		g = api.Mul(g, g)
	}
	api.AssertIsEqual(acc, c.Y)
	return nil
}

// mimcDFRound applies one MiMC5-Feistel round in-circuit, mirroring
// pkg/mimc.DFRound exactly: t1 = (xL+c)^2, t2 = t1^2,
// xL' = (xL+c)*t2 + xR, xR' = xL.
func mimcDFRound(api frontend.API, xL, xR frontend.Variable, c *big.Int) (frontend.Variable, frontend.Variable) {
	sum := api.Add(xL, c)
	t1 := api.Mul(sum, sum)
	t2 := api.Mul(t1, t1)
	xLNext := api.Add(api.Mul(sum, t2), xR)
	return xLNext, xL
}

// mimcDF runs len(constants) MiMC5-Feistel rounds starting from (xL, xR)
// and returns the final xL half, mirroring pkg/mimc.DF.
func mimcDF(api frontend.API, xL, xR frontend.Variable, constants []*big.Int) frontend.Variable {
	l, r := xL, xR
	for _, c := range constants {
		l, r = mimcDFRound(api, l, r, c)
	}
	return l
}

// MiMC5DFDemo proves XLOut is the output of len(Constants) MiMC5-Feistel
// rounds (MiMCDFRounds in deployment) starting from the private pair
// (XL, XR).
type MiMC5DFDemo struct {
	XLOut frontend.Variable `gnark:",public"`

	XL frontend.Variable `gnark:"xl"`
	XR frontend.Variable `gnark:"xr"`

	// Constants holds one round constant per unrolled round; compile-time
	// parameter, not part of the witness (the same fixed constants every
	// prover and verifier uses).
	Constants []*big.Int
}

func (c *MiMC5DFDemo) Define(api frontend.API) error {
	api.AssertIsEqual(mimcDF(api, c.XL, c.XR, c.Constants), c.XLOut)
	return nil
}

// AggHashDemo proves XHash is the Merkle-Damgård aggregation of Xs under
// Key, mirroring pkg/mimc.Agg: acc' = DF(acc, x_i, constants), starting
// from acc = Key.
type AggHashDemo struct {
	XHash frontend.Variable `gnark:",public"`

	Key frontend.Variable                 `gnark:"key"`
	Xs  [ChallengeCount]frontend.Variable `gnark:"xs"`

	Constants []*big.Int
}

func (c *AggHashDemo) Define(api frontend.API) error {
	acc := c.Key
	for i := 0; i < ChallengeCount; i++ {
		acc = mimcDF(api, acc, c.Xs[i], c.Constants)
	}
	api.AssertIsEqual(acc, c.XHash)
	return nil
}

// PosDemo is the combined proof-of-space circuit: for each
// challenged (c_i, x_i) it recomputes y_i = MiMC5_DF(key+x_i, m), enforces
// the low N bits of y_i equal the claimed challenge c_i, and folds all x_i
// through the aggregation hash to enforce the result equals XHash. Public
// inputs are allocated in the order key, m, c_1..c_k, x_hash.
type PosDemo struct {
	Key   frontend.Variable                 `gnark:",public"`
	M     frontend.Variable                 `gnark:",public"`
	Cs    [ChallengeCount]frontend.Variable `gnark:",public"`
	XHash frontend.Variable                 `gnark:",public"`

	Xs [ChallengeCount]frontend.Variable `gnark:"xs"`

	// DFConstants / AggConstants / N are compile-time parameters (the
	// deployment's fixed MiMC round constants and challenge bit width),
	// not part of the witness.
	DFConstants  []*big.Int
	AggConstants []*big.Int
	N            int
}

func (c *PosDemo) Define(api frontend.API) error {
	acc := c.Key
	for i := 0; i < ChallengeCount; i++ {
		xl := api.Add(c.Key, c.Xs[i])
		y := mimcDF(api, xl, c.M, c.DFConstants)

		bits := api.ToBinary(y, api.Compiler().FieldBitLen())
		var low frontend.Variable = 0
		for b := 0; b < c.N; b++ {
			weight := new(big.Int).Lsh(big.NewInt(1), uint(b))
			low = api.Add(low, api.Mul(bits[b], weight))
		}
		api.AssertIsEqual(low, c.Cs[i])

		acc = mimcDF(api, acc, c.Xs[i], c.AggConstants)
	}
	api.AssertIsEqual(acc, c.XHash)
	return nil
}
