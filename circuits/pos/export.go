package pos

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"

	"github.com/muridata/postorage/pkg/postorage"
	"github.com/muridata/postorage/pkg/setup"
)

// DevProveAndVerify compiles PosDemo, runs a single-party (non-production)
// Groth16 setup in outputDir, proves assignment, and verifies the
// resulting proof. Synthesis, proving, and verification failures carry the
// ProofFailure kind so callers can tell a rejected proof from an
// infrastructure error.
func DevProveAndVerify(assignment *PosDemo, outputDir string) error {
	template := &PosDemo{
		DFConstants:  assignment.DFConstants,
		AggConstants: assignment.AggConstants,
		N:            assignment.N,
	}

	ccs, err := setup.CompileCircuit(template)
	if err != nil {
		return postorage.NewError(postorage.ProofFailure, "compiling circuit", err)
	}

	if err := setup.DevSetup(template, outputDir, "pos"); err != nil {
		return fmt.Errorf("dev setup: %w", err)
	}

	pk, vk, err := setup.LoadKeys(outputDir, "pos")
	if err != nil {
		return postorage.NewError(postorage.IoFailure, "loading keys", err)
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return postorage.NewError(postorage.ProofFailure, "building witness", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return postorage.NewError(postorage.ProofFailure, "extracting public witness", err)
	}

	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return postorage.NewError(postorage.ProofFailure, "proving", err)
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return postorage.NewError(postorage.ProofFailure, "verifying proof", err)
	}
	return nil
}
