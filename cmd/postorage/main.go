// Command postorage is the thin driver over the storage/space engine: it
// seals files, answers and verifies challenge rounds, builds proof-of-space
// tables, and runs the SNARK setup for the proof-of-space circuit.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/muridata/postorage/circuits/pos"
	"github.com/muridata/postorage/config"
	"github.com/muridata/postorage/pkg/crypto"
	"github.com/muridata/postorage/pkg/field"
	"github.com/muridata/postorage/pkg/mimc"
	"github.com/muridata/postorage/pkg/pospace"
	"github.com/muridata/postorage/pkg/postorage"
	"github.com/muridata/postorage/pkg/setup"
)

func main() {
	setupLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(os.Args[2:])
	case "storage":
		err = runStorage(os.Args[2:])
	case "space":
		err = runSpace(os.Args[2:])
	case "setup":
		err = runSetup(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogger() {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr()})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
}

func printUsage() {
	fmt.Println(`Usage:
  postorage keygen  -params FILE -bits N            Generate a Sloth modulus + IV parameter record
  postorage storage -params FILE [-rounds N]        Seal a random origin and run challenge rounds
  postorage space   -n N [-challenges C]            Build a proof-of-space table and prove a response
  postorage setup   dev|ceremony ...                Run the proof-of-space circuit key setup

Setup subcommands:
  setup dev                      Single-party setup (insecure, development only)
  setup ceremony p1-init         Initialize Phase 1 (Powers of Tau)
  setup ceremony p1-contribute   Add a Phase 1 contribution
  setup ceremony p1-verify HEX   Verify Phase 1 & seal with a random beacon
  setup ceremony p2-init         Initialize Phase 2 (circuit-specific)
  setup ceremony p2-contribute   Add a Phase 2 contribution
  setup ceremony p2-verify HEX   Verify Phase 2, seal & export keys`)
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	paramsPath := fs.String("params", "params.json", "output path for the parameter record")
	bits := fs.Int("bits", 512, "Sloth modulus bit width (padded unit width in bits)")
	fs.Parse(args)

	prime, err := field.GeneratePrime(*bits)
	if err != nil {
		return err
	}
	iv, err := crypto.GenerateIV()
	if err != nil {
		return err
	}
	rec, err := crypto.NewParamRecord(prime, iv)
	if err != nil {
		return err
	}
	if err := rec.Save(*paramsPath); err != nil {
		return err
	}
	log.Info().Str("path", *paramsPath).Int("bits", *bits).Msg("wrote parameter record")
	return nil
}

// runStorage exercises the full pipeline end to end: seal a random origin,
// publish the sealed root, then play both sides of the challenge-response
// protocol for the requested number of rounds.
func runStorage(args []string) error {
	fs := flag.NewFlagSet("storage", flag.ExitOnError)
	paramsPath := fs.String("params", "params.json", "parameter record path")
	rounds := fs.Int("rounds", 3, "challenge rounds to run")
	fs.Parse(args)

	rec, err := crypto.LoadParamRecord(*paramsPath)
	if err != nil {
		return err
	}
	prime, err := rec.Prime()
	if err != nil {
		return err
	}

	p := config.DefaultParams()
	p.Prime = prime
	if got, want := prime.BitLen(), p.PrimeBits(); got != want {
		return fmt.Errorf("parameter record modulus is %d bits, want %d", got, want)
	}

	origin := make([]byte, p.DataLen)
	if _, err := rand.Read(origin); err != nil {
		return err
	}

	prover, err := postorage.NewProver(origin, rec.IV, p)
	if err != nil {
		return err
	}
	verifier := postorage.NewVerifier(origin, prover.SealedRoot(), p, rec.IV)

	for r := 0; r < *rounds; r++ {
		c, err := postorage.NewChallenge(p.BlockCount(), p.LeavesToProveCount)
		if err != nil {
			return err
		}
		first, err := prover.RespondFirst(c)
		if err != nil {
			return err
		}
		second, err := prover.RespondSecond(c)
		if err != nil {
			return err
		}
		if err := verifier.VerifyRound(c, first, second); err != nil {
			return err
		}
		log.Info().Int("round", r).Int("challenges", len(c.Indices)).Msg("round verified")
	}
	return nil
}

// runSpace builds a table, answers a challenge batch, checks the response on
// the host, and proves it with the combined circuit.
func runSpace(args []string) error {
	fs := flag.NewFlagSet("space", flag.ExitOnError)
	n := fs.Int("n", 10, "table bit width (2^n rows)")
	challenges := fs.Int("challenges", 64, "challenge count to draw")
	keyDir := fs.String("keydir", ".", "directory for circuit keys")
	fs.Parse(args)

	key, err := crypto.GenerateSpaceKey()
	if err != nil {
		return err
	}
	m, err := crypto.GenerateSpaceKey()
	if err != nil {
		return err
	}
	dfConstants := mimc.StandardConstants(config.MiMCDFRounds, "pospace-df-v1")
	aggConstants := mimc.StandardConstants(config.MiMCHashRounds, "pospace-agg-v1")

	table, err := pospace.PrepareSpace(*n)
	if err != nil {
		return err
	}
	log.Info().Int("n", *n).Msg("marking space")
	table.MarkSpace(key, m, dfConstants)
	stats := table.Stats()
	log.Info().Uint64("occupied", stats.Occupied).Float64("load", stats.LoadFactor).Msg("table marked")

	c, err := pospace.NewChallenge(*n, *challenges)
	if err != nil {
		return err
	}
	resp, err := table.Respond(c, pos.ChallengeCount, key, aggConstants)
	if err != nil {
		return err
	}
	if err := pospace.VerifyResponse(*n, resp, key, m, dfConstants, aggConstants); err != nil {
		return err
	}

	assignment, err := pos.PrepareWitness(key, m, resp, dfConstants, aggConstants, *n)
	if err != nil {
		return err
	}
	if err := pos.DevProveAndVerify(assignment, *keyDir); err != nil {
		return err
	}
	log.Info().Msg("proof verified")
	return nil
}

func runSetup(args []string) error {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	dfConstants := mimc.StandardConstants(config.MiMCDFRounds, "pospace-df-v1")
	aggConstants := mimc.StandardConstants(config.MiMCHashRounds, "pospace-agg-v1")
	circuit := &pos.PosDemo{DFConstants: dfConstants, AggConstants: aggConstants, N: 10}

	switch args[0] {
	case "dev":
		return setup.DevSetup(circuit, ".", "pos")
	case "ceremony":
		if len(args) < 2 {
			printUsage()
			os.Exit(1)
		}
		switch args[1] {
		case "p1-init":
			return setup.CeremonyP1Init(circuit)
		case "p1-contribute":
			return setup.CeremonyP1Contribute()
		case "p1-verify":
			if len(args) < 3 {
				return fmt.Errorf("usage: postorage setup ceremony p1-verify BEACON_HEX")
			}
			return setup.CeremonyP1Verify(circuit, args[2])
		case "p2-init":
			return setup.CeremonyP2Init(circuit)
		case "p2-contribute":
			return setup.CeremonyP2Contribute()
		case "p2-verify":
			if len(args) < 3 {
				return fmt.Errorf("usage: postorage setup ceremony p2-verify BEACON_HEX")
			}
			return setup.CeremonyP2Verify(circuit, args[2], ".", "pos")
		}
	}
	printUsage()
	os.Exit(1)
	return nil
}
