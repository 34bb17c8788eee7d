package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/devika/graphchat/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		orgs          = flag.Int("orgs", cfg.NumOrganizations, "number of organizations to generate")
		people        = flag.Int("people", cfg.NumPeople, "number of people to generate")
		documents     = flag.Int("documents", cfg.NumDocuments, "number of prose documents to generate")
		aliasChance   = flag.Float64("alias-chance", cfg.AliasChance, "probability an organization carries a short alias")
		acquireChance = flag.Float64("acquire-chance", cfg.AcquireChance, "probability an organization acquired another")
		partnerChance = flag.Float64("partner-chance", cfg.PartnerChance, "probability an organization has a partner")
		seed          = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir     = flag.String("output-dir", "data", "directory to write entities.json, relationships.json, and chunks.json")
		writeStdout   = flag.Bool("stdout", false, "write combined dataset to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumOrganizations: *orgs,
		NumPeople:        *people,
		NumDocuments:     *documents,
		AliasChance:      clampProbability(*aliasChance),
		AcquireChance:    clampProbability(*acquireChance),
		PartnerChance:    clampProbability(*partnerChance),
		Seed:             *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d entities, %d relationships, and %d chunks into %s\n",
		len(dataset.Entities), len(dataset.Relationships), len(dataset.Chunks), *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
