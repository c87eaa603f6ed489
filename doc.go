// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, using historical
// innovation numbers to line up genes of genomes that grew in different directions.
// Networks may be recurrent; they are evaluated by relaxing node values to a fixed point.
//
// Genomes are evaluated against an Environment: every genome plays its own episode,
// one step per tick, and the population reproduces once every episode has ended.
//
// Basic usage:
//
//	// Load configuration
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population evaluated against your Environment
//	pop, err := neat.NewPopulation(config, myEnvironment)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run for 100 generations
//	for pop.Generation < 100 {
//		if err := pop.RunGeneration(); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//	}
//
// Or evolve until a context is cancelled:
//
//	err = pop.Run(ctx)
package neat
