package neat

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every configuration validation failure.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvariantViolation marks gene bookkeeping corruption. A run cannot
	// continue once it has been reported.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInputSize is returned when a sense vector does not match the input count.
	ErrInputSize = errors.New("input size mismatch")
)

// configError builds an error wrapping ErrConfiguration.
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// InvariantError carries the context of an invariant violation.
// It matches ErrInvariantViolation under errors.Is.
type InvariantError struct {
	Op         string
	Generation int
	GenomeKey  int
	SpeciesID  int
	Gene       ConnectionGene
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: gene %s not registered (generation %d, genome %d, species %d)",
		ErrInvariantViolation, e.Op, e.Gene, e.Generation, e.GenomeKey, e.SpeciesID)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// withGenome records the genome an InvariantError was raised for, unless a
// genome has already been recorded. Other errors pass through unchanged.
func withGenome(err error, g *Genome) error {
	var ie *InvariantError
	if errors.As(err, &ie) && ie.GenomeKey == 0 {
		ie.GenomeKey = g.Key
		ie.SpeciesID = g.SpeciesID
	}
	return err
}

// atGeneration records the generation an InvariantError was raised in.
func atGeneration(err error, generation int) error {
	var ie *InvariantError
	if errors.As(err, &ie) {
		ie.Generation = generation
	}
	return err
}
