package neat

// Environment is the task a genome is evaluated against. Each genome in a
// population drives its own Environment instance, so implementations need no
// locking, but they must not share mutable state between instances.
type Environment interface {
	// Reset returns a fresh episode.
	Reset() Environment
	// Sense returns the network input. Its length must equal num_inputs.
	Sense() []float64
	// Step advances one tick using the network's output vector.
	Step(decision []float64)
	// IsTerminal reports whether the episode has ended.
	IsTerminal() bool
	// Fitness scores the episode. Only meaningful once terminal.
	Fitness() float64
}
