package neat

import "math"

// SteepenedSigmoid returns 1 / (1 + exp(-k*x)).
func SteepenedSigmoid(k float64) func(float64) float64 {
	return func(x float64) float64 {
		return 1.0 / (1.0 + math.Exp(-k*x))
	}
}
