// Package snake is a grid snake game usable as a neat.Environment.
//
// The network sees the board along eight rays from the snake's head and
// picks one of four headings. Fitness is the square of the apples eaten.
package snake

import (
	"math"
	"math/rand"

	"github.com/baldhumanity/neat-snake/neat"
)

const (
	// NumInputs is the length of the Sense vector: three readings per ray.
	NumInputs = 3 * len(directions)
	// NumOutputs is the length of the decision vector: up, right, down, left.
	NumOutputs = len(headings)
)

type cell int

const (
	empty cell = iota
	body
	apple
)

type vec struct{ X, Y int }

func (v vec) add(o vec) vec { return vec{v.X + o.X, v.Y + o.Y} }

// directions are the vision rays: N, NE, E, SE, S, SW, W, NW.
var directions = [...]vec{
	{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}

// headings maps decision indices to moves.
var headings = [...]vec{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
}

// Level holds one episode: the grid, the snake, the apple and the score.
type Level struct {
	width, height int
	grid          [][]cell
	head          vec
	segments      []vec // tail first, head last
	heading       vec
	apple         vec
	dead          bool
	score         int
	sinceApple    int
	rng           *rand.Rand
}

var _ neat.Environment = (*Level)(nil)

// NewLevel creates a width x height level. The seed drives apple placement,
// the start position and the seeds of every level derived through Reset.
func NewLevel(width, height int, seed int64) *Level {
	l := &Level{
		width:  width,
		height: height,
		rng:    rand.New(rand.NewSource(seed)),
	}
	l.grid = make([][]cell, width)
	for x := range l.grid {
		l.grid[x] = make([]cell, height)
	}

	// At least one cell away from the low edges, heading +x.
	l.head = vec{l.rng.Intn(width-1) + 1, l.rng.Intn(height-1) + 1}
	l.segments = []vec{l.head}
	l.heading = vec{1, 0}
	l.set(l.head, body)
	l.placeApple()
	return l
}

// Reset returns a fresh level of the same size with its own random stream.
func (l *Level) Reset() neat.Environment {
	return NewLevel(l.width, l.height, l.rng.Int63())
}

// Score is the number of apples eaten.
func (l *Level) Score() int { return l.score }

// Length is the number of cells the snake occupies.
func (l *Level) Length() int { return len(l.segments) }

// IsTerminal reports whether the snake has died.
func (l *Level) IsTerminal() bool { return l.dead }

// Fitness is the squared score.
func (l *Level) Fitness() float64 {
	return float64(l.score * l.score)
}

// Step turns the snake towards the strongest output and moves it one cell.
func (l *Level) Step(decision []float64) {
	if l.dead {
		return
	}
	if i := neat.ArgMax(decision); i >= 0 && i < len(headings) {
		l.heading = headings[i]
	}
	l.advance()
}

func (l *Level) advance() {
	next := l.head.add(l.heading)
	if !l.inBounds(next) || l.hitsTail(next) {
		l.dead = true
		return
	}
	l.head = next
	if l.sinceApple > allowedMoves(len(l.segments)) {
		l.dead = true
		return
	}

	if next == l.apple {
		l.segments = append(l.segments, next)
		l.set(next, body)
		l.score++
		l.sinceApple = 0
		l.placeApple()
	} else {
		tail := l.segments[0]
		l.set(tail, empty)
		l.segments = append(l.segments[1:], next)
		l.set(next, body)
	}
	l.sinceApple++
}

// allowedMoves is how long a snake of the given length may go without eating.
func allowedMoves(length int) int {
	return int(200*(math.Log(float64(length))/math.Log(3)) + 300)
}

// hitsTail reports whether v is occupied by the snake's body.
func (l *Level) hitsTail(v vec) bool {
	return l.grid[v.X][v.Y] == body
}

func (l *Level) placeApple() {
	free := l.width*l.height - len(l.segments)
	if free <= 0 {
		l.dead = true
		return
	}
	target := l.rng.Intn(free)
	for x := 0; x < l.width; x++ {
		for y := 0; y < l.height; y++ {
			if l.grid[x][y] != empty {
				continue
			}
			if target == 0 {
				l.apple = vec{x, y}
				l.set(l.apple, apple)
				return
			}
			target--
		}
	}
}

// Sense looks along each ray and reports, per ray, 1/distance to the first
// body cell, 1 if an apple lies on the ray, and 1/distance to the wall.
func (l *Level) Sense() []float64 {
	inputs := make([]float64, 0, NumInputs)
	for _, dir := range directions {
		inputs = append(inputs, l.look(dir)...)
	}
	return inputs
}

func (l *Level) look(dir vec) []float64 {
	var seenBody, seenApple float64
	pos := l.head
	distance := 1
	for {
		pos = pos.add(dir)
		if !l.inBounds(pos) {
			break
		}
		switch l.grid[pos.X][pos.Y] {
		case body:
			if seenBody == 0 {
				seenBody = 1 / float64(distance)
			}
		case apple:
			seenApple = 1
		}
		distance++
	}
	return []float64{seenBody, seenApple, 1 / float64(distance)}
}

func (l *Level) inBounds(v vec) bool {
	return v.X >= 0 && v.X < l.width && v.Y >= 0 && v.Y < l.height
}

func (l *Level) set(v vec, c cell) {
	l.grid[v.X][v.Y] = c
}
