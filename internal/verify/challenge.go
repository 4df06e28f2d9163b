package verify

import (
	"fmt"
	"math/rand/v2"
)

// Problem is a two-operand arithmetic challenge whose answer is always a
// single digit, so it can be answered with one digit reaction.
type Problem struct {
	A      int
	B      int
	Op     byte
	Answer int
}

// Question renders the problem for the member.
func (p Problem) Question() string {
	return fmt.Sprintf("%d %c %d", p.A, p.Op, p.B)
}

var operators = []byte{'+', '-', '*'}

// NewProblem generates a random problem with an answer in 0..9.
func NewProblem(rng *rand.Rand) Problem {
	for {
		a := rng.IntN(10)
		b := rng.IntN(10)
		op := operators[rng.IntN(len(operators))]

		var answer int
		switch op {
		case '+':
			answer = a + b
		case '-':
			answer = a - b
		case '*':
			answer = a * b
		}

		if answer < 0 || answer > 9 {
			continue
		}
		return Problem{A: a, B: b, Op: op, Answer: answer}
	}
}
