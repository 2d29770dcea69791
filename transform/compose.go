// Public domain.

package transform

import "fmt"

// Pipeline applies transforms in sequence: the output of each step
// feeds the next.
type Pipeline struct {
	Name  string
	Steps []Transform
}

// Compose chains transforms serially.
func Compose(steps ...Transform) Pipeline {
	return Pipeline{Steps: steps}
}

func (p Pipeline) NIn() int  { return p.Steps[0].NIn() }
func (p Pipeline) NOut() int { return p.Steps[len(p.Steps)-1].NOut() }

func (p Pipeline) Eval(in []float64) ([]float64, error) {
	out := in
	for i, step := range p.Steps {
		var err error
		out, err = step.Eval(out)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i, err)
		}
	}
	return out, nil
}

// Inverse returns the reversed pipeline of step inverses.
func (p Pipeline) Inverse() (Transform, error) {
	inv := make([]Transform, len(p.Steps))
	for i, step := range p.Steps {
		si, err := step.Inverse()
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i, err)
		}
		inv[len(p.Steps)-1-i] = si
	}
	return Pipeline{Steps: inv}, nil
}

// Parallel applies transforms side by side: the input vector is split
// across the parts by arity and the outputs concatenated.
type Parallel struct {
	Name  string
	Parts []Transform
}

// Join runs transforms in parallel on disjoint slices of the input.
func Join(parts ...Transform) Parallel {
	return Parallel{Parts: parts}
}

func (p Parallel) NIn() int {
	n := 0
	for _, part := range p.Parts {
		n += part.NIn()
	}
	return n
}

func (p Parallel) NOut() int {
	n := 0
	for _, part := range p.Parts {
		n += part.NOut()
	}
	return n
}

func (p Parallel) Eval(in []float64) ([]float64, error) {
	if err := checkIn(p, in); err != nil {
		return nil, err
	}
	var out []float64
	at := 0
	for i, part := range p.Parts {
		o, err := part.Eval(in[at : at+part.NIn()])
		if err != nil {
			return nil, fmt.Errorf("parallel part %d: %w", i, err)
		}
		out = append(out, o...)
		at += part.NIn()
	}
	return out, nil
}

// Inverse returns the parallel join of part inverses.
func (p Parallel) Inverse() (Transform, error) {
	inv := make([]Transform, len(p.Parts))
	for i, part := range p.Parts {
		pi, err := part.Inverse()
		if err != nil {
			return nil, fmt.Errorf("parallel part %d: %w", i, err)
		}
		inv[i] = pi
	}
	return Parallel{Parts: inv}, nil
}
